package internal

import (
	"time"

	"github.com/gin-gonic/gin"
)

// CtxDataKey is the gin key of the per request Data.
const CtxDataKey = "app-context"

const anonymousIdentity = "anonymous"

// Data is the state the framework keeps for each request.
type Data struct {
	TraceID    string
	StatusCode int
	Now        time.Time
	// Identity is the fingerprint of the caller's opaque identity token, empty
	// when the route does not resolve one.
	Identity string
}

// Caller returns the identity to print in logs.
func (d *Data) Caller() string {
	if d.Identity == "" {
		return anonymousIdentity
	}

	return d.Identity
}

func ContextWithData(ctx *gin.Context, data *Data) {
	ctx.Set(CtxDataKey, data)
}

// DataFromContext returns the Data set by the App for this request.
func DataFromContext(ctx *gin.Context) (*Data, bool) {
	v, ok := ctx.Value(CtxDataKey).(*Data)
	return v, ok
}
