package mid

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
	"github.com/doitintl/hello/offset-checkout/logger"
)

const (
	healthCheckExcludePath = "/health"
)

// Logger writes the start and the outcome of every request except health checks:
// TraceID : (200) POST /v1/checkout [identity] (latency)
func Logger() web.Middleware {
	f := func(before web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			if ctx.Request.URL.Path == healthCheckExcludePath {
				return before(ctx)
			}

			v, ok := internal.DataFromContext(ctx)
			if !ok {
				return web.NewShutdownError("web value missing from context")
			}

			log := logger.FromContext(ctx)
			log.SetLabel(logger.LabelRoute, ctx.FullPath())

			log.Printf("%s: started : %s %s", v.TraceID, ctx.Request.Method, ctx.Request.URL.Path)

			err := before(ctx)

			// The identity is only known once the route middlewares ran.
			if v.Identity != "" {
				log.SetLabel(logger.LabelIdentity, v.Identity)
			}

			if err == nil && v.StatusCode >= http.StatusBadRequest {
				if lastErr := ctx.Errors.Last(); lastErr != nil {
					log.Warningf("%s: aborted: %s", v.TraceID, lastErr)
				}
			}

			log.Printf("%s: completed : (%d) %s %s [%s] (%s)",
				v.TraceID, v.StatusCode,
				ctx.Request.Method, ctx.Request.URL.Path, v.Caller(),
				time.Since(v.Now),
			)

			return err
		}

		return h
	}

	return f
}
