package mid

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
	"github.com/doitintl/hello/offset-checkout/logger"
)

// PanicError is returned in place of a recovered panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Panics recovers from panics in the handler chain and turns them into a
// *PanicError, so they reach the client as a 500 and the stack reaches the
// error reporter.
func Panics() web.Middleware {
	f := func(after web.Handler) web.Handler {
		h := func(ctx *gin.Context) (err error) {
			v, ok := internal.DataFromContext(ctx)
			if !ok {
				return web.NewShutdownError("web value missing from context")
			}

			defer func() {
				r := recover()
				if r == nil {
					return
				}

				pe := &PanicError{Value: r, Stack: debug.Stack()}
				logger.FromContext(ctx).Errorf("%s: %s\n%s", v.TraceID, pe, pe.Stack)

				if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
					hub.WithScope(func(scope *sentry.Scope) {
						scope.SetTag("trace_id", v.TraceID)
						hub.Recover(r)
					})
					hub.Flush(5 * time.Second)
				}

				err = pe
			}()

			return after(ctx)
		}

		return h
	}

	return f
}
