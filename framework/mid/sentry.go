package mid

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
)

func captureSentryError(ctx *gin.Context, err error) {
	hub := sentrygin.GetHubFromContext(ctx)
	if hub == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("route", ctx.FullPath())

		if v, ok := internal.DataFromContext(ctx); ok {
			scope.SetTag("trace_id", v.TraceID)

			if v.Identity != "" {
				scope.SetUser(sentry.User{ID: v.Identity})
			}
		}

		hub.CaptureException(err)
	})
}

// Sentry captures errors that end as a 5xx response, and requests aborted
// with a client or server error status without returning one.
func Sentry() web.Middleware {
	f := func(before web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			err := before(ctx)
			if err != nil {
				var webErr *web.Error
				if !errors.As(web.TranslateError(err), &webErr) || webErr.Status >= http.StatusInternalServerError {
					captureSentryError(ctx, err)
				}

				return err
			}

			if ctx.Writer.Status() >= http.StatusBadRequest {
				if lastErr := ctx.Errors.Last(); lastErr != nil {
					captureSentryError(ctx, lastErr.Err)
				}
			}

			return nil
		}

		return h
	}

	return f
}
