package mid

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
	"github.com/doitintl/hello/offset-checkout/logger"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
func Errors() web.Middleware {
	f := func(before web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			v, ok := internal.DataFromContext(ctx)
			if !ok {
				return web.NewShutdownError("web value missing from context")
			}

			log := logger.FromContext(ctx)

			if err := before(ctx); err != nil {
				// If we receive the shutdown err we need to return it
				// back to the base handler to shutdown the service.
				if ok := web.IsShutdown(err); ok {
					log.Errorf("%s: SHUTDOWN: %v", v.TraceID, err)
					return err
				}

				reqErr := web.TranslateError(err)

				var webErr *web.Error
				if errors.As(reqErr, &webErr) && webErr.Status < http.StatusInternalServerError {
					log.Warningf("%s: request rejected (%d): %v", v.TraceID, webErr.Status, err)
				} else {
					log.Errorf("%s: ERROR: %v", v.TraceID, err)
				}

				if err := web.RespondError(ctx, reqErr); err != nil {
					return err
				}
			}

			return nil
		}

		return h
	}

	return f
}
