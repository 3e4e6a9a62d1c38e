package mid

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/errorreporting"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
)

// ReportErrors forwards errors that translate to a 5xx response to the
// reporter. Client errors are not reported.
func ReportErrors(r errorreporting.Reporter) web.Middleware {
	f := func(before web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			err := before(ctx)
			if err == nil || web.IsShutdown(err) {
				return err
			}

			var webErr *web.Error
			if errors.As(web.TranslateError(err), &webErr) && webErr.Status < http.StatusInternalServerError {
				return err
			}

			md := &errorreporting.Metadata{Req: ctx.Request}
			if v, ok := internal.DataFromContext(ctx); ok {
				md.User = v.Identity
			}

			var pe *PanicError
			if errors.As(err, &pe) {
				md.Stack = pe.Stack
			}

			r.Report(err, md)

			return err
		}

		return h
	}

	return f
}
