package mid

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/framework/web"
)

func ValidatePathParamNotEmpty(paramName string) web.Middleware {
	f := func(handler web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			if paramValue := ctx.Param(paramName); paramValue == "" {
				return web.NewRequestError(errors.New("error: "+paramName+" cannot be empty"), http.StatusBadRequest)
			}

			return handler(ctx)
		}

		return h
	}

	return f
}

// RequireHeader rejects requests that do not carry the given header.
func RequireHeader(headerName string) web.Middleware {
	f := func(handler web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			if ctx.GetHeader(headerName) == "" {
				return web.NewRequestError(errors.New("error: missing "+headerName+" header"), http.StatusBadRequest)
			}

			return handler(ctx)
		}

		return h
	}

	return f
}
