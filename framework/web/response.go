package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/internal"
)

// SuccessResponse is the envelope of every successful API response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond wraps a Go value in the success envelope and sends it with the given status code.
func Respond(ctx *gin.Context, data interface{}, statusCode int) error {
	v, ok := internal.DataFromContext(ctx)
	if ok {
		v.StatusCode = statusCode
	}

	if statusCode == http.StatusNoContent {
		ctx.Status(statusCode)
		return nil
	}

	ctx.JSON(statusCode, SuccessResponse{
		Success: true,
		Data:    data,
	})

	return nil
}

// RespondError sends an error envelope back to the client.
// Internal details are only exposed for client errors.
func RespondError(ctx *gin.Context, err error) error {
	status := http.StatusInternalServerError

	var webErr *Error
	if errors.As(err, &webErr) {
		status = webErr.Status
	}

	errResponse := ErrorResponse{
		Success:     false,
		Error:       http.StatusText(status),
		UserMessage: apperrors.UserMessage(err),
	}

	if status < http.StatusInternalServerError {
		errResponse.Error = err.Error()
	}

	v, ok := internal.DataFromContext(ctx)
	if ok {
		v.StatusCode = status
	}

	ctx.JSON(status, errResponse)

	return nil
}
