package web

import (
	"errors"
	"net/http"

	"github.com/doitintl/hello/offset-checkout/apperrors"
)

// Set of error variables for returning on operations.
var (
	ErrBadRequest            = errors.New("bad request")
	ErrNotFound              = errors.New("not found")
	ErrAuthenticationFailure = errors.New("authentication failed")
	ErrForbidden             = errors.New("attempted action is not allowed")
	ErrInternalServerError   = errors.New("internal server error")
)

// ErrorResponse is the envelope used for API responses from failures in the API.
type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	UserMessage string `json:"userMessage"`
}

// Error is used to pass an error during the request through the
// application with web specific context.
type Error struct {
	Err    error
	Status int
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &Error{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (err *Error) Error() string {
	return err.Err.Error()
}

func (err *Error) Unwrap() error {
	return err.Err
}

// shutdown is a type used to help with the graceful termination of the service.
type shutdown struct {
	Message string
}

// NewShutdownError returns an error that causes the framework to signal
// a graceful shutdown.
func NewShutdownError(message string) error {
	return &shutdown{message}
}

// Error is the implementation of the error interface.
func (s *shutdown) Error() string {
	return s.Message
}

// IsShutdown checks to see if the shutdown error is contained
// in the specified error value.
func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}

// TranslateError maps service errors to request errors with the matching http status code.
// Unknown errors become 500s. This function should be used only inside handlers.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var webErr *Error
	if errors.As(err, &webErr) {
		return err
	}

	switch err {
	case ErrBadRequest:
		return NewRequestError(err, http.StatusBadRequest)
	case ErrNotFound:
		return NewRequestError(err, http.StatusNotFound)
	case ErrAuthenticationFailure:
		return NewRequestError(err, http.StatusUnauthorized)
	case ErrForbidden:
		return NewRequestError(err, http.StatusForbidden)
	}

	kind, ok := apperrors.KindOf(err)
	if !ok {
		return NewRequestError(err, http.StatusInternalServerError)
	}

	switch kind {
	case apperrors.KindValidation:
		return NewRequestError(err, http.StatusBadRequest)
	case apperrors.KindNotFound:
		return NewRequestError(err, http.StatusNotFound)
	case apperrors.KindConfiguration:
		return NewRequestError(err, http.StatusServiceUnavailable)
	case apperrors.KindUpstream:
		return NewRequestError(err, http.StatusBadGateway)
	default:
		return NewRequestError(err, http.StatusInternalServerError)
	}
}
