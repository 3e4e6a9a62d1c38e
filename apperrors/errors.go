package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller is expected to react to it.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindUpstream      Kind = "upstream"
	KindNotFound      Kind = "not_found"
)

// ErrDuplicateSuppressed marks work that was skipped because it had already been applied.
// It is never returned to HTTP callers.
var ErrDuplicateSuppressed = errors.New("duplicate suppressed")

// Error carries a Kind and a message safe to show to the end user.
type Error struct {
	Kind        Kind
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, userMessage string) *Error {
	return &Error{
		Kind:        kind,
		UserMessage: userMessage,
		Err:         err,
	}
}

// Validation reports bad input. The message is shown to the user as is.
func Validation(userMessage string) error {
	return newError(KindValidation, errors.New(userMessage), userMessage)
}

func Validationf(format string, args ...interface{}) error {
	return Validation(fmt.Sprintf(format, args...))
}

// Configuration reports a missing or broken setup, e.g. payment processor credentials.
func Configuration(err error) error {
	return newError(KindConfiguration, err, "Payments are not available at the moment. Please try again later.")
}

// Upstream reports a transient failure of a collaborator. Callers may retry verbatim.
func Upstream(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == KindUpstream {
		return err
	}

	return newError(KindUpstream, err, "A temporary error occurred. Please try again.")
}

func NotFound(what string) error {
	return newError(KindNotFound, fmt.Errorf("%s not found", what), "Not found.")
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}

	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsRetryable reports whether repeating the same call may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return Is(err, KindUpstream)
}

// UserMessage returns the message to display for err, or a generic one.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.UserMessage != "" {
		return appErr.UserMessage
	}

	return "Something went wrong. Please try again."
}
