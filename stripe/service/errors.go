package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/stripe/stripe-go/v74"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

var (
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnhandledEvent is returned for event types that do not affect a checkout.
	ErrUnhandledEvent = domain.ErrUnhandledEvent
)

// mapStripeError classifies a Stripe API error. Authentication failures mean
// the service is misconfigured, rate limits and server side failures are
// transient, other client errors are caused by the request itself.
func mapStripeError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Upstream(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Upstream(err)
	}

	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return apperrors.Upstream(err)
	}

	switch {
	case stripeErr.HTTPStatusCode == http.StatusUnauthorized || stripeErr.HTTPStatusCode == http.StatusForbidden:
		return apperrors.Configuration(fmt.Errorf("stripe authentication: %w", err))
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
		return apperrors.Upstream(err)
	case stripeErr.Type == stripe.ErrorTypeAPI:
		return apperrors.Upstream(err)
	case stripeErr.Msg != "":
		return apperrors.Validation(stripeErr.Msg)
	default:
		return apperrors.Validation(err.Error())
	}
}
