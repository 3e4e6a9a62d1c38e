package dal

import (
	"context"
	"errors"
	"time"

	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

// StatusChange describes the outcome of a check-and-set status update.
type StatusChange struct {
	Previous domain.Status
	Intent   *domain.PaymentIntent
	Changed  bool
}

//go:generate mockery --name PaymentIntents --output ./mocks
type PaymentIntents interface {
	// Create stores a new intent, returning ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, pi *domain.PaymentIntent) error
	Get(ctx context.Context, id string) (*domain.PaymentIntent, error)
	GetByProcessorID(ctx context.Context, processorID string) (*domain.PaymentIntent, error)
	// ApplyStatus atomically moves the intent to status if the transition is allowed.
	// Replaying the current status is not an error and reports Changed=false.
	ApplyStatus(ctx context.Context, id string, status domain.Status, amountReceived int64) (*StatusChange, error)
}

// applyStatus is the check-and-set step shared by the backends. It mutates pi
// only when the transition is allowed.
func applyStatus(pi *domain.PaymentIntent, status domain.Status, amountReceived int64, now time.Time) (*StatusChange, error) {
	change := &StatusChange{
		Previous: pi.Status,
		Intent:   pi,
	}

	if err := domain.Transition(pi.Status, status); err != nil {
		if errors.Is(err, domain.ErrSameStatus) {
			return change, nil
		}

		return change, err
	}

	pi.Status = status
	if amountReceived > 0 {
		pi.AmountReceived = amountReceived
	}

	pi.UpdatedAt = now
	change.Changed = true

	return change, nil
}
