//go:generate mockery --output=./mocks --all
package iface

import (
	"context"

	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

// Processor is the external payment processor.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, req domain.CreateIntentRequest) (*domain.ProcessorIntent, error)
	CreateCheckoutSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.ProcessorSession, error)
	GetPaymentIntent(ctx context.Context, id string) (*domain.ProcessorIntent, error)
	GetCheckoutSession(ctx context.Context, id string) (*domain.ProcessorSession, error)
	// ParseEvent verifies the signature of a webhook payload and decodes it.
	ParseEvent(payload []byte, signature string) (*domain.PaymentEvent, error)
}
