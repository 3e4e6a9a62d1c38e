package domain

import "errors"

// ErrUnhandledEvent is returned by processors for events that carry no checkout status.
var ErrUnhandledEvent = errors.New("unhandled payment event type")

// CheckoutFlow selects how the buyer completes payment.
// It is either EmbeddedFlow or HostedFlow.
type CheckoutFlow interface {
	FlowKind() FlowKind
}

// EmbeddedFlow completes payment in-page with a client secret.
type EmbeddedFlow struct{}

func (EmbeddedFlow) FlowKind() FlowKind { return FlowEmbedded }

// HostedFlow redirects to a processor-hosted page that sends the buyer back to ReturnURL or CancelURL.
type HostedFlow struct {
	ReturnURL string `validate:"required,url"`
	CancelURL string `validate:"required,url"`
}

func (HostedFlow) FlowKind() FlowKind { return FlowHosted }

// CheckoutDescription is the normalized input of a checkout.
type CheckoutDescription struct {
	Kind           Kind              `validate:"required,oneof=purchase donation"`
	Amount         int64             `validate:"gt=0"`
	Currency       string            `validate:"required,len=3"`
	TargetID       string
	Email          string            `validate:"required,email"`
	Allocations    []Allocation      `validate:"required_if=Kind purchase,dive"`
	DonorName      string            `validate:"max=200"`
	Anonymous      bool
	Message        string            `validate:"max=500"`
	Metadata       map[string]string `validate:"max=20"`
	Flow           CheckoutFlow      `validate:"required"`
	IdempotencyKey string            `validate:"max=255"`
}

// CheckoutResult is returned to the buyer. Exactly one of ClientSecret or SessionURL is set.
type CheckoutResult struct {
	PaymentIntentID string   `json:"payment_intent_id"`
	Flow            FlowKind `json:"flow"`
	ClientSecret    string   `json:"client_secret,omitempty"`
	SessionID       string   `json:"session_id,omitempty"`
	SessionURL      string   `json:"session_url,omitempty"`
}

// CreateIntentRequest asks the processor for an embedded payment intent.
type CreateIntentRequest struct {
	Ref         string
	Amount      int64
	Currency    string
	Email       string
	Description string
	Metadata    map[string]string
}

// CreateSessionRequest asks the processor for a hosted checkout session.
type CreateSessionRequest struct {
	CreateIntentRequest
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// ProcessorIntent is the processor's view of a payment intent.
type ProcessorIntent struct {
	ID             string
	ClientSecret   string
	Amount         int64
	AmountReceived int64
	Currency       string
	Status         Status
	Metadata       map[string]string
}

// ProcessorSession is the processor's view of a hosted checkout session.
type ProcessorSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Status          Status
	Metadata        map[string]string
}

// PaymentEvent is a status observation for one checkout, from a webhook or a return URL.
type PaymentEvent struct {
	ID             string
	Type           string
	Ref            string
	ProcessorID    string
	Status         Status
	AmountCaptured int64
	Currency       string
}

const (
	MetadataCheckoutRef = "checkout_ref"
	MetadataKind        = "kind"
	MetadataTargetID    = "target_id"
	MetadataUseHosted   = "use_hosted"
)

// RefFromMetadata returns the checkout ref stored on a processor object, or fallback.
func RefFromMetadata(metadata map[string]string, fallback string) string {
	if ref := metadata[MetadataCheckoutRef]; ref != "" {
		return ref
	}

	return fallback
}
