package service

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

const (
	eventPaymentIntentSucceeded     = "payment_intent.succeeded"
	eventPaymentIntentProcessing    = "payment_intent.processing"
	eventPaymentIntentCanceled      = "payment_intent.canceled"
	eventPaymentIntentPaymentFailed = "payment_intent.payment_failed"

	eventCheckoutSessionCompleted             = "checkout.session.completed"
	eventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	eventCheckoutSessionAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	eventCheckoutSessionExpired               = "checkout.session.expired"
)

func (p *StripeProcessor) constructWebhookEvent(body []byte, signature string) (*stripe.Event, error) {
	sc, err := p.client()
	if err != nil {
		return nil, err
	}

	if sc.webhookSignKey == "" {
		return nil, apperrors.Configuration(fmt.Errorf("%w: missing webhook signing key", ErrNotConfigured))
	}

	// The endpoint may be pinned to another api version than the SDK,
	// only the fields read below are relied on.
	event, err := webhook.ConstructEventWithOptions(body, signature, sc.webhookSignKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("%s: %s", ErrInvalidSignature, err))
	}

	return &event, nil
}

// ParseEvent verifies and decodes a Stripe webhook into a payment event.
// Event types that do not affect a checkout return ErrUnhandledEvent along
// with the event identity.
func (p *StripeProcessor) ParseEvent(body []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := p.constructWebhookEvent(body, signature)
	if err != nil {
		return nil, err
	}

	pe := &domain.PaymentEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	// Unmarshal the event data into an appropriate struct depending on its Type
	switch pe.Type {
	case eventPaymentIntentSucceeded,
		eventPaymentIntentProcessing,
		eventPaymentIntentCanceled,
		eventPaymentIntentPaymentFailed:
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return nil, apperrors.Validation(err.Error())
		}

		pe.ProcessorID = paymentIntent.ID
		pe.Ref = domain.RefFromMetadata(paymentIntent.Metadata, paymentIntent.ID)
		pe.AmountCaptured = paymentIntent.AmountReceived
		pe.Currency = string(paymentIntent.Currency)
		pe.Status = paymentIntentEventStatus(pe.Type, &paymentIntent)
	case eventCheckoutSessionCompleted,
		eventCheckoutSessionAsyncPaymentSucceeded,
		eventCheckoutSessionAsyncPaymentFailed,
		eventCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, apperrors.Validation(err.Error())
		}

		ps := toProcessorSession(&session)
		pe.ProcessorID = ps.ID
		pe.Ref = domain.RefFromMetadata(ps.Metadata, ps.ID)
		pe.Currency = ps.Currency
		pe.Status = checkoutSessionEventStatus(pe.Type, ps)

		if pe.Status == domain.StatusSucceeded {
			pe.AmountCaptured = ps.AmountTotal
		}
	default:
		return pe, ErrUnhandledEvent
	}

	return pe, nil
}

// paymentIntentEventStatus maps a payment intent event to an intent status.
// A failed attempt leaves the Stripe intent open for another payment method,
// so the object's own status is used.
func paymentIntentEventStatus(eventType string, pi *stripe.PaymentIntent) domain.Status {
	switch eventType {
	case eventPaymentIntentSucceeded:
		return domain.StatusSucceeded
	case eventPaymentIntentProcessing:
		return domain.StatusProcessing
	case eventPaymentIntentCanceled:
		return domain.StatusCanceled
	default:
		return statusFromPaymentIntent(pi.Status)
	}
}

func checkoutSessionEventStatus(eventType string, session *domain.ProcessorSession) domain.Status {
	switch eventType {
	case eventCheckoutSessionAsyncPaymentSucceeded:
		return domain.StatusSucceeded
	case eventCheckoutSessionAsyncPaymentFailed:
		return domain.StatusFailed
	case eventCheckoutSessionExpired:
		return domain.StatusCanceled
	default:
		return session.Status
	}
}
