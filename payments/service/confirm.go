package service

import (
	"context"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	certDomain "github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
	"github.com/doitintl/hello/offset-checkout/payments/iface"
	"github.com/doitintl/hello/offset-checkout/reconciler"
)

const eventTypeReturn = "checkout.return"

// Applier applies a payment event to the stored checkout.
type Applier interface {
	Apply(ctx context.Context, event *domain.PaymentEvent) (*reconciler.Result, error)
}

// ConfirmedCertificate is a certificate as shown on the confirmation page.
type ConfirmedCertificate struct {
	ID             string          `json:"id"`
	Number         string          `json:"certificate_number"`
	Kind           certDomain.Kind `json:"kind"`
	ProjectName    string          `json:"project_name,omitempty"`
	AreaSqm        float64         `json:"area_sqm,omitempty"`
	CO2OffsetKg    float64         `json:"co2_offset_kg,omitempty"`
	ArtifactURL    string          `json:"artifact_url,omitempty"`
	ArtifactStatus string          `json:"artifact_status"`
}

// Confirmation is the state of a checkout when the buyer comes back to the store.
type Confirmation struct {
	PaymentIntentID string                 `json:"payment_intent_id"`
	Status          domain.Status          `json:"status"`
	Outcome         reconciler.Outcome     `json:"outcome"`
	PurchaseID      string                 `json:"purchase_id,omitempty"`
	DonationID      string                 `json:"donation_id,omitempty"`
	Certificates    []ConfirmedCertificate `json:"certificates"`
}

// ConfirmService handles the buyer returning from the processor. It reads the
// authoritative status from the processor and applies it the same way a
// webhook would, so it does not matter which one arrives first.
type ConfirmService struct {
	loggerProvider logger.Provider
	processor      iface.Processor
	applier        Applier
}

func NewConfirmService(log logger.Provider, processor iface.Processor, applier Applier) *ConfirmService {
	return &ConfirmService{
		loggerProvider: log,
		processor:      processor,
		applier:        applier,
	}
}

// Confirm takes either a payment intent id (embedded flow) or a checkout
// session id (hosted flow).
func (s *ConfirmService) Confirm(ctx context.Context, paymentIntentID, sessionID string) (*Confirmation, error) {
	var (
		event *domain.PaymentEvent
		err   error
	)

	switch {
	case sessionID != "":
		event, err = s.sessionEvent(ctx, sessionID)
	case paymentIntentID != "":
		event, err = s.intentEvent(ctx, paymentIntentID)
	default:
		return nil, apperrors.Validation("payment_intent or session_id is required")
	}

	if err != nil {
		return nil, err
	}

	result, err := s.applier.Apply(ctx, event)
	if err != nil {
		return nil, err
	}

	if result.Outcome == reconciler.OutcomeIgnored {
		return nil, apperrors.NotFound("checkout")
	}

	confirmation := &Confirmation{
		PaymentIntentID: result.PaymentIntentID,
		Status:          result.Status,
		Outcome:         result.Outcome,
		PurchaseID:      result.PurchaseID,
		DonationID:      result.DonationID,
		Certificates:    make([]ConfirmedCertificate, 0, len(result.Certificates)),
	}

	for _, c := range result.Certificates {
		confirmation.Certificates = append(confirmation.Certificates, ConfirmedCertificate{
			ID:             c.ID,
			Number:         c.Number,
			Kind:           c.Kind,
			ProjectName:    c.ProjectName,
			AreaSqm:        c.AreaSqm,
			CO2OffsetKg:    c.CO2OffsetKg,
			ArtifactURL:    c.ArtifactURL,
			ArtifactStatus: certDomain.ArtifactStatus(c),
		})
	}

	return confirmation, nil
}

func (s *ConfirmService) sessionEvent(ctx context.Context, sessionID string) (*domain.PaymentEvent, error) {
	session, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	event := &domain.PaymentEvent{
		ID:          eventTypeReturn + ":" + session.ID,
		Type:        eventTypeReturn,
		Ref:         domain.RefFromMetadata(session.Metadata, session.ID),
		ProcessorID: session.ID,
		Status:      session.Status,
		Currency:    session.Currency,
	}

	if session.Status == domain.StatusSucceeded {
		event.AmountCaptured = session.AmountTotal
	}

	return event, nil
}

func (s *ConfirmService) intentEvent(ctx context.Context, paymentIntentID string) (*domain.PaymentEvent, error) {
	pi, err := s.processor.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentEvent{
		ID:             eventTypeReturn + ":" + pi.ID,
		Type:           eventTypeReturn,
		Ref:            domain.RefFromMetadata(pi.Metadata, pi.ID),
		ProcessorID:    pi.ID,
		Status:         pi.Status,
		AmountCaptured: pi.AmountReceived,
		Currency:       pi.Currency,
	}, nil
}
