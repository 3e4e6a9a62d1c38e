package service

import (
	"context"
	"errors"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
	"github.com/doitintl/hello/offset-checkout/payments/iface"
	"github.com/doitintl/hello/offset-checkout/reconciler"
)

// WebhookService verifies processor webhooks and applies them.
type WebhookService struct {
	loggerProvider logger.Provider
	processor      iface.Processor
	applier        Applier
}

func NewWebhookService(log logger.Provider, processor iface.Processor, applier Applier) *WebhookService {
	return &WebhookService{
		loggerProvider: log,
		processor:      processor,
		applier:        applier,
	}
}

// Handle returns a validation error for payloads that fail verification and a
// retryable error when the event could not be applied yet. Events that carry
// no checkout status are acknowledged and ignored.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (*reconciler.Result, error) {
	l := s.loggerProvider(ctx)

	if signature == "" {
		return nil, apperrors.Validation("missing webhook signature")
	}

	event, err := s.processor.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrUnhandledEvent) && event != nil {
			l.SetLabels(map[string]string{
				logger.LabelEventID:   event.ID,
				logger.LabelEventType: event.Type,
			})
			l.Debugf("event %s of type %s ignored", event.ID, event.Type)

			return &reconciler.Result{Outcome: reconciler.OutcomeIgnored}, nil
		}

		l.Warningf("reject webhook: %s", err)

		return nil, err
	}

	return s.applier.Apply(ctx, event)
}
