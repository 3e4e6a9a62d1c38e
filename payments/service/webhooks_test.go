package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
	"github.com/doitintl/hello/offset-checkout/payments/iface/mocks"
	"github.com/doitintl/hello/offset-checkout/reconciler"
)

type applierFunc func(ctx context.Context, event *domain.PaymentEvent) (*reconciler.Result, error)

func (f applierFunc) Apply(ctx context.Context, event *domain.PaymentEvent) (*reconciler.Result, error) {
	return f(ctx, event)
}

func TestWebhookService_Handle(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	event := &domain.PaymentEvent{ID: "evt_1", Type: "payment_intent.succeeded", Ref: "ref-1", Status: domain.StatusSucceeded}

	tests := []struct {
		name      string
		signature string
		on        func(p *mocks.Processor)
		applyErr  error
		outcome   reconciler.Outcome
		wants     apperrors.Kind
	}{
		{
			name:  "missing signature",
			wants: apperrors.KindValidation,
		},
		{
			name:      "bad signature",
			signature: "t=1,v1=bad",
			on: func(p *mocks.Processor) {
				p.On("ParseEvent", payload, "t=1,v1=bad").Return(nil, apperrors.Validation("invalid webhook signature"))
			},
			wants: apperrors.KindValidation,
		},
		{
			name:      "unhandled type",
			signature: "sig",
			on: func(p *mocks.Processor) {
				p.On("ParseEvent", payload, "sig").Return(&domain.PaymentEvent{ID: "evt_2", Type: "customer.created"}, domain.ErrUnhandledEvent)
			},
			outcome: reconciler.OutcomeIgnored,
		},
		{
			name:      "applied",
			signature: "sig",
			on: func(p *mocks.Processor) {
				p.On("ParseEvent", payload, "sig").Return(event, nil)
			},
			outcome: reconciler.OutcomeApplied,
		},
		{
			name:      "apply fails",
			signature: "sig",
			on: func(p *mocks.Processor) {
				p.On("ParseEvent", payload, "sig").Return(event, nil)
			},
			applyErr: apperrors.Upstream(errors.New("firestore unavailable")),
			wants:    apperrors.KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := mocks.NewProcessor(t)
			if tt.on != nil {
				tt.on(processor)
			}

			applier := applierFunc(func(_ context.Context, e *domain.PaymentEvent) (*reconciler.Result, error) {
				if tt.applyErr != nil {
					return nil, tt.applyErr
				}

				return &reconciler.Result{Outcome: reconciler.OutcomeApplied, PaymentIntentID: e.Ref}, nil
			})

			s := NewWebhookService(logger.FromContext, processor, applier)

			result, err := s.Handle(context.Background(), payload, tt.signature)
			if tt.wants != "" {
				assert.True(t, apperrors.Is(err, tt.wants), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.outcome, result.Outcome)
		})
	}
}
