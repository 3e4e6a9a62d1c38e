package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
	"github.com/doitintl/hello/offset-checkout/payments/service"
	"github.com/doitintl/hello/offset-checkout/reconciler"
)

const (
	IdempotencyKeyHeader  = "Idempotency-Key"
	StripeSignatureHeader = "Stripe-Signature"

	metadataIdentity = "identity_fingerprint"
)

type Gateway interface {
	Initiate(ctx context.Context, desc *domain.CheckoutDescription) (*domain.CheckoutResult, error)
}

type Confirmer interface {
	Confirm(ctx context.Context, paymentIntentID, sessionID string) (*service.Confirmation, error)
}

type WebhookHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) (*reconciler.Result, error)
}

type Payments struct {
	loggerProvider logger.Provider
	gateway        Gateway
	confirmer      Confirmer
	webhooks       WebhookHandler
}

func NewPayments(log logger.Provider, gateway Gateway, confirmer Confirmer, webhooks WebhookHandler) *Payments {
	return &Payments{
		loggerProvider: log,
		gateway:        gateway,
		confirmer:      confirmer,
		webhooks:       webhooks,
	}
}

type CheckoutRequest struct {
	Kind        domain.Kind         `json:"kind"`
	Amount      int64               `json:"amount"`
	Currency    string              `json:"currency"`
	TargetID    string              `json:"target_id"`
	Email       string              `json:"email"`
	Allocations []domain.Allocation `json:"allocations"`
	DonorName   string              `json:"donor_name"`
	Anonymous   bool                `json:"anonymous"`
	Message     string              `json:"message"`
	Metadata    map[string]string   `json:"metadata"`
	Flow        domain.FlowKind     `json:"flow"`
	ReturnURL   string              `json:"return_url"`
	CancelURL   string              `json:"cancel_url"`
}

// toDescription resolves the flow. The legacy metadata flag use_hosted=true
// selects the hosted flow and is not forwarded to the processor.
func (r *CheckoutRequest) toDescription() *domain.CheckoutDescription {
	metadata := make(map[string]string, len(r.Metadata))
	for k, v := range r.Metadata {
		metadata[k] = v
	}

	hosted := r.Flow == domain.FlowHosted
	if v, ok := metadata[domain.MetadataUseHosted]; ok {
		hosted = hosted || strings.EqualFold(v, "true")
		delete(metadata, domain.MetadataUseHosted)
	}

	desc := &domain.CheckoutDescription{
		Kind:        r.Kind,
		Amount:      r.Amount,
		Currency:    r.Currency,
		TargetID:    r.TargetID,
		Email:       r.Email,
		Allocations: r.Allocations,
		DonorName:   r.DonorName,
		Anonymous:   r.Anonymous,
		Message:     r.Message,
		Metadata:    metadata,
		Flow:        domain.EmbeddedFlow{},
	}

	if hosted {
		desc.Flow = domain.HostedFlow{
			ReturnURL: r.ReturnURL,
			CancelURL: r.CancelURL,
		}
	}

	return desc
}

// Checkout starts a purchase or donation checkout.
func (h *Payments) Checkout(ctx *gin.Context) error {
	var req CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	desc := req.toDescription()
	desc.IdempotencyKey = ctx.GetHeader(IdempotencyKeyHeader)

	if v, ok := internal.DataFromContext(ctx); ok && v.Identity != "" {
		desc.Metadata[metadataIdentity] = v.Identity
	}

	result, err := h.gateway.Initiate(ctx, desc)
	if err != nil {
		return web.TranslateError(err)
	}

	return web.Respond(ctx, result, http.StatusCreated)
}

// Return confirms a checkout when the buyer is sent back by the processor.
func (h *Payments) Return(ctx *gin.Context) error {
	confirmation, err := h.confirmer.Confirm(ctx, ctx.Query("payment_intent"), ctx.Query("session_id"))
	if err != nil {
		return web.TranslateError(err)
	}

	return web.Respond(ctx, confirmation, http.StatusOK)
}

// Webhook receives processor events. Anything but a 2xx makes the processor
// deliver the event again, so only rejected payloads get a 4xx and every
// failure to apply a valid event is a 500.
func (h *Payments) Webhook(ctx *gin.Context) error {
	l := h.loggerProvider(ctx)

	payload, err := ctx.GetRawData()
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	result, err := h.webhooks.Handle(ctx, payload, ctx.GetHeader(StripeSignatureHeader))
	if err != nil {
		if apperrors.Is(err, apperrors.KindValidation) {
			return web.NewRequestError(err, http.StatusBadRequest)
		}

		l.Errorf("webhook not applied, processor will retry: %s", err)

		return web.NewRequestError(err, http.StatusInternalServerError)
	}

	return web.Respond(ctx, result, http.StatusOK)
}
