package service

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v74"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

const sessionIDPlaceholder = "session_id={CHECKOUT_SESSION_ID}"

// StripeProcessor implements the payment processor on top of Stripe.
// A processor without a client answers every call with a configuration error.
type StripeProcessor struct {
	stripeClient *Client
}

func NewStripeProcessor(stripeClient *Client) *StripeProcessor {
	return &StripeProcessor{
		stripeClient: stripeClient,
	}
}

func (p *StripeProcessor) client() (*Client, error) {
	if p.stripeClient == nil {
		return nil, apperrors.Configuration(ErrNotConfigured)
	}

	return p.stripeClient, nil
}

// CreatePaymentIntent creates an intent for the embedded flow. The checkout ref
// is the idempotency key, so a verbatim retry returns the same intent.
func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, req domain.CreateIntentRequest) (*domain.ProcessorIntent, error) {
	sc, err := p.client()
	if err != nil {
		return nil, err
	}

	currency, err := toStripeCurrency(req.Currency)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.Amount),
		Currency:     stripe.String(string(currency)),
		ReceiptEmail: stripe.String(req.Email),
		Description:  stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Ref)

	for k, v := range intentMetadata(req) {
		params.AddMetadata(k, v)
	}

	pi, err := sc.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toProcessorIntent(pi), nil
}

// CreateCheckoutSession creates a hosted checkout session. The ref is stored on
// both the session and its payment intent.
func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.ProcessorSession, error) {
	sc, err := p.client()
	if err != nil {
		return nil, err
	}

	currency, err := toStripeCurrency(req.Currency)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	metadata := intentMetadata(req.CreateIntentRequest)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL(req.SuccessURL)),
		CancelURL:         stripe.String(req.CancelURL),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.Ref),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(req.Description),
			Metadata:    metadata,
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Ref)

	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	session, err := sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toProcessorSession(session), nil
}

func (p *StripeProcessor) GetPaymentIntent(ctx context.Context, id string) (*domain.ProcessorIntent, error) {
	sc, err := p.client()
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toProcessorIntent(pi), nil
}

func (p *StripeProcessor) GetCheckoutSession(ctx context.Context, id string) (*domain.ProcessorSession, error) {
	sc, err := p.client()
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := sc.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return toProcessorSession(session), nil
}

func intentMetadata(req domain.CreateIntentRequest) map[string]string {
	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	metadata[domain.MetadataCheckoutRef] = req.Ref

	return metadata
}

// successURL makes Stripe echo the session id back on the return URL.
func successURL(returnURL string) string {
	if strings.Contains(returnURL, "{CHECKOUT_SESSION_ID}") {
		return returnURL
	}

	if strings.Contains(returnURL, "?") {
		return returnURL + "&" + sessionIDPlaceholder
	}

	return returnURL + "?" + sessionIDPlaceholder
}

func toProcessorIntent(pi *stripe.PaymentIntent) *domain.ProcessorIntent {
	return &domain.ProcessorIntent{
		ID:             pi.ID,
		ClientSecret:   pi.ClientSecret,
		Amount:         pi.Amount,
		AmountReceived: pi.AmountReceived,
		Currency:       string(pi.Currency),
		Status:         statusFromPaymentIntent(pi.Status),
		Metadata:       pi.Metadata,
	}
}

func toProcessorSession(session *stripe.CheckoutSession) *domain.ProcessorSession {
	ps := &domain.ProcessorSession{
		ID:          session.ID,
		URL:         session.URL,
		AmountTotal: session.AmountTotal,
		Currency:    string(session.Currency),
		Status:      statusFromCheckoutSession(session),
		Metadata:    session.Metadata,
	}

	if session.PaymentIntent != nil {
		ps.PaymentIntentID = session.PaymentIntent.ID
	}

	if ps.Metadata == nil && session.ClientReferenceID != "" {
		ps.Metadata = map[string]string{domain.MetadataCheckoutRef: session.ClientReferenceID}
	}

	return ps
}

func statusFromPaymentIntent(s stripe.PaymentIntentStatus) domain.Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.StatusSucceeded
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return domain.StatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return domain.StatusCanceled
	default:
		return domain.StatusRequiresAction
	}
}

func statusFromCheckoutSession(session *stripe.CheckoutSession) domain.Status {
	switch session.Status {
	case stripe.CheckoutSessionStatusExpired:
		return domain.StatusCanceled
	case stripe.CheckoutSessionStatusComplete:
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
			return domain.StatusSucceeded
		}

		return domain.StatusProcessing
	default:
		return domain.StatusRequiresAction
	}
}
