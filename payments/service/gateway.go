package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/payments/dal"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
	"github.com/doitintl/hello/offset-checkout/payments/iface"
)

var checkoutRefNamespace = uuid.MustParse("0b9d6f7e-3c52-5a4e-8f0d-2e7b1c9a4d63")

// GatewayService starts checkouts with the payment processor.
type GatewayService struct {
	loggerProvider logger.Provider
	intents        dal.PaymentIntents
	processor      iface.Processor
	validate       *validator.Validate
}

func NewGatewayService(log logger.Provider, intents dal.PaymentIntents, processor iface.Processor) *GatewayService {
	return &GatewayService{
		loggerProvider: log,
		intents:        intents,
		processor:      processor,
		validate:       validator.New(),
	}
}

// CheckoutRef returns the ref of a checkout. The same idempotency key always
// yields the same ref; without a key every checkout gets a new one.
func CheckoutRef(idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.NewString()
	}

	return uuid.NewSHA1(checkoutRefNamespace, []byte(idempotencyKey)).String()
}

// Initiate creates a payment intent or a hosted session at the processor and
// records it as requires_action before returning, so that a later webhook
// always finds the record. Retrying with the same idempotency key returns
// the same checkout.
func (s *GatewayService) Initiate(ctx context.Context, desc *domain.CheckoutDescription) (*domain.CheckoutResult, error) {
	l := s.loggerProvider(ctx)

	if err := s.validateDescription(ctx, desc); err != nil {
		return nil, err
	}

	ref := CheckoutRef(desc.IdempotencyKey)
	flow := desc.Flow.FlowKind()

	l.SetLabels(map[string]string{
		logger.LabelPaymentIntentID: ref,
		logger.LabelFlow:            string(flow),
	})

	req := domain.CreateIntentRequest{
		Ref:         ref,
		Amount:      desc.Amount,
		Currency:    strings.ToLower(desc.Currency),
		Email:       desc.Email,
		Description: describe(desc),
		Metadata:    processorMetadata(desc),
	}

	pi := &domain.PaymentIntent{
		ID:       ref,
		Flow:     flow,
		Amount:   desc.Amount,
		Currency: req.Currency,
		Status:   domain.StatusRequiresAction,
		Email:    desc.Email,
		Metadata: intentMetadata(desc),
	}

	result := &domain.CheckoutResult{
		PaymentIntentID: ref,
		Flow:            flow,
	}

	switch f := desc.Flow.(type) {
	case domain.HostedFlow:
		session, err := s.processor.CreateCheckoutSession(ctx, domain.CreateSessionRequest{
			CreateIntentRequest: req,
			ProductName:         req.Description,
			SuccessURL:          f.ReturnURL,
			CancelURL:           f.CancelURL,
		})
		if err != nil {
			return nil, err
		}

		pi.ProcessorID = session.ID
		result.SessionID = session.ID
		result.SessionURL = session.URL
	default:
		intent, err := s.processor.CreatePaymentIntent(ctx, req)
		if err != nil {
			return nil, err
		}

		pi.ProcessorID = intent.ID
		result.ClientSecret = intent.ClientSecret
	}

	if err := s.intents.Create(ctx, pi); err != nil {
		if errors.Is(err, dal.ErrAlreadyExists) {
			l.Infof("%s: checkout %s already recorded", apperrors.ErrDuplicateSuppressed, ref)
			return result, nil
		}

		return nil, apperrors.Upstream(err)
	}

	l.Infof("checkout %s started, %s flow, %d %s", ref, flow, desc.Amount, req.Currency)

	return result, nil
}

func (s *GatewayService) validateDescription(ctx context.Context, desc *domain.CheckoutDescription) error {
	if desc == nil {
		return apperrors.Validation("checkout description is required")
	}

	if err := s.validate.StructCtx(ctx, desc); err != nil {
		return validationError(err)
	}

	if hosted, ok := desc.Flow.(domain.HostedFlow); ok {
		if err := s.validate.StructCtx(ctx, hosted); err != nil {
			return validationError(err)
		}
	}

	if desc.Kind == domain.KindPurchase {
		var expected int64
		for _, a := range desc.Allocations {
			expected += int64(math.Round(a.AreaSqm * float64(a.UnitPrice)))
		}

		if expected != desc.Amount {
			return apperrors.Validationf("amount %d does not match allocations total %d", desc.Amount, expected)
		}
	}

	return nil
}

func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Validation(err.Error())
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}

	return apperrors.Validationf("invalid checkout: %s", strings.Join(fields, ", "))
}

func describe(desc *domain.CheckoutDescription) string {
	if desc.Kind == domain.KindDonation {
		return "Donation"
	}

	var area float64
	for _, a := range desc.Allocations {
		area += a.AreaSqm
	}

	return fmt.Sprintf("Offset area %.2f m²", area)
}

func processorMetadata(desc *domain.CheckoutDescription) map[string]string {
	metadata := make(map[string]string, len(desc.Metadata)+2)
	for k, v := range desc.Metadata {
		metadata[k] = v
	}

	metadata[domain.MetadataKind] = string(desc.Kind)
	if desc.TargetID != "" {
		metadata[domain.MetadataTargetID] = desc.TargetID
	}

	return metadata
}

func intentMetadata(desc *domain.CheckoutDescription) domain.IntentMetadata {
	m := domain.IntentMetadata{
		Kind:  desc.Kind,
		Extra: desc.Metadata,
	}

	switch desc.Kind {
	case domain.KindPurchase:
		m.Allocations = desc.Allocations
	case domain.KindDonation:
		m.ProjectID = desc.TargetID
		m.ProjectName = desc.Metadata["project_name"]
		m.DonorName = desc.DonorName
		m.Anonymous = desc.Anonymous
		m.Message = desc.Message
	}

	return m
}
