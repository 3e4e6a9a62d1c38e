package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	certDal "github.com/doitintl/hello/offset-checkout/certificates/dal"
	certDomain "github.com/doitintl/hello/offset-checkout/certificates/domain"
	certIface "github.com/doitintl/hello/offset-checkout/certificates/iface"
	"github.com/doitintl/hello/offset-checkout/logger"
	paymentDal "github.com/doitintl/hello/offset-checkout/payments/dal"
	paymentDomain "github.com/doitintl/hello/offset-checkout/payments/domain"
)

type Outcome string

const (
	OutcomeApplied             Outcome = "applied"
	OutcomeDuplicateSuppressed Outcome = "duplicate_suppressed"
	// OutcomeIgnored is returned for events about intents this service never created.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeConflict is returned when the event contradicts a terminal status.
	OutcomeConflict Outcome = "conflict"
)

// Result is what applying one payment event did.
type Result struct {
	Outcome         Outcome                   `json:"outcome"`
	PaymentIntentID string                    `json:"payment_intent_id,omitempty"`
	Status          paymentDomain.Status      `json:"status,omitempty"`
	PurchaseID      string                    `json:"purchase_id,omitempty"`
	DonationID      string                    `json:"donation_id,omitempty"`
	Certificates    []*certDomain.Certificate `json:"certificates,omitempty"`
}

// Issuer issues the certificates of materialized purchases and donations.
type Issuer interface {
	IssueForPurchase(ctx context.Context, purchaseID string) ([]*certDomain.Certificate, error)
	IssueForDonation(ctx context.Context, donationID string) ([]*certDomain.Certificate, error)
}

// Reconciler applies payment events to the stored intents and materializes
// purchases, donations and certificates once a payment succeeds.
type Reconciler struct {
	loggerProvider logger.Provider
	intents        paymentDal.PaymentIntents
	purchases      certDal.Purchases
	certificates   certDal.Certificates
	issuer         Issuer
	queue          certIface.RenderQueue
	now            func() time.Time
}

func NewReconciler(
	log logger.Provider,
	intents paymentDal.PaymentIntents,
	purchases certDal.Purchases,
	certificates certDal.Certificates,
	issuer Issuer,
	queue certIface.RenderQueue,
) *Reconciler {
	return &Reconciler{
		loggerProvider: log,
		intents:        intents,
		purchases:      purchases,
		certificates:   certificates,
		issuer:         issuer,
		queue:          queue,
		now:            time.Now,
	}
}

// Apply is idempotent: an event applied twice changes nothing the second
// time, except that a replayed success finishes any materialization an
// earlier attempt left undone.
func (r *Reconciler) Apply(ctx context.Context, event *paymentDomain.PaymentEvent) (*Result, error) {
	l := r.loggerProvider(ctx)
	l.SetLabels(map[string]string{
		logger.LabelEventID:   event.ID,
		logger.LabelEventType: event.Type,
	})

	if !event.Status.Valid() {
		return nil, apperrors.Validationf("unsupported payment status %q", event.Status)
	}

	pi, err := r.resolve(ctx, event)
	if err != nil {
		if errors.Is(err, paymentDal.ErrNotFound) {
			l.Warningf("no payment intent for ref %q processor id %q, event ignored", event.Ref, event.ProcessorID)
			return &Result{Outcome: OutcomeIgnored}, nil
		}

		return nil, apperrors.Upstream(err)
	}

	l.SetLabel(logger.LabelPaymentIntentID, pi.ID)

	change, err := r.intents.ApplyStatus(ctx, pi.ID, event.Status, event.AmountCaptured)
	if err != nil {
		return r.rejected(ctx, pi, change, event, err)
	}

	result := &Result{
		Outcome:         OutcomeApplied,
		PaymentIntentID: pi.ID,
		Status:          change.Intent.Status,
	}

	if event.Status != paymentDomain.StatusSucceeded {
		if !change.Changed {
			l.Infof("%s: intent already %s", apperrors.ErrDuplicateSuppressed, event.Status)
			result.Outcome = OutcomeDuplicateSuppressed
		} else {
			l.Infof("intent %s moved %s -> %s", pi.ID, change.Previous, event.Status)
		}

		return result, nil
	}

	created, err := r.materialize(ctx, change.Intent, result)
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeApplied && !change.Changed && !created {
		l.Infof("%s: intent already succeeded and materialized", apperrors.ErrDuplicateSuppressed)
		result.Outcome = OutcomeDuplicateSuppressed
	}

	return result, nil
}

func (r *Reconciler) resolve(ctx context.Context, event *paymentDomain.PaymentEvent) (*paymentDomain.PaymentIntent, error) {
	if event.Ref != "" {
		pi, err := r.intents.Get(ctx, event.Ref)
		if err == nil || !errors.Is(err, paymentDal.ErrNotFound) || event.ProcessorID == "" {
			return pi, err
		}
	}

	if event.ProcessorID == "" {
		return nil, paymentDal.ErrNotFound
	}

	return r.intents.GetByProcessorID(ctx, event.ProcessorID)
}

func (r *Reconciler) rejected(
	ctx context.Context,
	pi *paymentDomain.PaymentIntent,
	change *paymentDal.StatusChange,
	event *paymentDomain.PaymentEvent,
	err error,
) (*Result, error) {
	l := r.loggerProvider(ctx)

	switch {
	case errors.Is(err, paymentDal.ErrNotFound):
		l.Warningf("payment intent %s disappeared, event ignored", pi.ID)
		return &Result{Outcome: OutcomeIgnored}, nil
	case errors.Is(err, paymentDomain.ErrInvalidTransition):
	default:
		return nil, apperrors.Upstream(err)
	}

	result := &Result{
		PaymentIntentID: pi.ID,
		Status:          pi.Status,
	}

	if change != nil {
		result.Status = change.Previous
	}

	if event.Status == paymentDomain.StatusSucceeded {
		// money was captured for an intent already closed without payment
		l.Errorf("payment intent %s is %s but processor reports succeeded", pi.ID, result.Status)
		result.Outcome = OutcomeConflict

		return result, nil
	}

	l.Infof("%s: stale %s event, intent is %s", apperrors.ErrDuplicateSuppressed, event.Status, result.Status)
	result.Outcome = OutcomeDuplicateSuppressed

	return result, nil
}

// enqueueRenders asks for artifacts of certificates that have none. Failures
// are logged only: the poller and the on-demand endpoint render them later.
func (r *Reconciler) enqueueRenders(ctx context.Context, certificates []*certDomain.Certificate) {
	if r.queue == nil {
		return
	}

	var result error

	for _, c := range certificates {
		if c.HasArtifact() || c.Status == certDomain.StatusRevoked {
			continue
		}

		if err := r.queue.EnqueueRender(ctx, c.ID, 0); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result != nil {
		r.loggerProvider(ctx).Warningf("enqueue certificate renders: %s", result)
	}
}
