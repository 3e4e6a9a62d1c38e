package reconciler

import (
	"context"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	certDomain "github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/logger"
	paymentDomain "github.com/doitintl/hello/offset-checkout/payments/domain"
)

// materialize creates the purchase or donation of a succeeded intent and
// issues its certificates. Every step is keyed by ids derived from the intent,
// so running it again only completes what is missing. It reports whether any
// record was created.
func (r *Reconciler) materialize(ctx context.Context, pi *paymentDomain.PaymentIntent, result *Result) (bool, error) {
	l := r.loggerProvider(ctx)

	if pi.AmountReceived > 0 && pi.AmountReceived < pi.Amount {
		l.Warningf("intent %s captured %d of %d %s", pi.ID, pi.AmountReceived, pi.Amount, pi.Currency)
	}

	var (
		created bool
		err     error
	)

	switch pi.Metadata.Kind {
	case paymentDomain.KindPurchase:
		created, err = r.materializePurchase(ctx, pi, result)
	case paymentDomain.KindDonation:
		created, err = r.materializeDonation(ctx, pi, result)
	default:
		l.Errorf("intent %s succeeded with unknown kind %q, nothing to issue", pi.ID, pi.Metadata.Kind)
		result.Outcome = OutcomeConflict

		return false, nil
	}

	if err != nil {
		return false, err
	}

	r.enqueueRenders(ctx, result.Certificates)

	return created, nil
}

func (r *Reconciler) materializePurchase(ctx context.Context, pi *paymentDomain.PaymentIntent, result *Result) (bool, error) {
	l := r.loggerProvider(ctx)

	allocations := MergeAllocations(pi.Metadata.Allocations)

	p := &certDomain.Purchase{
		ID:              certDomain.PurchaseID(pi.ID),
		PaymentIntentID: pi.ID,
		Email:           pi.Email,
		TotalAmount:     pi.Amount,
		Currency:        pi.Currency,
		Allocations:     allocations,
		CreatedAt:       r.now().UTC(),
	}

	for _, a := range allocations {
		p.TotalAreaSqm += a.AreaSqm
	}

	l.SetLabel(logger.LabelPurchaseID, p.ID)
	result.PurchaseID = p.ID

	purchaseCreated, err := r.purchases.CreatePurchase(ctx, p)
	if err != nil {
		return false, apperrors.Upstream(err)
	}

	existing, err := r.certificates.ListByPurchase(ctx, p.ID)
	if err != nil {
		return false, apperrors.Upstream(err)
	}

	certificates, err := r.issuer.IssueForPurchase(ctx, p.ID)
	if err != nil {
		return false, err
	}

	result.Certificates = certificates

	if purchaseCreated {
		l.Infof("purchase %s created for intent %s", p.ID, pi.ID)
	}

	return purchaseCreated || len(certificates) > len(existing), nil
}

func (r *Reconciler) materializeDonation(ctx context.Context, pi *paymentDomain.PaymentIntent, result *Result) (bool, error) {
	l := r.loggerProvider(ctx)

	amount := pi.Amount
	if pi.AmountReceived > 0 {
		amount = pi.AmountReceived
	}

	d := &certDomain.Donation{
		ID:              certDomain.DonationID(pi.ID),
		PaymentIntentID: pi.ID,
		Email:           pi.Email,
		Amount:          amount,
		Currency:        pi.Currency,
		ProjectID:       pi.Metadata.ProjectID,
		ProjectName:     pi.Metadata.ProjectName,
		DonorName:       pi.Metadata.DonorName,
		IsAnonymous:     pi.Metadata.Anonymous,
		Message:         pi.Metadata.Message,
		CreatedAt:       r.now().UTC(),
	}

	l.SetLabel(logger.LabelDonationID, d.ID)
	result.DonationID = d.ID

	donationCreated, err := r.purchases.CreateDonation(ctx, d)
	if err != nil {
		return false, apperrors.Upstream(err)
	}

	existing, err := r.certificates.ListByDonation(ctx, d.ID)
	if err != nil {
		return false, apperrors.Upstream(err)
	}

	certificates, err := r.issuer.IssueForDonation(ctx, d.ID)
	if err != nil {
		return false, err
	}

	result.Certificates = certificates

	if donationCreated {
		l.Infof("donation %s created for intent %s", d.ID, pi.ID)
	}

	return donationCreated || len(certificates) > len(existing), nil
}

// MergeAllocations folds lines of the same project into one allocation, so
// that a purchase has at most one certificate per project.
func MergeAllocations(lines []paymentDomain.Allocation) []certDomain.Allocation {
	var (
		merged []certDomain.Allocation
		index  = make(map[string]int, len(lines))
	)

	for _, line := range lines {
		if i, ok := index[line.ProjectID]; ok {
			merged[i].AreaSqm += line.AreaSqm
			continue
		}

		index[line.ProjectID] = len(merged)
		merged = append(merged, certDomain.Allocation{
			ProjectID:            line.ProjectID,
			ProjectName:          line.ProjectName,
			AreaSqm:              line.AreaSqm,
			UnitPrice:            line.UnitPrice,
			OffsetFactorKgPerSqm: line.Factor(),
		})
	}

	return merged
}
