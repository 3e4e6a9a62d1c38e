package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/dal"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/logger"
)

// IssuanceService turns materialized purchases and donations into numbered certificates.
type IssuanceService struct {
	loggerProvider logger.Provider
	purchases      dal.Purchases
	certificates   dal.Certificates
	now            func() time.Time
}

func NewIssuanceService(log logger.Provider, purchases dal.Purchases, certificates dal.Certificates) *IssuanceService {
	return &IssuanceService{
		loggerProvider: log,
		purchases:      purchases,
		certificates:   certificates,
		now:            time.Now,
	}
}

// IssueFor issues the certificates of a purchase or a donation, whichever id matches.
func (s *IssuanceService) IssueFor(ctx context.Context, purchaseOrDonationID string) ([]*domain.Certificate, error) {
	certificates, err := s.IssueForPurchase(ctx, purchaseOrDonationID)
	if !apperrors.Is(err, apperrors.KindNotFound) {
		return certificates, err
	}

	return s.IssueForDonation(ctx, purchaseOrDonationID)
}

// IssueForPurchase returns one certificate per project allocation of the
// purchase. Certificates that already exist are returned as is, so calling
// it again never mints new numbers.
func (s *IssuanceService) IssueForPurchase(ctx context.Context, purchaseID string) ([]*domain.Certificate, error) {
	l := s.loggerProvider(ctx)
	l.SetLabel(logger.LabelPurchaseID, purchaseID)

	purchase, err := s.purchases.GetPurchase(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, apperrors.NotFound("purchase")
		}

		return nil, apperrors.Upstream(err)
	}

	existing, err := s.certificates.ListByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}

	byID := make(map[string]*domain.Certificate, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	certificates := make([]*domain.Certificate, 0, len(purchase.Allocations))

	for _, allocation := range purchase.Allocations {
		id := domain.AreaCertificateID(purchase.ID, allocation.ProjectID)

		if c, ok := byID[id]; ok {
			certificates = append(certificates, c)
			continue
		}

		issuedAt := s.now().UTC()

		number, err := s.nextNumber(ctx, domain.PrefixArea, issuedAt.Year())
		if err != nil {
			return nil, err
		}

		c, err := s.create(ctx, &domain.Certificate{
			ID:          id,
			Kind:        domain.KindArea,
			Number:      number,
			PurchaseID:  purchase.ID,
			ProjectID:   allocation.ProjectID,
			ProjectName: allocation.ProjectName,
			AreaSqm:     allocation.AreaSqm,
			CO2OffsetKg: domain.CO2OffsetKg(allocation.AreaSqm, allocation.OffsetFactorKgPerSqm),
			Status:      domain.StatusIssued,
			IssuedAt:    issuedAt,
		})
		if err != nil {
			return nil, err
		}

		certificates = append(certificates, c)
	}

	sortByNumber(certificates)

	return certificates, nil
}

// IssueForDonation returns the single certificate of a donation, issuing it if needed.
func (s *IssuanceService) IssueForDonation(ctx context.Context, donationID string) ([]*domain.Certificate, error) {
	l := s.loggerProvider(ctx)
	l.SetLabel(logger.LabelDonationID, donationID)

	donation, err := s.purchases.GetDonation(ctx, donationID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, apperrors.NotFound("purchase or donation")
		}

		return nil, apperrors.Upstream(err)
	}

	existing, err := s.certificates.ListByDonation(ctx, donationID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}

	if len(existing) > 0 {
		return existing, nil
	}

	issuedAt := s.now().UTC()

	number, err := s.nextNumber(ctx, domain.PrefixDonation, issuedAt.Year())
	if err != nil {
		return nil, err
	}

	c, err := s.create(ctx, &domain.Certificate{
		ID:          domain.DonationCertificateID(donation.ID),
		Kind:        domain.KindDonation,
		Number:      number,
		DonationID:  donation.ID,
		ProjectID:   donation.ProjectID,
		ProjectName: donation.ProjectName,
		DonorName:   donation.DonorName,
		IsAnonymous: donation.IsAnonymous,
		Message:     donation.Message,
		Status:      domain.StatusIssued,
		IssuedAt:    issuedAt,
	})
	if err != nil {
		return nil, err
	}

	return []*domain.Certificate{c}, nil
}

func (s *IssuanceService) nextNumber(ctx context.Context, prefix string, year int) (string, error) {
	seq, err := s.certificates.NextSequence(ctx, domain.SequenceScope(prefix, year))
	if err != nil {
		return "", apperrors.Upstream(err)
	}

	return domain.FormatNumber(prefix, year, seq), nil
}

// create stores the certificate. When a concurrent issuer stored the same id
// first, its certificate wins and the number drawn here is left unused.
func (s *IssuanceService) create(ctx context.Context, c *domain.Certificate) (*domain.Certificate, error) {
	l := s.loggerProvider(ctx)

	stored, created, err := s.certificates.CreateCertificate(ctx, c)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}

	if !created {
		l.Infof("%s: certificate %s already issued as %s, number %s unused", apperrors.ErrDuplicateSuppressed, c.ID, stored.Number, c.Number)
		return stored, nil
	}

	l.Infof("issued certificate %s (%s)", stored.Number, stored.ID)

	return stored, nil
}

// Get returns a certificate by id.
func (s *IssuanceService) Get(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	c, err := s.certificates.GetCertificate(ctx, certificateID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, apperrors.NotFound("certificate")
		}

		return nil, apperrors.Upstream(err)
	}

	return c, nil
}

// List returns the certificates of a purchase or of a donation.
func (s *IssuanceService) List(ctx context.Context, purchaseID, donationID string) ([]*domain.Certificate, error) {
	var (
		certificates []*domain.Certificate
		err          error
	)

	switch {
	case purchaseID != "":
		certificates, err = s.certificates.ListByPurchase(ctx, purchaseID)
	case donationID != "":
		certificates, err = s.certificates.ListByDonation(ctx, donationID)
	default:
		return nil, apperrors.Validation("purchase_id or donation_id is required")
	}

	if err != nil {
		return nil, apperrors.Upstream(err)
	}

	return certificates, nil
}

// Revoke marks a certificate revoked. Revoking twice is a no-op.
func (s *IssuanceService) Revoke(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	l := s.loggerProvider(ctx)
	l.SetLabel(logger.LabelCertificateID, certificateID)

	c, err := s.certificates.Revoke(ctx, certificateID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, apperrors.NotFound("certificate")
		}

		return nil, apperrors.Upstream(err)
	}

	l.Warningf("certificate %s revoked", c.Number)

	return c, nil
}

func sortByNumber(certificates []*domain.Certificate) {
	sort.Slice(certificates, func(i, j int) bool {
		return certificates[i].Number < certificates[j].Number
	})
}
