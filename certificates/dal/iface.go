package dal

import (
	"context"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
)

//go:generate mockery --name Purchases --output ./mocks
type Purchases interface {
	// CreatePurchase stores p unless a purchase with the same id exists.
	// It reports whether this call created it.
	CreatePurchase(ctx context.Context, p *domain.Purchase) (bool, error)
	GetPurchase(ctx context.Context, id string) (*domain.Purchase, error)
	CreateDonation(ctx context.Context, d *domain.Donation) (bool, error)
	GetDonation(ctx context.Context, id string) (*domain.Donation, error)
}

//go:generate mockery --name Certificates --output ./mocks
type Certificates interface {
	// NextSequence atomically increments and returns the counter of scope, starting at 1.
	NextSequence(ctx context.Context, scope string) (int64, error)
	// CreateCertificate stores c unless a certificate with the same id exists,
	// and returns the stored certificate and whether this call created it.
	CreateCertificate(ctx context.Context, c *domain.Certificate) (*domain.Certificate, bool, error)
	GetCertificate(ctx context.Context, id string) (*domain.Certificate, error)
	GetByNumber(ctx context.Context, number string) (*domain.Certificate, error)
	ListByPurchase(ctx context.Context, purchaseID string) ([]*domain.Certificate, error)
	ListByDonation(ctx context.Context, donationID string) ([]*domain.Certificate, error)
	// SetArtifactURL sets the artifact url only if none is set yet, and returns the stored one.
	SetArtifactURL(ctx context.Context, id, url string) (string, error)
	Revoke(ctx context.Context, id string) (*domain.Certificate, error)
}

// Store is implemented by every backend.
type Store interface {
	Purchases
	Certificates
}
