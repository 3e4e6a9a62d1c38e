package dal

import (
	"context"
	"sort"
	"sync"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
)

// StoreMemory is a process local store used for local runs and tests.
type StoreMemory struct {
	mu           sync.Mutex
	purchases    map[string]domain.Purchase
	donations    map[string]domain.Donation
	certificates map[string]domain.Certificate
	sequences    map[string]int64
}

func NewStoreMemory() *StoreMemory {
	return &StoreMemory{
		purchases:    make(map[string]domain.Purchase),
		donations:    make(map[string]domain.Donation),
		certificates: make(map[string]domain.Certificate),
		sequences:    make(map[string]int64),
	}
}

func (d *StoreMemory) CreatePurchase(_ context.Context, p *domain.Purchase) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.purchases[p.ID]; ok {
		return false, nil
	}

	d.purchases[p.ID] = *p

	return true, nil
}

func (d *StoreMemory) GetPurchase(_ context.Context, id string) (*domain.Purchase, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &p, nil
}

func (d *StoreMemory) CreateDonation(_ context.Context, donation *domain.Donation) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.donations[donation.ID]; ok {
		return false, nil
	}

	d.donations[donation.ID] = *donation

	return true, nil
}

func (d *StoreMemory) GetDonation(_ context.Context, id string) (*domain.Donation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	donation, ok := d.donations[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &donation, nil
}

func (d *StoreMemory) NextSequence(_ context.Context, scope string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sequences[scope]++

	return d.sequences[scope], nil
}

func (d *StoreMemory) CreateCertificate(_ context.Context, c *domain.Certificate) (*domain.Certificate, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.certificates[c.ID]; ok {
		return &existing, false, nil
	}

	d.certificates[c.ID] = *c
	stored := *c

	return &stored, true, nil
}

func (d *StoreMemory) GetCertificate(_ context.Context, id string) (*domain.Certificate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &c, nil
}

func (d *StoreMemory) GetByNumber(_ context.Context, number string) (*domain.Certificate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.certificates {
		if c.Number == number {
			return &c, nil
		}
	}

	return nil, ErrNotFound
}

func (d *StoreMemory) list(match func(c *domain.Certificate) bool) []*domain.Certificate {
	d.mu.Lock()
	defer d.mu.Unlock()

	var certificates []*domain.Certificate

	for _, c := range d.certificates {
		c := c
		if match(&c) {
			certificates = append(certificates, &c)
		}
	}

	sort.Slice(certificates, func(i, j int) bool {
		return certificates[i].Number < certificates[j].Number
	})

	return certificates
}

func (d *StoreMemory) ListByPurchase(_ context.Context, purchaseID string) ([]*domain.Certificate, error) {
	return d.list(func(c *domain.Certificate) bool {
		return c.PurchaseID == purchaseID
	}), nil
}

func (d *StoreMemory) ListByDonation(_ context.Context, donationID string) ([]*domain.Certificate, error) {
	return d.list(func(c *domain.Certificate) bool {
		return c.DonationID == donationID
	}), nil
}

func (d *StoreMemory) SetArtifactURL(_ context.Context, id, url string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.certificates[id]
	if !ok {
		return "", ErrNotFound
	}

	if c.ArtifactURL != "" {
		return c.ArtifactURL, nil
	}

	if c.Status == domain.StatusRevoked {
		return "", ErrRevoked
	}

	c.ArtifactURL = url
	d.certificates[id] = c

	return url, nil
}

func (d *StoreMemory) Revoke(_ context.Context, id string) (*domain.Certificate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}

	c.Status = domain.StatusRevoked
	d.certificates[id] = c

	return &c, nil
}
