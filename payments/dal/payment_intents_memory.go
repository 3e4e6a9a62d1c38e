package dal

import (
	"context"
	"sync"
	"time"

	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

// PaymentIntentsMemory is a process local store used for local runs and tests.
type PaymentIntentsMemory struct {
	mu      sync.Mutex
	intents map[string]domain.PaymentIntent
	now     func() time.Time
}

func NewPaymentIntentsMemory() *PaymentIntentsMemory {
	return &PaymentIntentsMemory{
		intents: make(map[string]domain.PaymentIntent),
		now:     time.Now,
	}
}

func (d *PaymentIntentsMemory) Create(_ context.Context, pi *domain.PaymentIntent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.intents[pi.ID]; ok {
		return ErrAlreadyExists
	}

	now := d.now().UTC()
	pi.CreatedAt = now
	pi.UpdatedAt = now
	d.intents[pi.ID] = *pi

	return nil
}

func (d *PaymentIntentsMemory) Get(_ context.Context, id string) (*domain.PaymentIntent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pi, ok := d.intents[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &pi, nil
}

func (d *PaymentIntentsMemory) GetByProcessorID(_ context.Context, processorID string) (*domain.PaymentIntent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, pi := range d.intents {
		if pi.ProcessorID == processorID {
			return &pi, nil
		}
	}

	return nil, ErrNotFound
}

func (d *PaymentIntentsMemory) ApplyStatus(_ context.Context, id string, status domain.Status, amountReceived int64) (*StatusChange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pi, ok := d.intents[id]
	if !ok {
		return nil, ErrNotFound
	}

	change, err := applyStatus(&pi, status, amountReceived, d.now().UTC())
	if err != nil || !change.Changed {
		return change, err
	}

	d.intents[id] = pi

	return change, nil
}
