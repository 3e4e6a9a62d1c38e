package dal

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

func TestPaymentIntentsMemory(t *testing.T) {
	ctx := context.Background()
	d := NewPaymentIntentsMemory()

	pi := &domain.PaymentIntent{
		ID:          "ref-1",
		ProcessorID: "cs_test_123",
		Amount:      10000,
		Currency:    "usd",
		Status:      domain.StatusRequiresAction,
	}

	require.NoError(t, d.Create(ctx, pi))
	assert.ErrorIs(t, d.Create(ctx, pi), ErrAlreadyExists)

	got, err := d.GetByProcessorID(ctx, "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, "ref-1", got.ID)

	_, err = d.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	change, err := d.ApplyStatus(ctx, "ref-1", domain.StatusCanceled, 0)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, domain.StatusRequiresAction, change.Previous)

	_, err = d.ApplyStatus(ctx, "ref-1", domain.StatusSucceeded, 10000)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err = d.Get(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status)
}

func TestPaymentIntentsMemory_ConcurrentApplyChangesOnce(t *testing.T) {
	ctx := context.Background()
	d := NewPaymentIntentsMemory()
	require.NoError(t, d.Create(ctx, &domain.PaymentIntent{ID: "ref-1", Status: domain.StatusProcessing}))

	var (
		wg      sync.WaitGroup
		changed int32
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			change, err := d.ApplyStatus(ctx, "ref-1", domain.StatusSucceeded, 100)
			if err == nil && change.Changed {
				atomic.AddInt32(&changed, 1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), changed)
}
