package dal

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/common"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

func TestNewPaymentIntentsFirestoreWithClient(t *testing.T) {
	d := NewPaymentIntentsFirestoreWithClient(nil)
	assert.NotNil(t, d)
	assert.NotNil(t, d.now)
}

func newEmulatorIntents(t *testing.T) *PaymentIntentsFirestore {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}

	fs, err := firestore.NewClient(context.Background(), common.TestProjectID)
	require.NoError(t, err)

	t.Cleanup(func() { fs.Close() })

	return NewPaymentIntentsFirestoreWithClient(func(context.Context) *firestore.Client { return fs })
}

func TestPaymentIntentsFirestore(t *testing.T) {
	d := newEmulatorIntents(t)
	ctx := context.Background()

	ref := uuid.NewString()
	processorID := "cs_test_" + ref[:8]

	pi := &domain.PaymentIntent{
		ID:          ref,
		ProcessorID: processorID,
		Amount:      10000,
		Currency:    "usd",
		Status:      domain.StatusRequiresAction,
	}

	require.NoError(t, d.Create(ctx, pi))
	assert.ErrorIs(t, d.Create(ctx, pi), ErrAlreadyExists)

	got, err := d.GetByProcessorID(ctx, processorID)
	require.NoError(t, err)
	assert.Equal(t, ref, got.ID)

	_, err = d.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	change, err := d.ApplyStatus(ctx, ref, domain.StatusSucceeded, 10000)
	require.NoError(t, err)
	assert.True(t, change.Changed)

	change, err = d.ApplyStatus(ctx, ref, domain.StatusSucceeded, 10000)
	require.NoError(t, err)
	assert.False(t, change.Changed)

	_, err = d.ApplyStatus(ctx, ref, domain.StatusFailed, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err = d.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, got.Status)
	assert.Equal(t, int64(10000), got.AmountReceived)
}

func TestPaymentIntentsFirestore_ConcurrentApplyChangesOnce(t *testing.T) {
	d := newEmulatorIntents(t)
	ctx := context.Background()

	ref := uuid.NewString()
	require.NoError(t, d.Create(ctx, &domain.PaymentIntent{ID: ref, Status: domain.StatusProcessing}))

	var (
		wg      sync.WaitGroup
		changed int32
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			change, err := d.ApplyStatus(ctx, ref, domain.StatusSucceeded, 100)
			if err == nil && change.Changed {
				atomic.AddInt32(&changed, 1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), changed)
}
