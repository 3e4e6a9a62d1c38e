package dal

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
)

func TestStoreMemory_NextSequenceIsAtomic(t *testing.T) {
	d := NewStoreMemory()

	const callers = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := d.NextSequence(context.Background(), "MFC-2024")
			require.NoError(t, err)

			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}

	wg.Wait()
	assert.Len(t, seen, callers)

	other, err := d.NextSequence(context.Background(), "MFC-2025")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestStoreMemory_Certificates(t *testing.T) {
	ctx := context.Background()
	d := NewStoreMemory()

	c := &domain.Certificate{ID: "cert-1", Number: "MFC-2024-000001", PurchaseID: "p1", Status: domain.StatusIssued}

	stored, created, err := d.CreateCertificate(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "MFC-2024-000001", stored.Number)

	_, created, err = d.CreateCertificate(ctx, &domain.Certificate{ID: "cert-1", Number: "MFC-2024-000002"})
	require.NoError(t, err)
	assert.False(t, created)

	list, err := d.ListByPurchase(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "MFC-2024-000001", list[0].Number)

	url, err := d.SetArtifactURL(ctx, "cert-1", "https://first.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://first.pdf", url)

	url, err = d.SetArtifactURL(ctx, "cert-1", "https://second.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://first.pdf", url)

	revoked, err := d.Revoke(ctx, "cert-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRevoked, revoked.Status)

	_, err = d.GetByNumber(ctx, "MFC-2024-999999")
	assert.ErrorIs(t, err, ErrNotFound)
}
