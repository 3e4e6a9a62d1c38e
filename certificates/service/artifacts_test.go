package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/dal"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/certificates/iface/mocks"
	"github.com/doitintl/hello/offset-checkout/logger"
)

func seedCertificate(t *testing.T, store dal.Store, c domain.Certificate) *domain.Certificate {
	t.Helper()

	stored, created, err := store.CreateCertificate(context.Background(), &c)
	require.NoError(t, err)
	require.True(t, created)

	return stored
}

func areaCertificate() domain.Certificate {
	return domain.Certificate{
		ID:          "cert-1",
		Kind:        domain.KindArea,
		Number:      "MFC-2024-000001",
		PurchaseID:  "p1",
		ProjectID:   "amazon",
		ProjectName: "Amazon",
		AreaSqm:     10,
		CO2OffsetKg: 220,
		Status:      domain.StatusIssued,
		IssuedAt:    issuedAt,
	}
}

func TestArtifactService_Render(t *testing.T) {
	ctx := context.Background()
	store := dal.NewStoreMemory()
	seedCertificate(t, store, areaCertificate())

	renderer := mocks.NewRenderer(t)
	storage := mocks.NewArtifactStorage(t)

	renderer.On("Render", mock.Anything, mock.MatchedBy(func(c *domain.Certificate) bool {
		return c.Number == "MFC-2024-000001"
	})).Return([]byte("%PDF"), nil).Once()
	storage.On("Put", mock.Anything, "certificates/MFC-2024-000001.pdf", []byte("%PDF"), "application/pdf").
		Return("https://storage.example.com/certificates/MFC-2024-000001.pdf", nil).Once()

	s := NewArtifactService(logger.FromContext, store, renderer, storage, time.Second)

	url, err := s.Render(ctx, "cert-1")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/certificates/MFC-2024-000001.pdf", url)

	// rendered once, the second call reads the stored url
	again, err := s.Render(ctx, "cert-1")
	require.NoError(t, err)
	assert.Equal(t, url, again)
}

func TestArtifactService_RenderConcurrentCallsShareOneRender(t *testing.T) {
	ctx := context.Background()
	store := dal.NewStoreMemory()
	seedCertificate(t, store, areaCertificate())

	renderer := mocks.NewRenderer(t)
	storage := mocks.NewArtifactStorage(t)

	release := make(chan struct{})

	renderer.On("Render", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return([]byte("%PDF"), nil).Maybe()
	storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("https://storage.example.com/a.pdf", nil).Maybe()

	s := NewArtifactService(logger.FromContext, store, renderer, storage, time.Second)

	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			url, err := s.Render(ctx, "cert-1")
			assert.NoError(t, err)
			assert.Equal(t, "https://storage.example.com/a.pdf", url)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	renders := 0

	for _, call := range renderer.Calls {
		if call.Method == "Render" {
			renders++
		}
	}

	assert.Equal(t, 1, renders)

	c, err := store.GetCertificate(ctx, "cert-1")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/a.pdf", c.ArtifactURL)
}

func TestArtifactService_RenderFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		seed  func(c *domain.Certificate)
		id    string
		on    func(r *mocks.Renderer, s *mocks.ArtifactStorage)
		wants apperrors.Kind
	}{
		{
			name:  "unknown certificate",
			id:    "missing",
			wants: apperrors.KindNotFound,
		},
		{
			name:  "revoked certificate",
			id:    "cert-1",
			seed:  func(c *domain.Certificate) { c.Status = domain.StatusRevoked },
			wants: apperrors.KindValidation,
		},
		{
			name: "renderer fails",
			id:   "cert-1",
			on: func(r *mocks.Renderer, s *mocks.ArtifactStorage) {
				r.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("docs quota exceeded"))
			},
			wants: apperrors.KindUpstream,
		},
		{
			name: "storage fails",
			id:   "cert-1",
			on: func(r *mocks.Renderer, s *mocks.ArtifactStorage) {
				r.On("Render", mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)
				s.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket unavailable"))
			},
			wants: apperrors.KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := dal.NewStoreMemory()
			c := areaCertificate()

			if tt.seed != nil {
				tt.seed(&c)
			}

			seedCertificate(t, store, c)

			renderer := mocks.NewRenderer(t)
			storage := mocks.NewArtifactStorage(t)

			if tt.on != nil {
				tt.on(renderer, storage)
			}

			s := NewArtifactService(logger.FromContext, store, renderer, storage, time.Second)

			_, err := s.Render(ctx, tt.id)
			assert.True(t, apperrors.Is(err, tt.wants), "got %v", err)

			stored, err := store.GetCertificate(ctx, "cert-1")
			require.NoError(t, err)
			assert.Empty(t, stored.ArtifactURL)
		})
	}
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "certificates/MFD-2024-000042.pdf", ArtifactKey(&domain.Certificate{Number: "MFD-2024-000042"}))
}
