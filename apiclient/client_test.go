package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/dal"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/certificates/handlers"
	"github.com/doitintl/hello/offset-checkout/certificates/iface/mocks"
	"github.com/doitintl/hello/offset-checkout/certificates/service"
	"github.com/doitintl/hello/offset-checkout/certificates/storage"
	"github.com/doitintl/hello/offset-checkout/framework/mid"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/logger"
)

func newTestServer(t *testing.T) (*Client, *dal.StoreMemory, *mocks.Renderer) {
	store := dal.NewStoreMemory()
	renderer := mocks.NewRenderer(t)

	h := handlers.NewCertificates(
		logger.FromContext,
		service.NewIssuanceService(logger.FromContext, store, store),
		service.NewArtifactService(logger.FromContext, store, renderer, storage.NewMemory(), time.Second),
		service.NewVerificationService(logger.FromContext, store),
	)

	app := web.NewTestApp(mid.Errors())
	app.Post("/v1/certificates/issue", h.Issue)
	app.Post("/v1/certificates/generate", h.Generate)
	app.Get("/v1/certificates/verify", h.Verify)
	app.Get("/v1/certificates", h.List)

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	return New(Options{BaseURL: srv.URL, IdentityToken: "session-token"}), store, renderer
}

func seedDonation(t *testing.T, store *dal.StoreMemory) *domain.Donation {
	t.Helper()

	d := &domain.Donation{
		ID:              domain.DonationID("pi_d"),
		PaymentIntentID: "pi_d",
		Email:           "donor@example.com",
		Amount:          10000,
		Currency:        "USD",
		ProjectName:     "Amazon",
		DonorName:       "Ada",
	}

	created, err := store.CreateDonation(context.Background(), d)
	require.NoError(t, err)
	require.True(t, created)

	return d
}

func TestClient_IssueGenerateVerify(t *testing.T) {
	ctx := context.Background()
	client, store, renderer := newTestServer(t)
	d := seedDonation(t, store)

	renderer.On("Render", mock.Anything, mock.Anything).Return([]byte("%PDF"), nil).Once()

	certificates, err := client.Issue(ctx, "", d.ID)
	require.NoError(t, err)
	require.Len(t, certificates, 1)
	assert.Equal(t, domain.KindDonation, certificates[0].Kind)
	assert.False(t, certificates[0].HasArtifact())

	url, err := client.Generate(ctx, certificates[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "memory://certificates/"+certificates[0].Number+".pdf", url)

	listed, err := client.List(ctx, "", d.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, url, listed[0].ArtifactURL)

	v, err := client.Verify(ctx, certificates[0].Number)
	require.NoError(t, err)
	require.True(t, v.Found)
	require.NotNil(t, v.VerificationView)
	assert.Equal(t, "Ada", v.DonorName)

	v, err = client.Verify(ctx, "MFD-1999-000001")
	require.NoError(t, err)
	assert.False(t, v.Found)
	assert.Nil(t, v.VerificationView)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	client, store, renderer := newTestServer(t)
	d := seedDonation(t, store)

	_, err := client.Generate(ctx, "nope")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound), err)

	_, err = client.Verify(ctx, " ")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation), err)

	_, err = client.Issue(ctx, "", "")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation), err)

	certificates, err := client.Issue(ctx, "", d.ID)
	require.NoError(t, err)

	renderer.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("docs unavailable")).Once()

	_, err = client.Generate(ctx, certificates[0].ID)
	assert.True(t, apperrors.IsRetryable(err), err)
}

func TestClient_SendsIdentityToken(t *testing.T) {
	var got string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(identityTokenHeader)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"certificates":[]}}`))
	}))
	defer srv.Close()

	certificates, err := New(Options{BaseURL: srv.URL, IdentityToken: "tok"}).List(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Empty(t, certificates)
	assert.Equal(t, "tok", got)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Options{BaseURL: url, Timeout: time.Second}).Generate(context.Background(), "cert-1")
	assert.True(t, apperrors.IsRetryable(err), err)
}
