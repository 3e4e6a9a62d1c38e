package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

const testWebhookSecret = "whsec_test"

func newTestProcessor(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *StripeProcessor {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		URL:               stripe.String(server.URL),
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, config),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
	}

	return NewStripeProcessor(NewClient("sk_test_123", testWebhookSecret, backends))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestStripeProcessor_CreatePaymentIntent(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "ref-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "10000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "ref-1", r.PostForm.Get("metadata[checkout_ref]"))
		assert.Equal(t, "donation", r.PostForm.Get("metadata[kind]"))

		writeJSON(w, http.StatusOK, `{
			"id": "pi_123",
			"object": "payment_intent",
			"client_secret": "pi_123_secret_abc",
			"amount": 10000,
			"currency": "usd",
			"status": "requires_payment_method",
			"metadata": {"checkout_ref": "ref-1", "kind": "donation"}
		}`)
	}, time.Second)

	pi, err := p.CreatePaymentIntent(context.Background(), domain.CreateIntentRequest{
		Ref:      "ref-1",
		Amount:   10000,
		Currency: "USD",
		Email:    "donor@example.com",
		Metadata: map[string]string{domain.MetadataKind: "donation"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, "pi_123_secret_abc", pi.ClientSecret)
	assert.Equal(t, domain.StatusRequiresAction, pi.Status)
	assert.Equal(t, "ref-1", pi.Metadata[domain.MetadataCheckoutRef])
}

func TestStripeProcessor_CreateCheckoutSession(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "https://shop.example.com/thanks?session_id={CHECKOUT_SESSION_ID}", r.PostForm.Get("success_url"))
		assert.Equal(t, "ref-2", r.PostForm.Get("payment_intent_data[metadata][checkout_ref]"))
		assert.Equal(t, "ref-2", r.PostForm.Get("metadata[checkout_ref]"))

		writeJSON(w, http.StatusOK, `{
			"id": "cs_test_123",
			"object": "checkout.session",
			"url": "https://checkout.stripe.com/c/pay/cs_test_123",
			"status": "open",
			"payment_status": "unpaid",
			"amount_total": 10000,
			"currency": "usd",
			"metadata": {"checkout_ref": "ref-2"}
		}`)
	}, time.Second)

	session, err := p.CreateCheckoutSession(context.Background(), domain.CreateSessionRequest{
		CreateIntentRequest: domain.CreateIntentRequest{
			Ref:      "ref-2",
			Amount:   10000,
			Currency: "usd",
			Email:    "donor@example.com",
		},
		ProductName: "Donation",
		SuccessURL:  "https://shop.example.com/thanks",
		CancelURL:   "https://shop.example.com/cart",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", session.URL)
	assert.Equal(t, domain.StatusRequiresAction, session.Status)
}

func TestStripeProcessor_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		delay    time.Duration
		wantKind apperrors.Kind
	}{
		{
			name:     "invalid api key",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"type": "invalid_request_error", "message": "Invalid API Key provided"}}`,
			wantKind: apperrors.KindConfiguration,
		},
		{
			name:     "stripe outage",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"type": "api_error", "message": "Something went wrong"}}`,
			wantKind: apperrors.KindUpstream,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"type": "invalid_request_error", "message": "Too many requests"}}`,
			wantKind: apperrors.KindUpstream,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"error": {"type": "invalid_request_error", "message": "Amount must be at least $0.50 usd"}}`,
			wantKind: apperrors.KindValidation,
		},
		{
			name:     "timeout",
			status:   http.StatusOK,
			body:     `{}`,
			delay:    200 * time.Millisecond,
			wantKind: apperrors.KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(tt.delay)
				writeJSON(w, tt.status, tt.body)
			}, 50*time.Millisecond)

			_, err := p.GetPaymentIntent(context.Background(), "pi_123")
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestStripeProcessor_NotConfigured(t *testing.T) {
	p := NewStripeProcessor(nil)

	_, err := p.CreatePaymentIntent(context.Background(), domain.CreateIntentRequest{Ref: "ref-1", Amount: 100, Currency: "usd"})
	assert.True(t, apperrors.Is(err, apperrors.KindConfiguration))

	_, err = p.ParseEvent([]byte(`{}`), "t=1,v1=abc")
	assert.True(t, apperrors.Is(err, apperrors.KindConfiguration))
}

func signPayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))

	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeProcessor_ParseEvent(t *testing.T) {
	p := NewStripeProcessor(NewClient("sk_test_123", testWebhookSecret, nil))

	tests := []struct {
		name       string
		payload    string
		signature  func(payload []byte) string
		wantErr    error
		wantKind   apperrors.Kind
		wantRef    string
		wantStatus domain.Status
		wantAmount int64
	}{
		{
			name:       "payment intent succeeded",
			payload:    `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent","amount":10000,"amount_received":10000,"currency":"usd","status":"succeeded","metadata":{"checkout_ref":"ref-1"}}}}`,
			wantRef:    "ref-1",
			wantStatus: domain.StatusSucceeded,
			wantAmount: 10000,
		},
		{
			name:       "failed attempt keeps the intent open",
			payload:    `{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_123","object":"payment_intent","status":"requires_payment_method","metadata":{"checkout_ref":"ref-1"}}}}`,
			wantRef:    "ref-1",
			wantStatus: domain.StatusRequiresAction,
		},
		{
			name:       "checkout session completed without metadata",
			payload:    `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_123","object":"checkout.session","status":"complete","payment_status":"paid","amount_total":10000,"currency":"usd","client_reference_id":"ref-2"}}}`,
			wantRef:    "ref-2",
			wantStatus: domain.StatusSucceeded,
			wantAmount: 10000,
		},
		{
			name:       "async payment failed",
			payload:    `{"id":"evt_4","object":"event","type":"checkout.session.async_payment_failed","data":{"object":{"id":"cs_test_123","object":"checkout.session","status":"complete","payment_status":"unpaid","metadata":{"checkout_ref":"ref-2"}}}}`,
			wantRef:    "ref-2",
			wantStatus: domain.StatusFailed,
		},
		{
			name:    "unhandled event type",
			payload: `{"id":"evt_5","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			wantErr: ErrUnhandledEvent,
		},
		{
			name:    "bad signature",
			payload: `{"id":"evt_6","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`,
			signature: func(payload []byte) string {
				return signPayload("whsec_other", payload)
			},
			wantKind: apperrors.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(tt.payload)

			signature := signPayload(testWebhookSecret, payload)
			if tt.signature != nil {
				signature = tt.signature(payload)
			}

			event, err := p.ParseEvent(payload, signature)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantKind != "":
				assert.True(t, apperrors.Is(err, tt.wantKind), "got %v", err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRef, event.Ref)
				assert.Equal(t, tt.wantStatus, event.Status)
				assert.Equal(t, tt.wantAmount, event.AmountCaptured)
			}
		})
	}
}

func TestSuccessURL(t *testing.T) {
	assert.Equal(t, "https://a.example/r?session_id={CHECKOUT_SESSION_ID}", successURL("https://a.example/r"))
	assert.Equal(t, "https://a.example/r?x=1&session_id={CHECKOUT_SESSION_ID}", successURL("https://a.example/r?x=1"))
	assert.Equal(t, "https://a.example/r?sid={CHECKOUT_SESSION_ID}", successURL("https://a.example/r?sid={CHECKOUT_SESSION_ID}"))
}
