package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/doitintl/hello/offset-checkout/secretmanager"
)

const maxNetworkRetries = 2

var ErrNotConfigured = errors.New("stripe is not configured")

type Client struct {
	*client.API
	webhookSignKey string
}

type stripeSecret struct {
	APIKey         string `json:"api_key"`
	WebhookSignKey string `json:"webhook_sign_key"`
}

// NewStripeClient loads the Stripe credentials and returns a client whose
// requests are bounded by timeout. Credentials come from STRIPE_API_KEY and
// STRIPE_WEBHOOK_SECRET when set, and from Secret Manager otherwise.
func NewStripeClient(ctx context.Context, timeout time.Duration) (*Client, error) {
	secret, err := getStripeSecret(ctx)
	if err != nil {
		return nil, err
	}

	return NewClient(secret.APIKey, secret.WebhookSignKey, newBackends(&http.Client{Timeout: timeout}, "")), nil
}

// NewClient returns a client for the given credentials. A nil backends uses the Stripe defaults.
func NewClient(apiKey, webhookSignKey string, backends *stripe.Backends) *Client {
	// Init stripe client
	var stripeClient client.API

	stripeClient.Init(apiKey, backends)

	return &Client{
		&stripeClient,
		webhookSignKey,
	}
}

func newBackends(httpClient *http.Client, url string) *stripe.Backends {
	config := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(maxNetworkRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}

	if url != "" {
		config.URL = stripe.String(url)
	}

	return &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, config),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
	}
}

func getStripeSecret(ctx context.Context) (stripeSecret, error) {
	if apiKey := os.Getenv("STRIPE_API_KEY"); apiKey != "" {
		return stripeSecret{
			APIKey:         apiKey,
			WebhookSignKey: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		}, nil
	}

	data, err := secretmanager.AccessSecretLatestVersion(ctx, secretmanager.SecretStripe)
	if err != nil {
		return stripeSecret{}, err
	}

	var secret stripeSecret

	if err := json.Unmarshal(data, &secret); err != nil {
		return stripeSecret{}, err
	}

	if secret.APIKey == "" {
		return stripeSecret{}, ErrNotConfigured
	}

	return secret, nil
}
