// Package apiclient is the HTTP client of the checkout API used by certsync.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
)

const (
	identityTokenHeader = "X-Identity-Token"
	defaultTimeout      = 30 * time.Second
)

type Client struct {
	rest *resty.Client
}

type Options struct {
	BaseURL       string
	IdentityToken string
	Timeout       time.Duration
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rest := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if opts.IdentityToken != "" {
		rest.SetHeader(identityTokenHeader, opts.IdentityToken)
	}

	return &Client{rest: rest}
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type errorEnvelope struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	UserMessage string `json:"userMessage"`
}

type certificatesData struct {
	Certificates []*domain.Certificate `json:"certificates"`
}

type generateData struct {
	ArtifactURL string `json:"artifact_url"`
}

// Verification is the public answer for a certificate number.
type Verification struct {
	Found bool `json:"found"`
	*domain.VerificationView
}

// Generate renders the certificate artifact and returns its url.
func (c *Client) Generate(ctx context.Context, certificateID string) (string, error) {
	var out envelope[generateData]

	if err := c.do(ctx, http.MethodPost, "/v1/certificates/generate", map[string]string{"certificate_id": certificateID}, nil, &out); err != nil {
		return "", err
	}

	return out.Data.ArtifactURL, nil
}

// Issue returns the certificates of a purchase or a donation.
func (c *Client) Issue(ctx context.Context, purchaseID, donationID string) ([]*domain.Certificate, error) {
	body := map[string]string{}

	switch {
	case purchaseID != "":
		body["purchase_id"] = purchaseID
	case donationID != "":
		body["donation_id"] = donationID
	default:
		return nil, apperrors.Validation("purchase or donation id is required")
	}

	var out envelope[certificatesData]

	if err := c.do(ctx, http.MethodPost, "/v1/certificates/issue", body, nil, &out); err != nil {
		return nil, err
	}

	return out.Data.Certificates, nil
}

func (c *Client) List(ctx context.Context, purchaseID, donationID string) ([]*domain.Certificate, error) {
	query := map[string]string{}
	if purchaseID != "" {
		query["purchase_id"] = purchaseID
	}

	if donationID != "" {
		query["donation_id"] = donationID
	}

	var out envelope[certificatesData]

	if err := c.do(ctx, http.MethodGet, "/v1/certificates", nil, query, &out); err != nil {
		return nil, err
	}

	return out.Data.Certificates, nil
}

func (c *Client) Verify(ctx context.Context, number string) (*Verification, error) {
	var out envelope[Verification]

	if err := c.do(ctx, http.MethodGet, "/v1/certificates/verify", nil, map[string]string{"certificate_number": number}, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, query map[string]string, result interface{}) error {
	var errOut errorEnvelope

	req := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errOut)

	if body != nil {
		req.SetBody(body)
	}

	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return apperrors.Upstream(fmt.Errorf("%s %s: %w", method, path, err))
	}

	if !resp.IsError() {
		return nil
	}

	return statusError(method, path, resp.StatusCode(), &errOut)
}

func statusError(method, path string, status int, e *errorEnvelope) error {
	message := e.UserMessage
	if message == "" {
		message = e.Error
	}

	switch status {
	case http.StatusBadRequest:
		return apperrors.Validation(message)
	case http.StatusNotFound:
		return apperrors.NotFound("certificate")
	case http.StatusServiceUnavailable:
		return apperrors.Configuration(fmt.Errorf("%s %s: %s", method, path, message))
	default:
		return apperrors.Upstream(fmt.Errorf("%s %s: status %d: %s", method, path, status, message))
	}
}
