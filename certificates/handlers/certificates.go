package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/tasks"
)

type Issuer interface {
	IssueForPurchase(ctx context.Context, purchaseID string) ([]*domain.Certificate, error)
	IssueForDonation(ctx context.Context, donationID string) ([]*domain.Certificate, error)
	Get(ctx context.Context, certificateID string) (*domain.Certificate, error)
	List(ctx context.Context, purchaseID, donationID string) ([]*domain.Certificate, error)
	Revoke(ctx context.Context, certificateID string) (*domain.Certificate, error)
}

type Renderer interface {
	Render(ctx context.Context, certificateID string) (string, error)
}

type Verifier interface {
	Verify(ctx context.Context, number string) (*domain.VerificationResult, error)
}

type Certificates struct {
	loggerProvider logger.Provider
	issuer         Issuer
	renderer       Renderer
	verifier       Verifier
}

func NewCertificates(log logger.Provider, issuer Issuer, renderer Renderer, verifier Verifier) *Certificates {
	return &Certificates{
		loggerProvider: log,
		issuer:         issuer,
		renderer:       renderer,
		verifier:       verifier,
	}
}

type IssueRequest struct {
	CertificateID string `json:"certificate_id"`
	PurchaseID    string `json:"purchase_id"`
	DonationID    string `json:"donation_id"`
}

type CertificatesResponse struct {
	Certificates []*domain.Certificate `json:"certificates"`
}

type GenerateRequest struct {
	CertificateID string `json:"certificate_id" binding:"required"`
}

type GenerateResponse struct {
	ArtifactURL string `json:"artifact_url"`
}

// VerifyResponse flattens the public view next to the found flag.
type VerifyResponse struct {
	Found bool `json:"found"`
	*domain.VerificationView
}

// Issue returns the certificates of a purchase, a donation or a single
// certificate, issuing the missing ones.
func (h *Certificates) Issue(ctx *gin.Context) error {
	var req IssueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	var (
		certificates []*domain.Certificate
		err          error
	)

	switch {
	case req.CertificateID != "":
		var c *domain.Certificate

		c, err = h.issuer.Get(ctx, req.CertificateID)
		if err == nil {
			certificates = []*domain.Certificate{c}
		}
	case req.PurchaseID != "":
		certificates, err = h.issuer.IssueForPurchase(ctx, req.PurchaseID)
	case req.DonationID != "":
		certificates, err = h.issuer.IssueForDonation(ctx, req.DonationID)
	default:
		return web.TranslateError(apperrors.Validation("certificate_id, purchase_id or donation_id is required"))
	}

	if err != nil {
		return web.TranslateError(err)
	}

	return web.Respond(ctx, CertificatesResponse{Certificates: certificates}, http.StatusOK)
}

// Generate renders the certificate artifact, or returns the one already stored.
func (h *Certificates) Generate(ctx *gin.Context) error {
	var req GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	url, err := h.renderer.Render(ctx, req.CertificateID)
	if err != nil {
		return web.TranslateError(err)
	}

	return web.Respond(ctx, GenerateResponse{ArtifactURL: url}, http.StatusOK)
}

func (h *Certificates) Verify(ctx *gin.Context) error {
	result, err := h.verifier.Verify(ctx, ctx.Query("certificate_number"))
	if err != nil {
		return web.TranslateError(err)
	}

	return web.Respond(ctx, VerifyResponse{Found: result.Found, VerificationView: result.View}, http.StatusOK)
}

func (h *Certificates) List(ctx *gin.Context) error {
	certificates, err := h.issuer.List(ctx, ctx.Query("purchase_id"), ctx.Query("donation_id"))
	if err != nil {
		return web.TranslateError(err)
	}

	if certificates == nil {
		certificates = []*domain.Certificate{}
	}

	return web.Respond(ctx, CertificatesResponse{Certificates: certificates}, http.StatusOK)
}

func (h *Certificates) Revoke(ctx *gin.Context) error {
	c, err := h.issuer.Revoke(ctx, ctx.Param("certificateID"))
	if err != nil {
		return web.TranslateError(err)
	}

	return web.Respond(ctx, c, http.StatusOK)
}

// RenderTask is the Cloud Tasks worker. The queue retries any non 2xx
// answer, so permanent failures are acknowledged and logged.
func (h *Certificates) RenderTask(ctx *gin.Context) error {
	l := h.loggerProvider(ctx)

	var task tasks.RenderTask
	if err := ctx.ShouldBindJSON(&task); err != nil {
		l.Errorf("dropping malformed render task: %s", err)
		return web.Respond(ctx, nil, http.StatusOK)
	}

	l.SetLabel(logger.LabelCertificateID, task.CertificateID)

	url, err := h.renderer.Render(ctx, task.CertificateID)
	if err != nil {
		if apperrors.IsRetryable(err) {
			return web.NewRequestError(err, http.StatusInternalServerError)
		}

		l.Warningf("render task for %s dropped: %s", task.CertificateID, err)

		return web.Respond(ctx, nil, http.StatusOK)
	}

	return web.Respond(ctx, GenerateResponse{ArtifactURL: url}, http.StatusOK)
}
