package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/dal"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/certificates/iface"
	"github.com/doitintl/hello/offset-checkout/logger"
)

const artifactContentType = "application/pdf"

// ArtifactService renders certificate PDFs. Rendering is idempotent: once a
// certificate has an artifact url it is returned without rendering again.
type ArtifactService struct {
	loggerProvider logger.Provider
	certificates   dal.Certificates
	renderer       iface.Renderer
	storage        iface.ArtifactStorage
	timeout        time.Duration
	group          singleflight.Group
}

func NewArtifactService(log logger.Provider, certificates dal.Certificates, renderer iface.Renderer, storage iface.ArtifactStorage, timeout time.Duration) *ArtifactService {
	return &ArtifactService{
		loggerProvider: log,
		certificates:   certificates,
		renderer:       renderer,
		storage:        storage,
		timeout:        timeout,
	}
}

// ArtifactKey is the storage key of a certificate document.
func ArtifactKey(c *domain.Certificate) string {
	return fmt.Sprintf("certificates/%s.pdf", c.Number)
}

// Render returns the artifact url of the certificate, rendering and uploading
// the document if there is none yet. Failures are retryable and leave the
// certificate untouched.
func (s *ArtifactService) Render(ctx context.Context, certificateID string) (string, error) {
	l := s.loggerProvider(ctx)
	l.SetLabel(logger.LabelCertificateID, certificateID)

	c, err := s.certificates.GetCertificate(ctx, certificateID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return "", apperrors.NotFound("certificate")
		}

		return "", apperrors.Upstream(err)
	}

	if c.HasArtifact() {
		return c.ArtifactURL, nil
	}

	if c.Status == domain.StatusRevoked {
		return "", apperrors.Validation("certificate is revoked")
	}

	// concurrent requests for the same certificate share one render
	v, err, shared := s.group.Do(c.ID, func() (interface{}, error) {
		return s.render(ctx, c)
	})
	if err != nil {
		return "", err
	}

	if shared {
		l.Debugf("render of %s shared with a concurrent request", c.Number)
	}

	return v.(string), nil
}

func (s *ArtifactService) render(ctx context.Context, c *domain.Certificate) (string, error) {
	l := s.loggerProvider(ctx)

	renderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	data, err := s.renderer.Render(renderCtx, c)
	if err != nil {
		l.Warningf("render certificate %s: %s", c.Number, err)
		return "", apperrors.Upstream(fmt.Errorf("render certificate %s: %w", c.Number, err))
	}

	url, err := s.storage.Put(renderCtx, ArtifactKey(c), data, artifactContentType)
	if err != nil {
		l.Warningf("upload certificate %s: %s", c.Number, err)
		return "", apperrors.Upstream(fmt.Errorf("upload certificate %s: %w", c.Number, err))
	}

	stored, err := s.certificates.SetArtifactURL(ctx, c.ID, url)
	if err != nil {
		if errors.Is(err, dal.ErrRevoked) {
			return "", apperrors.Validation("certificate is revoked")
		}

		return "", apperrors.Upstream(err)
	}

	if stored != url {
		l.Infof("%s: certificate %s already had an artifact", apperrors.ErrDuplicateSuppressed, c.Number)
	}

	l.SetLabel(logger.LabelCertificateNumber, c.Number)
	l.Infof("certificate %s rendered to %s", c.Number, stored)

	return stored, nil
}
