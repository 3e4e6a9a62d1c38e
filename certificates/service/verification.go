package service

import (
	"context"
	"errors"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/certificates/dal"
	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/logger"
)

// VerificationService answers public lookups by certificate number.
type VerificationService struct {
	loggerProvider logger.Provider
	certificates   dal.Certificates
}

func NewVerificationService(log logger.Provider, certificates dal.Certificates) *VerificationService {
	return &VerificationService{
		loggerProvider: log,
		certificates:   certificates,
	}
}

// Verify looks up a certificate number in any case and with surrounding
// spaces. An unknown number is a result with Found=false, not an error.
func (s *VerificationService) Verify(ctx context.Context, number string) (*domain.VerificationResult, error) {
	normalized := domain.NormalizeNumber(number)
	if normalized == "" {
		return nil, apperrors.Validation("certificate_number is required")
	}

	l := s.loggerProvider(ctx)
	l.SetLabel(logger.LabelCertificateNumber, normalized)

	c, err := s.certificates.GetByNumber(ctx, normalized)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return &domain.VerificationResult{Found: false}, nil
		}

		return nil, apperrors.Upstream(err)
	}

	return &domain.VerificationResult{
		Found: true,
		View:  domain.NewVerificationView(c),
	}, nil
}
