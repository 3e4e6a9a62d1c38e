package pdftemplategenerator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/logger"
	"github.com/doitintl/hello/offset-checkout/pdftemplategenerator/mocks"
)

var issuedAt = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

func replacements(req *docs.BatchUpdateDocumentRequest) map[string]string {
	m := make(map[string]string, len(req.Requests))
	for _, r := range req.Requests {
		m[r.ReplaceAllText.ContainsText.Text] = r.ReplaceAllText.ReplaceText
	}

	return m
}

func TestService_RenderAreaCertificate(t *testing.T) {
	ctx := context.Background()
	drive := mocks.NewDrive(t)

	c := &domain.Certificate{
		Kind:        domain.KindArea,
		Number:      "MFC-2024-000012",
		ProjectName: "Amazon",
		AreaSqm:     2.5,
		CO2OffsetKg: 55,
		IssuedAt:    issuedAt,
	}

	drive.On("CreateFolder", ctx, "folder", "2024").Return("year-folder", nil)
	drive.On("CopyFile", ctx, "area-template", "year-folder", "MFC-2024-000012").Return("doc-1", nil)
	drive.On("ExecuteBatchUpdate", ctx, "doc-1", mock.MatchedBy(func(req *docs.BatchUpdateDocumentRequest) bool {
		r := replacements(req)

		return r["{{certificate_number}}"] == "MFC-2024-000012" &&
			r["{{area_sqm}}"] == "2.5" &&
			r["{{co2_offset_kg}}"] == "55.00" &&
			r["{{issue_date}}"] == "March 9, 2024"
	})).Return(nil)
	drive.On("ExportFileAsPDF", ctx, "doc-1").Return([]byte("%PDF-1.4"), nil)
	drive.On("DeleteFile", mock.Anything, "doc-1").Return(nil)

	s := NewService(logger.FromContext, drive, "area-template", "donation-template", "folder")

	pdf, err := s.Render(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
}

func TestService_RenderDeletesWorkingCopyOnFailure(t *testing.T) {
	ctx := context.Background()
	drive := mocks.NewDrive(t)

	drive.On("CreateFolder", ctx, "folder", "2024").Return("year-folder", nil)
	drive.On("CopyFile", ctx, "donation-template", "year-folder", "MFD-2024-000001").Return("doc-2", nil)
	drive.On("ExecuteBatchUpdate", ctx, "doc-2", mock.Anything).Return(errors.New("quota exceeded"))
	drive.On("DeleteFile", mock.Anything, "doc-2").Return(nil)

	s := NewService(logger.FromContext, drive, "area-template", "donation-template", "folder")

	_, err := s.Render(ctx, &domain.Certificate{
		Kind:     domain.KindDonation,
		Number:   "MFD-2024-000001",
		IssuedAt: issuedAt,
	})
	assert.EqualError(t, err, "quota exceeded")
}

func TestService_RenderWithoutTemplate(t *testing.T) {
	s := NewService(logger.FromContext, mocks.NewDrive(t), "area-template", "", "folder")

	_, err := s.Render(context.Background(), &domain.Certificate{Kind: domain.KindDonation})
	assert.Error(t, err)
}

func TestPlaceHolders(t *testing.T) {
	tests := []struct {
		name  string
		c     *domain.Certificate
		donor string
	}{
		{
			name:  "named donor",
			c:     &domain.Certificate{Kind: domain.KindDonation, DonorName: "Ada"},
			donor: "Ada",
		},
		{
			name:  "anonymous donor",
			c:     &domain.Certificate{Kind: domain.KindDonation, DonorName: "Ada", IsAnonymous: true},
			donor: "Anonymous",
		},
		{
			name:  "no donor name",
			c:     &domain.Certificate{Kind: domain.KindDonation},
			donor: "Anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[string]string{}
			for _, change := range PlaceHolders(tt.c) {
				values[change.PlaceHolder] = change.TextReplace
			}

			assert.Equal(t, tt.donor, values["donor_name"])
			assert.NotContains(t, values, "area_sqm")
		})
	}
}
