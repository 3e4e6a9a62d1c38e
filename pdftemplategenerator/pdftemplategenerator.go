package pdftemplategenerator

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/docs/v1"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
	"github.com/doitintl/hello/offset-checkout/logger"
)

const issueDateLayout = "January 2, 2006"

type Service struct {
	loggerProvider     logger.Provider
	areaTemplateID     string
	donationTemplateID string
	folderID           string
	drive              Drive
}

type PlaceHolderChange struct {
	PlaceHolder string
	TextReplace string
}

// NewService renders certificates from two Google Docs templates, one per
// certificate kind. Working copies are made in folderID.
func NewService(log logger.Provider, drive Drive, areaTemplateID, donationTemplateID, folderID string) *Service {
	return &Service{
		loggerProvider:     log,
		areaTemplateID:     areaTemplateID,
		donationTemplateID: donationTemplateID,
		folderID:           folderID,
		drive:              drive,
	}
}

// Render produces the PDF of a certificate.
func (s *Service) Render(ctx context.Context, c *domain.Certificate) ([]byte, error) {
	templateID := s.areaTemplateID
	if c.Kind == domain.KindDonation {
		templateID = s.donationTemplateID
	}

	if templateID == "" {
		return nil, fmt.Errorf("no template configured for %s certificates", c.Kind)
	}

	folderName := strconv.Itoa(c.IssuedAt.Year())

	return s.GetTemplateFileWithReplacedValues(ctx, templateID, folderName, c.Number, PlaceHolders(c))
}

// PlaceHolders lists the {{placeholder}} values of a certificate template.
func PlaceHolders(c *domain.Certificate) []PlaceHolderChange {
	changes := []PlaceHolderChange{
		{PlaceHolder: "certificate_number", TextReplace: c.Number},
		{PlaceHolder: "project_name", TextReplace: c.ProjectName},
		{PlaceHolder: "issue_date", TextReplace: c.IssuedAt.Format(issueDateLayout)},
	}

	switch c.Kind {
	case domain.KindArea:
		changes = append(changes,
			PlaceHolderChange{PlaceHolder: "area_sqm", TextReplace: strconv.FormatFloat(c.AreaSqm, 'f', -1, 64)},
			PlaceHolderChange{PlaceHolder: "co2_offset_kg", TextReplace: strconv.FormatFloat(c.CO2OffsetKg, 'f', 2, 64)},
		)
	case domain.KindDonation:
		donor := c.DonorName
		if c.IsAnonymous || donor == "" {
			donor = "Anonymous"
		}

		changes = append(changes,
			PlaceHolderChange{PlaceHolder: "donor_name", TextReplace: donor},
			PlaceHolderChange{PlaceHolder: "message", TextReplace: c.Message},
		)
	}

	return changes
}

func (s *Service) GetTemplateFileWithReplacedValues(ctx context.Context, templateID, folderName, fileName string, changes []PlaceHolderChange) ([]byte, error) {
	fileID, err := s.copyTemplateDocFile(ctx, templateID, folderName, fileName)
	if err != nil {
		return nil, err
	}

	// the working copy is only needed until it is exported
	defer func() {
		if err := s.drive.DeleteFile(context.WithoutCancel(ctx), fileID); err != nil {
			s.loggerProvider(ctx).Warningf("delete working copy %s: %s", fileID, err)
		}
	}()

	if err := s.replaceValuesInTemplateDocument(ctx, fileID, changes); err != nil {
		return nil, err
	}

	return s.drive.ExportFileAsPDF(ctx, fileID)
}

func (s *Service) copyTemplateDocFile(ctx context.Context, templateID, folderName, fileName string) (string, error) {
	// create or return an existing folder ID by name
	folderID, err := s.drive.CreateFolder(ctx, s.folderID, folderName)
	if err != nil {
		return "", err
	}

	fileID, err := s.drive.CopyFile(ctx, templateID, folderID, fileName)
	if err != nil {
		return "", err
	}

	return fileID, nil
}

func (s *Service) replaceValuesInTemplateDocument(ctx context.Context, docID string, changes []PlaceHolderChange) error {
	var requests []*docs.Request

	for _, change := range changes {
		request := &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{
					MatchCase: false,
					Text:      fmt.Sprintf("{{%s}}", change.PlaceHolder),
				},
				ReplaceText: change.TextReplace,
			},
		}
		requests = append(requests, request)
	}

	batchUpdateRequest := &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}

	return s.drive.ExecuteBatchUpdate(ctx, docID, batchUpdateRequest)
}
