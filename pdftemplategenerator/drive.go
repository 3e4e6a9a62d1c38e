//go:generate mockery --output=./mocks --name Drive
package pdftemplategenerator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/doitintl/hello/offset-checkout/secretmanager"
)

const (
	pdfMimeType    string = "application/pdf"
	folderMimeType string = "application/vnd.google-apps.folder"
)

// Drive is the subset of Google Drive and Docs operations used to render a template.
type Drive interface {
	CopyFile(ctx context.Context, srcDocID string, destFolderID string, destFileName string) (string, error)
	CreateFolder(ctx context.Context, parentFolderID string, folderName string) (string, error)
	ExportFileAsPDF(ctx context.Context, docID string) ([]byte, error)
	ExecuteBatchUpdate(ctx context.Context, docID string, batchUpdate *docs.BatchUpdateDocumentRequest) error
	DeleteFile(ctx context.Context, fileID string) error
}

type googleDrive struct {
	driveService *drive.Service
	docsService  *docs.Service
}

// NewGoogleDrive authenticates with the service account stored in Secret Manager.
func NewGoogleDrive(ctx context.Context) (Drive, error) {
	data, err := secretmanager.AccessSecretLatestVersion(ctx, secretmanager.SecretGoogleDrive)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := google.JWTConfigFromJSON(data, drive.DriveFileScope, drive.DriveScope, docs.DocumentsScope)
	if err != nil {
		return nil, err
	}

	clientOpt := option.WithHTTPClient(serviceConfig.Client(ctx))

	driveService, err := drive.NewService(ctx, clientOpt)
	if err != nil {
		return nil, err
	}

	docsService, err := docs.NewService(ctx, clientOpt)
	if err != nil {
		return nil, err
	}

	return &googleDrive{
		driveService,
		docsService,
	}, nil
}

func (c *googleDrive) CopyFile(ctx context.Context, srcDocID string, destFolderID string, destFileName string) (string, error) {
	file, err := c.driveService.Files.Copy(srcDocID, &drive.File{
		Parents: []string{destFolderID},
		Name:    destFileName,
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	return file.Id, nil
}

func (c *googleDrive) CreateFolder(ctx context.Context, parentFolderID string, folderName string) (string, error) {
	existFolderID, err := c.findByName(ctx, parentFolderID, folderName)
	if err != nil {
		return "", err
	}

	if len(existFolderID) > 0 {
		return existFolderID, nil
	}

	folder, err := c.driveService.Files.Create(&drive.File{
		Name:     folderName,
		MimeType: folderMimeType,
		Parents:  []string{parentFolderID},
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	return folder.Id, nil
}

func (c *googleDrive) ExportFileAsPDF(ctx context.Context, docID string) ([]byte, error) {
	pdfFile, err := c.driveService.Files.Export(docID, pdfMimeType).Context(ctx).Download()
	if err != nil {
		return nil, err
	}

	defer pdfFile.Body.Close()

	return io.ReadAll(pdfFile.Body)
}

func (c *googleDrive) ExecuteBatchUpdate(ctx context.Context, docID string, batchUpdate *docs.BatchUpdateDocumentRequest) error {
	_, err := c.docsService.Documents.BatchUpdate(docID, batchUpdate).Context(ctx).Do()

	return err
}

func (c *googleDrive) DeleteFile(ctx context.Context, fileID string) error {
	return c.driveService.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
}

func (c *googleDrive) findByName(ctx context.Context, folderID string, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), folderID)

	fileList, err := c.driveService.Files.List().
		Q(q).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}

	for _, f := range fileList.Files {
		if f.Name == name {
			return f.Id, nil
		}
	}

	return "", nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
