package common

import (
	"fmt"
	"strings"
	"time"
)

type StoreBackend string

const (
	StoreBackendFirestore StoreBackend = "firestore"
	StoreBackendPostgres  StoreBackend = "postgres"
	StoreBackendMemory    StoreBackend = "memory"
)

type ArtifactStorageKind string

const (
	ArtifactStorageGCS ArtifactStorageKind = "gcs"
	ArtifactStorageS3  ArtifactStorageKind = "s3"
)

// Config holds the service settings read from the environment.
type Config struct {
	StoreBackend      StoreBackend
	DatabaseURL       string
	FirestoreDatabase string

	ArtifactStorage ArtifactStorageKind
	ArtifactBucket  string
	AWSRegion       string

	CertificateTemplateDocID string
	DonationTemplateDocID    string
	DriveFolderID            string

	TasksQueue   string
	TasksBaseURL string

	AdminServiceAccounts []string

	StripeTimeout time.Duration
	RenderTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	stripeTimeout, err := GetEnvDuration("STRIPE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	renderTimeout, err := GetEnvDuration("RENDER_TIMEOUT", 45*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StoreBackend:             StoreBackend(GetEnv("STORE_BACKEND", string(StoreBackendFirestore))),
		DatabaseURL:              GetEnv("DATABASE_URL", ""),
		FirestoreDatabase:        GetEnv("FIRESTORE_DATABASE", ""),
		ArtifactStorage:          ArtifactStorageKind(GetEnv("ARTIFACT_STORAGE", string(ArtifactStorageGCS))),
		ArtifactBucket:           GetEnv("ARTIFACT_BUCKET", ProjectID+"-certificates"),
		AWSRegion:                GetEnv("AWS_REGION", "us-east-1"),
		CertificateTemplateDocID: GetEnv("CERTIFICATE_TEMPLATE_DOC_ID", ""),
		DonationTemplateDocID:    GetEnv("DONATION_TEMPLATE_DOC_ID", ""),
		DriveFolderID:            GetEnv("CERTIFICATES_DRIVE_FOLDER_ID", ""),
		TasksQueue:               GetEnv("TASKS_QUEUE", "certificate-artifacts"),
		TasksBaseURL:             GetEnv("TASKS_BASE_URL", CreateAppEngineAudience()),
		AdminServiceAccounts:     strings.Split(GetEnv("ADMIN_SERVICE_ACCOUNTS", ""), ","),
		StripeTimeout:            stripeTimeout,
		RenderTimeout:            renderTimeout,
	}

	switch cfg.StoreBackend {
	case StoreBackendFirestore, StoreBackendMemory:
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for store backend %s", cfg.StoreBackend)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.ArtifactStorage {
	case ArtifactStorageGCS, ArtifactStorageS3:
	default:
		return nil, fmt.Errorf("unknown artifact storage %q", cfg.ArtifactStorage)
	}

	return cfg, nil
}
