//go:generate mockery --output=./mocks --all
package iface

import (
	"context"
	"time"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
)

// Renderer produces the PDF document of a certificate.
type Renderer interface {
	Render(ctx context.Context, c *domain.Certificate) ([]byte, error)
}

// ArtifactStorage keeps rendered documents and returns their public url.
type ArtifactStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// RenderQueue schedules a server side render of a certificate artifact.
type RenderQueue interface {
	EnqueueRender(ctx context.Context, certificateID string, delay time.Duration) error
}
