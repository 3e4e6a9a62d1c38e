package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		assert  func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StoreBackendFirestore, cfg.StoreBackend)
				assert.Equal(t, ArtifactStorageGCS, cfg.ArtifactStorage)
				assert.Equal(t, 10*time.Second, cfg.StripeTimeout)
				assert.Equal(t, 45*time.Second, cfg.RenderTimeout)
			},
		},
		{
			name: "postgres requires a database url",
			env: map[string]string{
				"STORE_BACKEND": "postgres",
			},
			wantErr: true,
		},
		{
			name: "postgres with database url",
			env: map[string]string{
				"STORE_BACKEND":  "postgres",
				"DATABASE_URL":   "postgres://localhost/offsets?sslmode=disable",
				"STRIPE_TIMEOUT": "3s",
			},
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StoreBackendPostgres, cfg.StoreBackend)
				assert.Equal(t, 3*time.Second, cfg.StripeTimeout)
			},
		},
		{
			name: "bad duration",
			env: map[string]string{
				"RENDER_TIMEOUT": "soon",
			},
			wantErr: true,
		},
		{
			name: "unknown storage",
			env: map[string]string{
				"ARTIFACT_STORAGE": "ftp",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"STORE_BACKEND", "DATABASE_URL", "ARTIFACT_STORAGE", "STRIPE_TIMEOUT", "RENDER_TIMEOUT"} {
				t.Setenv(key, "")
			}

			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := LoadConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.assert(t, cfg)
		})
	}
}
