package connection

import (
	"context"
	"database/sql"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"

	"github.com/doitintl/hello/offset-checkout/common"
	"github.com/doitintl/hello/offset-checkout/logger"
)

const (
	// CtxFirestoreKey is how firestore connections are stored/retrieved.
	CtxFirestoreKey = "app-firestore"

	// CtxCloudStorageKey is how cloud storage connections are stored/retrieved.
	CtxCloudStorageKey = "app-cloud-storage"
)

// Connection holds the clients of the backends selected by the config.
// Clients of backends that are not in use are nil.
type Connection struct {
	*FirestoreClient
	*PostgresClient
	CloudStorageClient *storage.Client
	CloudTaskClient    *cloudtasks.Client
}

// NewConnection initializes the connections needed by the configured backends.
func NewConnection(ctx context.Context, log *logger.Logging, cfg *common.Config) (*Connection, error) {
	conn := &Connection{}

	switch cfg.StoreBackend {
	case common.StoreBackendFirestore:
		fs, err := NewFirestore(ctx, log, cfg.FirestoreDatabase)
		if err != nil {
			return nil, err
		}

		conn.FirestoreClient = fs
	case common.StoreBackendPostgres:
		pg, err := NewPostgres(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}

		conn.PostgresClient = pg
	}

	if cfg.ArtifactStorage == common.ArtifactStorageGCS {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, err
		}

		conn.CloudStorageClient = gcsClient
	}

	if !common.IsLocalhost {
		cloudTaskClient, err := cloudtasks.NewClient(ctx)
		if err != nil {
			return nil, err
		}

		conn.CloudTaskClient = cloudTaskClient
	}

	return conn, nil
}

// Firestore returns a firestore connection that was stored in context.
// it returns by default a firestore connection, if there was not on context.
func (c *Connection) Firestore(ctx context.Context) *firestore.Client {
	if fs, ok := ctx.Value(CtxFirestoreKey).(*firestore.Client); ok {
		return fs
	}

	if c.FirestoreClient == nil {
		return nil
	}

	return c.fs
}

// DB returns the postgres pool, or nil when postgres is not the store backend.
func (c *Connection) DB() *sql.DB {
	if c.PostgresClient == nil {
		return nil
	}

	return c.db
}

// CloudStorage returns a cloud storage connection that was stored in context.
// it returns by default a cloud storage connection, if there was not on context.
func (c *Connection) CloudStorage(ctx context.Context) *storage.Client {
	if gcsClient, ok := ctx.Value(CtxCloudStorageKey).(*storage.Client); ok {
		return gcsClient
	}

	return c.CloudStorageClient
}

// FirestoreWithContext stores under gin context, a firestore connection.
func (c *Connection) FirestoreWithContext(ctx *gin.Context) {
	if c.FirestoreClient == nil {
		return
	}

	ctx.Set(CtxFirestoreKey, c.fs)
}

// Close releases every open client.
func (c *Connection) Close() error {
	var result error

	if c.FirestoreClient != nil {
		if err := c.fs.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c.PostgresClient != nil {
		if err := c.db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c.CloudStorageClient != nil {
		if err := c.CloudStorageClient.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c.CloudTaskClient != nil {
		if err := c.CloudTaskClient.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

type FirestoreFromContextFun = func(ctx context.Context) *firestore.Client
