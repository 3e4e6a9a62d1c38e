package connection

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/firestore"

	"github.com/doitintl/hello/offset-checkout/common"
	"github.com/doitintl/hello/offset-checkout/logger"
)

var (
	ErrFirestoreInitialization = errors.New("firestore initialization error")
)

type FirestoreClient struct {
	fs *firestore.Client
}

// NewFirestore opens the named database of the project. An empty name selects
// the default database.
func NewFirestore(ctx context.Context, log *logger.Logging, database string) (*FirestoreClient, error) {
	l := log.Logger(ctx)

	if database == "" {
		database = firestore.DefaultDatabaseID
	}

	if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
		l.Infof("firestore: using emulator at %s", host)
	}

	fs, err := firestore.NewClientWithDatabase(ctx, common.ProjectID, database)
	if err != nil {
		l.Errorf("%s: database %s: %s", ErrFirestoreInitialization, database, err)
		return nil, ErrFirestoreInitialization
	}

	return &FirestoreClient{
		fs,
	}, nil
}
