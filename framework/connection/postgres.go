package connection

import (
	"context"
	"database/sql"
	"errors"
	"time"

	// registers the "postgres" driver
	_ "github.com/lib/pq"

	"github.com/doitintl/hello/offset-checkout/logger"
)

var (
	ErrPostgresInitialization = errors.New("postgres initialization error")
)

type PostgresClient struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, log *logger.Logging, databaseURL string) (*PostgresClient, error) {
	l := log.Logger(ctx)

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		l.Errorf("%s: %s", ErrPostgresInitialization, err)
		return nil, ErrPostgresInitialization
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		l.Errorf("%s: %s", ErrPostgresInitialization, err)
		db.Close()

		return nil, ErrPostgresInitialization
	}

	return &PostgresClient{
		db,
	}, nil
}
