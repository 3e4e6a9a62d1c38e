package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/doitintl/hello/offset-checkout/payments/domain"
)

const uniqueViolation = "23505"

// PaymentIntentsSchema creates the payment_intents table.
const PaymentIntentsSchema = `
CREATE TABLE IF NOT EXISTS payment_intents (
	id TEXT PRIMARY KEY,
	processor_id TEXT NOT NULL,
	flow TEXT NOT NULL,
	amount BIGINT NOT NULL,
	amount_received BIGINT NOT NULL DEFAULT 0,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	email TEXT NOT NULL,
	metadata JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS payment_intents_processor_id_idx ON payment_intents (processor_id);
`

const paymentIntentColumns = `id, processor_id, flow, amount, amount_received, currency, status, email, metadata, created_at, updated_at`

// PaymentIntentsPostgres stores payment intents in Postgres.
type PaymentIntentsPostgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPaymentIntentsPostgres(db *sql.DB) *PaymentIntentsPostgres {
	return &PaymentIntentsPostgres{
		db:  db,
		now: time.Now,
	}
}

// EnsureSchema creates the tables used by this store if they are missing.
func (d *PaymentIntentsPostgres) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, PaymentIntentsSchema)
	return err
}

func (d *PaymentIntentsPostgres) Create(ctx context.Context, pi *domain.PaymentIntent) error {
	now := d.now().UTC()
	pi.CreatedAt = now
	pi.UpdatedAt = now

	metadata, err := json.Marshal(pi.Metadata)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO payment_intents (`+paymentIntentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		pi.ID, pi.ProcessorID, pi.Flow, pi.Amount, pi.AmountReceived, pi.Currency, pi.Status, pi.Email, metadata, pi.CreatedAt, pi.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}

		return err
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaymentIntent(row rowScanner) (*domain.PaymentIntent, error) {
	var (
		pi       domain.PaymentIntent
		metadata []byte
	)

	if err := row.Scan(
		&pi.ID, &pi.ProcessorID, &pi.Flow, &pi.Amount, &pi.AmountReceived, &pi.Currency,
		&pi.Status, &pi.Email, &metadata, &pi.CreatedAt, &pi.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if err := json.Unmarshal(metadata, &pi.Metadata); err != nil {
		return nil, err
	}

	return &pi, nil
}

func (d *PaymentIntentsPostgres) Get(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+paymentIntentColumns+` FROM payment_intents WHERE id = $1`, id)
	return scanPaymentIntent(row)
}

func (d *PaymentIntentsPostgres) GetByProcessorID(ctx context.Context, processorID string) (*domain.PaymentIntent, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+paymentIntentColumns+` FROM payment_intents WHERE processor_id = $1 LIMIT 1`, processorID)
	return scanPaymentIntent(row)
}

func (d *PaymentIntentsPostgres) ApplyStatus(ctx context.Context, id string, status domain.Status, amountReceived int64) (*StatusChange, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `SELECT `+paymentIntentColumns+` FROM payment_intents WHERE id = $1 FOR UPDATE`, id)

	pi, err := scanPaymentIntent(row)
	if err != nil {
		return nil, err
	}

	change, err := applyStatus(pi, status, amountReceived, d.now().UTC())
	if err != nil || !change.Changed {
		return change, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payment_intents SET status = $1, amount_received = $2, updated_at = $3 WHERE id = $4`,
		pi.Status, pi.AmountReceived, pi.UpdatedAt, pi.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return change, nil
}
