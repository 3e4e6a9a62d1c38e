package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/doitintl/hello/offset-checkout/certificates/domain"
)

// Schema creates the tables used by StorePostgres. Certificate numbers are
// unique per table and the two number prefixes never overlap.
const Schema = `
CREATE TABLE IF NOT EXISTS purchases (
	id TEXT PRIMARY KEY,
	payment_intent_id TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	total_area DOUBLE PRECISION NOT NULL,
	total_amount BIGINT NOT NULL,
	currency TEXT NOT NULL,
	allocations JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS donations (
	id TEXT PRIMARY KEY,
	payment_intent_id TEXT NOT NULL UNIQUE,
	amount BIGINT NOT NULL,
	currency TEXT NOT NULL,
	project_id TEXT,
	project_name TEXT,
	email TEXT NOT NULL,
	donor_name TEXT,
	is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
	message TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS certificates (
	id TEXT PRIMARY KEY,
	purchase_id TEXT NOT NULL REFERENCES purchases (id),
	project_id TEXT NOT NULL,
	project_name TEXT,
	certificate_number TEXT NOT NULL UNIQUE,
	area_sqm DOUBLE PRECISION NOT NULL,
	co2_offset_kg DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	artifact_url TEXT,
	issued_at TIMESTAMPTZ NOT NULL,
	UNIQUE (purchase_id, project_id)
);
CREATE TABLE IF NOT EXISTS donation_certificates (
	id TEXT PRIMARY KEY,
	donation_id TEXT NOT NULL UNIQUE REFERENCES donations (id),
	certificate_number TEXT NOT NULL UNIQUE,
	project_id TEXT,
	project_name TEXT,
	donor_name TEXT,
	is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
	message TEXT,
	status TEXT NOT NULL,
	artifact_url TEXT,
	issued_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS certificate_sequences (
	scope TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

const (
	purchaseColumns            = `id, payment_intent_id, email, total_area, total_amount, currency, allocations, created_at`
	donationColumns            = `id, payment_intent_id, amount, currency, project_id, project_name, email, donor_name, is_anonymous, message, created_at`
	certificateColumns         = `id, purchase_id, project_id, project_name, certificate_number, area_sqm, co2_offset_kg, status, artifact_url, issued_at`
	donationCertificateColumns = `id, donation_id, certificate_number, project_id, project_name, donor_name, is_anonymous, message, status, artifact_url, issued_at`

	certificatesTable         = "certificates"
	donationCertificatesTable = "donation_certificates"

	nextSequenceQuery = `INSERT INTO certificate_sequences (scope, value) VALUES ($1, 1)
ON CONFLICT (scope) DO UPDATE SET value = certificate_sequences.value + 1
RETURNING value`
)

// StorePostgres stores purchases, donations and certificates in Postgres.
type StorePostgres struct {
	db *sql.DB
}

func NewStorePostgres(db *sql.DB) *StorePostgres {
	return &StorePostgres{
		db: db,
	}
}

// EnsureSchema creates the tables used by this store if they are missing.
func (d *StorePostgres) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, Schema)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func insertedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (d *StorePostgres) CreatePurchase(ctx context.Context, p *domain.Purchase) (bool, error) {
	allocations, err := json.Marshal(p.Allocations)
	if err != nil {
		return false, err
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO purchases (`+purchaseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
		p.ID, p.PaymentIntentID, p.Email, p.TotalAreaSqm, p.TotalAmount, p.Currency, allocations, p.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	return insertedOne(res)
}

func (d *StorePostgres) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	var (
		p           domain.Purchase
		allocations []byte
	)

	err := d.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id).Scan(
		&p.ID, &p.PaymentIntentID, &p.Email, &p.TotalAreaSqm, &p.TotalAmount, &p.Currency, &allocations, &p.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	if err := json.Unmarshal(allocations, &p.Allocations); err != nil {
		return nil, err
	}

	return &p, nil
}

func (d *StorePostgres) CreateDonation(ctx context.Context, donation *domain.Donation) (bool, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO donations (`+donationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (id) DO NOTHING`,
		donation.ID, donation.PaymentIntentID, donation.Amount, donation.Currency, donation.ProjectID, donation.ProjectName,
		donation.Email, donation.DonorName, donation.IsAnonymous, donation.Message, donation.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	return insertedOne(res)
}

func (d *StorePostgres) GetDonation(ctx context.Context, id string) (*domain.Donation, error) {
	var (
		donation                                   domain.Donation
		projectID, projectName, donorName, message sql.NullString
	)

	err := d.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id).Scan(
		&donation.ID, &donation.PaymentIntentID, &donation.Amount, &donation.Currency, &projectID, &projectName,
		&donation.Email, &donorName, &donation.IsAnonymous, &message, &donation.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	donation.ProjectID = projectID.String
	donation.ProjectName = projectName.String
	donation.DonorName = donorName.String
	donation.Message = message.String

	return &donation, nil
}

// NextSequence relies on the row lock taken by the upsert, so concurrent
// callers are serialized by the database.
func (d *StorePostgres) NextSequence(ctx context.Context, scope string) (int64, error) {
	var next int64
	if err := d.db.QueryRowContext(ctx, nextSequenceQuery, scope).Scan(&next); err != nil {
		return 0, err
	}

	return next, nil
}

func (d *StorePostgres) CreateCertificate(ctx context.Context, c *domain.Certificate) (*domain.Certificate, bool, error) {
	var (
		res sql.Result
		err error
	)

	switch c.Kind {
	case domain.KindDonation:
		res, err = d.db.ExecContext(ctx,
			`INSERT INTO donation_certificates (`+donationCertificateColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (id) DO NOTHING`,
			c.ID, c.DonationID, c.Number, nullString(c.ProjectID), nullString(c.ProjectName), nullString(c.DonorName),
			c.IsAnonymous, nullString(c.Message), c.Status, nullString(c.ArtifactURL), c.IssuedAt,
		)
	default:
		res, err = d.db.ExecContext(ctx,
			`INSERT INTO certificates (`+certificateColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT (id) DO NOTHING`,
			c.ID, c.PurchaseID, c.ProjectID, nullString(c.ProjectName), c.Number, c.AreaSqm, c.CO2OffsetKg,
			c.Status, nullString(c.ArtifactURL), c.IssuedAt,
		)
	}

	if err != nil {
		return nil, false, err
	}

	created, err := insertedOne(res)
	if err != nil {
		return nil, false, err
	}

	if created {
		stored := *c
		return &stored, true, nil
	}

	existing, err := d.GetCertificate(ctx, c.ID)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

func scanCertificate(row rowScanner) (*domain.Certificate, error) {
	var (
		c                        domain.Certificate
		projectName, artifactURL sql.NullString
	)

	if err := row.Scan(
		&c.ID, &c.PurchaseID, &c.ProjectID, &projectName, &c.Number, &c.AreaSqm, &c.CO2OffsetKg,
		&c.Status, &artifactURL, &c.IssuedAt,
	); err != nil {
		return nil, notFound(err)
	}

	c.Kind = domain.KindArea
	c.ProjectName = projectName.String
	c.ArtifactURL = artifactURL.String

	return &c, nil
}

func scanDonationCertificate(row rowScanner) (*domain.Certificate, error) {
	var (
		c                                                         domain.Certificate
		projectID, projectName, donorName, message, artifactURL sql.NullString
	)

	if err := row.Scan(
		&c.ID, &c.DonationID, &c.Number, &projectID, &projectName, &donorName, &c.IsAnonymous, &message,
		&c.Status, &artifactURL, &c.IssuedAt,
	); err != nil {
		return nil, notFound(err)
	}

	c.Kind = domain.KindDonation
	c.ProjectID = projectID.String
	c.ProjectName = projectName.String
	c.DonorName = donorName.String
	c.Message = message.String
	c.ArtifactURL = artifactURL.String

	return &c, nil
}

func (d *StorePostgres) GetCertificate(ctx context.Context, id string) (*domain.Certificate, error) {
	c, err := scanCertificate(d.db.QueryRowContext(ctx, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id))
	if !errors.Is(err, ErrNotFound) {
		return c, err
	}

	return scanDonationCertificate(d.db.QueryRowContext(ctx, `SELECT `+donationCertificateColumns+` FROM donation_certificates WHERE id = $1`, id))
}

func (d *StorePostgres) GetByNumber(ctx context.Context, number string) (*domain.Certificate, error) {
	if strings.HasPrefix(number, domain.PrefixDonation+"-") {
		return scanDonationCertificate(d.db.QueryRowContext(ctx,
			`SELECT `+donationCertificateColumns+` FROM donation_certificates WHERE certificate_number = $1`, number))
	}

	return scanCertificate(d.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE certificate_number = $1`, number))
}

func (d *StorePostgres) ListByPurchase(ctx context.Context, purchaseID string) ([]*domain.Certificate, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE purchase_id = $1 ORDER BY certificate_number`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collect(rows, scanCertificate)
}

func (d *StorePostgres) ListByDonation(ctx context.Context, donationID string) ([]*domain.Certificate, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+donationCertificateColumns+` FROM donation_certificates WHERE donation_id = $1 ORDER BY certificate_number`, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collect(rows, scanDonationCertificate)
}

func collect(rows *sql.Rows, scan func(rowScanner) (*domain.Certificate, error)) ([]*domain.Certificate, error) {
	var certificates []*domain.Certificate

	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}

		certificates = append(certificates, c)
	}

	return certificates, rows.Err()
}

func tableFor(c *domain.Certificate) string {
	if c.Kind == domain.KindDonation {
		return donationCertificatesTable
	}

	return certificatesTable
}

// SetArtifactURL only writes when no url is set, so a slower concurrent
// render never replaces the url that was stored first.
func (d *StorePostgres) SetArtifactURL(ctx context.Context, id, url string) (string, error) {
	c, err := d.GetCertificate(ctx, id)
	if err != nil {
		return "", err
	}

	if c.HasArtifact() {
		return c.ArtifactURL, nil
	}

	if c.Status == domain.StatusRevoked {
		return "", ErrRevoked
	}

	res, err := d.db.ExecContext(ctx,
		`UPDATE `+tableFor(c)+` SET artifact_url = $1 WHERE id = $2 AND artifact_url IS NULL AND status = $3`,
		url, id, domain.StatusIssued,
	)
	if err != nil {
		return "", err
	}

	updated, err := insertedOne(res)
	if err != nil {
		return "", err
	}

	if updated {
		return url, nil
	}

	c, err = d.GetCertificate(ctx, id)
	if err != nil {
		return "", err
	}

	if !c.HasArtifact() {
		return "", ErrRevoked
	}

	return c.ArtifactURL, nil
}

func (d *StorePostgres) Revoke(ctx context.Context, id string) (*domain.Certificate, error) {
	c, err := d.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status == domain.StatusRevoked {
		return c, nil
	}

	if _, err := d.db.ExecContext(ctx,
		`UPDATE `+tableFor(c)+` SET status = $1 WHERE id = $2`, domain.StatusRevoked, id,
	); err != nil {
		return nil, err
	}

	c.Status = domain.StatusRevoked

	return c, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
