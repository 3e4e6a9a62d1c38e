package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindArea     Kind = "area"
	KindDonation Kind = "donation"
)

type Status string

const (
	StatusIssued  Status = "issued"
	StatusRevoked Status = "revoked"
)

// Number prefixes. Each prefix has its own per-year sequence.
const (
	PrefixArea     = "MFC"
	PrefixDonation = "MFD"
)

// DefaultOffsetFactorKgPerSqm is the yearly CO2 offset of one square meter of restored area.
const DefaultOffsetFactorKgPerSqm = 22.0

// Certificate is the durable proof of a purchased area or a donation. Area
// certificates carry area and CO2 figures, donation certificates carry the
// donor fields.
type Certificate struct {
	ID          string    `json:"id" firestore:"id"`
	Kind        Kind      `json:"kind" firestore:"kind"`
	Number      string    `json:"certificate_number" firestore:"certificateNumber"`
	PurchaseID  string    `json:"purchase_id,omitempty" firestore:"purchaseId"`
	DonationID  string    `json:"donation_id,omitempty" firestore:"donationId"`
	ProjectID   string    `json:"project_id,omitempty" firestore:"projectId"`
	ProjectName string    `json:"project_name,omitempty" firestore:"projectName"`
	AreaSqm     float64   `json:"area_sqm,omitempty" firestore:"areaSqm"`
	CO2OffsetKg float64   `json:"co2_offset_kg,omitempty" firestore:"co2OffsetKg"`
	DonorName   string    `json:"donor_name,omitempty" firestore:"donorName"`
	IsAnonymous bool      `json:"is_anonymous,omitempty" firestore:"isAnonymous"`
	Message     string    `json:"message,omitempty" firestore:"message"`
	Status      Status    `json:"status" firestore:"status"`
	ArtifactURL string    `json:"artifact_url,omitempty" firestore:"artifactUrl"`
	IssuedAt    time.Time `json:"issued_at" firestore:"issuedAt"`
}

func (c *Certificate) HasArtifact() bool {
	return c.ArtifactURL != ""
}

// Purchase is materialized once its payment intent succeeded.
type Purchase struct {
	ID              string       `json:"id" firestore:"id"`
	PaymentIntentID string       `json:"payment_intent_id" firestore:"paymentIntentId"`
	Email           string       `json:"email" firestore:"email"`
	TotalAreaSqm    float64      `json:"total_area_sqm" firestore:"totalAreaSqm"`
	TotalAmount     int64        `json:"total_amount" firestore:"totalAmount"`
	Currency        string       `json:"currency" firestore:"currency"`
	Allocations     []Allocation `json:"allocations" firestore:"allocations"`
	CreatedAt       time.Time    `json:"created_at" firestore:"createdAt"`
}

type Allocation struct {
	ProjectID            string  `json:"project_id" firestore:"projectId"`
	ProjectName          string  `json:"project_name" firestore:"projectName"`
	AreaSqm              float64 `json:"area_sqm" firestore:"areaSqm"`
	UnitPrice            int64   `json:"unit_price" firestore:"unitPrice"`
	OffsetFactorKgPerSqm float64 `json:"offset_factor_kg_per_sqm" firestore:"offsetFactorKgPerSqm"`
}

// Donation is materialized once its payment intent succeeded. An empty
// ProjectID is a donation to the general fund.
type Donation struct {
	ID              string    `json:"id" firestore:"id"`
	PaymentIntentID string    `json:"payment_intent_id" firestore:"paymentIntentId"`
	Email           string    `json:"email" firestore:"email"`
	Amount          int64     `json:"amount" firestore:"amount"`
	Currency        string    `json:"currency" firestore:"currency"`
	ProjectID       string    `json:"project_id,omitempty" firestore:"projectId"`
	ProjectName     string    `json:"project_name,omitempty" firestore:"projectName"`
	DonorName       string    `json:"donor_name,omitempty" firestore:"donorName"`
	IsAnonymous     bool      `json:"is_anonymous" firestore:"isAnonymous"`
	Message         string    `json:"message,omitempty" firestore:"message"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
}

// CO2OffsetKg returns area × factor rounded to two decimals. A non positive
// factor falls back to the default.
func CO2OffsetKg(areaSqm, factorKgPerSqm float64) float64 {
	if factorKgPerSqm <= 0 {
		factorKgPerSqm = DefaultOffsetFactorKgPerSqm
	}

	return math.Round(areaSqm*factorKgPerSqm*100) / 100
}

// FormatNumber renders a certificate number, e.g. MFC-2024-000123.
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, seq)
}

// SequenceScope is the key of the counter that numbers certificates of prefix in year.
func SequenceScope(prefix string, year int) string {
	return fmt.Sprintf("%s-%04d", prefix, year)
}

// NormalizeNumber trims and uppercases a user supplied certificate number.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

var idNamespace = uuid.MustParse("6f1c3b0e-4f7a-5d53-9a57-9c1f3f0b7e21")

// DeterministicID derives a stable id from its parts, so that creating the
// same logical record twice yields the same id.
func DeterministicID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "/"))).String()
}

func PurchaseID(paymentIntentID string) string {
	return DeterministicID("purchase", paymentIntentID)
}

func DonationID(paymentIntentID string) string {
	return DeterministicID("donation", paymentIntentID)
}

func AreaCertificateID(purchaseID, projectID string) string {
	return DeterministicID("certificate", purchaseID, projectID)
}

func DonationCertificateID(donationID string) string {
	return DeterministicID("donation-certificate", donationID)
}
