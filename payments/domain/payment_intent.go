package domain

import (
	"time"

	certDomain "github.com/doitintl/hello/offset-checkout/certificates/domain"
)

type Kind string

const (
	KindPurchase Kind = "purchase"
	KindDonation Kind = "donation"
)

// Allocation is one project line of a purchase.
type Allocation struct {
	ProjectID            string  `json:"project_id" firestore:"projectId" validate:"required"`
	ProjectName          string  `json:"project_name" firestore:"projectName"`
	AreaSqm              float64 `json:"area_sqm" firestore:"areaSqm" validate:"gt=0"`
	UnitPrice            int64   `json:"unit_price" firestore:"unitPrice" validate:"gte=0"`
	OffsetFactorKgPerSqm float64 `json:"offset_factor_kg_per_sqm,omitempty" firestore:"offsetFactorKgPerSqm" validate:"gte=0"`
}

// Factor returns the allocation offset factor, falling back to the certificate default.
func (a Allocation) Factor() float64 {
	if a.OffsetFactorKgPerSqm <= 0 {
		return certDomain.DefaultOffsetFactorKgPerSqm
	}

	return a.OffsetFactorKgPerSqm
}

// IntentMetadata is what the intent records about the thing being paid for.
type IntentMetadata struct {
	Kind        Kind              `json:"kind" firestore:"kind"`
	Allocations []Allocation      `json:"allocations,omitempty" firestore:"allocations"`
	ProjectID   string            `json:"project_id,omitempty" firestore:"projectId"`
	ProjectName string            `json:"project_name,omitempty" firestore:"projectName"`
	DonorName   string            `json:"donor_name,omitempty" firestore:"donorName"`
	Anonymous   bool              `json:"anonymous,omitempty" firestore:"anonymous"`
	Message     string            `json:"message,omitempty" firestore:"message"`
	Extra       map[string]string `json:"extra,omitempty" firestore:"extra"`
}

// TotalArea sums the allocation areas.
func (m IntentMetadata) TotalArea() float64 {
	var total float64
	for _, a := range m.Allocations {
		total += a.AreaSqm
	}

	return total
}

type FlowKind string

const (
	FlowEmbedded FlowKind = "embedded"
	FlowHosted   FlowKind = "hosted"
)

// PaymentIntent is the durable audit record of a checkout. Its ID is the
// checkout ref, minted before the processor is called.
type PaymentIntent struct {
	ID             string         `json:"id" firestore:"id"`
	ProcessorID    string         `json:"processor_id" firestore:"processorId"`
	Flow           FlowKind       `json:"flow" firestore:"flow"`
	Amount         int64          `json:"amount" firestore:"amount"`
	AmountReceived int64          `json:"amount_received" firestore:"amountReceived"`
	Currency       string         `json:"currency" firestore:"currency"`
	Status         Status         `json:"status" firestore:"status"`
	Email          string         `json:"email" firestore:"email"`
	Metadata       IntentMetadata `json:"metadata" firestore:"metadata"`
	CreatedAt      time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time      `json:"updated_at" firestore:"updatedAt"`
}
