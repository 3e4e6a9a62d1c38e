package domain

import (
	"time"
)

// VerificationView is what anyone holding a certificate number may see.
// It never carries the purchaser email.
type VerificationView struct {
	Number      string    `json:"certificate_number"`
	Kind        Kind      `json:"kind"`
	ProjectName string    `json:"project_name,omitempty"`
	AreaSqm     float64   `json:"area_sqm,omitempty"`
	CO2OffsetKg float64   `json:"co2_offset_kg,omitempty"`
	DonorName   string    `json:"donor_name,omitempty"`
	Message     string    `json:"message,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	Status      Status    `json:"status"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
}

// VerificationResult is either Found with a view, or not found.
type VerificationResult struct {
	Found bool              `json:"found"`
	View  *VerificationView `json:"view,omitempty"`
}

// NewVerificationView projects a certificate. The donor name is withheld for anonymous donations.
func NewVerificationView(c *Certificate) *VerificationView {
	v := &VerificationView{
		Number:      c.Number,
		Kind:        c.Kind,
		ProjectName: c.ProjectName,
		IssuedAt:    c.IssuedAt,
		Status:      c.Status,
		ArtifactURL: c.ArtifactURL,
	}

	switch c.Kind {
	case KindArea:
		v.AreaSqm = c.AreaSqm
		v.CO2OffsetKg = c.CO2OffsetKg
	case KindDonation:
		v.Message = c.Message
		if !c.IsAnonymous {
			v.DonorName = c.DonorName
		}
	}

	return v
}

// ArtifactStatus is what the confirmation view shows for a certificate download.
func ArtifactStatus(c *Certificate) string {
	if c.HasArtifact() {
		return "ready"
	}

	return "processing"
}
