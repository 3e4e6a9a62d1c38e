package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCO2OffsetKg(t *testing.T) {
	tests := []struct {
		name   string
		area   float64
		factor float64
		want   float64
	}{
		{name: "default factor", area: 10, factor: 0, want: 220},
		{name: "project factor", area: 2.5, factor: 18.4, want: 46},
		{name: "rounded to two decimals", area: 1.333, factor: 22, want: 29.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := CO2OffsetKg(tt.area, tt.factor)
			assert.Equal(t, tt.want, first)

			for i := 0; i < 100; i++ {
				assert.Equal(t, first, CO2OffsetKg(tt.area, tt.factor))
			}
		})
	}
}

func TestFormatAndNormalizeNumber(t *testing.T) {
	assert.Equal(t, "MFC-2024-000123", FormatNumber(PrefixArea, 2024, 123))
	assert.Equal(t, "MFD-2025-000001", FormatNumber(PrefixDonation, 2025, 1))
	assert.Equal(t, "MFC-2024", SequenceScope(PrefixArea, 2024))
	assert.Equal(t, "MFC-2024-000123", NormalizeNumber("  mfc-2024-000123 "))
}

func TestDeterministicIDs(t *testing.T) {
	assert.Equal(t, PurchaseID("ref-1"), PurchaseID("ref-1"))
	assert.NotEqual(t, PurchaseID("ref-1"), DonationID("ref-1"))
	assert.NotEqual(t, AreaCertificateID("p1", "amazon"), AreaCertificateID("p1", "cerrado"))
	assert.Equal(t, DonationCertificateID("d1"), DonationCertificateID("d1"))
}

func TestNewVerificationView(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	anonymous := NewVerificationView(&Certificate{
		Kind:        KindDonation,
		Number:      "MFD-2024-000001",
		DonorName:   "Ana",
		IsAnonymous: true,
		Message:     "for the forest",
		Status:      StatusIssued,
		IssuedAt:    issuedAt,
	})
	assert.Empty(t, anonymous.DonorName)
	assert.Equal(t, "for the forest", anonymous.Message)

	named := NewVerificationView(&Certificate{Kind: KindDonation, DonorName: "Ana"})
	assert.Equal(t, "Ana", named.DonorName)

	area := NewVerificationView(&Certificate{Kind: KindArea, AreaSqm: 3, CO2OffsetKg: 66, DonorName: "ignored"})
	assert.Equal(t, 66.0, area.CO2OffsetKg)
	assert.Empty(t, area.DonorName)
}
