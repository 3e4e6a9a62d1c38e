package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stripe/stripe-go/v74"
)

func TestToStripeCurrency(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		want     stripe.Currency
		wantErr  bool
	}{
		{name: "lower case", currency: "usd", want: stripe.CurrencyUSD},
		{name: "upper case with spaces", currency: " EUR ", want: stripe.CurrencyEUR},
		{name: "brazilian real", currency: "BRL", want: stripe.CurrencyBRL},
		{name: "unsupported", currency: "XTS", wantErr: true},
		{name: "empty", currency: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toStripeCurrency(tt.currency)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCurrency)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
