package service

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
)

// Currencies accepted for purchases and donations.
var supportedCurrencies = map[stripe.Currency]bool{
	stripe.CurrencyUSD: true,
	stripe.CurrencyEUR: true,
	stripe.CurrencyGBP: true,
	stripe.CurrencyBRL: true,
	stripe.CurrencyCAD: true,
	stripe.CurrencyAUD: true,
}

// toStripeCurrency normalises an ISO code ("usd", " USD ") to the stripe form
// and rejects currencies the checkout does not price in.
func toStripeCurrency(currency string) (stripe.Currency, error) {
	c := stripe.Currency(strings.ToLower(strings.TrimSpace(currency)))
	if !supportedCurrencies[c] {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	return c, nil
}
