// Package format renders quote values for display.
package format

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"stonks/internal/quote"
)

// DefaultCurrency is used when a caller does not name one.
const DefaultCurrency = money.USD

// Undefined is rendered in place of a percentage that cannot be computed.
const Undefined = "n/a"

// Currency formats amount in the given ISO 4217 currency, e.g. "$1,234.50".
func Currency(amount float64, code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	return money.NewFromFloat(amount, code).Display()
}

// PriceChange formats a change with two decimals. When showSign is set,
// non-negative values get a leading "+".
func PriceChange(change float64, showSign bool) string {
	d := decimal.NewFromFloat(change).Round(2)
	s := d.StringFixed(2)
	if showSign && !d.IsNegative() {
		return "+" + s
	}
	return s
}

// Percentage formats pct (already scaled to 0-100) with the given number of
// decimal places, a sign and a "%" suffix.
func Percentage(pct float64, places int32) string {
	d := decimal.NewFromFloat(pct).Round(places)
	s := d.StringFixed(places) + "%"
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

// PercentageOf formats the quote's change percentage, or Undefined when the
// previous close is zero.
func PercentageOf(q quote.Quote) string {
	pct, ok := q.PriceChangePercentage()
	if !ok {
		return Undefined
	}
	return Percentage(pct, 2)
}
