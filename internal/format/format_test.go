package format

import (
	"testing"

	"stonks/internal/quote"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{150, "USD", "$150.00"},
		{1234.5, "USD", "$1,234.50"},
		{3100, "", "$3,100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Currency(tt.amount, tt.code); got != tt.want {
				t.Errorf("Currency(%v, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
			}
		})
	}
}

func TestPriceChange(t *testing.T) {
	tests := []struct {
		change   float64
		showSign bool
		want     string
	}{
		{5, true, "+5.00"},
		{-50, true, "-50.00"},
		{0, true, "+0.00"},
		{12.345678, false, "12.35"},
		{-1.2, false, "-1.20"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := PriceChange(tt.change, tt.showSign); got != tt.want {
				t.Errorf("PriceChange(%v, %v) = %q, want %q", tt.change, tt.showSign, got, tt.want)
			}
		})
	}
}

func TestPercentageOf(t *testing.T) {
	tests := []struct {
		name string
		q    quote.Quote
		want string
	}{
		{"gain", quote.Quote{ID: "A", CurrentPrice: 110, PreviousClosePrice: 100}, "+10.00%"},
		{"loss", quote.Quote{ID: "GOOGL", CurrentPrice: 2500, PreviousClosePrice: 2550}, "-1.96%"},
		{"undefined", quote.Quote{ID: "Z", CurrentPrice: 1, PreviousClosePrice: 0}, Undefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentageOf(tt.q); got != tt.want {
				t.Errorf("PercentageOf(%s) = %q, want %q", tt.q.ID, got, tt.want)
			}
		})
	}
}
