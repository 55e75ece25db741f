package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits kept for every stored amount.
const Precision = 2

// Round rounds an amount to Precision fractional digits, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// ParseAmount parses a decimal amount string and rounds it to Precision.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Round(d), nil
}

// MustParseAmount is like ParseAmount but panics on error.
// Use only in tests or when you're certain the amount is valid
func MustParseAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatAmount renders an amount with exactly Precision fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(Precision)
}
