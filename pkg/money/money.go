package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinEntry is the smallest amount a payment entry may carry; anything below
// is treated as a rounding artifact and pruned.
var MinEntry = decimal.New(1, -2) // 0.01

// CentTolerance absorbs half-up rounding drift when comparing totals.
var CentTolerance = decimal.New(1, -2)

// RoundCents rounds to two decimals using half-up rounding at the cent
// boundary.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FloorQuantity floors to three decimals, the resolution scale labels use
// for weighed quantities.
func FloorQuantity(d decimal.Decimal) decimal.Decimal {
	return d.RoundDown(3)
}

// Parse converts a decimal string ("12.34") into an amount.
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// Covers reports whether paid satisfies total within a one-cent tolerance.
func Covers(paid, total decimal.Decimal) bool {
	return paid.Add(CentTolerance).GreaterThanOrEqual(total)
}

// IsNegligible reports whether the amount is below the minimum entry value.
func IsNegligible(d decimal.Decimal) bool {
	return d.LessThan(MinEntry)
}
