package scanner

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale barcode layout, 13 digits total:
//
//	position 0      prefix '2' (in-store scale range)
//	position 1      type discriminator: '0' weight, '1' amount
//	positions 2-6   item code (5 digits)
//	positions 7-12  value (6 digits, implied decimals per type)
//
// Weight carries 3 implied decimals (kilograms); amount carries 2
// (currency units).
const (
	scaleCodeLength = 13
	scalePrefix     = '2'
	scaleTypeWeight = '0'
	scaleTypeAmount = '1'
)

// ScaleCode is a decoded scale barcode: the embedded item code plus
// exactly one of weight or amount.
type ScaleCode struct {
	ItemCode string
	Weight   decimal.Decimal
	Amount   decimal.Decimal
	IsAmount bool
}

// DecodeScale parses a scale barcode. It returns false for anything that
// does not match the fixed structure, which is the signal to fall back to
// the not-found path.
func DecodeScale(code string) (ScaleCode, bool) {
	if len(code) != scaleCodeLength || code[0] != scalePrefix {
		return ScaleCode{}, false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ScaleCode{}, false
		}
	}

	value := decimal.RequireFromString(code[7:13])
	decoded := ScaleCode{ItemCode: code[2:7]}
	switch code[1] {
	case scaleTypeWeight:
		decoded.Weight = value.Shift(-3)
	case scaleTypeAmount:
		decoded.Amount = value.Shift(-2)
		decoded.IsAmount = true
	default:
		return ScaleCode{}, false
	}
	return decoded, true
}

// EncodeWeight builds the scale barcode for an item and weight in
// kilograms. Used by label tooling and round-trip tests.
func EncodeWeight(itemCode string, weight decimal.Decimal) (string, error) {
	return encodeScale(scaleTypeWeight, itemCode, weight.Shift(3))
}

// EncodeAmount builds the scale barcode for an item and monetary amount.
func EncodeAmount(itemCode string, amount decimal.Decimal) (string, error) {
	return encodeScale(scaleTypeAmount, itemCode, amount.Shift(2))
}

func encodeScale(typeDigit byte, itemCode string, scaled decimal.Decimal) (string, error) {
	if len(itemCode) != 5 {
		return "", fmt.Errorf("item code must have 5 digits, got %q", itemCode)
	}
	for _, r := range itemCode {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("item code must be numeric, got %q", itemCode)
		}
	}
	units := scaled.Round(0)
	if units.IsNegative() || !units.Equal(scaled) {
		return "", fmt.Errorf("value %s does not fit the implied-decimal format", scaled)
	}
	value := units.IntPart()
	if value > 999999 {
		return "", fmt.Errorf("value %d exceeds the 6-digit field", value)
	}
	return fmt.Sprintf("%c%c%s%06d", scalePrefix, typeDigit, itemCode, value), nil
}
