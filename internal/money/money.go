// Package money normalizes master-data price strings and computes fact revenue.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice strips a leading currency symbol and parses the remainder as a
// decimal. A value that cannot be parsed coerces to zero rather than
// failing the row (spec: "invalid values coerce to 0.0").
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimLeft(cleaned, "$€£¥")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Revenue computes quantity x price rounded to two decimal places, using
// the master price rather than anything carried in the stream record.
func Revenue(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
