// Package format renders amounts the way Brazilian statements print them.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency returns a real amount with the R$ symbol, dot thousands separators
// and a decimal comma (e.g., "-R$ 1.234,56").
func Currency(amount float64) string {
	sign, formatted := split(amount, 2)
	return sign + "R$ " + formatted
}

// NumericCurrency returns the amount without a currency symbol (e.g., "-1.234,56").
func NumericCurrency(amount float64) string {
	sign, formatted := split(amount, 2)
	return sign + formatted
}

// Percent renders a percentage with the given number of places (e.g., "10,6500%").
func Percent(value float64, places int32) string {
	sign, formatted := split(value, places)
	return sign + formatted + "%"
}

// split rounds half away from zero and groups the integer part. Amounts that
// round to zero carry no sign.
func split(value float64, places int32) (string, string) {
	d := decimal.NewFromFloat(value).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(places)
	parts := strings.SplitN(fixed, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte('.')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return sign, intPart + "," + parts[1]
	}
	return sign, intPart
}
