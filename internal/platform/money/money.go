// Package money holds the Kwanza rounding and formatting helpers shared by
// payroll, settlement and the point of sale.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Portuguese)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundUpTo returns the smallest multiple of step that is not below amount.
// A non-positive step leaves the amount untouched.
func RoundUpTo(amount, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return amount
	}
	return amount.Div(step).Ceil().Mul(step)
}

// Sum adds every value; an empty list yields zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MinPositive caps value at ceiling and floors it at zero.
func MinPositive(value, ceiling decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(value, ceiling)
}

// Format renders an amount as "143.065,49 Kz".
func Format(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%v Kz", number.Decimal(f, number.Scale(2)))
}
