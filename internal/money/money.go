// Package money centralizes the decimal rounding rules used for prices,
// totals, quantities and unit costs. All monetary math stays in
// decimal.Decimal end to end; float64 never touches an amount.
package money

import "github.com/shopspring/decimal"

// Round2 rounds to 2 decimal places, half away from zero. Used for
// prices, line totals and invoice totals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round4 rounds to 4 decimal places, half away from zero. Used for
// quantities and unit costs.
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

// FromPtr dereferences an optional amount, treating nil as zero
func FromPtr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Ptr returns a pointer to d, for optional model fields
func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// MinutesToHours converts labor minutes to hours at 4 decimal places
func MinutesToHours(minutes int) decimal.Decimal {
	return Round4(decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)))
}
