// Package money holds the decimal rounding rules used for every monetary figure.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places rounded amounts carry.
const Places = 2

// StoredPlaces is the largest scale accepted for entered prices, percentages and
// cost amounts. Anything the store persists fits in it exactly.
const StoredPlaces = 4

var (
	hundred = decimal.NewFromInt(100)

	// Tolerance is half of the smallest currency unit. A voucher whose postings sum to
	// less than this in absolute value is balanced.
	Tolerance = decimal.New(5, -3)
)

// Round rounds half away from zero to two decimal places (BigDecimal HALF_UP semantics).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns round(base * pct / 100).
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(pct).Div(hundred))
}

// Sum adds amounts without rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// IsBalanced reports whether sum is zero within Tolerance.
func IsBalanced(sum decimal.Decimal) bool {
	return sum.Abs().LessThan(Tolerance)
}

// HasAtMostPlaces reports whether d has no more than places decimal digits.
func HasAtMostPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Format renders d with two fixed decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
