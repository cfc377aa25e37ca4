/*
Package fiscal provides the calendar and money primitives shared by the
pricing and cashflow engines.

PURPOSE:
  Everything downstream computes on the same two primitives: a calendar
  Date (day granularity, always UTC) and decimal money. This package owns
  both, plus the fiscal period keys used to group daily records for
  ledger export.

KEY CONCEPTS IN THIS FILE (money.go):
  - All monetary values are decimal.Decimal, never float64
  - Rounding to cents happens ONCE, at emission points
  - Intermediate arithmetic keeps full precision

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal avoids floating-point drift, which matters
     because monthly aggregates must reconcile to daily records to the cent
  2. Single rounding point: round-after-sum, never round-then-sum
  3. Fractions stay float64: adjustment percentages are not money and only
     touch decimals at the final multiply

SEE ALSO:
  - date.go: calendar dates and ranges
  - period.go: fiscal period keys ("FY25_Aug")
  - errors.go: the error taxonomy
*/
package fiscal

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to cents. Use at emission points only.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustDecimal parses a decimal literal, returning zero on failure.
// Intended for static table values known to be well-formed.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Mean returns the arithmetic mean of the values, full precision.
// Callers must guarantee a non-empty slice; an empty competitor set is a
// precondition violation upstream, not an arithmetic case handled here.
func Mean(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

// Frac converts an adjustment fraction to a decimal multiplier (1 + f).
func Frac(f float64) decimal.Decimal {
	return decimal.NewFromFloat(1 + f)
}
