/*
Package generic provides the calendar and money primitives shared by the
premium calculators and the data-quality validator.

PURPOSE:
  Social-insurance rules are written in calendar terms: the month a
  qualification starts, the April-March fiscal year a bonus cap resets in,
  the July-June window bonus payments are counted over. This package holds
  those concepts so the domain packages never do raw time.Time arithmetic.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID: Type-safe identifier
  - Yen helpers: decimal.Decimal constructors for currency values

DESIGN PRINCIPLES:
  1. Precision: money and rates use decimal.Decimal, never float64
  2. Immutability: every value type here is passed by value
  3. Absence is explicit: optional dates and amounts are pointers

SEE ALSO:
  - time.go: Date and YearMonth
  - period.go: fiscal year and bonus year windows
  - errors.go: sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// =============================================================================
// MONEY - Japanese yen as decimal
// =============================================================================

// Yen converts a whole-yen integer to a decimal amount.
func Yen(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// MustParseDecimal parses a decimal literal, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalPtr returns a pointer to a copy of d, for optional rates.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// Int64Ptr returns a pointer to n, for optional standard amounts.
func Int64Ptr(n int64) *int64 { return &n }

// DatePtr returns a pointer to d, for optional dates.
func DatePtr(d Date) *Date { return &d }
