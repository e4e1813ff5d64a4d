/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors  - malformed dates, months, unknown rates
  2. Policy errors - bonus frequency overflow (caller-enforced rejection)
  3. Store errors  - missing records

NOT AN ERROR:
  A premium that cannot be computed (no insured flag, no standard reward,
  no rate) is reported through premium.SkipReason, never through error.

USAGE:
    if errors.Is(err, generic.ErrBonusFrequencyExceeded) {
        // reject the 4th bonus in the July-June window
    }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidYearMonth is returned when a month string is not YYYY-MM.
	ErrInvalidYearMonth = errors.New("invalid year-month")

	// ErrRateNotFound is returned when no rate table row covers a month.
	ErrRateNotFound = errors.New("no insurance rates for month")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrBonusNotFound is returned when an edited bonus record doesn't exist.
	ErrBonusNotFound = errors.New("bonus record not found")

	// ErrBonusFrequencyExceeded is returned when a bonus would be the 4th or
	// later payment in one July-June window.
	ErrBonusFrequencyExceeded = errors.New("bonus frequency exceeded")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FrequencyExceededError provides details about a bonus frequency violation.
type FrequencyExceededError struct {
	EmployeeID EmployeeID
	Period     Period
	Count      int // bonuses already recorded in Period
	Limit      int
}

func (e *FrequencyExceededError) Error() string {
	return fmt.Sprintf("bonus frequency exceeded: %s already has %d bonuses in %s (limit %d)",
		e.EmployeeID, e.Count, e.Period, e.Limit)
}

func (e *FrequencyExceededError) Unwrap() error {
	return ErrBonusFrequencyExceeded
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsPolicyViolation returns true if the caller must reject the operation.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrBonusFrequencyExceeded)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrBonusNotFound)
}
