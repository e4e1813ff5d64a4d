/*
Package premium computes Japanese social-insurance premiums.

PURPOSE:
  Converts an employee's standard monthly reward (標準報酬月額) or standard
  bonus amount (標準賞与額) and the applicable rates into health, long-term
  care and welfare-pension premiums, split between employee and employer
  under the statutory rounding and cap rules.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: read-only snapshot of the insured person
  - Rates / RateContext: combined employer+employee rates for a month
  - Split: total, employee share, employer share of one premium kind
  - SkipReason: why a premium is not computable (not an error)

OUTCOME CLASSES:
  1. Computed:        (result, SkipNone)
  2. Not computable:  (zero result, SkipXxx) - caller skips the employee
  3. Policy violation: error from CheckFrequency - caller rejects the bonus

  Exemption (premiumTreatment = exempt) is a computed outcome with zero
  totals, never a skip.

SEE ALSO:
  - rounding.go: 10-yen total rounding and employee-share halving
  - care.go: long-term-care contributor check
  - monthly.go, bonus.go: the calculators
  - frequency.go: July-June bonus counting
*/
package premium

import (
	"github.com/shopspring/decimal"

	"github.com/warp/shaho-engine/generic"
)

// =============================================================================
// ENUMS
// =============================================================================

// InsuranceKind distinguishes the two insurances that carry their own
// qualification, loss and standard-reward history.
type InsuranceKind string

const (
	KindHealth  InsuranceKind = "health"
	KindPension InsuranceKind = "pension"
)

// InsuranceKinds lists every kind, in reporting order.
var InsuranceKinds = []InsuranceKind{KindHealth, KindPension}

func (k InsuranceKind) Valid() bool {
	switch k {
	case KindHealth, KindPension:
		return true
	}
	return false
}

// PremiumTreatment marks employees whose premiums are waived
// (maternity or childcare leave).
type PremiumTreatment string

const (
	TreatmentNormal PremiumTreatment = "normal"
	TreatmentExempt PremiumTreatment = "exempt"
)

// SkipReason explains a not-computable outcome. SkipNone means computed.
type SkipReason string

const (
	SkipNone                   SkipReason = ""
	SkipNotInsured             SkipReason = "not_insured"
	SkipMissingHealthStandard  SkipReason = "missing_health_standard"
	SkipMissingPensionStandard SkipReason = "missing_pension_standard"
	SkipMissingHealthRate      SkipReason = "missing_health_rate"
	SkipMissingPensionRate     SkipReason = "missing_pension_rate"
	SkipNonPositiveBonus       SkipReason = "non_positive_bonus"
	SkipNotQualified           SkipReason = "not_qualified_in_month"
)

// =============================================================================
// EMPLOYEE - Snapshot supplied by the employee store
// =============================================================================

type Employee struct {
	ID        generic.EmployeeID
	Name      string
	BirthDate generic.Date
	IsInsured bool

	HealthStandardMonthly  *int64
	PensionStandardMonthly *int64
	HealthGrade            *int
	PensionGrade           *int
	PremiumTreatment       PremiumTreatment

	HealthQualificationDate  *generic.Date
	PensionQualificationDate *generic.Date
	HealthLossDate           *generic.Date
	PensionLossDate          *generic.Date

	HireDate   *generic.Date
	RetireDate *generic.Date
}

// QualificationDate returns the acquisition date for the kind, or nil.
func (e Employee) QualificationDate(kind InsuranceKind) *generic.Date {
	switch kind {
	case KindHealth:
		return e.HealthQualificationDate
	case KindPension:
		return e.PensionQualificationDate
	}
	return nil
}

// LossDate returns the loss date for the kind, or nil.
func (e Employee) LossDate(kind InsuranceKind) *generic.Date {
	switch kind {
	case KindHealth:
		return e.HealthLossDate
	case KindPension:
		return e.PensionLossDate
	}
	return nil
}

// StandardMonthly returns the standard monthly reward for the kind, or nil.
func (e Employee) StandardMonthly(kind InsuranceKind) *int64 {
	switch kind {
	case KindHealth:
		return e.HealthStandardMonthly
	case KindPension:
		return e.PensionStandardMonthly
	}
	return nil
}

// ActiveIn reports whether the employee holds the kind's qualification for
// the month. The loss month itself is not covered, except when acquisition
// and loss fall in the same month.
func (e Employee) ActiveIn(kind InsuranceKind, ym generic.YearMonth) bool {
	qual := e.QualificationDate(kind)
	if qual == nil || qual.IsZero() {
		return false
	}
	qualYM := qual.YearMonth()
	if ym.Before(qualYM) {
		return false
	}

	loss := e.LossDate(kind)
	if loss == nil || loss.IsZero() {
		return true
	}
	lossYM := loss.YearMonth()
	if ym.Before(lossYM) {
		return true
	}
	return qualYM.Equal(lossYM) && ym.Equal(lossYM)
}

// =============================================================================
// RATES
// =============================================================================

// Rates are combined employer+employee fractional rates (e.g. 0.0991).
// A nil rate is missing; a missing care rate only zeroes the care premium.
type Rates struct {
	Health  *decimal.Decimal
	Care    *decimal.Decimal
	Pension *decimal.Decimal
}

// RateContext is the rate set applying to one target month.
type RateContext struct {
	YearMonth generic.YearMonth
	CalcDate  generic.Date
	Rates
}

// =============================================================================
// SPLIT - One premium kind, divided between employee and employer
// =============================================================================

// Split always satisfies Total = EmployeeShare + EmployerShare.
type Split struct {
	Total         decimal.Decimal `json:"total"`
	EmployeeShare decimal.Decimal `json:"employee_share"`
	EmployerShare decimal.Decimal `json:"employer_share"`
}

// ZeroSplit is the split of an exempt or inapplicable premium.
func ZeroSplit() Split {
	return Split{Total: decimal.Zero, EmployeeShare: decimal.Zero, EmployerShare: decimal.Zero}
}
