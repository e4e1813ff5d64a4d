package premium

import (
	"github.com/shopspring/decimal"

	"github.com/warp/shaho-engine/generic"
)

// =============================================================================
// MONTHLY PREMIUM
// =============================================================================

// MonthlyResult is the premium snapshot of one employee for one month.
type MonthlyResult struct {
	EmployeeID generic.EmployeeID
	YearMonth  generic.YearMonth
	CalcDate   generic.Date

	HealthStandardMonthly  int64
	PensionStandardMonthly int64
	HealthGrade            *int
	PensionGrade           *int

	Treatment  PremiumTreatment
	CareTarget bool

	Health  Split
	Care    Split
	Pension Split

	EmployeeTotal decimal.Decimal
	EmployerTotal decimal.Decimal
}

// Exempt reports whether the result is a waived (all-zero) premium.
func (r MonthlyResult) Exempt() bool { return r.Treatment == TreatmentExempt }

// GrandTotal is the amount remitted for the employee.
func (r MonthlyResult) GrandTotal() decimal.Decimal { return r.EmployeeTotal.Add(r.EmployerTotal) }

// CalculateMonthly computes one employee's premiums for rc.YearMonth.
//
// Each total is rate × standard monthly reward, dropped to 10 yen, then
// split. The care premium is charged on the health standard monthly reward
// only for contributors aged 40-64 and only when a care rate is present.
func CalculateMonthly(emp Employee, rc RateContext) (MonthlyResult, SkipReason) {
	if reason := monthlyPrerequisites(emp, rc); reason != SkipNone {
		return MonthlyResult{}, reason
	}

	healthStd := *emp.HealthStandardMonthly
	pensionStd := *emp.PensionStandardMonthly
	careTarget := IsCareTarget(emp.BirthDate, rc.YearMonth)

	result := MonthlyResult{
		EmployeeID:             emp.ID,
		YearMonth:              rc.YearMonth,
		CalcDate:               rc.CalcDate,
		HealthStandardMonthly:  healthStd,
		PensionStandardMonthly: pensionStd,
		HealthGrade:            emp.HealthGrade,
		PensionGrade:           emp.PensionGrade,
		Treatment:              treatmentOf(emp),
		CareTarget:             careTarget,
		Health:                 ZeroSplit(),
		Care:                   ZeroSplit(),
		Pension:                ZeroSplit(),
	}

	if !result.Exempt() {
		result.Health = SplitTotal(RoundTotal(generic.Yen(healthStd).Mul(*rc.Health)))
		result.Pension = SplitTotal(RoundTotal(generic.Yen(pensionStd).Mul(*rc.Pension)))
		if careTarget && rc.Care != nil {
			result.Care = SplitTotal(RoundTotal(generic.Yen(healthStd).Mul(*rc.Care)))
		}
	}

	result.EmployeeTotal = result.Health.EmployeeShare.Add(result.Care.EmployeeShare).Add(result.Pension.EmployeeShare)
	result.EmployerTotal = result.Health.EmployerShare.Add(result.Care.EmployerShare).Add(result.Pension.EmployerShare)
	return result, SkipNone
}

// monthlyPrerequisites returns the first missing prerequisite, in a fixed order.
func monthlyPrerequisites(emp Employee, rc RateContext) SkipReason {
	switch {
	case !emp.IsInsured:
		return SkipNotInsured
	case emp.HealthStandardMonthly == nil:
		return SkipMissingHealthStandard
	case emp.PensionStandardMonthly == nil:
		return SkipMissingPensionStandard
	case rc.Health == nil:
		return SkipMissingHealthRate
	case rc.Pension == nil:
		return SkipMissingPensionRate
	default:
		return SkipNone
	}
}

func treatmentOf(emp Employee) PremiumTreatment {
	if emp.PremiumTreatment == TreatmentExempt {
		return TreatmentExempt
	}
	return TreatmentNormal
}
