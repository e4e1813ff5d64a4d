package premium

import (
	"github.com/shopspring/decimal"

	"github.com/warp/shaho-engine/generic"
)

// =============================================================================
// BONUS PREMIUM
// =============================================================================

const (
	// HealthBonusAnnualCap limits the fiscal-year (April-March) cumulative
	// standard bonus amount for health and care insurance.
	HealthBonusAnnualCap int64 = 5_730_000

	// PensionBonusCap limits the standard bonus amount for welfare pension
	// per payment month.
	PensionBonusCap int64 = 1_500_000

	// StandardBonusUnit is the truncation unit of the standard bonus amount.
	StandardBonusUnit int64 = 1_000
)

// BonusInput carries everything CalculateBonus needs. The cumulative
// figures must exclude the bonus being calculated; see HealthCumulativeToDate.
type BonusInput struct {
	Employee    Employee
	GrossAmount int64
	PayDate     generic.Date

	// Sum of standard bonus amounts already paid in the fiscal year.
	HealthCumulativeToDate int64
	// Sum of standard bonus amounts already paid in the pay month.
	PensionMonthlyCumulative int64

	Rates Rates
}

// CapResult reports how a standard bonus amount fared against one cap.
type CapResult struct {
	Active           bool  `json:"active"`
	EffectiveAmount  int64 `json:"effective_amount"`
	ExceededAmount   int64 `json:"exceeded_amount"`
	CumulativeBefore int64 `json:"cumulative_before"`
	CumulativeAfter  int64 `json:"cumulative_after"`
}

// BonusResult is the premium snapshot of one bonus payment.
type BonusResult struct {
	EmployeeID generic.EmployeeID
	PayDate    generic.Date
	FiscalYear int

	GrossAmount         int64
	StandardBonusAmount int64

	Treatment          PremiumTreatment
	CareTarget         bool
	CombinedHealthRate decimal.Decimal

	HealthCap  CapResult
	PensionCap CapResult

	HealthCare Split // health and care combined
	Pension    Split

	EmployeeTotal decimal.Decimal
	EmployerTotal decimal.Decimal
}

func (r BonusResult) Exempt() bool { return r.Treatment == TreatmentExempt }

// StandardBonusAmount truncates a gross bonus to the thousand yen.
func StandardBonusAmount(gross int64) int64 {
	if gross <= 0 {
		return 0
	}
	return gross / StandardBonusUnit * StandardBonusUnit
}

// CalculateBonus computes the premiums of one bonus payment.
//
// Steps:
//  1. standard amount = gross floored to 1,000 yen
//  2. the employee must hold health or pension qualification in the pay month
//  3. health is capped on the fiscal-year cumulative, pension per pay month
//  4. premiums = effective amount × rate, split without 10-yen rounding
func CalculateBonus(in BonusInput) (BonusResult, SkipReason) {
	emp := in.Employee
	standard := StandardBonusAmount(in.GrossAmount)

	switch {
	case !emp.IsInsured:
		return BonusResult{}, SkipNotInsured
	case in.GrossAmount <= 0 || standard <= 0:
		return BonusResult{}, SkipNonPositiveBonus
	case in.Rates.Health == nil:
		return BonusResult{}, SkipMissingHealthRate
	case in.Rates.Pension == nil:
		return BonusResult{}, SkipMissingPensionRate
	}

	payMonth := in.PayDate.YearMonth()
	healthActive := emp.ActiveIn(KindHealth, payMonth)
	pensionActive := emp.ActiveIn(KindPension, payMonth)
	if !healthActive && !pensionActive {
		return BonusResult{}, SkipNotQualified
	}

	careTarget := IsCareTarget(emp.BirthDate, payMonth)
	combined := *in.Rates.Health
	if careTarget && in.Rates.Care != nil {
		combined = combined.Add(*in.Rates.Care)
	}

	result := BonusResult{
		EmployeeID:          emp.ID,
		PayDate:             in.PayDate,
		FiscalYear:          generic.FiscalYearOf(in.PayDate),
		GrossAmount:         in.GrossAmount,
		StandardBonusAmount: standard,
		Treatment:           treatmentOf(emp),
		CareTarget:          careTarget,
		CombinedHealthRate:  combined,
		HealthCap:           uncapped(in.HealthCumulativeToDate),
		PensionCap:          uncapped(in.PensionMonthlyCumulative),
		HealthCare:          ZeroSplit(),
		Pension:             ZeroSplit(),
	}

	if healthActive {
		result.HealthCap = ApplyHealthCap(standard, in.HealthCumulativeToDate)
	}
	if pensionActive {
		result.PensionCap = ApplyPensionCap(standard, in.PensionMonthlyCumulative)
	}

	if !result.Exempt() {
		result.HealthCare = SplitTotal(generic.Yen(result.HealthCap.EffectiveAmount).Mul(combined))
		result.Pension = SplitTotal(generic.Yen(result.PensionCap.EffectiveAmount).Mul(*in.Rates.Pension))
	}

	result.EmployeeTotal = result.HealthCare.EmployeeShare.Add(result.Pension.EmployeeShare)
	result.EmployerTotal = result.HealthCare.EmployerShare.Add(result.Pension.EmployerShare)
	return result, SkipNone
}

// ApplyHealthCap applies the fiscal-year cumulative cap. ExceededAmount is
// how far the new cumulative overshoots the cap.
func ApplyHealthCap(standard, cumulativeBefore int64) CapResult {
	after := cumulativeBefore + standard
	res := CapResult{
		Active:           true,
		EffectiveAmount:  standard,
		CumulativeBefore: cumulativeBefore,
		CumulativeAfter:  after,
	}
	if after > HealthBonusAnnualCap {
		res.ExceededAmount = after - HealthBonusAnnualCap
		res.EffectiveAmount = max(0, standard-res.ExceededAmount)
	}
	return res
}

// ApplyPensionCap clips the standard amount to what is left of the pay
// month's cap. With no earlier payment in the month this is a plain
// per-payment clip at PensionBonusCap.
func ApplyPensionCap(standard, monthCumulativeBefore int64) CapResult {
	capacity := max(0, PensionBonusCap-monthCumulativeBefore)
	effective := min(standard, capacity)
	return CapResult{
		Active:           true,
		EffectiveAmount:  effective,
		ExceededAmount:   standard - effective,
		CumulativeBefore: monthCumulativeBefore,
		CumulativeAfter:  monthCumulativeBefore + standard,
	}
}

func uncapped(cumulative int64) CapResult {
	return CapResult{CumulativeBefore: cumulative, CumulativeAfter: cumulative}
}
