package premium_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func rate(s string) *decimal.Decimal {
	return generic.DecimalPtr(decimal.RequireFromString(s))
}

func date(s string) generic.Date { return generic.MustParseDate(s) }

func datePtr(s string) *generic.Date { return generic.DatePtr(date(s)) }

func ym(s string) generic.YearMonth { return generic.MustParseYearMonth(s) }

func yen(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// tokyo2025 is the Kyokai Kenpo Tokyo rate set from March 2025.
func tokyo2025(target string) premium.RateContext {
	return premium.RateContext{
		YearMonth: ym(target),
		CalcDate:  date("2025-06-01"),
		Rates: premium.Rates{
			Health:  rate("0.0991"),
			Care:    rate("0.0159"),
			Pension: rate("0.183"),
		},
	}
}

// insured returns a 45-year-old (care contributor) insured since 2020.
func insured(id string) premium.Employee {
	return premium.Employee{
		ID:                       generic.EmployeeID(id),
		BirthDate:                date("1980-01-15"),
		IsInsured:                true,
		HealthStandardMonthly:    generic.Int64Ptr(300_000),
		PensionStandardMonthly:   generic.Int64Ptr(300_000),
		PremiumTreatment:         premium.TreatmentNormal,
		HealthQualificationDate:  datePtr("2020-04-01"),
		PensionQualificationDate: datePtr("2020-04-01"),
		HireDate:                 datePtr("2020-04-01"),
	}
}

func assertBalanced(t *testing.T, s premium.Split) {
	t.Helper()
	assert.True(t, s.EmployeeShare.Add(s.EmployerShare).Equal(s.Total),
		"split %s + %s != %s", s.EmployeeShare, s.EmployerShare, s.Total)
}

type historyStub []premium.BonusRecord

func (h historyStub) ListBonuses(_ context.Context, id generic.EmployeeID) ([]premium.BonusRecord, error) {
	var out []premium.BonusRecord
	for _, r := range h {
		if r.EmployeeID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

type failingHistory struct{}

func (failingHistory) ListBonuses(context.Context, generic.EmployeeID) ([]premium.BonusRecord, error) {
	return nil, errors.New("disk on fire")
}

// =============================================================================
// ROUNDING TESTS
// =============================================================================

func TestRoundTotal_DropsToTenYen(t *testing.T) {
	yen(t, "29730", premium.RoundTotal(decimal.RequireFromString("29730")))
	yen(t, "27740", premium.RoundTotal(decimal.RequireFromString("27748")))
	yen(t, "12180", premium.RoundTotal(decimal.RequireFromString("12189.3")))
	yen(t, "0", premium.RoundTotal(decimal.RequireFromString("9.99")))
}

func TestSplitTotal_EmployerTakesRemainder(t *testing.T) {
	s := premium.SplitTotal(decimal.RequireFromString("2973"))
	yen(t, "1486", s.EmployeeShare)
	yen(t, "1487", s.EmployerShare)

	even := premium.SplitTotal(decimal.RequireFromString("14860"))
	yen(t, "7430", even.EmployeeShare)
	yen(t, "7430", even.EmployerShare)

	fractional := premium.SplitTotal(decimal.RequireFromString("12189.3"))
	yen(t, "6094", fractional.EmployeeShare)
	yen(t, "6095.3", fractional.EmployerShare)
	assertBalanced(t, fractional)
}

// =============================================================================
// CARE ELIGIBILITY TESTS
// =============================================================================

func TestIsCareTarget_Boundaries(t *testing.T) {
	tests := []struct {
		birth  string
		target string
		want   bool
	}{
		{"1985-05-02", "2025-04", false},
		{"1985-05-02", "2025-05", true},
		{"1985-05-02", "2050-04", true},
		{"1985-05-02", "2050-05", false},

		// Born on the 1st: every boundary moves one month earlier
		{"1985-05-01", "2025-03", false},
		{"1985-05-01", "2025-04", true},
		{"1985-05-01", "2050-03", true},
		{"1985-05-01", "2050-04", false},
	}

	for _, tt := range tests {
		t.Run(tt.birth+"@"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, premium.IsCareTarget(date(tt.birth), ym(tt.target)))
			assert.Equal(t, tt.want, premium.IsCareTargetString(tt.birth, tt.target))
		})
	}
}

func TestIsCareTarget_MalformedInputIsFalse(t *testing.T) {
	assert.False(t, premium.IsCareTargetString("", "2025-05"))
	assert.False(t, premium.IsCareTargetString("1985-02-30", "2025-05"))
	assert.False(t, premium.IsCareTargetString("1980-01-15", "2025-13"))
	assert.False(t, premium.IsCareTargetString("1980-01-15", "May 2025"))
	assert.False(t, premium.IsCareTarget(generic.Date{}, ym("2025-05")))
	assert.False(t, premium.IsCareTarget(date("1980-01-15"), generic.YearMonth{}))
}

// =============================================================================
// MONTHLY PREMIUM TESTS
// =============================================================================

func TestCalculateMonthly_CareContributor(t *testing.T) {
	// GIVEN: 45-year-old with standard monthly reward 300,000
	// WHEN: Calculating 2025-06 at Tokyo 2025 rates
	// THEN: health 29,730 / care 4,770 / pension 54,900, each split in half

	res, skip := premium.CalculateMonthly(insured("emp-1"), tokyo2025("2025-06"))
	require.Equal(t, premium.SkipNone, skip)

	assert.True(t, res.CareTarget)
	yen(t, "29730", res.Health.Total)
	yen(t, "14865", res.Health.EmployeeShare)
	yen(t, "4770", res.Care.Total)
	yen(t, "2385", res.Care.EmployeeShare)
	yen(t, "54900", res.Pension.Total)
	yen(t, "27450", res.Pension.EmployerShare)

	yen(t, "44700", res.EmployeeTotal)
	yen(t, "44700", res.EmployerTotal)
	yen(t, "89400", res.GrandTotal())

	for _, s := range []premium.Split{res.Health, res.Care, res.Pension} {
		assertBalanced(t, s)
	}
}

func TestCalculateMonthly_TenYenRoundingBeforeSplit(t *testing.T) {
	emp := insured("emp-1")
	emp.BirthDate = date("1995-03-03") // not a care contributor
	emp.HealthStandardMonthly = generic.Int64Ptr(280_000)
	emp.PensionStandardMonthly = generic.Int64Ptr(280_000)

	res, skip := premium.CalculateMonthly(emp, tokyo2025("2025-06"))
	require.Equal(t, premium.SkipNone, skip)

	// 280,000 × 0.0991 = 27,748 -> 27,740
	yen(t, "27740", res.Health.Total)
	yen(t, "13870", res.Health.EmployeeShare)
	yen(t, "0", res.Care.Total)
	assert.False(t, res.CareTarget)
	// 280,000 × 0.183 = 51,240
	yen(t, "51240", res.Pension.Total)
}

func TestCalculateMonthly_MissingCareRateOnlyZeroesCare(t *testing.T) {
	rc := tokyo2025("2025-06")
	rc.Care = nil

	res, skip := premium.CalculateMonthly(insured("emp-1"), rc)
	require.Equal(t, premium.SkipNone, skip)
	assert.True(t, res.CareTarget)
	yen(t, "0", res.Care.Total)
	yen(t, "29730", res.Health.Total)
}

func TestCalculateMonthly_ExemptIsComputedWithZeroTotals(t *testing.T) {
	emp := insured("emp-1")
	emp.PremiumTreatment = premium.TreatmentExempt

	res, skip := premium.CalculateMonthly(emp, tokyo2025("2025-06"))
	require.Equal(t, premium.SkipNone, skip, "exemption is reportable, not a skip")

	assert.True(t, res.Exempt())
	assert.Equal(t, int64(300_000), res.HealthStandardMonthly)
	yen(t, "0", res.Health.Total)
	yen(t, "0", res.Care.Total)
	yen(t, "0", res.Pension.Total)
	yen(t, "0", res.EmployeeTotal)
	yen(t, "0", res.EmployerTotal)
}

func TestCalculateMonthly_NotComputable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*premium.Employee, *premium.RateContext)
		want   premium.SkipReason
	}{
		{"not insured", func(e *premium.Employee, _ *premium.RateContext) { e.IsInsured = false }, premium.SkipNotInsured},
		{"no health standard", func(e *premium.Employee, _ *premium.RateContext) { e.HealthStandardMonthly = nil }, premium.SkipMissingHealthStandard},
		{"no pension standard", func(e *premium.Employee, _ *premium.RateContext) { e.PensionStandardMonthly = nil }, premium.SkipMissingPensionStandard},
		{"no health rate", func(_ *premium.Employee, rc *premium.RateContext) { rc.Health = nil }, premium.SkipMissingHealthRate},
		{"no pension rate", func(_ *premium.Employee, rc *premium.RateContext) { rc.Pension = nil }, premium.SkipMissingPensionRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp := insured("emp-1")
			rc := tokyo2025("2025-06")
			tt.mutate(&emp, &rc)

			res, skip := premium.CalculateMonthly(emp, rc)
			assert.Equal(t, tt.want, skip)
			assert.Equal(t, premium.MonthlyResult{}, res)
		})
	}
}

// =============================================================================
// BONUS PREMIUM TESTS
// =============================================================================

func youngInsured(id string) premium.Employee {
	emp := insured(id)
	emp.BirthDate = date("1995-03-03")
	return emp
}

func TestStandardBonusAmount(t *testing.T) {
	assert.Equal(t, int64(100_000), premium.StandardBonusAmount(100_999))
	assert.Equal(t, int64(0), premium.StandardBonusAmount(999))
	assert.Equal(t, int64(0), premium.StandardBonusAmount(-5_000))
}

func TestCalculateBonus_HealthFiscalYearCap(t *testing.T) {
	// GIVEN: 5,700,000 already counted this fiscal year
	// WHEN: A 100,500 yen bonus (standard 100,000) is paid
	// THEN: Only 30,000 counts for health; 70,000 exceeds the cap

	res, skip := premium.CalculateBonus(premium.BonusInput{
		Employee:               youngInsured("emp-1"),
		GrossAmount:            100_500,
		PayDate:                date("2025-12-10"),
		HealthCumulativeToDate: 5_700_000,
		Rates:                  tokyo2025("2025-12").Rates,
	})
	require.Equal(t, premium.SkipNone, skip)

	assert.Equal(t, int64(100_000), res.StandardBonusAmount)
	assert.Equal(t, int64(30_000), res.HealthCap.EffectiveAmount)
	assert.Equal(t, int64(70_000), res.HealthCap.ExceededAmount)
	assert.Equal(t, int64(5_800_000), res.HealthCap.CumulativeAfter)
	assert.Equal(t, 2025, res.FiscalYear)

	// 30,000 × 0.0991 = 2,973 (no 10-yen rounding on bonuses)
	yen(t, "2973", res.HealthCare.Total)
	yen(t, "1486", res.HealthCare.EmployeeShare)
	yen(t, "1487", res.HealthCare.EmployerShare)

	// pension is untouched by the health cap
	assert.Equal(t, int64(100_000), res.PensionCap.EffectiveAmount)
	yen(t, "18300", res.Pension.Total)
}

func TestCalculateBonus_HealthCapAlreadyExhausted(t *testing.T) {
	res := premium.ApplyHealthCap(100_000, 6_000_000)
	assert.Equal(t, int64(0), res.EffectiveAmount)
	assert.Equal(t, int64(370_000), res.ExceededAmount)
}

func TestCalculateBonus_PensionPerPaymentCap(t *testing.T) {
	res, skip := premium.CalculateBonus(premium.BonusInput{
		Employee:    youngInsured("emp-1"),
		GrossAmount: 2_000_000,
		PayDate:     date("2025-07-10"),
		Rates:       tokyo2025("2025-07").Rates,
	})
	require.Equal(t, premium.SkipNone, skip)

	assert.Equal(t, int64(1_500_000), res.PensionCap.EffectiveAmount)
	assert.Equal(t, int64(500_000), res.PensionCap.ExceededAmount)
	yen(t, "274500", res.Pension.Total)
	yen(t, "137250", res.Pension.EmployeeShare)

	assert.Equal(t, int64(2_000_000), res.HealthCap.EffectiveAmount)
	assert.Equal(t, int64(0), res.HealthCap.ExceededAmount)
}

func TestCalculateBonus_PensionCapSharedWithinMonth(t *testing.T) {
	res := premium.ApplyPensionCap(800_000, 1_000_000)
	assert.Equal(t, int64(500_000), res.EffectiveAmount)
	assert.Equal(t, int64(300_000), res.ExceededAmount)
}

func TestCalculateBonus_CareAddsToHealthRate(t *testing.T) {
	res, skip := premium.CalculateBonus(premium.BonusInput{
		Employee:    insured("emp-1"),
		GrossAmount: 500_000,
		PayDate:     date("2025-07-10"),
		Rates:       tokyo2025("2025-07").Rates,
	})
	require.Equal(t, premium.SkipNone, skip)

	assert.True(t, res.CareTarget)
	yen(t, "0.115", res.CombinedHealthRate)
	yen(t, "57500", res.HealthCare.Total)
	yen(t, "28750", res.HealthCare.EmployeeShare)
	yen(t, "91500", res.Pension.Total)
	yen(t, "74500", res.EmployeeTotal)
}

func TestCalculateBonus_FractionalTotalStaysBalanced(t *testing.T) {
	res, skip := premium.CalculateBonus(premium.BonusInput{
		Employee:    youngInsured("emp-1"),
		GrossAmount: 123_456,
		PayDate:     date("2025-07-10"),
		Rates:       tokyo2025("2025-07").Rates,
	})
	require.Equal(t, premium.SkipNone, skip)

	// 123,000 × 0.0991 = 12,189.3
	yen(t, "12189.3", res.HealthCare.Total)
	yen(t, "6094", res.HealthCare.EmployeeShare)
	assertBalanced(t, res.HealthCare)
	assertBalanced(t, res.Pension)
}

func TestCalculateBonus_QualificationInPayMonth(t *testing.T) {
	tests := []struct {
		name    string
		qual    string
		loss    string
		payDate string
		want    premium.SkipReason
	}{
		{"before acquisition", "2025-04-01", "", "2025-03-20", premium.SkipNotQualified},
		{"acquisition month", "2025-04-15", "", "2025-04-01", premium.SkipNone},
		{"month before loss", "2020-04-01", "2025-07-01", "2025-06-30", premium.SkipNone},
		{"loss month", "2020-04-01", "2025-07-01", "2025-07-10", premium.SkipNotQualified},
		{"same-month acquisition and loss", "2025-07-03", "2025-07-25", "2025-07-10", premium.SkipNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp := youngInsured("emp-1")
			emp.HealthQualificationDate = datePtr(tt.qual)
			emp.PensionQualificationDate = datePtr(tt.qual)
			if tt.loss != "" {
				emp.HealthLossDate = datePtr(tt.loss)
				emp.PensionLossDate = datePtr(tt.loss)
			}

			_, skip := premium.CalculateBonus(premium.BonusInput{
				Employee:    emp,
				GrossAmount: 300_000,
				PayDate:     date(tt.payDate),
				Rates:       tokyo2025("2025-07").Rates,
			})
			assert.Equal(t, tt.want, skip)
		})
	}
}

func TestCalculateBonus_OnlyPensionActive(t *testing.T) {
	emp := youngInsured("emp-1")
	emp.HealthQualificationDate = nil

	res, skip := premium.CalculateBonus(premium.BonusInput{
		Employee:               emp,
		GrossAmount:            300_000,
		PayDate:                date("2025-07-10"),
		HealthCumulativeToDate: 1_000_000,
		Rates:                  tokyo2025("2025-07").Rates,
	})
	require.Equal(t, premium.SkipNone, skip)

	assert.False(t, res.HealthCap.Active)
	assert.Equal(t, int64(1_000_000), res.HealthCap.CumulativeAfter)
	yen(t, "0", res.HealthCare.Total)
	assert.True(t, res.PensionCap.Active)
	yen(t, "54900", res.Pension.Total)
}

func TestCalculateBonus_NotComputable(t *testing.T) {
	base := premium.BonusInput{
		Employee:    youngInsured("emp-1"),
		GrossAmount: 300_000,
		PayDate:     date("2025-07-10"),
		Rates:       tokyo2025("2025-07").Rates,
	}

	notInsured := base
	notInsured.Employee.IsInsured = false
	_, skip := premium.CalculateBonus(notInsured)
	assert.Equal(t, premium.SkipNotInsured, skip)

	tiny := base
	tiny.GrossAmount = 999
	_, skip = premium.CalculateBonus(tiny)
	assert.Equal(t, premium.SkipNonPositiveBonus, skip)

	noRate := base
	noRate.Rates.Pension = nil
	_, skip = premium.CalculateBonus(noRate)
	assert.Equal(t, premium.SkipMissingPensionRate, skip)
}

func TestCalculateBonus_ExemptKeepsCapsZeroesPremiums(t *testing.T) {
	in := premium.BonusInput{
		Employee:               youngInsured("emp-1"),
		GrossAmount:            400_000,
		PayDate:                date("2025-07-10"),
		HealthCumulativeToDate: 100_000,
		Rates:                  tokyo2025("2025-07").Rates,
	}
	in.Employee.PremiumTreatment = premium.TreatmentExempt

	res, skip := premium.CalculateBonus(in)
	require.Equal(t, premium.SkipNone, skip)
	assert.True(t, res.Exempt())
	assert.Equal(t, int64(500_000), res.HealthCap.CumulativeAfter)
	yen(t, "0", res.HealthCare.Total)
	yen(t, "0", res.Pension.Total)
}
