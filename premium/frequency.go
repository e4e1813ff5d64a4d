package premium

import (
	"context"
	"fmt"
	"math"

	"github.com/warp/shaho-engine/generic"
)

// =============================================================================
// BONUS RECORDS & EXCLUSION
// =============================================================================

// MaxBonusesPerPeriod is the number of payments a July-June window may hold.
// A 4th payment is remuneration, not a bonus, and must be rejected.
const MaxBonusesPerPeriod = 3

// BonusRecord is a previously saved bonus payment. Seq is the saving
// order; it breaks ties between payments made on the same date.
type BonusRecord struct {
	ID                  string
	EmployeeID          generic.EmployeeID
	PayDate             generic.Date
	Seq                 int64
	GrossAmount         int64
	StandardBonusAmount int64
}

// Position places the record among the employee's payments.
func (r BonusRecord) Position() BonusPosition {
	return BonusPosition{PayDate: r.PayDate, Seq: r.Seq}
}

// BonusPosition orders payments by pay date, then by saving order.
type BonusPosition struct {
	PayDate generic.Date
	Seq     int64
}

// NewBonusPosition places an unsaved bonus after every saved payment,
// including those made on the same date.
func NewBonusPosition(payDate generic.Date) BonusPosition {
	return BonusPosition{PayDate: payDate, Seq: math.MaxInt64}
}

// Before reports whether p was paid strictly ahead of q.
func (p BonusPosition) Before(q BonusPosition) bool {
	if !p.PayDate.Equal(q.PayDate) {
		return p.PayDate.Before(q.PayDate)
	}
	return p.Seq < q.Seq
}

// BonusHistory supplies an employee's saved bonus records.
type BonusHistory interface {
	ListBonuses(ctx context.Context, employeeID generic.EmployeeID) ([]BonusRecord, error)
}

// Exclusion selects records to leave out of counts and cumulative sums,
// typically the record being edited.
type Exclusion func(BonusRecord) bool

// ExcludeNothing counts every record.
func ExcludeNothing(BonusRecord) bool { return false }

// ExcludeRecord leaves out the record with the given id.
func ExcludeRecord(id string) Exclusion {
	if id == "" {
		return ExcludeNothing
	}
	return func(r BonusRecord) bool { return r.ID == id }
}

// ExcludePayDate leaves out records paid on the given date.
func ExcludePayDate(d generic.Date) Exclusion {
	return func(r BonusRecord) bool { return r.PayDate.Equal(d) }
}

// filter yields the employee's records that survive the exclusion.
func filter(records []BonusRecord, employeeID generic.EmployeeID, exclude Exclusion) []BonusRecord {
	if exclude == nil {
		exclude = ExcludeNothing
	}
	out := make([]BonusRecord, 0, len(records))
	for _, r := range records {
		if r.EmployeeID != employeeID || exclude(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// =============================================================================
// FREQUENCY GUARD
// =============================================================================

// CountBonusesInPeriod counts the employee's records paid in the July-June
// window containing payDate.
func CountBonusesInPeriod(records []BonusRecord, employeeID generic.EmployeeID, payDate generic.Date, exclude Exclusion) int {
	period := generic.BonusYearPeriod(payDate)
	n := 0
	for _, r := range filter(records, employeeID, exclude) {
		if period.Contains(r.PayDate) {
			n++
		}
	}
	return n
}

// CheckFrequency rejects a bonus when count earlier payments already fill
// the window. Preview and save must both call it.
func CheckFrequency(employeeID generic.EmployeeID, payDate generic.Date, count int) error {
	if count < MaxBonusesPerPeriod {
		return nil
	}
	return &generic.FrequencyExceededError{
		EmployeeID: employeeID,
		Period:     generic.BonusYearPeriod(payDate),
		Count:      count,
		Limit:      MaxBonusesPerPeriod,
	}
}

// FrequencyGuard counts bonuses straight from a BonusHistory.
type FrequencyGuard struct {
	History BonusHistory
}

func (g FrequencyGuard) Count(ctx context.Context, employeeID generic.EmployeeID, payDate generic.Date, exclude Exclusion) (int, error) {
	records, err := g.History.ListBonuses(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("load bonus history: %w", err)
	}
	return CountBonusesInPeriod(records, employeeID, payDate, exclude), nil
}

// =============================================================================
// CUMULATIVE AGGREGATION
// =============================================================================

// HealthCumulativeToDate sums standard bonus amounts paid in the same
// April-March fiscal year ahead of the bonus at position at.
func HealthCumulativeToDate(records []BonusRecord, employeeID generic.EmployeeID, at BonusPosition, exclude Exclusion) int64 {
	fy := generic.FiscalYearPeriod(at.PayDate)
	var sum int64
	for _, r := range filter(records, employeeID, exclude) {
		if fy.Contains(r.PayDate) && r.Position().Before(at) {
			sum += r.StandardBonusAmount
		}
	}
	return sum
}

// PensionMonthlyCumulative sums standard bonus amounts paid in the same
// calendar month ahead of the bonus at position at.
func PensionMonthlyCumulative(records []BonusRecord, employeeID generic.EmployeeID, at BonusPosition, exclude Exclusion) int64 {
	month := at.PayDate.YearMonth()
	var sum int64
	for _, r := range filter(records, employeeID, exclude) {
		if r.PayDate.YearMonth().Equal(month) && r.Position().Before(at) {
			sum += r.StandardBonusAmount
		}
	}
	return sum
}

// =============================================================================
// EVALUATE - The single path shared by preview and save
// =============================================================================

// BonusEvaluation is what a preview shows and what a save persists.
// PriorCount is the number of the employee's other payments in the
// July-June window, the figure the frequency limit is checked against.
type BonusEvaluation struct {
	PriorCount int
	Result     BonusResult
	Skip       SkipReason
}

// EvaluateBonus loads the employee's history, enforces the frequency limit,
// derives the cumulative figures and calculates the bonus. editing is the
// id of the saved record being recalculated, or empty for a new bonus. The
// edited record is left out of every figure and keeps its place among
// same-day payments, so re-saving an unchanged bonus gives the same result.
func EvaluateBonus(ctx context.Context, history BonusHistory, emp Employee, gross int64, payDate generic.Date, rates Rates, editing string) (BonusEvaluation, error) {
	records, err := history.ListBonuses(ctx, emp.ID)
	if err != nil {
		return BonusEvaluation{}, fmt.Errorf("load bonus history: %w", err)
	}

	exclude := ExcludeRecord(editing)
	at := NewBonusPosition(payDate)
	for _, r := range records {
		if editing != "" && r.ID == editing {
			at.Seq = r.Seq
		}
	}

	count := CountBonusesInPeriod(records, emp.ID, payDate, exclude)
	if err := CheckFrequency(emp.ID, payDate, count); err != nil {
		return BonusEvaluation{PriorCount: count}, err
	}

	result, skip := CalculateBonus(BonusInput{
		Employee:                 emp,
		GrossAmount:              gross,
		PayDate:                  payDate,
		HealthCumulativeToDate:   HealthCumulativeToDate(records, emp.ID, at, exclude),
		PensionMonthlyCumulative: PensionMonthlyCumulative(records, emp.ID, at, exclude),
		Rates:                    rates,
	})
	return BonusEvaluation{PriorCount: count, Result: result, Skip: skip}, nil
}
