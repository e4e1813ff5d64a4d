package generic

import "time"

// =============================================================================
// PERIOD - Boundaries for cumulative caps and frequency counting
// =============================================================================

// Period is an inclusive date range.
//
// Examples:
//   - Fiscal year 2025 (health bonus cap): Apr 1 2025 - Mar 31 2026
//   - Bonus year 2025 (frequency window):  Jul 1 2025 - Jun 30 2026
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodType defines how periods are calculated
type PeriodType string

const (
	PeriodCalendarYear PeriodType = "calendar_year" // Jan 1 - Dec 31
	PeriodFiscalYear   PeriodType = "fiscal_year"   // Custom start month
)

// PeriodConfig defines how to calculate the period a date falls into.
type PeriodConfig struct {
	Type PeriodType

	// For fiscal year: which month starts the year (1-12)
	FiscalYearStartMonth time.Month
}

var (
	// FiscalYear is the April-March year the health-insurance bonus cap resets on.
	FiscalYear = PeriodConfig{Type: PeriodFiscalYear, FiscalYearStartMonth: time.April}

	// BonusYear is the July-June window used to count bonus payments.
	BonusYear = PeriodConfig{Type: PeriodFiscalYear, FiscalYearStartMonth: time.July}
)

// PeriodFor returns the period that contains the given date
func (pc PeriodConfig) PeriodFor(date Date) Period {
	switch pc.Type {
	case PeriodFiscalYear:
		start := NewDate(pc.StartYear(date), pc.FiscalYearStartMonth, 1)
		return Period{Start: start, End: start.AddYears(1).AddDays(-1)}
	default:
		return Period{Start: NewDate(date.Year(), time.January, 1), End: NewDate(date.Year(), time.December, 31)}
	}
}

// StartYear returns the calendar year in which the period containing date starts.
// For the April fiscal year this is the conventional fiscal-year number.
func (pc PeriodConfig) StartYear(date Date) int {
	if pc.Type != PeriodFiscalYear || date.Month() >= pc.FiscalYearStartMonth {
		return date.Year()
	}
	return date.Year() - 1
}

// FiscalYearOf returns the April-start fiscal year number of the date.
func FiscalYearOf(date Date) int { return FiscalYear.StartYear(date) }

// FiscalYearPeriod returns Apr 1 - Mar 31 around the date.
func FiscalYearPeriod(date Date) Period { return FiscalYear.PeriodFor(date) }

// BonusYearPeriod returns Jul 1 - Jun 30 around the date.
func BonusYearPeriod(date Date) Period { return BonusYear.PeriodFor(date) }
