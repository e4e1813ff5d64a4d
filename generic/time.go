package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (qualification, loss, pay dates)
// =============================================================================

const (
	dateLayout      = "2006-01-02"
	yearMonthLayout = "2006-01"
)

// Date is a calendar date normalized to midnight UTC.
// The zero value is "no date"; optional dates are carried as *Date.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string. Overflowing days ("2025-02-30") are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// MustParseDate is for tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int            { return d.Time.Year() }
func (d Date) Month() time.Month    { return d.Time.Month() }
func (d Date) Day() int             { return d.Time.Day() }
func (d Date) IsZero() bool         { return d.Time.IsZero() }
func (d Date) YearMonth() YearMonth { return YearMonth{Year: d.Year(), Month: d.Month()} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// YEAR MONTH - Target period of monthly premiums and reward history
// =============================================================================

// YearMonth identifies a calendar month. Premiums, standard-reward revisions
// and data-quality findings are all keyed by it.
type YearMonth struct {
	Year  int
	Month time.Month
}

func NewYearMonth(year int, month time.Month) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func MustParseYearMonth(s string) YearMonth {
	ym, err := ParseYearMonth(s)
	if err != nil {
		panic(err)
	}
	return ym
}

// Valid reports whether the month is in 1..12 and the year is set.
func (ym YearMonth) Valid() bool {
	return ym.Year > 0 && ym.Month >= time.January && ym.Month <= time.December
}

// index maps a month onto a monotonically increasing integer.
func (ym YearMonth) index() int { return ym.Year*12 + int(ym.Month) - 1 }

// Compare returns -1, 0 or +1.
func (ym YearMonth) Compare(other YearMonth) int {
	a, b := ym.index(), other.index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (ym YearMonth) Before(other YearMonth) bool        { return ym.Compare(other) < 0 }
func (ym YearMonth) After(other YearMonth) bool         { return ym.Compare(other) > 0 }
func (ym YearMonth) Equal(other YearMonth) bool         { return ym.Compare(other) == 0 }
func (ym YearMonth) BeforeOrEqual(other YearMonth) bool { return ym.Compare(other) <= 0 }
func (ym YearMonth) AfterOrEqual(other YearMonth) bool  { return ym.Compare(other) >= 0 }

func (ym YearMonth) AddMonths(n int) YearMonth {
	i := ym.index() + n
	return YearMonth{Year: i / 12, Month: time.Month(i%12 + 1)}
}

func (ym YearMonth) FirstDay() Date { return NewDate(ym.Year, ym.Month, 1) }
func (ym YearMonth) LastDay() Date  { return ym.AddMonths(1).FirstDay().AddDays(-1) }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

// AgeOn returns the ordinary calendar age on the given date.
func AgeOn(birth, on Date) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}
