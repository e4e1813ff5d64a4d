package premium

import (
	"github.com/warp/shaho-engine/generic"
)

// Long-term-care contributors are those aged 40 through 64.
const (
	CareMinAge = 40
	CareMaxAge = 64
)

// IsCareTarget reports whether the person pays long-term-care premiums for
// the target month.
//
// A person reaches an age on the day before the birthday, and the premium
// applies from the month containing that day. This equals the ordinary age
// on the first day of the following month: born 1985-05-02 becomes a
// contributor in 2025-05, born 1985-05-01 already in 2025-04.
//
// Missing or invalid input yields false.
func IsCareTarget(birthDate generic.Date, target generic.YearMonth) bool {
	if birthDate.IsZero() || !target.Valid() {
		return false
	}
	age := generic.AgeOn(birthDate, target.AddMonths(1).FirstDay())
	return age >= CareMinAge && age <= CareMaxAge
}

// IsCareTargetString is IsCareTarget over raw YYYY-MM-DD / YYYY-MM strings.
// Malformed input degrades to false so one bad field cannot fail a batch.
func IsCareTargetString(birthDate, targetYearMonth string) bool {
	birth, err := generic.ParseDate(birthDate)
	if err != nil {
		return false
	}
	ym, err := generic.ParseYearMonth(targetYearMonth)
	if err != nil {
		return false
	}
	return IsCareTarget(birth, ym)
}
