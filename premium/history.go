package premium

import (
	"github.com/warp/shaho-engine/generic"
)

// =============================================================================
// STANDARD REWARD HISTORY
// =============================================================================

// DecisionKind is how a standard monthly reward was determined.
type DecisionKind string

const (
	DecisionAcquisition  DecisionKind = "acquisition"   // 資格取得時決定
	DecisionRegular      DecisionKind = "regular"       // 定時決定
	DecisionOccasional   DecisionKind = "occasional"    // 随時改定
	DecisionChildcareEnd DecisionKind = "childcare_end" // 育児休業等終了時改定
	DecisionMaternityEnd DecisionKind = "maternity_end" // 産前産後休業終了時改定
	DecisionOther        DecisionKind = "other"
)

func (d DecisionKind) Valid() bool {
	switch d {
	case DecisionAcquisition, DecisionRegular, DecisionOccasional,
		DecisionChildcareEnd, DecisionMaternityEnd, DecisionOther:
		return true
	}
	return false
}

// RewardEntry is one revision of an employee's standard monthly reward.
type RewardEntry struct {
	ID                    string
	EmployeeID            generic.EmployeeID
	Kind                  InsuranceKind
	AppliedFrom           generic.YearMonth
	StandardMonthlyReward int64
	DecisionKind          DecisionKind
	Grade                 *int
}

// ApplicableReward returns the latest entry of the kind applied on or
// before ym. Among entries for the same month the later one wins.
func ApplicableReward(history []RewardEntry, kind InsuranceKind, ym generic.YearMonth) (RewardEntry, bool) {
	var (
		best  RewardEntry
		found bool
	)
	for _, e := range history {
		if e.Kind != kind || e.AppliedFrom.After(ym) {
			continue
		}
		if !found || e.AppliedFrom.AfterOrEqual(best.AppliedFrom) {
			best, found = e, true
		}
	}
	return best, found
}

// WithApplicableRewards returns a copy of e whose standard monthly rewards
// and grades come from the history entries applicable in ym. Kinds without
// an applicable entry keep the employee's own values.
func (e Employee) WithApplicableRewards(history []RewardEntry, ym generic.YearMonth) Employee {
	out := e
	if h, ok := ApplicableReward(history, KindHealth, ym); ok {
		out.HealthStandardMonthly = generic.Int64Ptr(h.StandardMonthlyReward)
		out.HealthGrade = h.Grade
	}
	if p, ok := ApplicableReward(history, KindPension, ym); ok {
		out.PensionStandardMonthly = generic.Int64Ptr(p.StandardMonthlyReward)
		out.PensionGrade = p.Grade
	}
	return out
}
