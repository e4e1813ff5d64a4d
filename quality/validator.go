package quality

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
)

// DefaultGraceDays is the new-hire window during which only the
// retirement/loss check runs.
const DefaultGraceDays = 31

// Validator scans employee records. It holds no state between scans.
type Validator struct {
	Now       func() time.Time
	GraceDays int
}

func NewValidator() *Validator {
	return &Validator{Now: time.Now, GraceDays: DefaultGraceDays}
}

// Scan evaluates every rule for every employee. The result is sorted by id
// and carries no duplicate ids, so it does not depend on input order.
func (v *Validator) Scan(employees []premium.Employee, histories map[generic.EmployeeID][]premium.RewardEntry) []Issue {
	now := v.now()
	seen := make(map[string]bool)
	var issues []Issue

	for _, emp := range employees {
		for _, is := range v.scanEmployee(emp, histories[emp.ID], now) {
			if seen[is.ID] {
				continue
			}
			seen[is.ID] = true
			issues = append(issues, is)
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].ID < issues[j].ID })
	return issues
}

// ScanEmployee evaluates one employee.
func (v *Validator) ScanEmployee(emp premium.Employee, history []premium.RewardEntry) []Issue {
	return v.Scan([]premium.Employee{emp}, map[generic.EmployeeID][]premium.RewardEntry{emp.ID: history})
}

func (v *Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

// InGracePeriod reports whether the employee was hired within the grace
// window before today. Future hire dates are in grace too.
func (v *Validator) InGracePeriod(emp premium.Employee, today generic.Date) bool {
	if emp.HireDate == nil || emp.HireDate.IsZero() {
		return false
	}
	return generic.DaysBetween(*emp.HireDate, today) <= v.GraceDays
}

// =============================================================================
// RULES
// =============================================================================

// scan collects the findings of one employee.
type scan struct {
	emp     premium.Employee
	history []premium.RewardEntry
	today   generic.Date
	thisYM  generic.YearMonth
	at      time.Time
	issues  []Issue
}

func (s *scan) add(t IssueType, kind premium.InsuranceKind, period *generic.YearMonth, format string, args ...any) {
	s.issues = append(s.issues, Issue{
		ID:           IssueID(s.emp.ID, t, period),
		EmployeeID:   s.emp.ID,
		Type:         t,
		Kind:         kind,
		Description:  fmt.Sprintf(format, args...),
		TargetPeriod: period,
		DetectedAt:   s.at,
		Severity:     t.Severity(),
	})
}

func (s *scan) entries(kind premium.InsuranceKind) []premium.RewardEntry {
	var out []premium.RewardEntry
	for _, e := range s.history {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (v *Validator) scanEmployee(emp premium.Employee, history []premium.RewardEntry, now time.Time) []Issue {
	today := generic.DateOf(now)
	s := &scan{
		emp:     emp,
		history: history,
		today:   today,
		thisYM:  today.YearMonth(),
		at:      now,
	}

	for _, kind := range premium.InsuranceKinds {
		s.retiredButQualified(kind)
	}
	if v.InGracePeriod(emp, today) {
		return s.issues
	}

	s.insuredConsistency()
	s.retireBeforeHire()
	for _, kind := range premium.InsuranceKinds {
		s.rewardBeforeQualification(kind)
		s.lossBeforeQualification(kind)
		s.rewardAfterLoss(kind)
		s.futureReward(kind)
		s.qualificationBeforeHire(kind)
		s.futureQualification(kind)
	}
	return s.issues
}

func present(d *generic.Date) bool { return d != nil && !d.IsZero() }

func ymPtr(ym generic.YearMonth) *generic.YearMonth { return &ym }

// Rule 1
func (s *scan) insuredConsistency() {
	emp := s.emp
	if emp.IsInsured {
		if !present(emp.HealthQualificationDate) && !present(emp.PensionQualificationDate) {
			s.add(IssueInsuredWithoutQualification, "", nil,
				"insured but no qualification date is recorded")
		}
		if len(s.history) == 0 {
			s.add(IssueInsuredWithoutRewardHistory, "", nil,
				"insured but no standard reward history is recorded")
		}
		return
	}
	for _, kind := range premium.InsuranceKinds {
		qual := emp.QualificationDate(kind)
		if present(qual) {
			s.add(ruleUninsuredQualified.of(kind), kind, ymPtr(qual.YearMonth()),
				"not insured but a %s qualification date %s is recorded", kind, qual)
		}
	}
}

// Rule 2
func (s *scan) retiredButQualified(kind premium.InsuranceKind) {
	emp := s.emp
	if !present(emp.RetireDate) || !present(emp.QualificationDate(kind)) || present(emp.LossDate(kind)) {
		return
	}
	s.add(ruleLossDateMissing.of(kind), kind, nil,
		"retired on %s but %s loss date is missing", emp.RetireDate, kind)
}

// Rule 3
func (s *scan) rewardBeforeQualification(kind premium.InsuranceKind) {
	qual := s.emp.QualificationDate(kind)
	if !present(qual) {
		return
	}
	qualYM := qual.YearMonth()
	for _, e := range s.entries(kind) {
		if e.AppliedFrom.Before(qualYM) {
			s.add(ruleRewardBeforeQualification.of(kind), kind, ymPtr(e.AppliedFrom),
				"%s standard reward applied from %s precedes qualification month %s", kind, e.AppliedFrom, qualYM)
		}
	}
}

// Rule 4. Acquisition and loss in the same month is not "before".
func (s *scan) lossBeforeQualification(kind premium.InsuranceKind) {
	qual, loss := s.emp.QualificationDate(kind), s.emp.LossDate(kind)
	if !present(qual) || !present(loss) {
		return
	}
	if loss.YearMonth().Before(qual.YearMonth()) {
		s.add(ruleLossBeforeQualification.of(kind), kind, ymPtr(loss.YearMonth()),
			"%s loss %s precedes qualification %s", kind, loss, qual)
	}
}

// Rule 5
func (s *scan) retireBeforeHire() {
	emp := s.emp
	if !present(emp.RetireDate) || !present(emp.HireDate) {
		return
	}
	if emp.RetireDate.Before(*emp.HireDate) {
		s.add(IssueRetireBeforeHire, "", nil,
			"retire date %s precedes hire date %s", emp.RetireDate, emp.HireDate)
	}
}

// Rule 6. The loss month stays valid when qualification was acquired in
// that same month.
func (s *scan) rewardAfterLoss(kind premium.InsuranceKind) {
	loss := s.emp.LossDate(kind)
	if !present(loss) {
		return
	}
	lossYM := loss.YearMonth()
	sameMonth := false
	if qual := s.emp.QualificationDate(kind); present(qual) {
		sameMonth = qual.YearMonth().Equal(lossYM)
	}
	for _, e := range s.entries(kind) {
		if e.AppliedFrom.Before(lossYM) {
			continue
		}
		if sameMonth && e.AppliedFrom.Equal(lossYM) {
			continue
		}
		s.add(ruleRewardAfterLoss.of(kind), kind, ymPtr(e.AppliedFrom),
			"%s standard reward applied from %s is at or after loss month %s", kind, e.AppliedFrom, lossYM)
	}
}

// Rule 7
func (s *scan) futureReward(kind premium.InsuranceKind) {
	for _, e := range s.entries(kind) {
		if e.AppliedFrom.After(s.thisYM) {
			s.add(ruleFutureReward.of(kind), kind, ymPtr(e.AppliedFrom),
				"%s standard reward applied from %s is in the future", kind, e.AppliedFrom)
		}
	}
}

// Rule 8
func (s *scan) qualificationBeforeHire(kind premium.InsuranceKind) {
	qual, hire := s.emp.QualificationDate(kind), s.emp.HireDate
	if !present(qual) || !present(hire) {
		return
	}
	if qual.Before(*hire) {
		s.add(ruleQualificationBeforeHire.of(kind), kind, ymPtr(qual.YearMonth()),
			"%s qualification %s precedes hire date %s", kind, qual, hire)
	}
}

// Rule 9
func (s *scan) futureQualification(kind premium.InsuranceKind) {
	qual := s.emp.QualificationDate(kind)
	if !present(qual) {
		return
	}
	if qual.After(s.today) {
		s.add(ruleFutureQualification.of(kind), kind, ymPtr(qual.YearMonth()),
			"%s qualification %s is in the future", kind, qual)
	}
}
