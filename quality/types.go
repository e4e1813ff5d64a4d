/*
Package quality detects logical inconsistencies in employee insurance data.

PURPOSE:
  Scans employees, their qualification and loss dates and their standard
  reward history, and reports advisory findings. Findings never block a
  premium calculation and are recomputed on every scan.

KEY CONCEPTS:
  - IssueType: closed set of findings, kind-qualified where the rule is
    evaluated per insurance kind
  - Issue: one finding with a stable derived id
  - Acknowledgement: external overlay matched to issues by id

ISSUE ID:
  employeeId-issueType-targetPeriod, with "na" when there is no period.
  The id is the only identity an issue has, so it must be reproducible
  from the same input.

SEE ALSO:
  - validator.go: the rules and the new-hire grace period
  - ack.go: acknowledgement reconciliation
*/
package quality

import (
	"fmt"
	"time"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
)

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

type IssueType string

const (
	// Rule 1: insured flag against qualifications and history
	IssueInsuredWithoutQualification IssueType = "insured_without_qualification"
	IssueInsuredWithoutRewardHistory IssueType = "insured_without_reward_history"
	IssueHealthUninsuredQualified    IssueType = "health_uninsured_with_qualification"
	IssuePensionUninsuredQualified   IssueType = "pension_uninsured_with_qualification"

	// Rule 2: retired but still qualified
	IssueHealthLossDateMissing  IssueType = "health_loss_date_missing"
	IssuePensionLossDateMissing IssueType = "pension_loss_date_missing"

	// Rule 3
	IssueHealthRewardBeforeQualification  IssueType = "health_reward_before_qualification"
	IssuePensionRewardBeforeQualification IssueType = "pension_reward_before_qualification"

	// Rule 4
	IssueHealthLossBeforeQualification  IssueType = "health_loss_before_qualification"
	IssuePensionLossBeforeQualification IssueType = "pension_loss_before_qualification"

	// Rule 5
	IssueRetireBeforeHire IssueType = "retire_before_hire"

	// Rule 6
	IssueHealthRewardAfterLoss  IssueType = "health_reward_after_loss"
	IssuePensionRewardAfterLoss IssueType = "pension_reward_after_loss"

	// Rule 7
	IssueHealthFutureReward  IssueType = "health_future_reward_history"
	IssuePensionFutureReward IssueType = "pension_future_reward_history"

	// Rule 8
	IssueHealthQualificationBeforeHire  IssueType = "health_qualification_before_hire"
	IssuePensionQualificationBeforeHire IssueType = "pension_qualification_before_hire"

	// Rule 9
	IssueHealthFutureQualification  IssueType = "health_future_qualification"
	IssuePensionFutureQualification IssueType = "pension_future_qualification"
)

// AllIssueTypes lists every issue type, in rule order.
var AllIssueTypes = []IssueType{
	IssueInsuredWithoutQualification, IssueInsuredWithoutRewardHistory,
	IssueHealthUninsuredQualified, IssuePensionUninsuredQualified,
	IssueHealthLossDateMissing, IssuePensionLossDateMissing,
	IssueHealthRewardBeforeQualification, IssuePensionRewardBeforeQualification,
	IssueHealthLossBeforeQualification, IssuePensionLossBeforeQualification,
	IssueRetireBeforeHire,
	IssueHealthRewardAfterLoss, IssuePensionRewardAfterLoss,
	IssueHealthFutureReward, IssuePensionFutureReward,
	IssueHealthQualificationBeforeHire, IssuePensionQualificationBeforeHire,
	IssueHealthFutureQualification, IssuePensionFutureQualification,
}

func (t IssueType) Valid() bool {
	for _, known := range AllIssueTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Severity classifies the type. Contradictions are errors; gaps and
// suspicious dates are warnings.
func (t IssueType) Severity() Severity {
	switch t {
	case IssueHealthUninsuredQualified, IssuePensionUninsuredQualified,
		IssueHealthRewardBeforeQualification, IssuePensionRewardBeforeQualification,
		IssueHealthLossBeforeQualification, IssuePensionLossBeforeQualification,
		IssueRetireBeforeHire,
		IssueHealthRewardAfterLoss, IssuePensionRewardAfterLoss:
		return SeverityError
	}
	return SeverityWarning
}

// kindRule pairs the health and pension variants of a per-kind rule.
type kindRule struct {
	health, pension IssueType
}

func (r kindRule) of(kind premium.InsuranceKind) IssueType {
	if kind == premium.KindPension {
		return r.pension
	}
	return r.health
}

var (
	ruleUninsuredQualified        = kindRule{IssueHealthUninsuredQualified, IssuePensionUninsuredQualified}
	ruleLossDateMissing           = kindRule{IssueHealthLossDateMissing, IssuePensionLossDateMissing}
	ruleRewardBeforeQualification = kindRule{IssueHealthRewardBeforeQualification, IssuePensionRewardBeforeQualification}
	ruleLossBeforeQualification   = kindRule{IssueHealthLossBeforeQualification, IssuePensionLossBeforeQualification}
	ruleRewardAfterLoss           = kindRule{IssueHealthRewardAfterLoss, IssuePensionRewardAfterLoss}
	ruleFutureReward              = kindRule{IssueHealthFutureReward, IssuePensionFutureReward}
	ruleQualificationBeforeHire   = kindRule{IssueHealthQualificationBeforeHire, IssuePensionQualificationBeforeHire}
	ruleFutureQualification       = kindRule{IssueHealthFutureQualification, IssuePensionFutureQualification}
)

// =============================================================================
// ISSUE
// =============================================================================

type Issue struct {
	ID           string                `json:"id"`
	EmployeeID   generic.EmployeeID    `json:"employee_id"`
	Type         IssueType             `json:"issue_type"`
	Kind         premium.InsuranceKind `json:"insurance_kind,omitempty"`
	Description  string                `json:"description"`
	TargetPeriod *generic.YearMonth    `json:"target_period,omitempty"`
	DetectedAt   time.Time             `json:"detected_at"`
	Severity     Severity              `json:"severity"`
}

// IssueID derives the stable id of a finding.
func IssueID(employeeID generic.EmployeeID, t IssueType, period *generic.YearMonth) string {
	p := "na"
	if period != nil {
		p = period.String()
	}
	return fmt.Sprintf("%s-%s-%s", employeeID, t, p)
}

// CountByType tallies issues per type.
func CountByType(issues []Issue) map[IssueType]int {
	out := make(map[IssueType]int, len(AllIssueTypes))
	for _, is := range issues {
		out[is.Type]++
	}
	return out
}
