/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The premium and
  quality packages carry no JSON contract of their own (except the small
  value types Split, CapResult, Issue), so every response shape lives here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:
    EmployeeDTO (request and response), RewardEntryDTO

  Premiums:
    MonthlyPremiumDTO, RecalculateResponse, SkippedDTO

  Bonuses:
    BonusRequest, BonusPremiumDTO

  Quality:
    QualityIssuesResponse, AcknowledgeRequest, StaleAcknowledgementsResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
  Money is serialized as decimal strings ("29730") to keep exact yen.

SEE ALSO:
  - handlers.go: Uses these types
  - premium/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
	"github.com/warp/shaho-engine/quality"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO is both the create body and the response of an employee.
type EmployeeDTO struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	BirthDate generic.Date `json:"birth_date"`
	IsInsured bool         `json:"is_insured"`

	HealthStandardMonthly  *int64                   `json:"health_standard_monthly,omitempty"`
	PensionStandardMonthly *int64                   `json:"pension_standard_monthly,omitempty"`
	HealthGrade            *int                     `json:"health_grade,omitempty"`
	PensionGrade           *int                     `json:"pension_grade,omitempty"`
	PremiumTreatment       premium.PremiumTreatment `json:"premium_treatment,omitempty"`

	HealthQualificationDate  *generic.Date `json:"health_qualification_date,omitempty"`
	PensionQualificationDate *generic.Date `json:"pension_qualification_date,omitempty"`
	HealthLossDate           *generic.Date `json:"health_loss_date,omitempty"`
	PensionLossDate          *generic.Date `json:"pension_loss_date,omitempty"`

	HireDate   *generic.Date `json:"hire_date,omitempty"`
	RetireDate *generic.Date `json:"retire_date,omitempty"`
}

func toEmployeeDTO(e premium.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                       string(e.ID),
		Name:                     e.Name,
		BirthDate:                e.BirthDate,
		IsInsured:                e.IsInsured,
		HealthStandardMonthly:    e.HealthStandardMonthly,
		PensionStandardMonthly:   e.PensionStandardMonthly,
		HealthGrade:              e.HealthGrade,
		PensionGrade:             e.PensionGrade,
		PremiumTreatment:         e.PremiumTreatment,
		HealthQualificationDate:  e.HealthQualificationDate,
		PensionQualificationDate: e.PensionQualificationDate,
		HealthLossDate:           e.HealthLossDate,
		PensionLossDate:          e.PensionLossDate,
		HireDate:                 e.HireDate,
		RetireDate:               e.RetireDate,
	}
}

func (d EmployeeDTO) toEmployee() premium.Employee {
	treatment := d.PremiumTreatment
	if treatment == "" {
		treatment = premium.TreatmentNormal
	}
	return premium.Employee{
		ID:                       generic.EmployeeID(d.ID),
		Name:                     d.Name,
		BirthDate:                d.BirthDate,
		IsInsured:                d.IsInsured,
		HealthStandardMonthly:    d.HealthStandardMonthly,
		PensionStandardMonthly:   d.PensionStandardMonthly,
		HealthGrade:              d.HealthGrade,
		PensionGrade:             d.PensionGrade,
		PremiumTreatment:         treatment,
		HealthQualificationDate:  d.HealthQualificationDate,
		PensionQualificationDate: d.PensionQualificationDate,
		HealthLossDate:           d.HealthLossDate,
		PensionLossDate:          d.PensionLossDate,
		HireDate:                 d.HireDate,
		RetireDate:               d.RetireDate,
	}
}

// RewardEntryDTO is one standard-reward revision.
type RewardEntryDTO struct {
	ID                    string                `json:"id,omitempty"`
	InsuranceKind         premium.InsuranceKind `json:"insurance_kind"`
	AppliedFrom           generic.YearMonth     `json:"applied_from"`
	StandardMonthlyReward int64                 `json:"standard_monthly_reward"`
	DecisionKind          premium.DecisionKind  `json:"decision_kind"`
	Grade                 *int                  `json:"grade,omitempty"`
}

func toRewardEntryDTO(e premium.RewardEntry) RewardEntryDTO {
	return RewardEntryDTO{
		ID:                    e.ID,
		InsuranceKind:         e.Kind,
		AppliedFrom:           e.AppliedFrom,
		StandardMonthlyReward: e.StandardMonthlyReward,
		DecisionKind:          e.DecisionKind,
		Grade:                 e.Grade,
	}
}

// =============================================================================
// MONTHLY PREMIUMS
// =============================================================================

type MonthlyPremiumDTO struct {
	EmployeeID string            `json:"employee_id"`
	YearMonth  generic.YearMonth `json:"year_month"`
	CalcDate   generic.Date      `json:"calc_date"`

	HealthStandardMonthly  int64 `json:"health_standard_monthly"`
	PensionStandardMonthly int64 `json:"pension_standard_monthly"`
	HealthGrade            *int  `json:"health_grade,omitempty"`
	PensionGrade           *int  `json:"pension_grade,omitempty"`

	Treatment  premium.PremiumTreatment `json:"premium_treatment"`
	CareTarget bool                     `json:"care_target"`

	Health  premium.Split `json:"health"`
	Care    premium.Split `json:"care"`
	Pension premium.Split `json:"pension"`

	EmployeeTotal decimal.Decimal `json:"employee_total"`
	EmployerTotal decimal.Decimal `json:"employer_total"`
}

func toMonthlyPremiumDTO(r premium.MonthlyResult) MonthlyPremiumDTO {
	return MonthlyPremiumDTO{
		EmployeeID:             string(r.EmployeeID),
		YearMonth:              r.YearMonth,
		CalcDate:               r.CalcDate,
		HealthStandardMonthly:  r.HealthStandardMonthly,
		PensionStandardMonthly: r.PensionStandardMonthly,
		HealthGrade:            r.HealthGrade,
		PensionGrade:           r.PensionGrade,
		Treatment:              r.Treatment,
		CareTarget:             r.CareTarget,
		Health:                 r.Health,
		Care:                   r.Care,
		Pension:                r.Pension,
		EmployeeTotal:          r.EmployeeTotal,
		EmployerTotal:          r.EmployerTotal,
	}
}

// SkippedDTO names an employee a recompute produced no premium for.
type SkippedDTO struct {
	EmployeeID string             `json:"employee_id"`
	Reason     premium.SkipReason `json:"reason"`
}

type RecalculateResponse struct {
	YearMonth     generic.YearMonth `json:"year_month"`
	Computed      int               `json:"computed"`
	Skipped       []SkippedDTO      `json:"skipped"`
	EmployeeTotal decimal.Decimal   `json:"employee_total"`
	EmployerTotal decimal.Decimal   `json:"employer_total"`
}

// =============================================================================
// BONUSES
// =============================================================================

// BonusRequest is the body of a bonus preview or save. A non-empty ID on
// save edits the existing record.
type BonusRequest struct {
	ID          string       `json:"id,omitempty"`
	PayDate     generic.Date `json:"pay_date"`
	GrossAmount int64        `json:"gross_amount"`
}

type BonusPremiumDTO struct {
	ID         string       `json:"id,omitempty"`
	EmployeeID string       `json:"employee_id"`
	PayDate    generic.Date `json:"pay_date"`
	FiscalYear int          `json:"fiscal_year"`

	GrossAmount         int64 `json:"gross_amount"`
	StandardBonusAmount int64 `json:"standard_bonus_amount"`

	Treatment          premium.PremiumTreatment `json:"premium_treatment"`
	CareTarget         bool                     `json:"care_target"`
	CombinedHealthRate decimal.Decimal          `json:"combined_health_rate"`

	HealthCap  premium.CapResult `json:"health_cap"`
	PensionCap premium.CapResult `json:"pension_cap"`

	HealthCare premium.Split `json:"health_care"`
	Pension    premium.Split `json:"pension"`

	EmployeeTotal decimal.Decimal `json:"employee_total"`
	EmployerTotal decimal.Decimal `json:"employer_total"`

	// The employee's other bonuses in the same July-June window, earlier or
	// later, this one excluded.
	OtherBonusesInPeriod int `json:"other_bonuses_in_period"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toBonusPremiumDTO(id string, r premium.BonusResult, others int) BonusPremiumDTO {
	return BonusPremiumDTO{
		ID:                   id,
		EmployeeID:           string(r.EmployeeID),
		PayDate:              r.PayDate,
		FiscalYear:           r.FiscalYear,
		GrossAmount:          r.GrossAmount,
		StandardBonusAmount:  r.StandardBonusAmount,
		Treatment:            r.Treatment,
		CareTarget:           r.CareTarget,
		CombinedHealthRate:   r.CombinedHealthRate,
		HealthCap:            r.HealthCap,
		PensionCap:           r.PensionCap,
		HealthCare:           r.HealthCare,
		Pension:              r.Pension,
		EmployeeTotal:        r.EmployeeTotal,
		EmployerTotal:        r.EmployerTotal,
		OtherBonusesInPeriod: others,
	}
}

// =============================================================================
// DATA QUALITY
// =============================================================================

type QualityIssuesResponse struct {
	Issues                []quality.IssueView       `json:"issues"`
	Counts                map[quality.IssueType]int `json:"counts"`
	StaleAcknowledgements []string                  `json:"stale_acknowledgements"`
}

type AcknowledgeRequest struct {
	IssueID        string `json:"issue_id"`
	AcknowledgedBy string `json:"acknowledged_by"`
	Note           string `json:"note,omitempty"`
}

type StaleAcknowledgementsResponse struct {
	Deleted  int      `json:"deleted"`
	IssueIDs []string `json:"issue_ids"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response. Reason carries the skip
// reason of a not-computable premium.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

// FrequencyViolationDTO details a rejected 4th bonus.
type FrequencyViolationDTO struct {
	PeriodStart generic.Date `json:"period_start"`
	PeriodEnd   generic.Date `json:"period_end"`
	Count       int          `json:"count"`
	Limit       int          `json:"limit"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
