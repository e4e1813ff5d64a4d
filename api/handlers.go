/*
handlers.go - HTTP API handlers for the premium engine

PURPOSE:
  Exposes premium calculation and data-quality checks via REST API. Handles
  HTTP request/response and JSON serialization, and delegates to the pure
  premium and quality packages. Handlers hold no domain rules of their own.

ENDPOINTS:
  Employees:
    GET    /api/employees                       List all employees
    POST   /api/employees                       Create or replace employee
    GET    /api/employees/{id}                  Get employee details
    GET    /api/employees/{id}/rewards          Standard-reward history
    POST   /api/employees/{id}/rewards          Record a reward revision

  Premiums:
    GET    /api/employees/{id}/premiums/{ym}    Monthly premium preview
    POST   /api/premiums/{ym}/recalculate       Recompute and store a month

  Bonuses:
    POST   /api/employees/{id}/bonuses/preview  Bonus premium preview
    POST   /api/employees/{id}/bonuses          Save (id in body = edit)
    GET    /api/employees/{id}/bonuses          Saved bonuses

  Quality:
    GET    /api/quality/issues                  Scan with acknowledgements
    POST   /api/quality/acknowledgements        Acknowledge an issue
    DELETE /api/quality/acknowledgements/stale  Drop acks of resolved issues

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (also the bonus history of premium.EvaluateBonus)
  - Rates: Rate table resolving a month to a premium.RateContext
  - Validator: Data-quality scanner
  - Metrics: Calculation and issue counters

BONUS PREVIEW AND SAVE:
  Both go through premium.EvaluateBonus, so a preview shows exactly what a
  save stores. Save holds bonusMu from evaluation to write; otherwise two
  concurrent saves could both pass the 3-per-window check.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee or bonus not found
  - 409: 4th bonus in a July-June window
  - 422: Premium not computable; reason carries the skip reason
  - 500: Store failures (logged)

  A month without a rate table row is not an error: the premium is
  reported as not computable (missing_health_rate).

SEE ALSO:
  - dto.go: Request/response data structures
  - metrics.go: Prometheus collectors
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/shaho-engine/factory"
	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
	"github.com/warp/shaho-engine/quality"
	"github.com/warp/shaho-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Rates     *factory.RateTable
	Validator *quality.Validator
	Metrics   *Metrics
	Log       zerolog.Logger

	// Workers bounds the goroutines of a monthly recompute.
	Workers int

	// Now is the clock for calculation dates and acknowledgements.
	Now func() time.Time

	bonusMu sync.Mutex

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a handler with the default validator and a fresh
// metrics registry. A nil rate table uses the built-in one.
func NewHandler(store *sqlite.Store, rates *factory.RateTable, log zerolog.Logger) *Handler {
	if rates == nil {
		rates = factory.DefaultRateTable()
	}
	return &Handler{
		Store:     store,
		Rates:     rates,
		Validator: quality.NewValidator(),
		Metrics:   NewMetrics(),
		Log:       log,
		Workers:   premium.DefaultBatchWorkers,
		Now:       time.Now,
	}
}

func (h *Handler) today() generic.Date {
	return generic.DateOf(h.Now())
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or replaces an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}
	if req.BirthDate.IsZero() {
		writeError(w, http.StatusBadRequest, "birth_date is required (use YYYY-MM-DD)", nil)
		return
	}
	switch req.PremiumTreatment {
	case "", premium.TreatmentNormal, premium.TreatmentExempt:
	default:
		writeError(w, http.StatusBadRequest, "premium_treatment must be normal or exempt", nil)
		return
	}

	emp := req.toEmployee()
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.internalError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// ListRewards returns the employee's standard-reward revisions.
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	entries, err := h.Store.ListRewards(r.Context(), emp.ID)
	if err != nil {
		h.internalError(w, "Failed to list rewards", err)
		return
	}

	dtos := make([]RewardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toRewardEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddReward records a standard-reward revision.
func (h *Handler) AddReward(w http.ResponseWriter, r *http.Request) {
	var req RewardEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !req.InsuranceKind.Valid() {
		writeError(w, http.StatusBadRequest, "insurance_kind must be health or pension", nil)
		return
	}
	if !req.AppliedFrom.Valid() {
		writeError(w, http.StatusBadRequest, "applied_from is required (use YYYY-MM)", nil)
		return
	}
	if req.StandardMonthlyReward <= 0 {
		writeError(w, http.StatusBadRequest, "standard_monthly_reward must be positive", nil)
		return
	}
	if req.DecisionKind == "" {
		req.DecisionKind = premium.DecisionOther
	}
	if !req.DecisionKind.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown decision_kind", nil)
		return
	}

	entry, err := h.Store.AddReward(r.Context(), premium.RewardEntry{
		EmployeeID:            generic.EmployeeID(chi.URLParam(r, "id")),
		Kind:                  req.InsuranceKind,
		AppliedFrom:           req.AppliedFrom,
		StandardMonthlyReward: req.StandardMonthlyReward,
		DecisionKind:          req.DecisionKind,
		Grade:                 req.Grade,
	})
	if err != nil {
		h.storeError(w, "Failed to add reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRewardEntryDTO(entry))
}

// =============================================================================
// MONTHLY PREMIUM HANDLERS
// =============================================================================

// GetMonthlyPremium previews one employee's premium for a month. The
// standard monthly rewards applying in the month come from the history.
func (h *Handler) GetMonthlyPremium(w http.ResponseWriter, r *http.Request) {
	ym, err := generic.ParseYearMonth(chi.URLParam(r, "ym"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year-month (use YYYY-MM)", err)
		return
	}
	emp, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	history, err := h.Store.ListRewards(r.Context(), emp.ID)
	if err != nil {
		h.internalError(w, "Failed to load reward history", err)
		return
	}

	result, skip := premium.CalculateMonthly(emp.WithApplicableRewards(history, ym), h.rateContext(ym))
	h.Metrics.observeMonthly(result.Exempt(), skip)
	if skip != premium.SkipNone {
		writeNotComputable(w, skip)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyPremiumDTO(result))
}

// Recalculate recomputes a month for every employee and stores the
// computed premiums. Re-running replaces the month's snapshots.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ym, err := generic.ParseYearMonth(chi.URLParam(r, "ym"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year-month (use YYYY-MM)", err)
		return
	}

	resp, err := h.recalculate(ctx, ym)
	if err != nil {
		h.internalError(w, "Failed to recalculate premiums", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) recalculate(ctx context.Context, ym generic.YearMonth) (RecalculateResponse, error) {
	employees, histories, err := h.loadPopulation(ctx)
	if err != nil {
		return RecalculateResponse{}, err
	}

	entries, err := premium.CalculateMonthlyBatch(ctx, employees, histories, h.rateContext(ym), h.Workers)
	if err != nil {
		return RecalculateResponse{}, err
	}

	resp := RecalculateResponse{
		YearMonth:     ym,
		Skipped:       make([]SkippedDTO, 0),
		EmployeeTotal: decimal.Zero,
		EmployerTotal: decimal.Zero,
	}
	results := make([]premium.MonthlyResult, 0, len(entries))
	for _, e := range entries {
		h.Metrics.observeMonthly(e.Result.Exempt(), e.Skip)
		if !e.Computed() {
			resp.Skipped = append(resp.Skipped, SkippedDTO{EmployeeID: string(e.EmployeeID), Reason: e.Skip})
			continue
		}
		results = append(results, e.Result)
		resp.EmployeeTotal = resp.EmployeeTotal.Add(e.Result.EmployeeTotal)
		resp.EmployerTotal = resp.EmployerTotal.Add(e.Result.EmployerTotal)
	}
	resp.Computed = len(results)

	if err := h.Store.SaveMonthlyPremiums(ctx, results); err != nil {
		return RecalculateResponse{}, err
	}

	h.Log.Info().
		Str("year_month", ym.String()).
		Int("computed", resp.Computed).
		Int("skipped", len(resp.Skipped)).
		Str("employee_total", resp.EmployeeTotal.String()).
		Str("employer_total", resp.EmployerTotal.String()).
		Msg("monthly premiums recalculated")

	return resp, nil
}

// rateContext resolves the rates of a month. A month the table does not
// cover yields a context without rates, which the calculators report as
// not computable.
func (h *Handler) rateContext(ym generic.YearMonth) premium.RateContext {
	rc, err := h.Rates.ContextFor(ym, h.today())
	if err != nil {
		return premium.RateContext{YearMonth: ym, CalcDate: h.today()}
	}
	return rc
}

// =============================================================================
// BONUS HANDLERS
// =============================================================================

// PreviewBonus calculates a bonus premium without storing it.
func (h *Handler) PreviewBonus(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBonusRequest(w, r)
	if !ok {
		return
	}
	emp, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}

	eval, err := h.evaluateBonus(r.Context(), emp, req)
	if err != nil {
		h.bonusError(w, err)
		return
	}
	h.Metrics.observeBonus(eval.Result.Exempt(), eval.Skip)
	if eval.Skip != premium.SkipNone {
		writeNotComputable(w, eval.Skip)
		return
	}
	writeJSON(w, http.StatusOK, toBonusPremiumDTO(req.ID, eval.Result, eval.PriorCount))
}

// SaveBonus calculates and stores a bonus. With an id in the body the
// existing record is edited; its own amount is left out of the caps and
// the frequency count.
func (h *Handler) SaveBonus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeBonusRequest(w, r)
	if !ok {
		return
	}
	emp, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}

	h.bonusMu.Lock()
	defer h.bonusMu.Unlock()

	status := http.StatusCreated
	if req.ID != "" {
		existing, err := h.Store.GetBonus(ctx, req.ID)
		if err != nil {
			h.storeError(w, "Failed to load bonus", err)
			return
		}
		if existing.EmployeeID != emp.ID {
			writeError(w, http.StatusNotFound, "Bonus not found", nil)
			return
		}
		status = http.StatusOK
	}

	eval, err := h.evaluateBonus(ctx, emp, req)
	if err != nil {
		h.bonusError(w, err)
		return
	}
	h.Metrics.observeBonus(eval.Result.Exempt(), eval.Skip)
	if eval.Skip != premium.SkipNone {
		writeNotComputable(w, eval.Skip)
		return
	}

	snap, err := h.Store.SaveBonus(ctx, premium.BonusRecord{
		ID:                  req.ID,
		EmployeeID:          emp.ID,
		PayDate:             req.PayDate,
		GrossAmount:         req.GrossAmount,
		StandardBonusAmount: eval.Result.StandardBonusAmount,
	}, eval.Result)
	if err != nil {
		h.storeError(w, "Failed to save bonus", err)
		return
	}

	h.Log.Info().
		Str("employee_id", string(emp.ID)).
		Str("bonus_id", snap.ID).
		Str("pay_date", req.PayDate.String()).
		Int64("standard_bonus_amount", snap.StandardBonusAmount).
		Msg("bonus saved")

	dto := toBonusPremiumDTO(snap.ID, eval.Result, eval.PriorCount)
	dto.UpdatedAt = &snap.UpdatedAt
	writeJSON(w, status, dto)
}

// ListBonuses returns the employee's saved bonuses with their premiums and,
// for each, the number of other bonuses in its July-June window.
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.loadEmployee(w, r)
	if !ok {
		return
	}
	snaps, err := h.Store.ListBonusSnapshots(r.Context(), emp.ID)
	if err != nil {
		h.internalError(w, "Failed to list bonuses", err)
		return
	}

	records := make([]premium.BonusRecord, len(snaps))
	for i, s := range snaps {
		records[i] = s.BonusRecord
	}
	dtos := make([]BonusPremiumDTO, len(snaps))
	for i, s := range snaps {
		others := premium.CountBonusesInPeriod(records, emp.ID, s.PayDate, premium.ExcludeRecord(s.ID))
		dtos[i] = toBonusPremiumDTO(s.ID, s.Result, others)
		dtos[i].UpdatedAt = &snaps[i].UpdatedAt
	}
	writeJSON(w, http.StatusOK, dtos)
}

func decodeBonusRequest(w http.ResponseWriter, r *http.Request) (BonusRequest, bool) {
	var req BonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if req.PayDate.IsZero() {
		writeError(w, http.StatusBadRequest, "pay_date is required (use YYYY-MM-DD)", nil)
		return req, false
	}
	return req, true
}

func (h *Handler) evaluateBonus(ctx context.Context, emp premium.Employee, req BonusRequest) (premium.BonusEvaluation, error) {
	rates, err := h.Rates.RatesOn(req.PayDate)
	if err != nil && !errors.Is(err, generic.ErrRateNotFound) {
		return premium.BonusEvaluation{}, err
	}

	return premium.EvaluateBonus(ctx, h.Store, emp, req.GrossAmount, req.PayDate, rates, req.ID)
}

func (h *Handler) bonusError(w http.ResponseWriter, err error) {
	var freq *generic.FrequencyExceededError
	if errors.As(err, &freq) {
		h.Metrics.observeBonusRejected()
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: freq.Error(),
			Details: FrequencyViolationDTO{
				PeriodStart: freq.Period.Start,
				PeriodEnd:   freq.Period.End,
				Count:       freq.Count,
				Limit:       freq.Limit,
			},
		})
		return
	}
	h.internalError(w, "Failed to evaluate bonus", err)
}

// =============================================================================
// QUALITY HANDLERS
// =============================================================================

// ListQualityIssues scans every employee and overlays acknowledgements.
// ?open=true hides acknowledged issues.
func (h *Handler) ListQualityIssues(w http.ResponseWriter, r *http.Request) {
	views, stale, err := h.scan(r.Context())
	if err != nil {
		h.internalError(w, "Failed to scan data quality", err)
		return
	}

	if r.URL.Query().Get("open") == "true" {
		views = quality.Unacknowledged(views)
	}
	all := make([]quality.Issue, len(views))
	for i, v := range views {
		all[i] = v.Issue
	}
	writeJSON(w, http.StatusOK, QualityIssuesResponse{
		Issues:                views,
		Counts:                quality.CountByType(all),
		StaleAcknowledgements: stale,
	})
}

// AcknowledgeIssue marks an issue id as reviewed. Acknowledging an id the
// current scan does not produce is allowed; it shows up as stale.
func (h *Handler) AcknowledgeIssue(w http.ResponseWriter, r *http.Request) {
	var req AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.IssueID == "" || req.AcknowledgedBy == "" {
		writeError(w, http.StatusBadRequest, "issue_id and acknowledged_by are required", nil)
		return
	}

	ack := quality.Acknowledgement{
		IssueID:        req.IssueID,
		AcknowledgedBy: req.AcknowledgedBy,
		AcknowledgedAt: h.Now().UTC().Truncate(time.Second),
		Note:           req.Note,
	}
	if err := h.Store.SaveAcknowledgement(r.Context(), ack); err != nil {
		h.internalError(w, "Failed to save acknowledgement", err)
		return
	}
	writeJSON(w, http.StatusCreated, ack)
}

// DeleteStaleAcknowledgements removes acknowledgements of issues that no
// longer occur.
func (h *Handler) DeleteStaleAcknowledgements(w http.ResponseWriter, r *http.Request) {
	_, stale, err := h.scan(r.Context())
	if err != nil {
		h.internalError(w, "Failed to scan data quality", err)
		return
	}
	n, err := h.Store.DeleteAcknowledgements(r.Context(), stale)
	if err != nil {
		h.internalError(w, "Failed to delete acknowledgements", err)
		return
	}
	if n > 0 {
		h.Log.Info().Int("deleted", n).Strs("issue_ids", stale).Msg("stale acknowledgements removed")
	}
	writeJSON(w, http.StatusOK, StaleAcknowledgementsResponse{Deleted: n, IssueIDs: stale})
}

// scan runs the validator over every employee, overlays acknowledgements
// and refreshes the open-issue gauges.
func (h *Handler) scan(ctx context.Context) ([]quality.IssueView, []string, error) {
	employees, histories, err := h.loadPopulation(ctx)
	if err != nil {
		return nil, nil, err
	}
	acks, err := h.Store.ListAcknowledgements(ctx)
	if err != nil {
		return nil, nil, err
	}
	views, stale := quality.Reconcile(h.Validator.Scan(employees, histories), acks)

	open := quality.Unacknowledged(views)
	issues := make([]quality.Issue, len(open))
	for i, v := range open {
		issues[i] = v.Issue
	}
	h.Metrics.observeScan(issues)

	if views == nil {
		views = []quality.IssueView{}
	}
	if stale == nil {
		stale = []string{}
	}
	return views, stale, nil
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data. Development only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.internalError(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	h.Log.Warn().Msg("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadEmployee(w http.ResponseWriter, r *http.Request) (premium.Employee, bool) {
	emp, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.storeError(w, "Failed to get employee", err)
		return premium.Employee{}, false
	}
	return emp, true
}

func (h *Handler) loadPopulation(ctx context.Context) ([]premium.Employee, map[generic.EmployeeID][]premium.RewardEntry, error) {
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}
	histories, err := h.Store.RewardHistories(ctx)
	if err != nil {
		return nil, nil, err
	}
	return employees, histories, nil
}

// storeError maps not-found errors to 404 and everything else to 500.
func (h *Handler) storeError(w http.ResponseWriter, message string, err error) {
	switch {
	case !generic.IsNotFound(err):
		h.internalError(w, message, err)
	case errors.Is(err, generic.ErrBonusNotFound):
		writeError(w, http.StatusNotFound, "Bonus not found", err)
	default:
		writeError(w, http.StatusNotFound, "Employee not found", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, message string, err error) {
	h.Log.Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message, err)
}

func writeNotComputable(w http.ResponseWriter, skip premium.SkipReason) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:  "Premium not computable",
		Reason: string(skip),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
