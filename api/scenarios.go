/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the database with realistic
	payroll records. Each scenario creates employees, standard-reward
	histories and bonuses that demonstrate specific calculation or
	data-quality behaviour.

AVAILABLE SCENARIOS:

	tokyo-office:  Care contributor, young employee with a revision,
	               childcare-leave exemption, uninsured part-timer
	bonus-caps:    High earner near the 5.73M health cap, employee with a
	               full July-June bonus window
	data-quality:  Records that trip the quality rules, plus a new hire
	               still inside the grace period

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employees
 3. Record standard-reward revisions
 4. Save bonuses through the same evaluation as POST .../bonuses

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "bonus-caps"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: SaveBonus, the path bonuses are seeded through
  - quality/validator.go: Rules the data-quality scenario exercises
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "tokyo-office",
		Name:        "Tokyo Office",
		Description: "Monthly premiums: care contributor, pension revision, childcare exemption, uninsured part-timer",
		Category:    "monthly",
	},
	{
		ID:          "bonus-caps",
		Name:        "Bonus Caps",
		Description: "Health cap at 5.73M per fiscal year, pension cap, and a full 3-bonus window",
		Category:    "bonus",
	},
	{
		ID:          "data-quality",
		Name:        "Data Quality",
		Description: "Inconsistent qualification, loss and retirement records; one new hire in grace",
		Category:    "quality",
	},
}

var scenarioLoaders = map[string]func(h *Handler, ctx context.Context) error{
	"tokyo-office": (*Handler).loadTokyoOfficeScenario,
	"bonus-caps":   (*Handler).loadBonusCapsScenario,
	"data-quality": (*Handler).loadDataQualityScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		h.internalError(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx); err != nil {
		h.internalError(w, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadTokyoOfficeScenario(ctx context.Context) error {
	// 45 years old: health, care and pension
	sato := insuredEmployee("emp-sato", "Sato Hanako", "1980-01-15", "2015-04-01", 300000)
	if err := h.seedEmployee(ctx, sato,
		reward(premium.KindHealth, "2015-04", 240000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2015-04", 240000, premium.DecisionAcquisition),
		reward(premium.KindHealth, "2024-09", 300000, premium.DecisionRegular),
		reward(premium.KindPension, "2024-09", 300000, premium.DecisionRegular),
	); err != nil {
		return err
	}

	// 30 years old; pension revised upward in September 2025
	suzuki := insuredEmployee("emp-suzuki", "Suzuki Ren", "1995-06-20", "2018-04-01", 260000)
	if err := h.seedEmployee(ctx, suzuki,
		reward(premium.KindHealth, "2018-04", 260000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2018-04", 260000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2025-09", 280000, premium.DecisionRegular),
	); err != nil {
		return err
	}

	// On childcare leave: premiums waived
	tanaka := insuredEmployee("emp-tanaka", "Tanaka Yui", "1988-11-02", "2012-04-01", 410000)
	tanaka.PremiumTreatment = premium.TreatmentExempt
	if err := h.seedEmployee(ctx, tanaka,
		reward(premium.KindHealth, "2012-04", 410000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2012-04", 410000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}

	// Part-timer below the insurance threshold
	hire := generic.MustParseDate("2023-06-01")
	return h.seedEmployee(ctx, premium.Employee{
		ID:               "emp-ito",
		Name:             "Ito Sora",
		BirthDate:        generic.MustParseDate("2004-02-02"),
		PremiumTreatment: premium.TreatmentNormal,
		HireDate:         &hire,
	})
}

func (h *Handler) loadBonusCapsScenario(ctx context.Context) error {
	kato := insuredEmployee("emp-kato", "Kato Takeshi", "1975-09-09", "2005-04-01", 1390000)
	kato.PensionStandardMonthly = generic.Int64Ptr(650000)
	if err := h.seedEmployee(ctx, kato,
		reward(premium.KindHealth, "2005-04", 1390000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2005-04", 650000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}
	// 5.7M of the 5.73M fiscal-year health cap is used after December;
	// the July bonus alone exceeds the 1.5M pension cap.
	for _, b := range []struct {
		payDate string
		gross   int64
	}{
		{"2025-07-10", 3000000},
		{"2025-12-10", 2700000},
	} {
		if err := h.seedBonus(ctx, kato, b.payDate, b.gross); err != nil {
			return err
		}
	}

	kimura := insuredEmployee("emp-kimura", "Kimura Aoi", "1990-03-03", "2014-04-01", 360000)
	if err := h.seedEmployee(ctx, kimura,
		reward(premium.KindHealth, "2014-04", 360000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2014-04", 360000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}
	// A full July 2025 - June 2026 window: a fourth bonus is rejected.
	for _, payDate := range []string{"2025-07-10", "2025-12-10", "2026-03-10"} {
		if err := h.seedBonus(ctx, kimura, payDate, 500000); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadDataQualityScenario(ctx context.Context) error {
	// Insured flag without qualification or reward history
	hire := generic.MustParseDate("2021-04-01")
	if err := h.seedEmployee(ctx, premium.Employee{
		ID:               "emp-q-flag",
		Name:             "Yamada Kei",
		BirthDate:        generic.MustParseDate("1983-07-07"),
		IsInsured:        true,
		PremiumTreatment: premium.TreatmentNormal,
		HireDate:         &hire,
	}); err != nil {
		return err
	}

	// Retired without loss dates
	retired := insuredEmployee("emp-q-retired", "Nakamura Jun", "1960-05-05", "2000-04-01", 380000)
	retire := generic.MustParseDate("2025-03-31")
	retired.RetireDate = &retire
	if err := h.seedEmployee(ctx, retired,
		reward(premium.KindHealth, "2000-04", 380000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2000-04", 380000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}

	// Health loss recorded the day before qualification
	lost := insuredEmployee("emp-q-loss", "Kobayashi Mio", "1992-12-12", "2024-04-01", 280000)
	loss := generic.MustParseDate("2024-03-31")
	lost.HealthLossDate = &loss
	if err := h.seedEmployee(ctx, lost,
		reward(premium.KindPension, "2024-04", 280000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}

	// Retire date typed before hire date
	swapped := insuredEmployee("emp-q-dates", "Watanabe Sho", "1987-08-18", "2022-10-01", 320000)
	retireEarly := generic.MustParseDate("2022-09-30")
	swapped.RetireDate = &retireEarly
	loss2 := generic.MustParseDate("2022-10-01")
	swapped.HealthLossDate, swapped.PensionLossDate = &loss2, &loss2
	if err := h.seedEmployee(ctx, swapped,
		reward(premium.KindHealth, "2022-10", 320000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2022-10", 320000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}

	// Left and marked uninsured, qualification dates still on file
	lapsed := insuredEmployee("emp-q-lapsed", "Hayashi Ren", "1979-02-14", "2015-04-01", 300000)
	lapsed.IsInsured = false
	lapsedRetire := generic.MustParseDate("2024-06-30")
	lapsedLoss := generic.MustParseDate("2024-07-01")
	lapsed.RetireDate = &lapsedRetire
	lapsed.HealthLossDate, lapsed.PensionLossDate = &lapsedLoss, &lapsedLoss
	if err := h.seedEmployee(ctx, lapsed,
		reward(premium.KindHealth, "2015-04", 300000, premium.DecisionAcquisition),
		reward(premium.KindPension, "2015-04", 300000, premium.DecisionAcquisition),
	); err != nil {
		return err
	}

	// Hired ten days ago, paperwork pending: suppressed by the grace period
	recent := h.today().AddDays(-10)
	return h.seedEmployee(ctx, premium.Employee{
		ID:               "emp-q-new",
		Name:             "Saito Hina",
		BirthDate:        generic.MustParseDate("2001-01-20"),
		IsInsured:        true,
		PremiumTreatment: premium.TreatmentNormal,
		HireDate:         &recent,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// insuredEmployee is insured for both kinds from the hire date with the
// same standard monthly reward.
func insuredEmployee(id, name, birth, hire string, standard int64) premium.Employee {
	hireDate := generic.MustParseDate(hire)
	qual := hireDate
	return premium.Employee{
		ID:                       generic.EmployeeID(id),
		Name:                     name,
		BirthDate:                generic.MustParseDate(birth),
		IsInsured:                true,
		HealthStandardMonthly:    generic.Int64Ptr(standard),
		PensionStandardMonthly:   generic.Int64Ptr(standard),
		PremiumTreatment:         premium.TreatmentNormal,
		HealthQualificationDate:  &qual,
		PensionQualificationDate: &qual,
		HireDate:                 &hireDate,
	}
}

func reward(kind premium.InsuranceKind, from string, amount int64, decision premium.DecisionKind) premium.RewardEntry {
	return premium.RewardEntry{
		Kind:                  kind,
		AppliedFrom:           generic.MustParseYearMonth(from),
		StandardMonthlyReward: amount,
		DecisionKind:          decision,
	}
}

func (h *Handler) seedEmployee(ctx context.Context, emp premium.Employee, history ...premium.RewardEntry) error {
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	for _, e := range history {
		e.EmployeeID = emp.ID
		if _, err := h.Store.AddReward(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedBonus(ctx context.Context, emp premium.Employee, payDate string, gross int64) error {
	req := BonusRequest{PayDate: generic.MustParseDate(payDate), GrossAmount: gross}
	eval, err := h.evaluateBonus(ctx, emp, req)
	if err != nil {
		return err
	}
	if eval.Skip != premium.SkipNone {
		return fmt.Errorf("bonus %s for %s not computable: %s", payDate, emp.ID, eval.Skip)
	}
	_, err = h.Store.SaveBonus(ctx, premium.BonusRecord{
		EmployeeID:          emp.ID,
		PayDate:             req.PayDate,
		GrossAmount:         gross,
		StandardBonusAmount: eval.Result.StandardBonusAmount,
	}, eval.Result)
	return err
}
