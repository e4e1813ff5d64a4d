/*
scenarios_test.go - Unit tests for demo scenarios and the scheduler

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Employees and reward histories are created
	- Bonuses are saved with premiums and caps as a save would compute them
	- The data-quality scenario produces the intended findings

These tests double as integration tests of the handler stack.
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/quality"
)

func (s *testServer) loadScenario(t *testing.T, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScenario_TokyoOffice(t *testing.T) {
	// GIVEN: The Tokyo office scenario
	s := newTestServer(t)
	s.loadScenario(t, "tokyo-office")

	employees := decode[[]EmployeeDTO](t, s.do(t, http.MethodGet, "/api/employees", nil))
	assert.Len(t, employees, 4)
	current := decode[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "tokyo-office", current.ID)

	// WHEN: Recomputing October 2025
	rec := s.do(t, http.MethodPost, "/api/premiums/2025-10/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[RecalculateResponse](t, rec)

	// THEN: Three premiums (one of them waived) and the part-timer skipped
	assert.Equal(t, 3, got.Computed)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "emp-ito", got.Skipped[0].EmployeeID)
	// sato 44,700 + suzuki 12,880 + 25,620 + tanaka 0
	assertYen(t, 83200, got.EmployeeTotal)

	// AND: The pension revision applies from September
	suzuki := decode[MonthlyPremiumDTO](t, s.do(t, http.MethodGet, "/api/employees/emp-suzuki/premiums/2025-10", nil))
	assert.Equal(t, int64(280000), suzuki.PensionStandardMonthly)
	assert.Equal(t, int64(260000), suzuki.HealthStandardMonthly)
	assert.False(t, suzuki.CareTarget)

	// AND: The records are clean
	issues := decode[QualityIssuesResponse](t, s.do(t, http.MethodGet, "/api/quality/issues", nil))
	assert.Empty(t, issues.Issues)
}

func TestScenario_BonusCaps(t *testing.T) {
	s := newTestServer(t)
	s.loadScenario(t, "bonus-caps")

	// THEN: The July bonus was clipped at the pension cap
	kato := decode[[]BonusPremiumDTO](t, s.do(t, http.MethodGet, "/api/employees/emp-kato/bonuses", nil))
	require.Len(t, kato, 2)
	assert.Equal(t, int64(1500000), kato[0].PensionCap.EffectiveAmount)
	assert.Equal(t, int64(1500000), kato[0].PensionCap.ExceededAmount)
	assert.Equal(t, int64(5700000), kato[1].HealthCap.CumulativeAfter)

	// WHEN: Another 1,000,000 bonus is previewed in March
	rec := s.do(t, http.MethodPost, "/api/employees/emp-kato/bonuses/preview", bonusBody("2026-03-10", 1000000))

	// THEN: Only 30,000 of it is left under the health cap
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[BonusPremiumDTO](t, rec)
	assert.Equal(t, int64(30000), got.HealthCap.EffectiveAmount)
	assert.Equal(t, int64(970000), got.HealthCap.ExceededAmount)
	assert.Equal(t, int64(1000000), got.PensionCap.EffectiveAmount)

	// AND: Kimura's window is full
	rec = s.do(t, http.MethodPost, "/api/employees/emp-kimura/bonuses/preview", bonusBody("2026-06-10", 100000))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScenario_DataQuality(t *testing.T) {
	s := newTestServer(t)
	s.loadScenario(t, "data-quality")

	got := decode[QualityIssuesResponse](t, s.do(t, http.MethodGet, "/api/quality/issues", nil))

	ids := make(map[string]bool)
	for _, is := range got.Issues {
		ids[is.ID] = true
		assert.NotEqual(t, generic.EmployeeID("emp-q-new"), is.EmployeeID, "new hire is in grace")
	}
	lossMonth := generic.MustParseYearMonth("2024-03")
	lapsedQualification := generic.MustParseYearMonth("2015-04")
	for _, want := range []string{
		quality.IssueID("emp-q-flag", quality.IssueInsuredWithoutQualification, nil),
		quality.IssueID("emp-q-flag", quality.IssueInsuredWithoutRewardHistory, nil),
		quality.IssueID("emp-q-retired", quality.IssueHealthLossDateMissing, nil),
		quality.IssueID("emp-q-retired", quality.IssuePensionLossDateMissing, nil),
		quality.IssueID("emp-q-loss", quality.IssueHealthLossBeforeQualification, &lossMonth),
		quality.IssueID("emp-q-dates", quality.IssueRetireBeforeHire, nil),
		quality.IssueID("emp-q-lapsed", quality.IssueHealthUninsuredQualified, &lapsedQualification),
		quality.IssueID("emp-q-lapsed", quality.IssuePensionUninsuredQualified, &lapsedQualification),
	} {
		assert.True(t, ids[want], "missing %s", want)
	}
}

func TestScenario_UnknownAndReset(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.loadScenario(t, "tokyo-office")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/admin/reset", nil).Code)

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())

	list := decode[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios", nil))
	assert.Len(t, list, len(scenarios))
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestScheduler_RunOnce(t *testing.T) {
	// GIVEN: The Tokyo office loaded and nothing stored for October
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.h.loadTokyoOfficeScenario(ctx))

	// WHEN: A scheduled pass runs (today is 2025-10-15)
	NewRecalculationScheduler(s.h).RunOnce(ctx)

	// THEN: October is stored
	employee, employer, err := s.h.Store.MonthlyTotals(ctx, generic.MustParseYearMonth("2025-10"))
	require.NoError(t, err)
	assertYen(t, 83200, employee)
	assertYen(t, 83200, employer)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestServer(t)

	t.Run("disabled", func(t *testing.T) {
		rs := NewRecalculationScheduler(s.h)
		rs.Start()
		assert.Nil(t, rs.ticker)
		rs.Stop()
	})

	t.Run("enabled", func(t *testing.T) {
		rs := NewRecalculationScheduler(s.h)
		rs.Enabled = true
		rs.CheckInterval = time.Hour
		rs.Start()
		rs.Start()
		done := make(chan struct{})
		go func() {
			rs.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	})
}
