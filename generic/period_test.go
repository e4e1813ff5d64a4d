package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/shaho-engine/generic"
)

func TestFiscalYear_StartsInApril(t *testing.T) {
	tests := []struct {
		date     string
		wantYear int
		wantSpan string
	}{
		{"2025-03-31", 2024, "[2024-04-01, 2025-03-31]"},
		{"2025-04-01", 2025, "[2025-04-01, 2026-03-31]"},
		{"2025-12-10", 2025, "[2025-04-01, 2026-03-31]"},
		{"2026-01-15", 2025, "[2025-04-01, 2026-03-31]"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d := generic.MustParseDate(tt.date)
			assert.Equal(t, tt.wantYear, generic.FiscalYearOf(d))
			assert.Equal(t, tt.wantSpan, generic.FiscalYearPeriod(d).String())
		})
	}
}

func TestBonusYear_JulyToJune(t *testing.T) {
	// June belongs to the window that started the previous July
	june := generic.BonusYearPeriod(generic.NewDate(2025, time.June, 30))
	assert.Equal(t, "[2024-07-01, 2025-06-30]", june.String())

	july := generic.BonusYearPeriod(generic.NewDate(2025, time.July, 1))
	assert.Equal(t, "[2025-07-01, 2026-06-30]", july.String())

	assert.True(t, july.Contains(generic.NewDate(2026, time.June, 30)))
	assert.False(t, july.Contains(generic.NewDate(2026, time.July, 1)))
}

func TestCalendarYear_Default(t *testing.T) {
	p := generic.PeriodConfig{Type: generic.PeriodCalendarYear}.PeriodFor(generic.NewDate(2025, time.August, 3))
	assert.Equal(t, "[2025-01-01, 2025-12-31]", p.String())
}
