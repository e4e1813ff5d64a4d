/*
Package factory provides YAML/JSON to Go rate-table conversion.

PURPOSE:
  Converts rate-table definitions into the premium.RateContext for a target
  month. Rates change every March (health, care) and rarely for pension, so
  they are configuration, not code.

SCHEMA (YAML, or the equivalent JSON):
  name: kyokai-tokyo
  rates:
    - from: "2024-03"
      health: 0.0998
      care: 0.0160
      pension: 0.183
    - from: "2025-03"
      health: 0.0991
      care: 0.0159
      pension: 0.183

  Every rate is the combined employer+employee fraction. care may be
  omitted; the care premium is then 0.

USAGE:
  table, err := factory.LoadRateTable("rates.yaml")
  rc, err := table.ContextFor(generic.MustParseYearMonth("2025-06"), generic.Today())
  result, skip := premium.CalculateMonthly(emp, rc)

SEE ALSO:
  - premium/types.go: Rates and RateContext
*/
package factory

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// RateTableDoc is the file representation of a rate table.
type RateTableDoc struct {
	Name  string       `yaml:"name" json:"name"`
	Rates []RateRowDoc `yaml:"rates" json:"rates"`
}

// RateRowDoc holds one revision. Rates stay strings until parsed so no
// float rounding happens on the way in.
type RateRowDoc struct {
	From    string `yaml:"from" json:"from"`
	Health  string `yaml:"health" json:"health"`
	Care    string `yaml:"care,omitempty" json:"care,omitempty"`
	Pension string `yaml:"pension" json:"pension"`
}

// =============================================================================
// RATE TABLE
// =============================================================================

// RateRow is a parsed revision applying from a month onwards.
type RateRow struct {
	From  generic.YearMonth
	Rates premium.Rates
}

// RateTable resolves the rates applying to a month.
type RateTable struct {
	Name string
	rows []RateRow // ascending by From
}

// Rows returns the revisions in ascending order.
func (t *RateTable) Rows() []RateRow {
	out := make([]RateRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// ContextFor returns the rate context of the latest revision applying on
// or before ym.
func (t *RateTable) ContextFor(ym generic.YearMonth, calcDate generic.Date) (premium.RateContext, error) {
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].From.After(ym) })
	if i == 0 {
		return premium.RateContext{}, fmt.Errorf("%w: %s has no rates for %s", generic.ErrRateNotFound, t.Name, ym)
	}
	return premium.RateContext{
		YearMonth: ym,
		CalcDate:  calcDate,
		Rates:     t.rows[i-1].Rates,
	}, nil
}

// RatesOn returns the rates applying on the month of d. Bonuses use it
// with the pay date.
func (t *RateTable) RatesOn(d generic.Date) (premium.Rates, error) {
	rc, err := t.ContextFor(d.YearMonth(), d)
	if err != nil {
		return premium.Rates{}, err
	}
	return rc.Rates, nil
}

// =============================================================================
// RATE FACTORY
// =============================================================================

// RateFactory converts rate documents to rate tables.
type RateFactory struct{}

func NewRateFactory() *RateFactory {
	return &RateFactory{}
}

// ParseRateTable parses YAML or JSON (JSON is valid YAML).
func (f *RateFactory) ParseRateTable(data []byte) (*RateTable, error) {
	var doc RateTableDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rate table: %w", err)
	}
	return f.FromDoc(doc)
}

// FromDoc validates a document and builds the table.
func (f *RateFactory) FromDoc(doc RateTableDoc) (*RateTable, error) {
	if len(doc.Rates) == 0 {
		return nil, fmt.Errorf("rate table %q has no rows", doc.Name)
	}

	table := &RateTable{Name: doc.Name}
	seen := make(map[generic.YearMonth]bool, len(doc.Rates))
	for i, rd := range doc.Rates {
		row, err := parseRow(rd)
		if err != nil {
			return nil, fmt.Errorf("rate table %q row %d: %w", doc.Name, i, err)
		}
		if seen[row.From] {
			return nil, fmt.Errorf("rate table %q: duplicate revision for %s", doc.Name, row.From)
		}
		seen[row.From] = true
		table.rows = append(table.rows, row)
	}

	sort.Slice(table.rows, func(i, j int) bool { return table.rows[i].From.Before(table.rows[j].From) })
	return table, nil
}

// ToDoc converts a table back to its document form.
func (f *RateFactory) ToDoc(t *RateTable) RateTableDoc {
	doc := RateTableDoc{Name: t.Name}
	for _, row := range t.rows {
		rd := RateRowDoc{
			From:    row.From.String(),
			Health:  row.Rates.Health.String(),
			Pension: row.Rates.Pension.String(),
		}
		if row.Rates.Care != nil {
			rd.Care = row.Rates.Care.String()
		}
		doc.Rates = append(doc.Rates, rd)
	}
	return doc
}

// LoadRateTable reads a rate table file.
func LoadRateTable(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}
	return NewRateFactory().ParseRateTable(data)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseRow(rd RateRowDoc) (RateRow, error) {
	from, err := generic.ParseYearMonth(rd.From)
	if err != nil {
		return RateRow{}, err
	}
	health, err := parseRate("health", rd.Health)
	if err != nil {
		return RateRow{}, err
	}
	pension, err := parseRate("pension", rd.Pension)
	if err != nil {
		return RateRow{}, err
	}

	row := RateRow{From: from, Rates: premium.Rates{Health: health, Pension: pension}}
	if rd.Care != "" {
		care, err := parseRate("care", rd.Care)
		if err != nil {
			return RateRow{}, err
		}
		row.Rates.Care = care
	}
	return row, nil
}

// parseRate accepts a fraction strictly between 0 and 1.
func parseRate(field, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, fmt.Errorf("%s rate is required", field)
	}
	r, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s rate %q: %w", field, s, err)
	}
	if !r.IsPositive() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%s rate %s is not a fraction between 0 and 1", field, r)
	}
	return &r, nil
}

// =============================================================================
// PRESET TABLES
// =============================================================================

// KyokaiTokyoYAML is the Japan Health Insurance Association (協会けんぽ)
// Tokyo table, FY2023 to FY2025.
const KyokaiTokyoYAML = `
name: kyokai-tokyo
rates:
  - from: "2023-03"
    health: "0.1000"
    care: "0.0182"
    pension: "0.183"
  - from: "2024-03"
    health: "0.0998"
    care: "0.0160"
    pension: "0.183"
  - from: "2025-03"
    health: "0.0991"
    care: "0.0159"
    pension: "0.183"
`

// DefaultRateTable is used when no rate file is configured.
func DefaultRateTable() *RateTable {
	t, err := NewRateFactory().ParseRateTable([]byte(KyokaiTokyoYAML))
	if err != nil {
		panic(err)
	}
	return t
}
