package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/shaho-engine/premium"
	"github.com/warp/shaho-engine/quality"
)

const metricPrefix = "shaho_"

// Calculation outcomes besides the skip reasons.
const (
	outcomeComputed = "computed"
	outcomeExempt   = "exempt"
	outcomeRejected = "rejected"
)

// Metrics owns a private registry so several handlers (tests) can coexist
// in one process.
type Metrics struct {
	registry *prometheus.Registry

	calculations  *prometheus.CounterVec
	qualityIssues *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculations_total",
				Help: "Premium calculations by kind (monthly, bonus) and outcome",
			},
			[]string{"kind", "outcome"},
		),
		qualityIssues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "quality_issues",
				Help: "Open data-quality issues by type as of the last scan",
			},
			[]string{"type"},
		),
	}
	m.registry.MustRegister(m.calculations, m.qualityIssues)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeMonthly(exempt bool, skip premium.SkipReason) {
	m.calculations.WithLabelValues("monthly", outcome(exempt, skip)).Inc()
}

func (m *Metrics) observeBonus(exempt bool, skip premium.SkipReason) {
	m.calculations.WithLabelValues("bonus", outcome(exempt, skip)).Inc()
}

func (m *Metrics) observeBonusRejected() {
	m.calculations.WithLabelValues("bonus", outcomeRejected).Inc()
}

// observeScan replaces the gauge values; types absent from the scan read 0.
func (m *Metrics) observeScan(issues []quality.Issue) {
	counts := quality.CountByType(issues)
	for _, t := range quality.AllIssueTypes {
		m.qualityIssues.WithLabelValues(string(t)).Set(float64(counts[t]))
	}
}

func outcome(exempt bool, skip premium.SkipReason) string {
	switch {
	case skip != premium.SkipNone:
		return string(skip)
	case exempt:
		return outcomeExempt
	default:
		return outcomeComputed
	}
}
