package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/theirongolddev/pburn/internal/model"
)

// Metrics holds the daemon's Prometheus collectors.
type Metrics struct {
	// Registry owns these metrics; the /metrics endpoint serves from it.
	Registry *prometheus.Registry

	consumption  *prometheus.GaugeVec
	remaining    *prometheus.GaugeVec
	daysLeft     *prometheus.GaugeVec
	polls        *prometheus.CounterVec
	events       *prometheus.CounterVec
	imported     prometheus.Counter
	pollDuration prometheus.Histogram
}

// NewMetrics registers all collectors in a private registry so repeated
// construction (tests, restarts) never collides.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		consumption: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pburn_budget_consumption_percent",
				Help: "Budget consumed per project, in percent.",
			},
			[]string{"project", "status"},
		),
		remaining: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pburn_budget_remaining",
				Help: "Remaining budget per project, in budget currency.",
			},
			[]string{"project", "currency"},
		),
		daysLeft: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pburn_deadline_days_left",
				Help: "Days until project deadline; negative when overdue.",
			},
			[]string{"project", "severity"},
		),
		polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pburn_polls_total",
				Help: "Ledger polls by outcome.",
			},
			[]string{"outcome"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pburn_events_total",
				Help: "Published events by type.",
			},
			[]string{"type"},
		),
		imported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pburn_inbox_imported_total",
				Help: "Expenses imported from the inbox directory.",
			},
		),
		pollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pburn_poll_duration_seconds",
				Help:    "Time spent loading the ledger and recomputing reports.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveReports replaces the per-project gauges with the given reports.
func (m *Metrics) ObserveReports(reports []model.ProjectReport) {
	m.consumption.Reset()
	m.remaining.Reset()
	m.daysLeft.Reset()
	for _, r := range reports {
		name := r.Project.Name
		m.consumption.WithLabelValues(name, string(r.Summary.Status)).Set(r.Summary.ConsumptionPercent)
		m.remaining.WithLabelValues(name, r.Summary.BudgetCurrency).Set(r.Summary.Remaining)
		if d := r.Deadline.DaysUntilDeadline; d != nil {
			m.daysLeft.WithLabelValues(name, string(r.Deadline.Severity)).Set(float64(*d))
		}
	}
}

// RecordPoll counts a poll and its duration.
func (m *Metrics) RecordPoll(seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.polls.WithLabelValues(outcome).Inc()
	m.pollDuration.Observe(seconds)
}

// RecordEvent counts a published event.
func (m *Metrics) RecordEvent(eventType string) {
	m.events.WithLabelValues(eventType).Inc()
}

// RecordImported counts inbox imports.
func (m *Metrics) RecordImported(n int) {
	m.imported.Add(float64(n))
}
