package ruleset

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/liamcoop/linkrules/rules"
)

// Metrics tracks rule evaluation and reloads.
//
// Metrics:
//   - linkrules_evaluations_total: evaluations by rule, outcome and error kind
//   - linkrules_evaluation_duration_seconds: evaluation latency by rule
//   - linkrules_rules_loaded: rules in the active registry
//   - linkrules_reloads_total: definition reloads by status
type Metrics struct {
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rulesLoaded prometheus.Gauge
	reloads     *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics with registerer
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linkrules",
				Name:      "evaluations_total",
				Help:      "Rule evaluations by rule, outcome and error kind",
			},
			[]string{"rule", "outcome", "error_kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "linkrules",
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent evaluating a rule including its actions",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"rule"},
		),
		rulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "linkrules",
				Name:      "rules_loaded",
				Help:      "Number of rules in the active registry",
			},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linkrules",
				Name:      "reloads_total",
				Help:      "Rule definition reloads by status",
			},
			[]string{"status"},
		),
	}

	registerer.MustRegister(m.evaluations, m.duration, m.rulesLoaded, m.reloads)
	return m
}

// ObserveResult records one rule evaluation
func (m *Metrics) ObserveResult(r *rules.EvaluationResult) {
	m.evaluations.WithLabelValues(r.RuleName, r.Outcome.String(), r.Kind().String()).Inc()
	m.duration.WithLabelValues(r.RuleName).Observe(r.Duration.Seconds())
}

// ObserveReload records a reload attempt and, on success, the new rule count
func (m *Metrics) ObserveReload(rulesLoaded int, err error) {
	if err != nil {
		m.reloads.WithLabelValues("failure").Inc()
		return
	}
	m.reloads.WithLabelValues("success").Inc()
	m.rulesLoaded.Set(float64(rulesLoaded))
}
