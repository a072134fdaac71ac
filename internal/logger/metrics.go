package logger

import "github.com/prometheus/client_golang/prometheus"

// Collectors exposes TotalWarnings and TotalErrors to Prometheus.
// The counts include records dropped by sampling.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: "linkrules",
				Name:      "log_warnings_total",
				Help:      "Warnings logged, including those dropped by sampling",
			},
			func() float64 { return float64(TotalWarnings.Load()) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: "linkrules",
				Name:      "log_errors_total",
				Help:      "Errors logged, including those dropped by sampling",
			},
			func() float64 { return float64(TotalErrors.Load()) },
		),
	}
}
