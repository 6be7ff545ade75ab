package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "probe_attempts_total",
		Help:      "Candidate attempts by operation and outcome.",
	}, []string{"operation", "outcome"})

	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Name:      "probe_duration_seconds",
		Help:      "Latency of single candidate attempts.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"operation"})

	degradedResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "degraded_results_total",
		Help:      "Read operations answered with a degraded placeholder.",
	}, []string{"operation"})

	cascadeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "cascade_exhausted_total",
		Help:      "Cascades in which every candidate failed.",
	}, []string{"operation"})
)

// ObserveAttempt records one candidate attempt. Outcome is "success",
// "cancelled" or a failure kind.
func ObserveAttempt(operation, outcome string, d time.Duration) {
	probeAttempts.WithLabelValues(operation, outcome).Inc()
	probeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func IncDegraded(operation string) {
	degradedResults.WithLabelValues(operation).Inc()
}

func IncExhausted(operation string) {
	cascadeFailures.WithLabelValues(operation).Inc()
}
