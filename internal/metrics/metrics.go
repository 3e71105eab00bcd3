package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations (validation or pipeline issues).
	OutcomeError = "error"
	// OutcomeSuppressed labels alerts dropped by noise reduction.
	OutcomeSuppressed = "suppressed"
)

var (
	alertsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "correlation_engine",
			Name:      "alerts_ingested_total",
			Help:      "Total number of alerts received, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	correlationPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "correlation_engine",
			Name:      "correlation_passes_total",
			Help:      "Total number of batch correlation passes, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	clustersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "correlation_engine",
			Name:      "clusters_created_total",
			Help:      "Total number of alert clusters committed.",
		},
	)

	correlationPassSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "correlation_engine",
			Name:      "correlation_pass_seconds",
			Help:      "Batch correlation pass latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)
)

// Register attaches correlation-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		alertsIngestedTotal,
		correlationPassesTotal,
		clustersCreatedTotal,
		correlationPassSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveIngest counts an ingested alert under the given outcome label.
func ObserveIngest(outcome string) {
	switch outcome {
	case OutcomeError, OutcomeSuppressed:
	default:
		outcome = OutcomeSuccess
	}
	alertsIngestedTotal.WithLabelValues(outcome).Inc()
}

// ObserveCorrelationPass records a batch pass duration, outcome and cluster count.
func ObserveCorrelationPass(duration time.Duration, outcome string, clusters int) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	correlationPassesTotal.WithLabelValues(label).Inc()
	if clusters > 0 {
		clustersCreatedTotal.Add(float64(clusters))
	}
	if duration < 0 {
		duration = 0
	}
	correlationPassSeconds.Observe(duration.Seconds())
}
