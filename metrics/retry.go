package metrics

import (
	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RetryMetrics tracks the retry layer's reissue attempts and
// exhaustion.
type RetryMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	exhaustedTotal  *prometheus.CounterVec
	attemptNumber   *prometheus.HistogramVec
}

func newRetryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RetryMetrics {
	rm := &RetryMetrics{
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retry_attempts_total",
				Help:      "Total number of retry attempts issued to a target.",
			},
			[]string{"target"},
		),
		exhaustedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retry_exhausted_total",
				Help:      "Total number of requests that exhausted their retry budget.",
			},
			[]string{"target"},
		),
		attemptNumber: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retry_attempt_number",
				Help:      "Distribution of the attempt number a request finally succeeded or was abandoned on.",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
			[]string{"target"},
		),
	}

	registry.MustRegister(rm.attemptsTotal, rm.exhaustedTotal, rm.attemptNumber)
	return rm
}

func (rm *RetryMetrics) recordAttempt(target string, attempt int) {
	rm.attemptsTotal.WithLabelValues(target).Inc()
	rm.attemptNumber.WithLabelValues(target).Observe(float64(attempt))
}

func (rm *RetryMetrics) recordExhausted(target string) {
	rm.exhaustedTotal.WithLabelValues(target).Inc()
}
