package metrics

import (
	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RateLimitMetrics tracks outcomes of the rate limit layer's token
// bucket, sliding window and concurrency semaphore checks.
type RateLimitMetrics struct {
	rejectionsTotal *prometheus.CounterVec
	allowedTotal    *prometheus.CounterVec
}

func newRateLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limit_rejections_total",
				Help:      "Total number of requests rejected by the rate limit layer, by exhausted dimension.",
			},
			[]string{"key", "dimension"},
		),
		allowedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limit_allowed_total",
				Help:      "Total number of requests allowed through the rate limit layer.",
			},
			[]string{"key"},
		),
	}

	registry.MustRegister(rm.rejectionsTotal, rm.allowedTotal)
	return rm
}

func (rm *RateLimitMetrics) recordRejection(key, dimension string) {
	rm.rejectionsTotal.WithLabelValues(key, dimension).Inc()
}

func (rm *RateLimitMetrics) recordAllowed(key string) {
	rm.allowedTotal.WithLabelValues(key).Inc()
}
