package metrics

import (
	"time"

	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks the H2 client dispatch engine: completed
// round trips and the errors that end them.
type DispatchMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

func newDispatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DispatchMetrics {
	dm := &DispatchMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of requests dispatched to an upstream target.",
			},
			[]string{"target", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of a dispatched request in seconds.",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"target"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_errors_total",
				Help:      "Total number of dispatch errors by werror kind.",
			},
			[]string{"target", "kind"},
		),
	}

	registry.MustRegister(dm.requestsTotal, dm.requestDuration, dm.errorsTotal)
	return dm
}

func (dm *DispatchMetrics) recordDispatch(target, status string, duration time.Duration) {
	dm.requestsTotal.WithLabelValues(target, status).Inc()
	dm.requestDuration.WithLabelValues(target).Observe(duration.Seconds())
}

func (dm *DispatchMetrics) recordError(target, kind string) {
	dm.errorsTotal.WithLabelValues(target, kind).Inc()
}
