package metrics

import (
	"time"

	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks the audit layer's own write path, separate from
// the requests it is recording, so a slow or overflowing audit sink
// is visible without instrumenting the sink itself.
type AuditMetrics struct {
	writeDuration prometheus.Histogram
	writesTotal   *prometheus.CounterVec
}

func newAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		writeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_write_duration_seconds",
				Help:      "Duration of a single audit record write.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_writes_total",
				Help:      "Total number of audit writes, by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(am.writeDuration, am.writesTotal)
	return am
}

func (am *AuditMetrics) recordWrite(duration time.Duration, dropped bool) {
	am.writeDuration.Observe(duration.Seconds())
	outcome := "written"
	if dropped {
		outcome = "dropped"
	}
	am.writesTotal.WithLabelValues(outcome).Inc()
}
