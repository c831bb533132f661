package metrics

import (
	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks which targets the upstream layer's
// selection strategies choose, and their health as reported by the
// health-based strategy.
type UpstreamMetrics struct {
	selectionsTotal *prometheus.CounterVec
	health          *prometheus.GaugeVec
}

func newUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		selectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_selections_total",
				Help:      "Total number of times a strategy selected a target.",
			},
			[]string{"strategy", "target"},
		),
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_healthy",
				Help:      "Health of an upstream target as last reported (1=healthy, 0=unhealthy).",
			},
			[]string{"target"},
		),
	}

	registry.MustRegister(um.selectionsTotal, um.health)
	return um
}

func (um *UpstreamMetrics) recordSelection(strategy, target string) {
	um.selectionsTotal.WithLabelValues(strategy, target).Inc()
}

func (um *UpstreamMetrics) updateHealth(target string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	um.health.WithLabelValues(target).Set(v)
}
