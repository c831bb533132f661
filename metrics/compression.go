package metrics

import (
	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CompressionMetrics tracks how effectively the compression layer is
// shrinking bodies.
type CompressionMetrics struct {
	ratio      *prometheus.HistogramVec
	bytesSaved *prometheus.CounterVec
}

func newCompressionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CompressionMetrics {
	cm := &CompressionMetrics{
		ratio: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compression_ratio",
				Help:      "Ratio of compressed to uncompressed body size (lower is better).",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
			[]string{"encoding"},
		),
		bytesSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compression_bytes_saved_total",
				Help:      "Total bytes saved by compression.",
			},
			[]string{"encoding"},
		),
	}

	registry.MustRegister(cm.ratio, cm.bytesSaved)
	return cm
}

func (cm *CompressionMetrics) recordRatio(encoding string, ratio float64) {
	cm.ratio.WithLabelValues(encoding).Observe(ratio)
}

func (cm *CompressionMetrics) recordBytesSaved(encoding string, saved int64) {
	cm.bytesSaved.WithLabelValues(encoding).Add(float64(saved))
}
