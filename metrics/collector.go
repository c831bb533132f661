// Package metrics provides Prometheus instrumentation for dispatch,
// upstream selection, rate limiting, retries, compression and audit
// activity.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the orchestrator for every metric weft registers. It
// owns the registry and exposes one Record/Update method per
// observable event, so layers never touch prometheus types directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	dispatch    *DispatchMetrics
	upstream    *UpstreamMetrics
	rateLimit   *RateLimitMetrics
	retry       *RetryMetrics
	compression *CompressionMetrics
	audit       *AuditMetrics

	cardinality *CardinalityLimiter
}

// NewCollector builds a Collector and registers every metric family
// with registry. A nil registry gets a fresh prometheus.Registry
// rather than the global default, so multiple collectors (as in
// tests) never collide.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "weft"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "dispatch"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultMetricsDurationBuckets
	}

	c := &Collector{
		config:      cfg,
		registry:    registry,
		cardinality: NewCardinalityLimiter(10000),
	}

	c.dispatch = newDispatchMetrics(cfg, registry)
	c.upstream = newUpstreamMetrics(cfg, registry)
	c.rateLimit = newRateLimitMetrics(cfg, registry)
	c.retry = newRetryMetrics(cfg, registry)
	c.compression = newCompressionMetrics(cfg, registry)
	c.audit = newAuditMetrics(cfg, registry)

	return c
}

// RecordDispatch records a completed dispatch through the H2 client
// engine: one HTTP request/response round trip to a selected target.
func (c *Collector) RecordDispatch(target, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("dispatch:" + target) {
		target = "other"
	}
	c.dispatch.recordDispatch(target, status, duration)
}

// RecordDispatchError records a dispatch failure classified by its
// werror.Kind (passed as its String() form to keep this package
// independent of werror).
func (c *Collector) RecordDispatchError(target, kind string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("dispatch:" + target) {
		target = "other"
	}
	c.dispatch.recordError(target, kind)
}

// RecordUpstreamSelection records that strategy selected target for a
// request.
func (c *Collector) RecordUpstreamSelection(strategy, target string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("upstream:" + target) {
		target = "other"
	}
	c.upstream.recordSelection(strategy, target)
}

// UpdateUpstreamHealth sets the health gauge for target: 1 if healthy,
// 0 otherwise.
func (c *Collector) UpdateUpstreamHealth(target string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.upstream.updateHealth(target, healthy)
}

// RecordRateLimitRejection records a request rejected by the rate
// limit layer for the given limit key (e.g. an API key or client IP)
// and the dimension that was exhausted ("rps", "rpm", "rph",
// "concurrency").
func (c *Collector) RecordRateLimitRejection(key, dimension string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("ratelimit:" + key) {
		key = "other"
	}
	c.rateLimit.recordRejection(key, dimension)
}

// RecordRateLimitAllowed records a request that passed the rate limit
// layer's checks.
func (c *Collector) RecordRateLimitAllowed(key string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("ratelimit:" + key) {
		key = "other"
	}
	c.rateLimit.recordAllowed(key)
}

// RecordRetryAttempt records that the retry layer reissued a request
// to target for the given attempt number (1-indexed).
func (c *Collector) RecordRetryAttempt(target string, attempt int) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("retry:" + target) {
		target = "other"
	}
	c.retry.recordAttempt(target, attempt)
}

// RecordRetryExhausted records that the retry layer gave up on target
// after its configured maximum attempts.
func (c *Collector) RecordRetryExhausted(target string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinality.Allow("retry:" + target) {
		target = "other"
	}
	c.retry.recordExhausted(target)
}

// RecordCompressionRatio records the ratio of compressed to
// uncompressed body size (compressed/uncompressed) for the given
// content-encoding.
func (c *Collector) RecordCompressionRatio(encoding string, ratio float64) {
	if !c.config.Enabled {
		return
	}
	c.compression.recordRatio(encoding, ratio)
}

// RecordCompressionBytesSaved adds to the running total of bytes saved
// by compression for the given encoding.
func (c *Collector) RecordCompressionBytesSaved(encoding string, saved int64) {
	if !c.config.Enabled || saved <= 0 {
		return
	}
	c.compression.recordBytesSaved(encoding, saved)
}

// RecordAuditWrite records the latency of a single audit record write
// and whether it was dropped (e.g. buffer full).
func (c *Collector) RecordAuditWrite(duration time.Duration, dropped bool) {
	if !c.config.Enabled {
		return
	}
	c.audit.recordWrite(duration, dropped)
}

// Registry returns the underlying Prometheus registry, for embedding
// in a larger process that registers its own metrics too.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an http.Handler serving the registry in Prometheus
// exposition format at whatever path the caller mounts it, typically
// config.Metrics.Path.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// CardinalityLimiter bounds the number of distinct label values a
// metric dimension admits before it starts folding overflow values
// into "other", protecting the registry from unbounded memory growth
// driven by untrusted label inputs (arbitrary target names, API keys).
type CardinalityLimiter struct {
	max     int
	mu      sync.RWMutex
	current map[string]struct{}
}

// NewCardinalityLimiter builds a limiter admitting up to max distinct
// label sets.
func NewCardinalityLimiter(max int) *CardinalityLimiter {
	return &CardinalityLimiter{max: max, current: make(map[string]struct{})}
}

// Allow reports whether labelSet should be admitted as-is. It always
// admits label sets it has already seen; a new one is admitted only
// while under the cardinality cap.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, ok := cl.current[labelSet]; ok {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, ok := cl.current[labelSet]; ok {
		return true
	}
	if len(cl.current) >= cl.max {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current number of distinct admitted label sets.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
