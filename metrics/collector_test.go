package metrics

import (
	"testing"
	"time"

	"weft/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "dispatch",
		DurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestNewCollectorRegistersFamilies(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	if c.Registry() != registry {
		t.Fatal("Registry() did not return the registry passed to NewCollector")
	}

	mf, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(mf) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestRecordDispatchIncrementsCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordDispatch("upstream-a", "success", 250*time.Millisecond)

	got := testutil.ToFloat64(c.dispatch.requestsTotal.WithLabelValues("upstream-a", "success"))
	if got != 1 {
		t.Errorf("requestsTotal = %v, want 1", got)
	}
}

func TestRecordDispatchErrorByKind(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordDispatchError("upstream-a", "timeout")
	c.RecordDispatchError("upstream-a", "timeout")

	got := testutil.ToFloat64(c.dispatch.errorsTotal.WithLabelValues("upstream-a", "timeout"))
	if got != 2 {
		t.Errorf("errorsTotal = %v, want 2", got)
	}
}

func TestRecordUpstreamSelectionAndHealth(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordUpstreamSelection("round-robin", "upstream-a")
	c.UpdateUpstreamHealth("upstream-a", true)
	c.UpdateUpstreamHealth("upstream-b", false)

	if got := testutil.ToFloat64(c.upstream.selectionsTotal.WithLabelValues("round-robin", "upstream-a")); got != 1 {
		t.Errorf("selectionsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.upstream.health.WithLabelValues("upstream-a")); got != 1 {
		t.Errorf("health[a] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.upstream.health.WithLabelValues("upstream-b")); got != 0 {
		t.Errorf("health[b] = %v, want 0", got)
	}
}

func TestRecordRateLimitRejectionAndAllowed(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordRateLimitRejection("key-1", "rps")
	c.RecordRateLimitAllowed("key-1")

	if got := testutil.ToFloat64(c.rateLimit.rejectionsTotal.WithLabelValues("key-1", "rps")); got != 1 {
		t.Errorf("rejectionsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.rateLimit.allowedTotal.WithLabelValues("key-1")); got != 1 {
		t.Errorf("allowedTotal = %v, want 1", got)
	}
}

func TestRecordRetryAttemptAndExhausted(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordRetryAttempt("upstream-a", 1)
	c.RecordRetryAttempt("upstream-a", 2)
	c.RecordRetryExhausted("upstream-a")

	if got := testutil.ToFloat64(c.retry.attemptsTotal.WithLabelValues("upstream-a")); got != 2 {
		t.Errorf("attemptsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.retry.exhaustedTotal.WithLabelValues("upstream-a")); got != 1 {
		t.Errorf("exhaustedTotal = %v, want 1", got)
	}
}

func TestRecordCompressionRatioAndBytesSaved(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordCompressionRatio("gzip", 0.4)
	c.RecordCompressionBytesSaved("gzip", 1024)

	if got := testutil.ToFloat64(c.compression.bytesSaved.WithLabelValues("gzip")); got != 1024 {
		t.Errorf("bytesSaved = %v, want 1024", got)
	}
}

func TestRecordAuditWriteTracksDropped(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.RecordAuditWrite(time.Millisecond, false)
	c.RecordAuditWrite(time.Millisecond, true)

	if got := testutil.ToFloat64(c.audit.writesTotal.WithLabelValues("written")); got != 1 {
		t.Errorf("writesTotal[written] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.audit.writesTotal.WithLabelValues("dropped")); got != 1 {
		t.Errorf("writesTotal[dropped] = %v, want 1", got)
	}
}

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	c := NewCollector(cfg, registry)

	c.RecordDispatch("upstream-a", "success", time.Millisecond)

	if got := testutil.ToFloat64(c.dispatch.requestsTotal.WithLabelValues("upstream-a", "success")); got != 0 {
		t.Errorf("requestsTotal = %v, want 0 when disabled", got)
	}
}

func TestCardinalityLimiterFoldsOverflowIntoOther(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected the first two label sets to be admitted")
	}
	if cl.Allow("c") {
		t.Error("expected a third distinct label set to be rejected past the cap")
	}
	if !cl.Allow("a") {
		t.Error("expected a previously admitted label set to remain allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)
	c.RecordDispatch("upstream-a", "success", time.Millisecond)

	handler := c.Handler()
	if handler == nil {
		t.Fatal("Handler() returned nil")
	}
}
