package config

import "time"

// DefaultMetricsDurationBuckets are the histogram buckets applied when
// TelemetryConfig.Metrics.DurationBuckets is empty.
var DefaultMetricsDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Default values for configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8443"
	DefaultShutdownTimeout = 30 * time.Second

	DefaultProxyProtocolRequired    = true
	DefaultProxyProtocolReadTimeout = 5 * time.Second

	DefaultUpstreamStrategy    = "round-robin"
	DefaultUpstreamTargetWeight = 1
	DefaultStickyTTL           = 1 * time.Hour
	DefaultStickyKeyType       = "header"
	DefaultStickyKeyName       = "X-Session-ID"
	DefaultHealthBasedRequireHealthy = true

	DefaultH2AdaptiveWindow          = false
	DefaultH2InitialConnWindowSize   = 5 << 20
	DefaultH2InitialStreamWindowSize = 2 << 20
	DefaultH2MaxFrameSize            = 16 << 10
	DefaultH2MaxHeaderListSize       = 16 << 10
	DefaultH2KeepAliveTimeout        = 20 * time.Second

	DefaultAuthEnabled = false

	DefaultRateLimitEnabled = false
	DefaultRateLimitKeyType = "api_key"

	DefaultRetryMaxRetries = 3
	DefaultRetryBaseDelay  = 1 * time.Second
	DefaultRetryMaxDelay   = 30 * time.Second
	DefaultRetryMultiplier = 2.0

	DefaultCompressionEnabled = false
	DefaultCompressionMinSize = 1024

	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingRedactPII  = true
	DefaultLoggingBufferSize = 10000

	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "weft"
	DefaultMetricsSubsystem = "dispatch"

	DefaultTracingEnabled     = false
	DefaultTracingServiceName = "weft"
	DefaultTracingInsecure    = true
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1

	DefaultAuditEnabled       = true
	DefaultAuditDBPath        = "data/audit.db"
	DefaultAuditAsyncBuffer   = 1000
	DefaultAuditRedactAPIKeys = true
	DefaultAuditRetentionDays = 90
	DefaultAuditPruneSchedule = "0 3 * * *"
)

// ApplyDefaults fills zero-valued fields of cfg with their documented
// defaults. It is idempotent: calling it twice has no further effect.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyUpstreamDefaults(&cfg.Upstream)
	applyH2ClientDefaults(&cfg.H2Client)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyRetryDefaults(&cfg.Retry)
	applyCompressionDefaults(&cfg.Compression)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyAuditDefaults(&cfg.Audit)
}

func applyServerDefaults(c *ServerConfig) {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.ProxyProtocol.ReadTimeout == 0 {
		c.ProxyProtocol.ReadTimeout = DefaultProxyProtocolReadTimeout
	}
}

func applyUpstreamDefaults(c *UpstreamConfig) {
	if c.Strategy == "" {
		c.Strategy = DefaultUpstreamStrategy
	}
	for i := range c.Targets {
		if c.Targets[i].Weight == 0 {
			c.Targets[i].Weight = DefaultUpstreamTargetWeight
		}
	}
	if c.Sticky.TTL == 0 {
		c.Sticky.TTL = DefaultStickyTTL
	}
	if c.Sticky.KeyType == "" {
		c.Sticky.KeyType = DefaultStickyKeyType
	}
	if c.Sticky.KeyName == "" {
		c.Sticky.KeyName = DefaultStickyKeyName
	}
}

func applyH2ClientDefaults(c *H2ClientConfig) {
	if c.InitialConnWindowSize == 0 {
		c.InitialConnWindowSize = DefaultH2InitialConnWindowSize
	}
	if c.InitialStreamWindowSize == 0 {
		c.InitialStreamWindowSize = DefaultH2InitialStreamWindowSize
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = DefaultH2MaxFrameSize
	}
	if c.MaxHeaderListSize == 0 {
		c.MaxHeaderListSize = DefaultH2MaxHeaderListSize
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = DefaultH2KeepAliveTimeout
	}
}

func applyRateLimitDefaults(c *RateLimitConfig) {
	if c.KeyType == "" {
		c.KeyType = DefaultRateLimitKeyType
	}
}

func applyRetryDefaults(c *RetryConfig) {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultRetryMaxRetries
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = DefaultRetryBaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = DefaultRetryMaxDelay
	}
	if c.Multiplier == 0 {
		c.Multiplier = DefaultRetryMultiplier
	}
}

func applyCompressionDefaults(c *CompressionConfig) {
	if c.MinSize == 0 {
		c.MinSize = DefaultCompressionMinSize
	}
}

func applyTelemetryDefaults(c *TelemetryConfig) {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLoggingLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLoggingFormat
	}
	if c.Logging.BufferSize == 0 {
		c.Logging.BufferSize = DefaultLoggingBufferSize
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Metrics.Subsystem == "" {
		c.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(c.Metrics.DurationBuckets) == 0 {
		c.Metrics.DurationBuckets = DefaultMetricsDurationBuckets
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultTracingServiceName
	}
	if c.Tracing.Sampler == "" {
		c.Tracing.Sampler = DefaultTracingSampler
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
}

func applyAuditDefaults(c *AuditConfig) {
	if c.DBPath == "" {
		c.DBPath = DefaultAuditDBPath
	}
	if c.AsyncBuffer == 0 {
		c.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if c.Retention.PruneSchedule == "" {
		c.Retention.PruneSchedule = DefaultAuditPruneSchedule
	}
}
