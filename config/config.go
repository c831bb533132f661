// Package config is the layered configuration surface for a weft
// deployment: a root Config struct loaded from YAML, filled out with
// defaults, overridden by environment variables, and validated before
// the server wires its layer stack from it.
package config

import "time"

// Config is the root configuration structure for a weft deployment.
// Every layer package in layer/* and the dispatch engine in h2client
// has a corresponding section here.
type Config struct {
	// Server contains listener and PROXY protocol configuration.
	Server ServerConfig `yaml:"server"`

	// Upstream contains backend target and selection strategy configuration.
	Upstream UpstreamConfig `yaml:"upstream"`

	// H2Client contains the HTTP/2 dispatch engine's transport configuration.
	H2Client H2ClientConfig `yaml:"h2client"`

	// Auth contains API key authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit contains per-key rate limiting configuration.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Retry contains upstream retry and backoff configuration.
	Retry RetryConfig `yaml:"retry"`

	// Compression contains request/response body compression configuration.
	Compression CompressionConfig `yaml:"compression"`

	// Telemetry contains logging, metrics, and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Audit contains request audit trail configuration.
	Audit AuditConfig `yaml:"audit"`
}

// ServerConfig contains configuration for the proxy's listener.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "0.0.0.0:8443").
	// Default: "127.0.0.1:8443"
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before forcing in-flight connections closed.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ProxyProtocol configures PROXY protocol header handling on accepted
	// connections.
	ProxyProtocol ProxyProtocolConfig `yaml:"proxy_protocol"`
}

// ProxyProtocolConfig configures PROXY protocol v1/v2 decoding on
// inbound connections.
type ProxyProtocolConfig struct {
	// Enabled controls whether inbound connections are expected to carry
	// a PROXY protocol header before the TLS/HTTP2 handshake.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Required rejects connections that do not present a valid header
	// when Enabled is true. When false, a missing header falls back to
	// the raw socket's peer address.
	// Default: true
	Required bool `yaml:"required"`

	// ReadTimeout bounds how long to wait for the header before the
	// connection is dropped.
	// Default: 5s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// TrustedProxies restricts which peer addresses are allowed to send
	// a PROXY protocol header, expressed as CIDR blocks. Empty means
	// any peer is trusted (only safe behind a dedicated load balancer
	// network).
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// UpstreamConfig contains backend target and selection strategy
// configuration for the upstream layer.
type UpstreamConfig struct {
	// Strategy selects how a Target is picked from Targets.
	// Options: "round-robin", "sticky", "manual", "health-based"
	// Default: "round-robin"
	Strategy string `yaml:"strategy"`

	// Targets is the set of routable backends.
	Targets []TargetConfig `yaml:"targets"`

	// Sticky contains sticky-strategy configuration, used when Strategy
	// is "sticky" or wraps a sticky fallback.
	Sticky StickyConfig `yaml:"sticky"`

	// HealthBased contains health-based strategy configuration.
	HealthBased HealthBasedConfig `yaml:"health_based"`

	// TLS contains the TLS client configuration the dispatch engine
	// uses to connect to Targets.
	TLS UpstreamTLSConfig `yaml:"tls"`
}

// TargetConfig describes one routable backend.
type TargetConfig struct {
	// Name identifies the target for sticky/manual selection and logs.
	Name string `yaml:"name"`

	// Addr is the target's "host:port".
	Addr string `yaml:"addr"`

	// Weight biases round-robin selection. Default: 1
	Weight int `yaml:"weight"`
}

// StickyConfig contains sticky-strategy configuration.
type StickyConfig struct {
	// TTL is the time-to-live for sticky routing entries. Zero means no
	// expiry.
	// Default: 1h
	TTL time.Duration `yaml:"ttl"`

	// KeyType specifies which field to derive the sticky key from.
	// Options: "header", "query", "remote_addr"
	// Default: "header"
	KeyType string `yaml:"key_type"`

	// KeyName is the header or query parameter name when KeyType is
	// "header" or "query".
	// Default: "X-Session-ID"
	KeyName string `yaml:"key_name"`
}

// HealthBasedConfig contains health-based strategy configuration.
type HealthBasedConfig struct {
	// RequireHealthy controls whether only healthy targets are eligible.
	// Default: true
	RequireHealthy bool `yaml:"require_healthy"`
}

// UpstreamTLSConfig contains TLS client configuration for dialing
// Targets.
type UpstreamTLSConfig struct {
	// InsecureSkipVerify disables upstream certificate verification.
	// Default: false
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// ServerName overrides the SNI/certificate name sent to the
	// upstream, when it differs from the target's address.
	ServerName string `yaml:"server_name"`
}

// H2ClientConfig mirrors h2client.Config's option surface (§6.4).
type H2ClientConfig struct {
	// AdaptiveWindow enables BDP-based flow-control window growth.
	// Default: false
	AdaptiveWindow bool `yaml:"adaptive_window"`

	// InitialConnWindowSize is the connection-level flow-control window.
	// Default: 5242880 (5 MiB)
	InitialConnWindowSize int32 `yaml:"initial_conn_window_size"`

	// InitialStreamWindowSize is the per-stream flow-control window.
	// Default: 2097152 (2 MiB)
	InitialStreamWindowSize int32 `yaml:"initial_stream_window_size"`

	// MaxFrameSize caps the HTTP/2 frame size.
	// Default: 16384 (16 KiB)
	MaxFrameSize uint32 `yaml:"max_frame_size"`

	// MaxHeaderListSize caps the decoded HPACK header list size.
	// Default: 16384 (16 KiB)
	MaxHeaderListSize uint32 `yaml:"max_header_list_size"`

	// KeepAliveInterval sends HTTP/2 PING frames on idle connections at
	// this cadence. Zero disables keep-alive pings.
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval"`

	// KeepAliveTimeout bounds how long to wait for a PING ACK before the
	// connection is considered dead.
	// Default: 20s
	KeepAliveTimeout time.Duration `yaml:"keep_alive_timeout"`

	// MaxConcurrentStreams caps the in-flight stream count per
	// connection, mirroring the upstream's SETTINGS value when set.
	MaxConcurrentStreams uint32 `yaml:"max_concurrent_streams"`
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	// Enabled controls whether API key authentication is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources defines where to extract API keys from a request, tried
	// in the given order.
	Sources []APIKeySourceConfig `yaml:"sources"`

	// Keys is the list of valid API keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeySourceConfig defines one place to look for an API key.
type APIKeySourceConfig struct {
	// Type is the source type.
	// Options: "header", "query"
	Type string `yaml:"type"`

	// Name is the header name or query parameter name.
	Name string `yaml:"name"`

	// Scheme is the authentication scheme prefix for header sources
	// (e.g. "Bearer"). Leave empty for raw value extraction.
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig contains configuration for a single API key.
type APIKeyConfig struct {
	// Key is the API key value.
	Key string `yaml:"key"`

	// UserID is the user identifier associated with this key.
	UserID string `yaml:"user_id"`

	// TeamID is the team identifier associated with this key.
	TeamID string `yaml:"team_id,omitempty"`

	// Enabled controls whether this key is accepted.
	// Default: true
	Enabled bool `yaml:"enabled"`
}

// RateLimitConfig contains per-key rate limiting configuration.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// KeyType specifies what identifies a rate-limit bucket.
	// Options: "api_key", "remote_addr"
	// Default: "api_key"
	KeyType string `yaml:"key_type"`

	// Default applies to any key without a per-key override.
	Default RateLimitDimensions `yaml:"default"`

	// ByKey contains per-API-key overrides, keyed by the key value.
	ByKey map[string]RateLimitDimensions `yaml:"by_key"`
}

// RateLimitDimensions mirrors ratelimit.Config's fields for YAML
// decoding.
type RateLimitDimensions struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour   int `yaml:"requests_per_hour"`
	CostPerMinute     int `yaml:"cost_per_minute"`
	CostPerHour       int `yaml:"cost_per_hour"`
	MaxConcurrent     int `yaml:"max_concurrent"`
}

// RetryConfig mirrors retry.Config's fields for YAML decoding.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// BaseDelay is the backoff delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the computed backoff delay.
	// Default: 30s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier scales the delay for each subsequent attempt.
	// Default: 2
	Multiplier float64 `yaml:"multiplier"`
}

// CompressionConfig contains request/response body compression
// configuration.
type CompressionConfig struct {
	// Enabled controls whether the compression layer is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// MinSize is the minimum request body size, in bytes, eligible for
	// compression.
	// Default: 1024
	MinSize uint64 `yaml:"min_size"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output encoding.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic redaction of API keys, emails, and IP
	// addresses in log attribute values.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// BufferSize is the size of the async log write buffer.
	// Default: 10000
	BufferSize int `yaml:"buffer_size"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "weft"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name's second-level prefix, forming
	// <namespace>_<subsystem>_<name>.
	// Default: "dispatch"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are the histogram buckets used for request and
	// dispatch latency observations, in seconds.
	// Default: {0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig mirrors tracing.Config's fields for YAML decoding.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is the service name attached to emitted spans.
	// Default: "weft"
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP/gRPC collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0), used
	// when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`
}

// AuditConfig contains request audit trail configuration.
type AuditConfig struct {
	// Enabled controls whether requests are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the audit SQLite database file.
	// Default: "data/audit.db"
	DBPath string `yaml:"db_path"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// RedactAPIKeys enables redaction of each record's API key before it
	// is stored.
	// Default: true
	RedactAPIKeys bool `yaml:"redact_api_keys"`

	// Retention contains pruning configuration for old audit records.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains audit record retention configuration.
type RetentionConfig struct {
	// Days is the number of days to retain audit records. Zero means
	// keep records forever.
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling the audit
	// retention pruner.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}
