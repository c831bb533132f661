package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific
// configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.,
	// "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail, or nil otherwise. All
// errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateH2Client(&cfg.H2Client)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(c *ServerConfig) []FieldError {
	var errs []FieldError
	if c.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must not be negative"})
	}
	if c.ProxyProtocol.ReadTimeout <= 0 {
		errs = append(errs, FieldError{"server.proxy_protocol.read_timeout", "must be positive"})
	}
	for i, cidr := range c.ProxyProtocol.TrustedProxies {
		if cidr == "" {
			errs = append(errs, FieldError{
				fmt.Sprintf("server.proxy_protocol.trusted_proxies[%d]", i),
				"must not be empty",
			})
		}
	}
	return errs
}

func validateUpstream(c *UpstreamConfig) []FieldError {
	var errs []FieldError
	switch c.Strategy {
	case "round-robin", "sticky", "manual", "health-based":
	default:
		errs = append(errs, FieldError{"upstream.strategy", fmt.Sprintf("unknown strategy %q", c.Strategy)})
	}
	if len(c.Targets) == 0 {
		errs = append(errs, FieldError{"upstream.targets", "must contain at least one target"})
	}
	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if t.Name == "" {
			errs = append(errs, FieldError{fmt.Sprintf("upstream.targets[%d].name", i), "must not be empty"})
		}
		if t.Addr == "" {
			errs = append(errs, FieldError{fmt.Sprintf("upstream.targets[%d].addr", i), "must not be empty"})
		}
		if seen[t.Name] {
			errs = append(errs, FieldError{fmt.Sprintf("upstream.targets[%d].name", i), fmt.Sprintf("duplicate target name %q", t.Name)})
		}
		seen[t.Name] = true
		if t.Weight < 0 {
			errs = append(errs, FieldError{fmt.Sprintf("upstream.targets[%d].weight", i), "must not be negative"})
		}
	}
	if c.Strategy == "sticky" {
		switch c.Sticky.KeyType {
		case "header", "query", "remote_addr":
		default:
			errs = append(errs, FieldError{"upstream.sticky.key_type", fmt.Sprintf("unknown key_type %q", c.Sticky.KeyType)})
		}
	}
	return errs
}

func validateH2Client(c *H2ClientConfig) []FieldError {
	var errs []FieldError
	if c.InitialConnWindowSize <= 0 {
		errs = append(errs, FieldError{"h2client.initial_conn_window_size", "must be positive"})
	}
	if c.InitialStreamWindowSize <= 0 {
		errs = append(errs, FieldError{"h2client.initial_stream_window_size", "must be positive"})
	}
	if c.MaxFrameSize < 16384 || c.MaxFrameSize > 16777215 {
		errs = append(errs, FieldError{"h2client.max_frame_size", "must be within [16384, 16777215]"})
	}
	if c.KeepAliveTimeout <= 0 {
		errs = append(errs, FieldError{"h2client.keep_alive_timeout", "must be positive"})
	}
	if c.KeepAliveInterval < 0 {
		errs = append(errs, FieldError{"h2client.keep_alive_interval", "must not be negative"})
	}
	return errs
}

func validateAuth(c *AuthConfig) []FieldError {
	var errs []FieldError
	if !c.Enabled {
		return errs
	}
	if len(c.Sources) == 0 {
		errs = append(errs, FieldError{"auth.sources", "must contain at least one source when auth is enabled"})
	}
	for i, s := range c.Sources {
		switch s.Type {
		case "header", "query":
		default:
			errs = append(errs, FieldError{fmt.Sprintf("auth.sources[%d].type", i), fmt.Sprintf("unknown source type %q", s.Type)})
		}
		if s.Name == "" {
			errs = append(errs, FieldError{fmt.Sprintf("auth.sources[%d].name", i), "must not be empty"})
		}
	}
	if len(c.Keys) == 0 {
		errs = append(errs, FieldError{"auth.keys", "must contain at least one key when auth is enabled"})
	}
	seen := make(map[string]bool, len(c.Keys))
	for i, k := range c.Keys {
		if k.Key == "" {
			errs = append(errs, FieldError{fmt.Sprintf("auth.keys[%d].key", i), "must not be empty"})
		}
		if seen[k.Key] {
			errs = append(errs, FieldError{fmt.Sprintf("auth.keys[%d].key", i), "duplicate key value"})
		}
		seen[k.Key] = true
	}
	return errs
}

func validateRetry(c *RetryConfig) []FieldError {
	var errs []FieldError
	if c.MaxRetries < 0 {
		errs = append(errs, FieldError{"retry.max_retries", "must not be negative"})
	}
	if c.BaseDelay < 0 {
		errs = append(errs, FieldError{"retry.base_delay", "must not be negative"})
	}
	if c.MaxDelay < c.BaseDelay {
		errs = append(errs, FieldError{"retry.max_delay", "must not be less than base_delay"})
	}
	return errs
}

func validateTelemetry(c *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level)})
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format)})
	}
	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{"telemetry.tracing.endpoint", "must not be empty when tracing is enabled"})
		}
		switch c.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{"telemetry.tracing.sampler", fmt.Sprintf("unknown sampler %q", c.Tracing.Sampler)})
		}
		if c.Tracing.Sampler == "ratio" && (c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1) {
			errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "must be within [0, 1]"})
		}
	}
	return errs
}

func validateAudit(c *AuditConfig) []FieldError {
	var errs []FieldError
	if !c.Enabled {
		return errs
	}
	if c.DBPath == "" {
		errs = append(errs, FieldError{"audit.db_path", "must not be empty when audit is enabled"})
	}
	if c.Retention.Days < 0 {
		errs = append(errs, FieldError{"audit.retention.days", "must not be negative"})
	}
	return errs
}
