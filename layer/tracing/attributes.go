package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys, namespaced under "weft.*" alongside standard
// OpenTelemetry semantic conventions (http.*, net.*).
const (
	AttrTarget   = "weft.target"
	AttrStrategy = "weft.upstream.strategy"

	AttrRequestMethod = "http.method"
	AttrRequestPath   = "http.target"
	AttrStatusCode    = "http.status_code"

	AttrCacheHit  = "weft.cache.hit"
	AttrCacheName = "weft.cache.name"

	AttrErrorType    = "weft.error.kind"
	AttrErrorMessage = "error.message"

	AttrDuration   = "weft.duration_ms"
	AttrRetryCount = "weft.retry_count"
)

// SetRequestAttributes sets method/path attributes on a span.
func SetRequestAttributes(span trace.Span, method, path string) {
	span.SetAttributes(
		attribute.String(AttrRequestMethod, method),
		attribute.String(AttrRequestPath, path),
	)
}

// SetTargetAttributes sets the selected upstream target and the
// strategy that chose it.
func SetTargetAttributes(span trace.Span, target, strategy string) {
	attrs := []attribute.KeyValue{attribute.String(AttrTarget, target)}
	if strategy != "" {
		attrs = append(attrs, attribute.String(AttrStrategy, strategy))
	}
	span.SetAttributes(attrs...)
}

// SetStatusAttribute sets the response status code attribute.
func SetStatusAttribute(span trace.Span, statusCode int) {
	span.SetAttributes(attribute.Int(AttrStatusCode, statusCode))
}

// SetCacheAttributes sets cache-hit attributes on a span.
func SetCacheAttributes(span trace.Span, hit bool, cacheName string) {
	span.SetAttributes(
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheName, cacheName),
	)
}

// SetErrorAttributes records err on the span, sets its status to
// Error, and tags it with a caller-supplied error kind (typically
// werror.Kind.String()).
func SetErrorAttributes(span trace.Span, err error, errorKind string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorKind),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute, in milliseconds.
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry-count attribute on a span.
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AttributeBuilder provides a fluent interface for building span
// attributes incrementally before a span exists (e.g. from a Layer
// that hasn't yet called Start).
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

// WithRequest adds method/path attributes.
func (ab *AttributeBuilder) WithRequest(method, path string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrRequestMethod, method),
		attribute.String(AttrRequestPath, path),
	)
	return ab
}

// WithTarget adds the selected upstream target.
func (ab *AttributeBuilder) WithTarget(target string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrTarget, target))
	return ab
}

// WithCache adds cache-hit attributes.
func (ab *AttributeBuilder) WithCache(hit bool, cacheName string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheName, cacheName),
	)
	return ab
}

// WithCustom adds an attribute of an arbitrary supported type,
// falling back to a string representation for unrecognized types.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to an already-started span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}
