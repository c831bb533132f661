// Package tracing implements a Layer (§4.1) wrapping every request in
// an OpenTelemetry span, matching the teacher's pkg/telemetry/tracing
// package (OTLP/gRPC exporter, parent-based sampling, W3C Trace
// Context propagation) generalized from an LLM-provider-attributed
// span onto weft's Service/Request/Response model.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config configures the Tracer.
type Config struct {
	// Enabled gates whether spans are recorded and exported at all. If
	// false, New returns a noop Tracer at near-zero overhead.
	Enabled bool

	// ServiceName is the OpenTelemetry resource's service.name attribute.
	ServiceName string

	// Endpoint is the OTLP/gRPC collector address.
	Endpoint string

	// Insecure disables TLS on the OTLP connection (local collector).
	Insecure bool

	// Sampler selects the sampling strategy: "always", "never", "ratio".
	Sampler string

	// SampleRatio is the sampling probability when Sampler == "ratio".
	SampleRatio float64
}

// Tracer wraps an OpenTelemetry tracer with weft's simplified
// lifecycle (New/Start/Shutdown), matching the teacher's Tracer type.
type Tracer struct {
	config   Config
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	enabled  bool
}

// New builds a Tracer from cfg. If cfg.Enabled is false, a noop tracer
// is returned.
func New(cfg Config) (*Tracer, error) {
	t := &Tracer{config: cfg, enabled: cfg.Enabled}

	if !cfg.Enabled {
		t.tracer = trace.NewNoopTracerProvider().Tracer("weft")
		return t, nil
	}

	sampler, err := createSampler(cfg.Sampler, cfg.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithBlock()))

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := otlptracegrpc.NewClient(opts...)
	exporter, err := otlptrace.New(dialCtx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.tracer = t.provider.Tracer("weft")
	return t, nil
}

// Start begins a span, delegating to the wrapped trace.Tracer.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and releases exporter resources.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.enabled || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Enabled reports whether the tracer records real spans.
func (t *Tracer) Enabled() bool { return t.enabled }
