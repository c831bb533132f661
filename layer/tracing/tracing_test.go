package tracing

import (
	"context"
	"net/url"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"weft/ext"
	"weft/layer/upstream"
	"weft/service"
	"weft/wcontext"
)

func newTracingReq(t *testing.T) *service.Request {
	t.Helper()
	u, err := url.Parse("/v1/resource")
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	return service.NewRequest("GET", u, nil)
}

func noopTracer(t *testing.T) *Tracer {
	t.Helper()
	tr, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestCreateSamplerStrategies(t *testing.T) {
	if _, err := createSampler(SamplerAlways, 0); err != nil {
		t.Errorf("createSampler(always) error = %v", err)
	}
	if _, err := createSampler(SamplerNever, 0); err != nil {
		t.Errorf("createSampler(never) error = %v", err)
	}
	if _, err := createSampler(SamplerRatio, 0.5); err != nil {
		t.Errorf("createSampler(ratio, 0.5) error = %v", err)
	}
	if _, err := createSampler(SamplerRatio, 1.5); err == nil {
		t.Error("expected an out-of-range ratio to error")
	}
	if _, err := createSampler("bogus", 0); err == nil {
		t.Error("expected an unknown strategy to error")
	}
}

func TestValidateTraceParent(t *testing.T) {
	valid := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if !ValidateTraceParent(valid) {
		t.Errorf("expected %q to be valid", valid)
	}
	if ValidateTraceParent("not-a-traceparent") {
		t.Error("expected a malformed header to be invalid")
	}
	if ValidateTraceParent("00-00000000000000000000000000000000-00f067aa0ba902b7-01") {
		t.Error("expected an all-zero trace ID to be invalid")
	}
}

func TestIsSampledFromTraceParent(t *testing.T) {
	sampled := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	unsampled := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00"
	if !IsSampledFromTraceParent(sampled) {
		t.Error("expected flags 01 to report sampled")
	}
	if IsSampledFromTraceParent(unsampled) {
		t.Error("expected flags 00 to report not sampled")
	}
}

func TestLayerInjectsTraceparentAndCallsInner(t *testing.T) {
	// A disabled Tracer records no span and so has no context to
	// inject; use an in-process SDK provider with no exporter instead.
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { tp.Shutdown(context.Background()) })
	tr := &Tracer{tracer: tp.Tracer("weft"), provider: tp, enabled: true}
	l := NewLayer[struct{}](tr)

	called := false
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		called = true
		if req.Header.Get("traceparent") == "" {
			t.Error("expected traceparent to be injected into the outbound request")
		}
		return service.NewResponse(200, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	resp, err := svc.Serve(ctx, newTracingReq(t))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if !called {
		t.Fatal("expected inner service to be called")
	}
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

func TestLayerReadsSelectedTargetFromExtensions(t *testing.T) {
	tr := noopTracer(t)
	l := NewLayer[struct{}](tr)

	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		ext.Insert(req.Ext, upstream.Selected{Target: upstream.Target{Name: "a", Addr: "10.0.0.1:443"}})
		return service.NewResponse(200, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	if _, err := svc.Serve(ctx, newTracingReq(t)); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
}
