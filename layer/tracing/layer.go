package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"weft/ext"
	"weft/layer/upstream"
	"weft/service"
	"weft/wcontext"
	"weft/werror"
)

// Layer wraps every request in a span named after the request method
// and path, extracting any inbound W3C trace context from the
// request's headers and injecting the (possibly new) span's context
// back into the outbound request before calling inner.
//
// wcontext.Context carries no context.Context of its own (§3.2:
// cancellation here is a polled CancelToken, not ctx.Done()), so this
// layer keeps its span's context.Context local to the call rather than
// threading it through wctx.
type Layer[S any] struct {
	tracer *Tracer
}

// NewLayer builds a tracing Layer from an already-constructed Tracer.
func NewLayer[S any](tracer *Tracer) *Layer[S] {
	return &Layer[S]{tracer: tracer}
}

func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(wctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		goCtx := Extract(context.Background(), req.Header)

		spanName := req.Method + " " + req.URL.Path
		goCtx, span := l.tracer.Start(goCtx, spanName, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		SetRequestAttributes(span, req.Method, req.URL.Path)
		Inject(goCtx, req.Header)

		start := time.Now()
		resp, err := inner.Serve(wctx, req)
		SetDurationAttribute(span, time.Since(start).Milliseconds())

		if selected, ok := ext.Get[upstream.Selected](req.Ext); ok {
			SetTargetAttributes(span, selected.Target.Addr, "")
		}

		if err != nil {
			SetErrorAttributes(span, err, werror.KindOf(err).String())
			return nil, err
		}

		SetStatusAttribute(span, resp.StatusCode)
		if resp.StatusCode >= 500 {
			span.SetStatus(codes.Error, "")
		}
		return resp, nil
	})
}
