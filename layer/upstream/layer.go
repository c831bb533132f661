package upstream

import (
	"weft/ext"
	"weft/service"
	"weft/wcontext"
)

// Selected is published into the request's Extensions bag once a
// target has been chosen, so downstream layers (metrics, audit) can
// record which target served the request without re-running the
// strategy.
type Selected struct {
	Target Target
}

// TargetsFunc returns the currently available targets for req. Wiring
// this as a function rather than a static slice lets a caller swap the
// live set under config hot-reload without rebuilding the layer.
type TargetsFunc func(req *service.Request) []Target

// Layer selects a Target via Strategy and rewrites the request's host
// before calling the inner service, the way the teacher's router picks
// a provider and rewrites the outbound request before dispatch.
type Layer[S any] struct {
	strategy Strategy
	targets  TargetsFunc
}

// NewLayer returns a Layer that chooses among targets() using
// strategy.
func NewLayer[S any](strategy Strategy, targets TargetsFunc) *Layer[S] {
	return &Layer[S]{strategy: strategy, targets: targets}
}

// Layer implements service.Layer[S].
func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		available := l.targets(req)
		target, err := l.strategy.Select(req, available)
		if err != nil {
			return nil, err
		}

		req.URL.Host = target.Addr
		ext.Insert(req.Ext, Selected{Target: target})

		return inner.Serve(ctx, req)
	})
}
