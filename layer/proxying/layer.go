// Package proxying implements matcher-routed dispatch: a top-level
// Layer that picks between several candidate backend Services by
// evaluating each Route's Matcher in declared order, first match
// wins, falling back to a configured default. It generalizes the
// teacher's RoutingStrategy precedence chain ("policy override, manual
// override, configured strategy, default provider" in
// pkg/routing/router_impl.go's RouteRequest) from a closed set of
// routing concerns baked into one struct onto an open, ordered list of
// (Matcher, Service) pairs -- any matcher combinator from the matcher
// package can express a "policy override" or "manual override" as just
// another, earlier Route.
package proxying

import (
	"weft/matcher"
	"weft/service"
	"weft/wcontext"
	"weft/werror"
)

// Route pairs a predicate with the backend Service to dispatch to when
// it holds.
type Route[S any] struct {
	Name    string
	Matches matcher.Matcher[S, *service.Request]
	Backend service.Service[S]
}

// Layer evaluates Routes in order and dispatches to the first whose
// Matcher holds. If none match, it falls through to whatever Service
// it was applied to (its "inner", in the Layer sense) -- matching
// Chain's rule that a Layer wraps rather than replaces what is inside
// it. A proxying.Layer with no fallback route of its own should be
// applied to a Service that itself fails the request appropriately
// (werror.New(werror.KindConfigInvalid, ...) for "no route matched").
type Layer[S any] struct {
	routes []Route[S]
}

// NewLayer builds a proxying Layer over routes, evaluated in the
// given order.
func NewLayer[S any](routes []Route[S]) *Layer[S] {
	return &Layer[S]{routes: routes}
}

// Layer implements service.Layer.
func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		extensions := ctx.Extensions()
		for _, route := range l.routes {
			if route.Matches.Matches(extensions, ctx, req) {
				return route.Backend.Serve(ctx, req)
			}
		}
		return inner.Serve(ctx, req)
	})
}

// NoRoute is a Service that fails any request reaching it with
// KindConfigInvalid, for use as the terminal fallback below a
// proxying.Layer when no Route should ever go unmatched.
func NoRoute[S any]() service.Service[S] {
	return service.ServiceFunc[S](func(_ *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		return nil, werror.New(werror.KindConfigInvalid, "proxying: no route matched "+req.Method+" "+req.URL.Path)
	})
}
