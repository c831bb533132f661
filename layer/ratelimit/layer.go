package ratelimit

import (
	"sync"

	"weft/service"
	"weft/wcontext"
)

// KeyFunc extracts the rate-limit identifier for a request (a client
// IP, an API key, a tenant id). Requests sharing a key share a
// Limiter and therefore a budget.
type KeyFunc func(req *service.Request) string

// CostFunc extracts the abstract cost of a completed response (e.g.
// its body size) for Limiter.RecordCost. A nil CostFunc disables cost
// accounting; only the request-rate and concurrency dimensions are
// enforced.
type CostFunc func(resp *service.Response) int

// Layer enforces per-key rate limits ahead of the wrapped Service. It
// generalizes the teacher's fixed {user, api_key} keyed limiter
// registry to an arbitrary KeyFunc, the same generalization
// layer/upstream applies to the teacher's routing strategies.
type Layer[S any] struct {
	keyFn  KeyFunc
	config Config
	cost   CostFunc

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewLayer returns a rate-limiting Layer. Every distinct key seen via
// keyFn gets its own Limiter built from config; cost may be nil to
// disable cost accounting.
func NewLayer[S any](keyFn KeyFunc, config Config, cost CostFunc) *Layer[S] {
	return &Layer[S]{
		keyFn:    keyFn,
		config:   config,
		cost:     cost,
		limiters: make(map[string]*Limiter),
	}
}

func (l *Layer[S]) limiterFor(key string) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = NewLimiter(l.config)
		l.limiters[key] = lim
	}
	return lim
}

// Layer implements service.Layer[S].
func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		lim := l.limiterFor(l.keyFn(req))

		if result := lim.CheckRequest(); !result.Allowed {
			return nil, errRejected(result)
		}
		if l.cost != nil {
			if result := lim.CheckCost(0); !result.Allowed {
				return nil, errRejected(result)
			}
		}
		if !lim.AcquireConcurrent() {
			return nil, errConcurrencyRejected(lim.concurrent)
		}
		defer lim.ReleaseConcurrent()

		resp, err := inner.Serve(ctx, req)
		if err == nil && l.cost != nil {
			lim.RecordCost(l.cost(resp))
		}
		return resp, err
	})
}
