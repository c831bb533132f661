package server

import (
	"crypto/tls"
	"log/slog"
	"time"

	"weft/audit"
	"weft/config"
	"weft/ext"
	"weft/h2client"
	"weft/layer/auth"
	"weft/layer/compression"
	"weft/layer/ratelimit"
	"weft/layer/retry"
	"weft/layer/tracing"
	"weft/layer/upstream"
	"weft/logging"
	"weft/metrics"
	"weft/service"
	"weft/wcontext"
	"weft/werror"
)

// dispatchTargets builds a Service dispatching directly to whatever
// upstream.Selected was published into the request's Extensions by the
// upstream.Layer, via a shared h2client connection pool.
func dispatchTargets[S any](pool *h2client.Pool, tlsCfg *tls.Config) service.Service[S] {
	return service.ServiceFunc[S](func(wctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		selected, ok := ext.Get[upstream.Selected](req.Ext)
		target := req.URL.Host
		if ok {
			target = selected.Target.Addr
		}
		dispatcher := h2client.NewDispatcher[S](pool, target, tlsCfg)
		return dispatcher.Serve(wctx, req)
	})
}

// upstreamStrategy builds the upstream.Strategy named by cfg.
func upstreamStrategy(cfg config.UpstreamConfig) upstream.Strategy {
	var base upstream.Strategy
	switch cfg.Strategy {
	case "sticky":
		base = newStickyStrategy(cfg)
	case "manual":
		base = upstream.NewManualStrategy(upstream.NewRoundRobinStrategy(), true)
	case "health-based":
		base = upstream.NewHealthBasedStrategy(upstream.NewRoundRobinStrategy(), cfg.HealthBased.RequireHealthy)
	default:
		base = upstream.NewRoundRobinStrategy()
	}
	return base
}

func newStickyStrategy(cfg config.UpstreamConfig) *upstream.StickyStrategy {
	keyName := cfg.Sticky.KeyName
	if keyName == "" {
		keyName = "X-Session-ID"
	}
	var keyFn upstream.KeyFunc
	switch cfg.Sticky.KeyType {
	case "remote_addr":
		keyFn = func(req *service.Request) string { return req.Header.Get("X-Forwarded-For") }
	case "query":
		keyFn = func(req *service.Request) string { return req.URL.Query().Get(keyName) }
	default:
		keyFn = func(req *service.Request) string { return req.Header.Get(keyName) }
	}
	return upstream.NewStickyStrategy(keyFn, upstream.NewRoundRobinStrategy(), cfg.Sticky.TTL)
}

func staticTargets(cfg config.UpstreamConfig) upstream.TargetsFunc {
	targets := make([]upstream.Target, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		weight := t.Weight
		if weight <= 0 {
			weight = 1
		}
		targets = append(targets, upstream.Target{Name: t.Name, Addr: t.Addr, Weight: weight, Healthy: true})
	}
	return func(_ *service.Request) []upstream.Target { return targets }
}

func authSources(cfg config.AuthConfig) []auth.Source {
	sources := make([]auth.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		switch s.Type {
		case "query":
			sources = append(sources, auth.QuerySource(s.Name))
		default:
			sources = append(sources, auth.HeaderSource(s.Name, s.Scheme))
		}
	}
	if len(sources) == 0 {
		sources = append(sources, auth.HeaderSource("Authorization", "Bearer"))
	}
	return sources
}

func authStore(cfg config.AuthConfig) auth.Store {
	keys := make([]*auth.Info, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys = append(keys, &auth.Info{Key: k.Key, UserID: k.UserID, TeamID: k.TeamID, Enabled: k.Enabled})
	}
	return auth.NewValidator(keys)
}

func rateLimitKeyFunc(keyType string) ratelimit.KeyFunc {
	if keyType == "remote_addr" {
		return func(req *service.Request) string { return req.Header.Get("X-Forwarded-For") }
	}
	return func(req *service.Request) string { return req.Header.Get("Authorization") }
}

func rateLimitConfig(d config.RateLimitDimensions) ratelimit.Config {
	return ratelimit.Config{
		RequestsPerSecond: d.RequestsPerSecond,
		RequestsPerMinute: d.RequestsPerMinute,
		RequestsPerHour:   d.RequestsPerHour,
		CostPerMinute:     d.CostPerMinute,
		CostPerHour:       d.CostPerHour,
		MaxConcurrent:     d.MaxConcurrent,
	}
}

// auditLayer wraps inner, writing one audit.Record per completed
// round trip and publishing dispatch duration/error metrics -- the
// "metrics" and "audit" steps of the configured chain order, collapsed
// into a single Layer since neither metrics.Collector nor
// audit.Recorder is itself a service.Layer (both are plain recorders
// invoked from wherever a request completes).
func auditLayer[S any](collector *metrics.Collector, recorder *audit.Recorder) service.Layer[S] {
	return service.LayerFunc[S](func(inner service.Service[S]) service.Service[S] {
		return service.ServiceFunc[S](func(wctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
			var rec *audit.Record
			if recorder != nil {
				rec = recorder.NewRecord()
				rec.Method = req.Method
				rec.Path = req.URL.Path
				rec.APIKey = req.Header.Get("Authorization")
				if info, ok := ext.Get[auth.Info](req.Ext); ok {
					rec.UserID = info.UserID
					rec.TeamID = info.TeamID
				}
			}

			start := time.Now()
			resp, err := inner.Serve(wctx, req)
			duration := time.Since(start)

			target := req.URL.Host
			if selected, ok := ext.Get[upstream.Selected](req.Ext); ok {
				target = selected.Target.Addr
			}

			if collector != nil {
				status := "ok"
				if err != nil {
					status = "error"
					collector.RecordDispatchError(target, werror.KindOf(err).String())
				}
				collector.RecordDispatch(target, status, duration)
			}
			if rec != nil {
				rec.Target = target
				rec.Duration = duration
				if err != nil {
					rec.Error = err.Error()
				} else if resp != nil {
					rec.Status = resp.StatusCode
				}
				recorder.Record(rec)
			}

			return resp, err
		})
	})
}

// buildChain assembles the full request-processing chain in the order
// SPEC_FULL.md §4.10 names: tracing -> metrics/audit -> auth ->
// ratelimit -> retry -> compression -> upstream selection -> H2
// dispatch.
func buildChain[S any](cfg *config.Config, logger *logging.Logger, slogger *slog.Logger, collector *metrics.Collector, recorder *audit.Recorder, tracer *tracing.Tracer, pool *h2client.Pool, upstreamTLS *tls.Config) service.Service[S] {
	layers := []service.Layer[S]{
		tracing.NewLayer[S](tracer),
		auditLayer[S](collector, recorder),
	}

	if cfg.Auth.Enabled {
		layers = append(layers, auth.NewLayer[S](authStore(cfg.Auth), authSources(cfg.Auth), slogger))
	}

	if cfg.RateLimit.Enabled {
		keyFn := rateLimitKeyFunc(cfg.RateLimit.KeyType)
		rlConfig := rateLimitConfig(cfg.RateLimit.Default)
		layers = append(layers, ratelimit.NewLayer[S](keyFn, rlConfig, func(resp *service.Response) int {
			n, _ := resp.ContentLength()
			return int(n)
		}))
	}

	layers = append(layers, retry.NewLayer[S](retry.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
		Multiplier: cfg.Retry.Multiplier,
	}, retry.Classify))

	if cfg.Compression.Enabled {
		layers = append(layers, compression.NewLayer[S](compression.Config{MinSize: cfg.Compression.MinSize}))
	}

	layers = append(layers, upstream.NewLayer[S](upstreamStrategy(cfg.Upstream), staticTargets(cfg.Upstream)))

	terminal := dispatchTargets[S](pool, upstreamTLS)
	return service.Chain(layers...).Layer(terminal)
}
