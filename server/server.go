package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"weft/audit"
	"weft/config"
	"weft/h2client"
	"weft/layer/tracing"
	"weft/logging"
	"weft/metrics"
	"weft/service"
	"weft/wcontext"
)

// State is the per-request state threaded through every weft
// wcontext.Context in the serve command. The chain does not currently
// need any request-scoped state of its own -- every concern publishes
// what it needs via the request's Extensions bag -- so State carries
// nothing.
type State struct{}

// Server is the proxy's listening frontend: it accepts inbound
// connections (optionally PROXY-protocol-prefixed), decodes HTTP
// requests off them, and runs each one through the configured layer
// chain before returning a response. It mirrors the teacher's
// pkg/server.Server Start/Shutdown lifecycle, generalized from a fixed
// http.ServeMux of LLM routes onto weft's Service/Layer chain.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	audit   *audit.Recorder
	sched   *audit.Scheduler
	tracer  *tracing.Tracer
	pool    *h2client.Pool
	reaper  *h2client.Reaper

	httpServer *http.Server
	listener   net.Listener

	// chain is swapped atomically by Reload so an in-flight request
	// always sees a complete, internally consistent chain built from a
	// single config snapshot -- no core package reads s.cfg directly
	// mid-request.
	chain atomic.Pointer[chainHolder]

	mu        sync.Mutex
	isRunning bool
}

// chainHolder lets an interface value (service.Service[State]) live
// behind an atomic.Pointer, which requires a concrete pointee.
type chainHolder struct {
	chain service.Service[State]
}

// New builds a Server and its full subsystem set (logging, metrics,
// audit, tracing, the H2 client pool and reaper) from cfg. Callers
// must call Close when finished, whether or not Start was ever called.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:      cfg.Telemetry.Logging.Level,
		Format:     cfg.Telemetry.Logging.Format,
		AddSource:  cfg.Telemetry.Logging.AddSource,
		RedactPII:  cfg.Telemetry.Logging.RedactPII,
		BufferSize: cfg.Telemetry.Logging.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("server: building logger: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	recorder, sched, err := audit.New(cfg.Audit, logger, collector)
	if err != nil {
		return nil, fmt.Errorf("server: building audit subsystem: %w", err)
	}

	tracer, err := tracing.New(tracing.Config{
		Enabled:     cfg.Telemetry.Tracing.Enabled,
		ServiceName: cfg.Telemetry.Tracing.ServiceName,
		Endpoint:    cfg.Telemetry.Tracing.Endpoint,
		Insecure:    cfg.Telemetry.Tracing.Insecure,
		Sampler:     cfg.Telemetry.Tracing.Sampler,
		SampleRatio: cfg.Telemetry.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("server: building tracer: %w", err)
	}

	h2cfg := h2client.NewConfig()
	h2cfg.AdaptiveWindow = cfg.H2Client.AdaptiveWindow
	if cfg.H2Client.InitialConnWindowSize > 0 {
		h2cfg.InitialConnWindowSize = cfg.H2Client.InitialConnWindowSize
	}
	if cfg.H2Client.InitialStreamWindowSize > 0 {
		h2cfg.InitialStreamWindowSize = cfg.H2Client.InitialStreamWindowSize
	}
	if cfg.H2Client.MaxFrameSize > 0 {
		h2cfg.MaxFrameSize = cfg.H2Client.MaxFrameSize
	}
	if cfg.H2Client.MaxHeaderListSize > 0 {
		h2cfg.MaxHeaderListSize = cfg.H2Client.MaxHeaderListSize
	}
	h2cfg.KeepAliveInterval = cfg.H2Client.KeepAliveInterval
	if cfg.H2Client.KeepAliveTimeout > 0 {
		h2cfg.KeepAliveTimeout = cfg.H2Client.KeepAliveTimeout
	}
	h2cfg.MaxConcurrentStreams = cfg.H2Client.MaxConcurrentStreams
	if err := h2cfg.Validate(); err != nil {
		return nil, fmt.Errorf("server: invalid h2client config: %w", err)
	}

	pool, err := h2client.NewPool(h2cfg)
	if err != nil {
		return nil, fmt.Errorf("server: building connection pool: %w", err)
	}

	reaper := h2client.NewReaper(pool, h2client.ReaperConfig{}, logger.Slog())

	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		audit:   recorder,
		sched:   sched,
		tracer:  tracer,
		pool:    pool,
		reaper:  reaper,
	}, nil
}

func (s *Server) upstreamTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: s.cfg.Upstream.TLS.InsecureSkipVerify,
		ServerName:         s.cfg.Upstream.TLS.ServerName,
	}
}

// Start opens the listener and serves until ctx is cancelled or an
// unrecoverable server error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server: already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.rebuildChain(s.cfg)

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Telemetry.Metrics.Path, s.metrics.Handler())
	mux.Handle("/", s.proxyHandler())

	s.httpServer = &http.Server{
		Handler: mux,
	}

	rawListener, err := net.Listen("tcp", s.cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Server.ListenAddress, err)
	}
	s.listener = newProxyProtoListener(rawListener, s.cfg.Server.ProxyProtocol)

	if err := s.reaper.Start(ctx); err != nil {
		s.logger.Error("connection reaper failed to start", "error", err)
	}
	if err := s.sched.Start(ctx); err != nil {
		s.logger.Error("audit retention scheduler failed to start", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "address", s.cfg.Server.ListenAddress, "proxy_protocol", s.cfg.Server.ProxyProtocol.Enabled)
		if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// rebuildChain constructs a fresh layer chain from cfg and atomically
// publishes it, so the next request (and every request already
// in-flight, which holds its own reference) observes either the old
// or the new chain in full, never a partial mix of the two.
func (s *Server) rebuildChain(cfg *config.Config) {
	chain := buildChain[State](cfg, s.logger, s.logger.Slog(), s.metrics, s.audit, s.tracer, s.pool, s.upstreamTLSConfig())
	s.chain.Store(&chainHolder{chain: chain})
}

// Reload rebuilds the layer chain from cfg without interrupting
// in-flight requests or restarting the listener, the hot-reload path
// SPEC_FULL.md §4.5 describes for the serve command.
func (s *Server) Reload(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.rebuildChain(cfg)
	s.logger.Info("configuration reloaded")
}

func (s *Server) proxyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := adaptRequest(r)
		wctx := wcontext.New(State{}, wcontext.GoExecutor{})

		chain := s.chain.Load().chain
		resp, err := chain.Serve(wctx, req)
		if err != nil {
			s.logger.Error("dispatch failed", "method", r.Method, "path", r.URL.Path, "error", err)
			writeError(w, err)
			return
		}
		if err := writeResponse(w, resp); err != nil {
			s.logger.Warn("writing response failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
	})
}

// Shutdown drains in-flight requests (bounded by Server.ShutdownTimeout)
// and stops every background subsystem.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.reaper.Stop()
	s.sched.Stop()
	s.pool.CloseIdleConnections()

	s.isRunning = false
	return firstErr
}

// Close releases resources that outlive a single Start/Shutdown cycle
// (the audit writer and its storage, the logger's async buffer).
func (s *Server) Close() error {
	var firstErr error
	if err := s.audit.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.logger.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
