package h2client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ReaperConfig controls the idle-connection sweep (§4.9).
type ReaperConfig struct {
	// Schedule is a standard five-field cron expression; defaults to
	// "@every 1m" when empty.
	Schedule string
	// IdleThreshold is how long a connection may sit with no open
	// streams before the reaper closes it; defaults to 5 minutes when
	// zero.
	IdleThreshold time.Duration
}

// Reaper periodically sweeps a Pool for idle connections and triggers
// their graceful shutdown, the way the teacher's retention.Scheduler
// sweeps expired evidence rows on a cron schedule.
type Reaper struct {
	pool    *Pool
	cron    *cron.Cron
	cfg     ReaperConfig
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// NewReaper builds a Reaper over pool, filling unset ReaperConfig
// fields with their defaults.
func NewReaper(pool *Pool, cfg ReaperConfig, logger *slog.Logger) *Reaper {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{pool: pool, cron: cron.New(), cfg: cfg, logger: logger.With("component", "h2client.reaper")}
}

// Start begins the scheduled sweep and stops it when ctx is done,
// mirroring retention.Scheduler.Start(ctx).
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := cron.ParseStandard(r.cfg.Schedule); err != nil {
		return fmt.Errorf("h2client: invalid reaper schedule %q: %w", r.cfg.Schedule, err)
	}
	if _, err := r.cron.AddFunc(r.cfg.Schedule, r.sweep); err != nil {
		return fmt.Errorf("h2client: failed to schedule reaper: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("connection reaper started", "schedule", r.cfg.Schedule, "idle_threshold", r.cfg.IdleThreshold)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

func (r *Reaper) sweep() {
	var closed int
	for _, c := range r.pool.snapshot() {
		if c.openStreams.Load() > 0 {
			continue
		}
		if c.idleFor() < r.cfg.IdleThreshold {
			continue
		}
		// Mark for shutdown and stop handing c out for new requests
		// first, then either shut it down immediately (no live handles
		// left) or let the last Dispatcher.release() do it (§4.3.7):
		// Remove/state must be visible before the refs check below, or
		// a handle acquired between the idle check and here could be
		// released without ever observing StateGoAwaySent.
		c.state.Store(int32(StateGoAwaySent))
		r.pool.Remove(c.addr)
		if c.refs.Load() == 0 {
			c.gracefulShutdown()
		}
		closed++
	}
	if closed > 0 {
		r.logger.Info("reaped idle connections", "count", closed)
	} else {
		r.logger.Debug("reaper sweep found no idle connections")
	}
}

// Stop halts the cron scheduler, waiting for any in-flight sweep to
// finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil && r.running {
		stopCtx := r.cron.Stop()
		<-stopCtx.Done()
		r.running = false
		r.logger.Info("connection reaper stopped")
	}
}
