package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"weft/logging"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Pruner on the cron schedule named by its
// RetentionConfig.PruneSchedule.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	logger *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler builds a Scheduler for pruner. logger may be nil.
func NewScheduler(pruner *Pruner, logger *logging.Logger) *Scheduler {
	return &Scheduler{pruner: pruner, cron: cron.New(), logger: logger}
}

// Start validates the configured cron schedule and begins running
// pruner on it. If PruneSchedule is empty, Start is a no-op. The
// scheduler stops itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("audit: invalid prune schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.runPruning(ctx) }); err != nil {
		return fmt.Errorf("audit: failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runPruning(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("scheduled audit prune failed", "error", err)
		}
		return
	}
	if s.logger != nil && deleted > 0 {
		s.logger.Info("scheduled audit prune completed", "deleted", deleted)
	}
}

// Stop stops the scheduler and waits for any in-flight pruning run to
// finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return
	}
	done := s.cron.Stop()
	<-done.Done()
	s.running = false
}

// IsRunning reports whether the scheduler has an active cron job.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the time of the next scheduled prune, or nil if the
// scheduler has no entries.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
