package audit

import (
	"weft/config"
	"weft/logging"
	"weft/metrics"
)

// New builds the full audit subsystem (SQLite storage, async recorder,
// retention pruner and scheduler) from a loaded AuditConfig. Callers
// own the returned Recorder and Scheduler lifecycles: call
// Scheduler.Start once the dispatch loop is running and Recorder.Close
// during graceful shutdown.
func New(cfg config.AuditConfig, logger *logging.Logger, collector *metrics.Collector) (*Recorder, *Scheduler, error) {
	storage, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         cfg.DBPath,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
	})
	if err != nil {
		return nil, nil, err
	}

	recConfig := DefaultConfig()
	recConfig.Enabled = cfg.Enabled
	recConfig.RedactAPIKeys = cfg.RedactAPIKeys
	if cfg.AsyncBuffer > 0 {
		recConfig.AsyncBuffer = cfg.AsyncBuffer
	}
	recorder := NewRecorder(storage, recConfig, collector)

	pruner := NewPruner(storage, &RetentionConfig{
		RetentionDays: cfg.Retention.Days,
		PruneSchedule: cfg.Retention.PruneSchedule,
	})
	scheduler := NewScheduler(pruner, logger)

	return recorder, scheduler, nil
}
