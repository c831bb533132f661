package audit

import (
	"context"
	"time"

	"weft/werror"
)

// RetentionConfig configures the retention Pruner.
type RetentionConfig struct {
	// RetentionDays is the number of days to keep records. 0 disables
	// age-based pruning.
	RetentionDays int

	// PruneSchedule is a cron expression for the automatic scheduler.
	// Empty disables scheduled pruning (Prune can still be called
	// directly).
	PruneSchedule string
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner deletes audit records older than the configured retention
// period.
type Pruner struct {
	storage Storage
	config  *RetentionConfig
}

// NewPruner builds a Pruner over storage.
func NewPruner(storage Storage, cfg *RetentionConfig) *Pruner {
	if cfg == nil {
		cfg = DefaultRetentionConfig()
	}
	return &Pruner{storage: storage, config: cfg}
}

// Prune deletes records older than RetentionDays and returns how many
// were removed. A RetentionDays of 0 is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.storage.Delete(ctx, &Query{EndTime: &cutoff})
	if err != nil {
		return 0, werror.WithKind(err, werror.KindIO, "audit: retention prune failed")
	}
	return deleted, nil
}
