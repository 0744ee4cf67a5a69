package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/repositories"
)

// RetentionCleaner deletes projects whose expiry passed more than the
// retention period ago. Foreign-key cascades remove the project's codes,
// verification logs, and API keys in the same statement.
type RetentionCleaner struct {
	projects      *repositories.ProjectRepository
	clock         clock.Clock
	retentionDays int
	interval      time.Duration
	// DryRun counts candidates without deleting them.
	DryRun   bool
	stopChan chan struct{}
}

// NewRetentionCleaner creates a cleaner with the given retention period in
// days. A retentionDays of zero disables the job entirely.
func NewRetentionCleaner(projects *repositories.ProjectRepository, clk clock.Clock, retentionDays int, interval time.Duration) *RetentionCleaner {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionCleaner{
		projects:      projects,
		clock:         clk,
		retentionDays: retentionDays,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the cleanup loop. The loop exits when ctx is cancelled or Stop
// is called. With retentionDays zero the loop never starts.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c.retentionDays <= 0 {
		slog.Info("retention cleaner disabled (retention_days=0)")
		return
	}

	slog.Info("retention cleaner started", "retention_days", c.retentionDays, "interval", c.interval)

	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RunOnce(ctx)
		case <-c.stopChan:
			slog.Info("retention cleaner stopped")
			return
		case <-ctx.Done():
			slog.Info("retention cleaner context cancelled")
			return
		}
	}
}

// Stop signals the cleanup loop to exit.
func (c *RetentionCleaner) Stop() {
	close(c.stopChan)
}

// RunOnce performs a single cleanup pass. In dry-run mode it only reports how
// many projects would be removed.
func (c *RetentionCleaner) RunOnce(ctx context.Context) {
	cutoff := c.clock.Now().AddDate(0, 0, -c.retentionDays)

	if c.DryRun {
		n, err := c.projects.CountExpiredBefore(ctx, cutoff)
		if err != nil {
			slog.Error("retention cleanup count failed", "error", err)
			return
		}
		slog.Info("retention cleanup dry run", "candidates", n, "cutoff", cutoff)
		return
	}

	n, err := c.projects.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention cleanup failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("retention cleanup removed expired projects", "count", n, "cutoff", cutoff)
	}
}
