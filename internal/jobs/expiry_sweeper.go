// Package jobs contains the background maintenance loops: the expiry sweeper
// that keeps is_expired flags aligned with wall-clock time, and the retention
// cleaner that removes long-expired projects.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/repositories"
	"github.com/pfeak/codegate/internal/telemetry"
)

// ExpirySweeper periodically reconciles the is_expired flag on unused codes.
// Codes whose effective expiry (their own expires_at, or the project's when
// unset) has passed are flagged expired; codes whose expiry was extended are
// unflagged. Used and disabled codes are never touched, which keeps the
// mutual-exclusion constraints satisfied no matter when the sweep runs.
type ExpirySweeper struct {
	codes    *repositories.CodeRepository
	clock    clock.Clock
	interval time.Duration
	stopChan chan struct{}
}

// NewExpirySweeper creates a sweeper that runs every interval (default 1h).
func NewExpirySweeper(codes *repositories.CodeRepository, clk clock.Clock, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirySweeper{
		codes:    codes,
		clock:    clk,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop. It runs one sweep immediately, then repeats on
// the configured interval until ctx is cancelled or Stop is called.
func (s *ExpirySweeper) Start(ctx context.Context) {
	slog.Info("expiry sweeper started", "interval", s.interval)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			slog.Info("expiry sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("expiry sweeper context cancelled")
			return
		}
	}
}

// Stop signals the sweep loop to exit.
func (s *ExpirySweeper) Stop() {
	close(s.stopChan)
}

// RunOnce performs a single sweep in both directions and records the number
// of corrected rows. Errors are logged, not returned; the next tick retries.
func (s *ExpirySweeper) RunOnce(ctx context.Context) {
	now := s.clock.Now()

	expired, err := s.codes.SweepExpire(ctx, now)
	if err != nil {
		slog.Error("expiry sweep failed", "direction", "expired", "error", err)
	} else if expired > 0 {
		telemetry.ExpirySweepUpdatesTotal.WithLabelValues("expired").Add(float64(expired))
		slog.Info("expiry sweep flagged lapsed codes", "count", expired)
	}

	unexpired, err := s.codes.SweepUnexpire(ctx, now)
	if err != nil {
		slog.Error("expiry sweep failed", "direction", "unexpired", "error", err)
	} else if unexpired > 0 {
		telemetry.ExpirySweepUpdatesTotal.WithLabelValues("unexpired").Add(float64(unexpired))
		slog.Info("expiry sweep unflagged extended codes", "count", unexpired)
	}
}
