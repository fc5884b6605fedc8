package audit

// scheduler.go provides the background retention sweep.
//
// The sweeper deletes activity log entries (and their retained source
// files) older than the configured horizon. It runs once at startup, then
// on every tick, and is context-aware for graceful shutdown. Individual
// sweep failures are logged and never crash the application.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionPolicy holds configuration for the retention sweeper.
type RetentionPolicy struct {
	MaxAge        time.Duration // entries older than this are deleted
	CheckInterval time.Duration // how often to sweep (default: 24h)
}

// StartRetentionSweeper runs the retention sweep on a schedule until the
// context is cancelled. Call in a goroutine.
func (s *Service) StartRetentionSweeper(ctx context.Context, policy RetentionPolicy) {
	if policy.CheckInterval <= 0 {
		policy.CheckInterval = 24 * time.Hour
	}

	slog.Info("retention sweeper started",
		"max_age", policy.MaxAge,
		"check_interval", policy.CheckInterval,
	)

	// Run immediately on startup
	s.runSweep(ctx, policy)

	ticker := time.NewTicker(policy.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, policy)
		}
	}
}

// Sweep performs one retention pass; also invoked by the manual cleanup
// trigger. Returns the number of entries deleted.
func (s *Service) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	horizon := time.Now().UTC().Add(-maxAge)
	return s.PurgeOlderThan(ctx, horizon)
}

func (s *Service) runSweep(ctx context.Context, policy RetentionPolicy) {
	start := time.Now()
	deleted, err := s.Sweep(ctx, policy.MaxAge)
	if err != nil {
		slog.Error("retention sweep failed", "error", err)
		return
	}
	slog.Info("retention sweep completed",
		"entries_deleted", deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
