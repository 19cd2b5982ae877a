package core

// janitor.go removes finished run workspaces once they pass retention.
//
// Archives stay downloadable for WORKSPACE_RETENTION after a run. The
// janitor runs once at start and then every CleanupInterval until its
// context is cancelled. A failed sweep is logged and retried on the next
// tick.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/entityexport/internal/metrics"
)

// JanitorConfig holds the sweep settings.
type JanitorConfig struct {
	Retention time.Duration // Age after which a run is purged (default: 24h)
	Interval  time.Duration // How often to sweep (default: 1h)
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	return c
}

// StartJanitor blocks, sweeping expired workspaces until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, cfg JanitorConfig) {
	cfg = cfg.withDefaults()
	slog.Info("workspace janitor started",
		"root", s.workspaces.Root(),
		"retention", cfg.Retention,
		"interval", cfg.Interval,
	)

	s.sweepWorkspaces(cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("workspace janitor stopped")
			return
		case <-ticker.C:
			s.sweepWorkspaces(cfg.Retention)
		}
	}
}

// sweepWorkspaces performs one purge and returns the number removed.
func (s *Service) sweepWorkspaces(retention time.Duration) int {
	start := time.Now()
	purged, err := s.workspaces.Purge(s.now().Add(-retention))
	if err != nil {
		slog.Error("workspace purge failed", "error", err, "purged", purged)
	}
	if purged > 0 {
		metrics.WorkspacesPurged.Add(float64(purged))
		slog.Info("purged expired workspaces",
			"purged", purged,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return purged
}
