package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/entityexport/internal/config"
	"github.com/JonMunkholm/entityexport/internal/core"
	"github.com/JonMunkholm/entityexport/internal/history"
	"github.com/JonMunkholm/entityexport/internal/logging"
	"github.com/JonMunkholm/entityexport/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"workspace_root", cfg.Workspace.Root,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_enabled", cfg.Database.Enabled(),
	)

	var opts []core.Option

	// History is optional; without DATABASE_URL runs are only logged.
	if cfg.Database.Enabled() {
		store, err := history.Open(context.Background(), cfg.Database)
		if err != nil {
			slog.Error("failed to open history database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		slog.Info("conversion history enabled")
		opts = append(opts, core.WithHistory(store))
	}

	service, err := core.NewService(cfg, opts...)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	profile := service.Profile()
	slog.Info("mapping profile loaded",
		"client", profile.Client,
		"partition_prefix", profile.PartitionPrefix,
		"path", cfg.Convert.ProfilePath,
	)

	server := web.NewServer(cfg, service)

	// Background jobs stop when this context is cancelled
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartJanitor(jobCtx, core.JanitorConfig{
		Retention: cfg.Workspace.Retention,
		Interval:  cfg.Workspace.CleanupInterval,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Refuse new conversions and let running ones finish
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("conversions did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
