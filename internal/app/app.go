// Package app provides the top-level application lifecycle for the
// aggregation engine. It wires together all dependencies (books, stores,
// caches, detectors, notifications) and starts the goroutines that belong to
// the configured operating mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/config"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, starts the corresponding goroutines, and blocks until the
// context is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	var runErr error
	switch strings.ToLower(a.cfg.Mode) {
	case "monitor":
		runErr = a.MonitorMode(ctx, deps)
	case "dex":
		runErr = a.DexMode(ctx, deps)
	case "scan":
		runErr = a.ScanMode(ctx, deps)
	case "stats":
		runErr = a.StatsMode(ctx, deps)
	case "full":
		runErr = a.FullMode(ctx, deps)
	default:
		runErr = fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}

	// A cancelled context is a clean shutdown; anything else is worth a page.
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		noteCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		deps.Notifier.NotifyError(noteCtx, runErr)
		cancel()
	}
	return runErr
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
