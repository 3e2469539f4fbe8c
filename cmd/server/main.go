// Package main is the entry point for the chartlab server: it loads
// configuration, builds the logger, prepares the data directories, and
// hands off to internal/server. All real logic lives in internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/chartlab/internal/config"
	"github.com/sakif/chartlab/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// The database and the workspace root both live under data/ by default;
	// create the parents so a fresh checkout starts cleanly.
	for _, dir := range []string{filepath.Dir(cfg.Storage.DBPath), cfg.Renderer.WorkspaceRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
