package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
)

// initLogger installs the process-wide slog default from the logging
// configuration. It is called twice on a normal run: once before config
// loading so early failures are logged, and again with the merged
// file+flag settings.
func initLogger(cfg config.LoggingConfig) error {
	cfg.SetDefaults()

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unsupported log level: %s", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
