package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/server"
)

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port int `help:"Override the configured listen port."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext()
	defer cancel()

	go sweepExpiredSessions(ctx, rt)

	srv := server.New(rt.orch, rt.store.Sessions, rt.metrics.Handler(), cfg)
	return srv.Start(ctx)
}

// sweepExpiredSessions deletes expired sessions on the configured cadence
// until ctx is cancelled.
func sweepExpiredSessions(ctx context.Context, rt *serviceRuntime) {
	ticker := time.NewTicker(rt.cfg.Session.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := rt.store.Sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("expired sessions deleted", "count", deleted)
			}
		}
	}
}
