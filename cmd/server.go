package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/crate/internal/server"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

// MockServer serves the in-memory catalog until interrupted.
func (r *Runner) MockServer(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("secret") {
		cfg.Secret = cmd.String("secret")
	}

	handler, err := server.NewFromConfig(cfg, r.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("Serving mock catalog on http://%s\n", cfg.Addr())
	if cfg.Secret == shared.DefaultConfig().Server.Secret {
		r.logger.Warn("using the example token secret; set server.secret in config.toml")
	}

	if err := server.ListenAndServe(ctx, cfg.Addr(), handler, r.logger); err != nil {
		return fmt.Errorf("mock server stopped: %w", err)
	}
	return nil
}
