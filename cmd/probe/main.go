package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/tether/config"
	"github.com/okian/tether/internal/probe"
	"github.com/okian/tether/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env, prefix PROBE_).
	cfg, err := config.Load(ctx, "PROBE")
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("invalid log_level " + cfg.LogLevel + "; falling back to info\n")
	}
	log := logger.New(logger.WithLevel(level))

	runner, err := probe.New(cfg, log)
	if err != nil {
		log.Error(ctx, "probe setup failed", logger.Error(err))
		os.Exit(1)
	}
	if err := runner.Run(ctx); err != nil {
		log.Error(ctx, "probe failed", logger.Error(err))
		os.Exit(1)
	}
}
