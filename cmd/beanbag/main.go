// Package main is the entry point for the bean bag configurator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/beanbag/internal/app"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/handoff"
	"github.com/Faultbox/beanbag/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Bean Bag Configurator ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

// run starts the hand-off server in the background and the viewer on the main
// thread. Leaving either one stops both.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var server *handoff.Server
	if cfg.Handoff.Enabled {
		var err error
		server, err = handoff.NewServer(cfg.Handoff, cfg.AR, handoff.NewStore(32), logger.Named("handoff"))
		if err != nil {
			return fmt.Errorf("create handoff server: %w", err)
		}
		g.Go(func() error {
			return server.ListenAndServe(ctx)
		})
	}

	a, err := app.New(cfg, server, logger.Named("app"))
	if err != nil {
		cancel()
		return firstErr(err, g.Wait())
	}
	defer a.Close()

	runErr := a.Run(ctx)
	cancel()
	return firstErr(runErr, g.Wait())
}

func firstErr(first, second error) error {
	if first != nil {
		return first
	}
	return second
}
