package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/cinescout/internal/api"
	"github.com/amaumene/cinescout/internal/controllers"
	"github.com/amaumene/cinescout/internal/metrics"
	"github.com/amaumene/cinescout/internal/scheduler"
	"github.com/amaumene/cinescout/internal/services/tmdb"
	"github.com/amaumene/cinescout/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	logger.Info("Starting cinescout")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracing, err := telemetry.Init(ctx, "cinescout", a.cfg.OTLPEndpoint, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	// Catalog client
	catalog, err := tmdb.NewClient(a.cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}
	logger.Info("TMDB client initialized")

	// Sessions
	sessions := controllers.NewSessionManager(ctx, catalog, a.store, controllers.SessionOptions{
		QuietPeriod:   a.cfg.SearchDebounce,
		TrendingLimit: a.cfg.TrendingLimit,
		TTL:           a.cfg.SessionTTL,
		Keyer:         a.keyer,
		Blocklist:     a.blocklist,
	}, logger)
	defer sessions.Shutdown()

	// Scheduler
	sched := scheduler.NewScheduler(a.store, sessions, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// HTTP server
	server := api.NewServer(a.cfg, a.store, sessions, registry, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.WithField("port", a.cfg.ServerPort).Info("cinescout is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
		cancel()
	}

	logger.Info("cinescout stopped")
	return nil
}
