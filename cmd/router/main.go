package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avoelk/paperroute/internal/bootstrap"
	"github.com/avoelk/paperroute/internal/config"
	"github.com/avoelk/paperroute/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.Setup("paperroute-router", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux(app),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("router_started",
		"poll_interval", cfg.PollInterval.String(),
		"page_size", cfg.PageSize,
		"topics", len(cfg.Topics),
		"default_topic", cfg.DefaultTopic,
	)

	if err := app.Poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("poller_stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("router_stopped")
}

func metricsMux(app *bootstrap.App) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	return mux
}
