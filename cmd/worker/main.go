package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/boutique/internal/app"
	jobmetrics "github.com/odyssey-erp/boutique/internal/jobs"
	"github.com/odyssey-erp/boutique/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))

	services, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()
	if services.Redis == nil {
		logger.Error("worker requires redis", slog.String("addr", cfg.RedisAddr))
		os.Exit(1)
	}
	stopInvalidation := services.Reports.InvalidateOnChange()
	defer stopInvalidation()

	handlers := &jobs.Handlers{
		Store:     services.Store,
		Backups:   services.Backups,
		Invoices:  services.Invoices,
		Messenger: services.Messaging,
		Metrics:   jobmetrics.NewMetrics(services.Metrics.Registerer()),
		Logger:    logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers.Tasks(),
		Cron:      jobs.DefaultCron(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", services.Metrics.Handler())
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: cfg.AppReadTimeout}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting worker", slog.String("storage", cfg.StorageDriver))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
