package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/boutique/cmd/boutique/cli"
	"github.com/odyssey-erp/boutique/internal/app"
	"github.com/odyssey-erp/boutique/internal/backup"
	"github.com/odyssey-erp/boutique/internal/clients"
	"github.com/odyssey-erp/boutique/internal/events"
	"github.com/odyssey-erp/boutique/internal/invoicing"
	"github.com/odyssey-erp/boutique/internal/messaging"
	"github.com/odyssey-erp/boutique/internal/products"
	"github.com/odyssey-erp/boutique/internal/reports"
	"github.com/odyssey-erp/boutique/internal/settings"
	"github.com/odyssey-erp/boutique/jobs"
)

const usage = `usage: boutique [command]

commands:
  serve                     run the HTTP API (default)
  backup export [path|-]    write a backup file
  backup import <path|->    restore a backup file
  jobs trigger <task>       enqueue a periodic task now
  jobs stats                print queue depth
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	os.Exit(run(ctx, cfg, logger, os.Args[1:]))
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "serve":
		if err := serve(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("serve", slog.Any("error", err))
			return 1
		}
		return 0
	case "backup":
		return backupCommand(ctx, cfg, logger, args[1:])
	case "jobs":
		return jobsCommand(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func backupCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	// Keep stdout clean for "backup export -".
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if args[0] != "export" {
		quiet = logger
	}
	services, err := app.Bootstrap(ctx, cfg, quiet)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()
	c := cli.NewBackupCLI(services.Backups)
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	switch args[0] {
	case "export":
		return c.ExportCommand(path, os.Stdout, os.Stderr)
	case "import":
		if path == "" {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		return c.ImportCommand(ctx, path, os.Stdin, os.Stdout, os.Stderr)
	}
	fmt.Fprint(os.Stderr, usage)
	return 2
}

func jobsCommand(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	c, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer c.Close()
	switch {
	case args[0] == "stats":
		return c.StatsCommand(ctx, os.Stdout, os.Stderr)
	case args[0] == "trigger" && len(args) == 2:
		return c.TriggerCommand(ctx, args[1], os.Stdout, os.Stderr)
	}
	fmt.Fprint(os.Stderr, usage)
	return 2
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	services, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()

	var (
		enqueuer  messaging.Enqueuer
		inspector jobs.QueueInspector
	)
	if cfg.JobsEnabled && services.Redis != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client, err := jobs.NewClient(redisOpts)
		if err != nil {
			return err
		}
		defer client.Close()
		enqueuer = client

		asynqInspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := asynqInspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		inspector = asynqInspector
	}

	hub := events.NewHub(logger)
	unfollow := hub.Follow(services.Store)
	defer unfollow()
	stopInvalidation := services.Reports.InvalidateOnChange()
	defer stopInvalidation()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          services.Metrics,
		ProductsHandler:  products.NewHandler(logger, services.Products),
		ClientsHandler:   clients.NewHandler(logger, services.Clients),
		InvoicesHandler:  invoicing.NewHandler(logger, services.Invoices, services.Store),
		SettingsHandler:  settings.NewHandler(logger, services.Settings),
		ReportsHandler:   reports.NewHandler(logger, services.Reports),
		BackupHandler:    backup.NewHandler(logger, services.Backups),
		MessagingHandler: messaging.NewHandler(logger, services.Messaging, enqueuer),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Events:           hub,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		services.Store.Watch(gctx, cfg.StoreRefresh)
		return nil
	})
	if services.Redis != nil {
		g.Go(func() error {
			cache := reports.NewCache(services.Redis, cfg.ReportCacheTTL)
			if err := cache.ListenForInvalidation(gctx); err != nil && gctx.Err() == nil {
				logger.Warn("report cache invalidation stopped", slog.Any("error", err))
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
