package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/boutique/internal/backup"
	"github.com/odyssey-erp/boutique/internal/clients"
	"github.com/odyssey-erp/boutique/internal/invoicing"
	"github.com/odyssey-erp/boutique/internal/messaging"
	"github.com/odyssey-erp/boutique/internal/observability"
	"github.com/odyssey-erp/boutique/internal/platform/cache"
	"github.com/odyssey-erp/boutique/internal/products"
	"github.com/odyssey-erp/boutique/internal/reports"
	"github.com/odyssey-erp/boutique/internal/secrets"
	"github.com/odyssey-erp/boutique/internal/settings"
	"github.com/odyssey-erp/boutique/internal/storage"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Services holds the storage, the store and every domain service built on
// them. The HTTP server, the worker and the CLI share this wiring.
type Services struct {
	Storage storage.KV
	Store   *store.Store
	Redis   *redis.Client
	Metrics *observability.Metrics

	Products  *products.Service
	Clients   *clients.Service
	Invoices  *invoicing.Service
	Settings  *settings.Service
	Reports   *reports.Service
	Backups   *backup.Service
	Messaging *messaging.Service

	closers []func() error
}

// Bootstrap opens the configured storage, loads the store and builds the
// services. Redis is optional unless it is the storage driver: without it
// reports are computed on every request.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger) (*Services, error) {
	kv, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	svc := &Services{Storage: kv, Metrics: observability.NewMetrics()}
	svc.closers = append(svc.closers, kv.Close)

	opts := store.Options{
		Storage: kv,
		Key:     cfg.StoreKey,
		UIKey:   cfg.StoreUIKey,
		Logger:  logger,
		Metrics: observability.NewStoreMetrics(svc.Metrics.Registerer()),
	}
	if cfg.SecretKey != "" {
		opts.Sealer = secrets.NewSealer(cfg.SecretKey)
	} else {
		logger.Warn("SECRET_KEY not set, payment credentials are stored in clear")
	}
	st := store.New(opts)
	if err := st.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	if st.Revision() == 0 && cfg.SeedOnEmpty {
		if err := st.Persist(ctx); err != nil && !store.IsConflict(err) {
			_ = svc.Close()
			return nil, fmt.Errorf("persist seed data: %w", err)
		}
		logger.Info("seed data persisted", slog.String("key", cfg.StoreKey))
	}
	svc.Store = st

	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
	} else {
		svc.Redis = client
		svc.closers = append(svc.closers, client.Close)
	}

	svc.Products = products.NewService(st)
	svc.Clients = clients.NewService(st)
	svc.Invoices = invoicing.NewService(st, invoicing.ServiceConfig{})
	svc.Settings = settings.NewService(st)
	svc.Reports = reports.NewService(st, reports.NewCache(svc.Redis, cfg.ReportCacheTTL), logger, nil)
	svc.Backups = backup.NewService(st, kv, backup.Config{Retention: cfg.BackupRetention, Logger: logger})
	svc.Messaging = messaging.NewService(
		messaging.NewHistory(kv),
		st,
		messaging.Config{SendInterval: cfg.SendInterval, Logger: logger},
		messaging.SimulatedSMS{Provider: cfg.SMSProvider},
		messaging.SimulatedWhatsApp{},
	)
	return svc, nil
}

// Close releases storage and Redis connections in reverse order.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
