package reports

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/boutique/internal/store"
)

// StorePort is the part of the store used by reports.
type StorePort interface {
	Snapshot() store.State
	Subscribe(fn func(store.Change)) func()
}

// Service serves cached reports. Concurrent requests for the same report
// share one build.
type Service struct {
	store  StorePort
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
}

// NewService wires the store with an optional cache.
func NewService(st StorePort, cache *Cache, logger *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, cache: cache, logger: logger, now: now}
}

// InvalidateOnChange bumps the cache version after every store change. The
// returned function stops listening.
func (s *Service) InvalidateOnChange() func() {
	return s.store.Subscribe(func(c store.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("reports: cache bump failed", slog.String("action", c.Action), slog.Any("error", err))
		}
	})
}

// Dashboard returns the dashboard summary.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, "dashboard", now.Format(store.DateLayout))
	if err != nil {
		s.logger.Warn("reports: cache unavailable", slog.Any("error", err))
		return BuildDashboard(s.store.Snapshot(), now), nil
	}
	return single(s, key, func() (Dashboard, error) {
		return FetchJSON(ctx, s.cache, key, func(context.Context) (Dashboard, error) {
			return BuildDashboard(s.store.Snapshot(), now), nil
		})
	})
}

// Sales returns the sales report for r.
func (s *Service) Sales(ctx context.Context, r Range) (SalesReport, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, "sales", string(r), now.Format(store.DateLayout))
	if err != nil {
		s.logger.Warn("reports: cache unavailable", slog.Any("error", err))
		return BuildSalesReport(s.store.Snapshot(), r, now), nil
	}
	return single(s, key, func() (SalesReport, error) {
		return FetchJSON(ctx, s.cache, key, func(context.Context) (SalesReport, error) {
			return BuildSalesReport(s.store.Snapshot(), r, now), nil
		})
	})
}

// Snapshot exposes the current state for exports.
func (s *Service) Snapshot() store.State {
	return s.store.Snapshot()
}

func single[T any](s *Service, key string, fn func() (T, error)) (T, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
