package storage

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/boutique/internal/platform/cache"
	"github.com/odyssey-erp/boutique/internal/platform/db"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Driver         string
	Dir            string
	PostgresDSN    string
	RedisAddr      string
	RedisNamespace string
	SQLitePath     string
	MemoryQuota    int
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(WithQuota(cfg.MemoryQuota)), nil
	case DriverFile:
		return NewFile(cfg.Dir)
	case DriverRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.RedisNamespace), nil
	case DriverPostgres:
		pool, err := db.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		kv, err := NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return kv, nil
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
