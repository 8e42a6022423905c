package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/boutique/internal/platform/db"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    revision   BIGINT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS kv_store_updated_at_idx ON kv_store (updated_at)`,
}

// Postgres keeps keys in the kv_store table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a pool and creates the table when missing.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range postgresSchema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Get implements KV.
func (p *Postgres) Get(ctx context.Context, key string) (Record, error) {
	var rec Record
	err := p.pool.QueryRow(ctx,
		`SELECT value, revision, updated_at FROM kv_store WHERE key = $1`, key,
	).Scan(&rec.Value, &rec.Revision, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("storage: postgres get %s: %w", key, err)
	}
	return rec, nil
}

// Put implements KV.
func (p *Postgres) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	var (
		query string
		args  []any
	)
	switch expected {
	case AnyRevision:
		query = `INSERT INTO kv_store (key, value, revision, updated_at) VALUES ($1, $2, 1, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, revision = kv_store.revision + 1, updated_at = now()
RETURNING revision`
		args = []any{key, value}
	case 0:
		query = `INSERT INTO kv_store (key, value, revision, updated_at) VALUES ($1, $2, 1, now())
ON CONFLICT (key) DO NOTHING
RETURNING revision`
		args = []any{key, value}
	default:
		query = `UPDATE kv_store SET value = $2, revision = revision + 1, updated_at = now()
WHERE key = $1 AND revision = $3
RETURNING revision`
		args = []any{key, value, expected}
	}
	var next int64
	err := p.pool.QueryRow(ctx, query, args...).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s does not match revision %d", ErrRevisionConflict, key, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("storage: postgres put %s: %w", key, err)
	}
	return next, nil
}

// Delete implements KV.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("storage: postgres delete %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Keys implements KV.
func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key FROM kv_store WHERE starts_with(key, $1) ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("storage: postgres keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("storage: postgres keys: %w", err)
	}
	return keys, nil
}

// Close implements KV.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
