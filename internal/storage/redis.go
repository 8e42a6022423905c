package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisFieldValue    = "value"
	redisFieldRevision = "rev"
	redisFieldUpdated  = "updated"
)

// Redis stores each key as a hash guarded by WATCH/MULTI.
type Redis struct {
	client    *redis.Client
	namespace string
	now       func() time.Time
}

// NewRedis wraps a client. Keys are stored as "<namespace>:<key>".
func NewRedis(client *redis.Client, namespace string) *Redis {
	if namespace != "" && !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return &Redis{client: client, namespace: namespace, now: time.Now}
}

func (r *Redis) key(key string) string { return r.namespace + key }

func decodeHash(fields map[string]string) (Record, bool, error) {
	if len(fields) == 0 {
		return Record{}, false, nil
	}
	rev, err := strconv.ParseInt(fields[redisFieldRevision], 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("storage: redis revision: %w", err)
	}
	updated, _ := strconv.ParseInt(fields[redisFieldUpdated], 10, 64)
	return Record{
		Value:     []byte(fields[redisFieldValue]),
		Revision:  rev,
		UpdatedAt: time.Unix(0, updated).UTC(),
	}, true, nil
}

// Get implements KV.
func (r *Redis) Get(ctx context.Context, key string) (Record, error) {
	fields, err := r.client.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("storage: redis get %s: %w", key, err)
	}
	rec, ok, err := decodeHash(fields)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Put implements KV.
func (r *Redis) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	full := r.key(key)
	var next int64
	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, full).Result()
		if err != nil {
			return err
		}
		current, exists, err := decodeHash(fields)
		if err != nil {
			return err
		}
		if err := checkRevision(key, current.Revision, exists, expected); err != nil {
			return err
		}
		next = current.Revision + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, full,
				redisFieldValue, value,
				redisFieldRevision, next,
				redisFieldUpdated, r.now().UnixNano(),
			)
			return nil
		})
		return err
	}
	err := r.client.Watch(ctx, txf, full)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return 0, fmt.Errorf("%w: %s changed during write", ErrRevisionConflict, key)
	case errors.Is(err, ErrRevisionConflict):
		return 0, err
	case err != nil:
		return 0, fmt.Errorf("storage: redis put %s: %w", key, err)
	}
	return next, nil
}

// Delete implements KV.
func (r *Redis) Delete(ctx context.Context, key string) error {
	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("storage: redis delete %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Keys implements KV.
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("storage: redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements KV.
func (r *Redis) Close() error { return r.client.Close() }
