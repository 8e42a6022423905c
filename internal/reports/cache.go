package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "reports:version"
	bumpChannel     = "boutique.bump"
)

// Cache stores computed reports in Redis under versioned keys. A nil Cache
// or a Cache without a client computes every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"reports"}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON returns the value cached under key, populating it with loader
// on a miss. Undecodable entries are rebuilt.
func FetchJSON[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached T
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		case !errors.Is(err, redis.Nil):
			return zero, err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return zero, err
	}
	if c == nil || c.client == nil {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return zero, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return zero, err
	}
	return value, nil
}

// Bump invalidates every cached report by incrementing the version and
// publishing it for other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version bumps published by other instances
// until ctx is cancelled.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					_ = c.client.Incr(ctx, cacheVersionKey).Err()
					continue
				}
				current, err := c.client.Get(ctx, cacheVersionKey).Int64()
				if err != nil || current < ver {
					_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
				}
			}
		}
	}()
	return nil
}
