package reports

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL keeps report payloads fresh enough for dashboard use while
// absorbing repeated loads of the same page.
const DefaultCacheTTL = 60 * time.Second

// Cache stores report payloads as JSON in Redis. A cache outage degrades to
// recomputation, never to a failed report.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// getOrBuild returns the cached payload for key, or builds it once even under
// concurrent demand and stores the result.
func getOrBuild[T any](ctx context.Context, c *Cache, key string, build func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.client == nil {
		return build(ctx)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("reports: discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("reports: cache read failed", "key", key, "error", err)
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		result, err := build(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(result)
		if err == nil {
			if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("reports: cache write failed", "key", key, "error", err)
			}
		}
		return result, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
