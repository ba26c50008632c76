package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// StatsCache memoizes dashboard aggregations. Values are JSON blobs
// keyed per report and expire after the configured TTL; a miss returns
// found=false and the caller recomputes.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a StatsCache with the given TTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(name string) string {
	return "stats:" + name
}

// Get loads a cached report into dest. The second return value reports
// whether the key was present.
func (c *StatsCache) Get(ctx context.Context, name string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	raw, err := c.client.Get(ctx, statsKey(name)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached stats %q: %w", name, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached stats %q: %w", name, err)
	}
	return true, nil
}

// Set stores a report under the cache TTL.
func (c *StatsCache) Set(ctx context.Context, name string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal stats %q: %w", name, err)
	}

	if err := c.client.Set(ctx, statsKey(name), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stats %q: %w", name, err)
	}
	return nil
}

// Invalidate drops a cached report, forcing the next read to recompute.
func (c *StatsCache) Invalidate(ctx context.Context, name string) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, statsKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats %q: %w", name, err)
	}
	return nil
}
