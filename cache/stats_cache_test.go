package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStatsCache(client, time.Minute), mr
}

func TestStatsCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var dest []int64
	found, err := c.Get(context.Background(), "monthly", &dest)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Error("expected a miss on an empty cache")
	}
}

func TestStatsCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	stored := map[string]int64{"2025-01": 10, "2025-02": 25}
	if err := c.Set(ctx, "monthly", stored); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	loaded := map[string]int64{}
	found, err := c.Get(ctx, "monthly", &loaded)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatal("expected a hit after Set")
	}
	if loaded["2025-01"] != 10 || loaded["2025-02"] != 25 {
		t.Errorf("loaded %v, want %v", loaded, stored)
	}
}

func TestStatsCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "overview", map[string]int64{"songs": 3}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var dest map[string]int64
	found, err := c.Get(ctx, "overview", &dest)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Error("expected a miss after the TTL elapsed")
	}
}

func TestStatsCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "ranked", []int64{3, 1, 2}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := c.Invalidate(ctx, "ranked"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	var dest []int64
	found, err := c.Get(ctx, "ranked", &dest)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Error("expected a miss after Invalidate")
	}
}

func TestStatsCacheNilClient(t *testing.T) {
	var c *StatsCache

	if err := c.Set(context.Background(), "overview", 1); err != nil {
		t.Errorf("Set on nil cache returned error: %v", err)
	}
	found, err := c.Get(context.Background(), "overview", new(int))
	if err != nil {
		t.Errorf("Get on nil cache returned error: %v", err)
	}
	if found {
		t.Error("nil cache must always miss")
	}
}
