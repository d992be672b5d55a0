package cache

import (
	"context"
	"testing"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/rs/zerolog"
)

func TestNewFallsBackWhenRedisUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	c, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if c.IsAvailable() {
		t.Fatal("cache should be disabled when redis is unreachable")
	}

	ctx := context.Background()
	if err := c.SetSchedule(ctx, "h1", &availability.Schedule{HostID: "h1", Timezone: "UTC"}); err != nil {
		t.Fatalf("SetSchedule on disabled cache: %v", err)
	}
	if _, ok := c.GetSchedule(ctx, "h1"); ok {
		t.Fatal("disabled cache must always miss")
	}
	if err := c.InvalidateHost(ctx, "h1"); err != nil {
		t.Fatalf("InvalidateHost: %v", err)
	}
	if err := c.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if c.IsAvailable() {
		t.Fatal("nil cache reports available")
	}
	if err := c.SetSchedule(ctx, "h1", nil); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if err := c.SetEventList(ctx, "h1", []CachedEvent{{ID: "e1"}}); err != nil {
		t.Fatalf("SetEventList: %v", err)
	}
	if _, ok := c.GetEventList(ctx, "h1"); ok {
		t.Fatal("nil cache must miss")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
