package infra

import (
	"context"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("empty cache returned a value")
	}
	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("Get = %v, %v, want 42, true", v, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	c.Set("k", "v")
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still served")
	}
}

func TestCacheConfiguredDefaultTTL(t *testing.T) {
	old := CacheTTL()
	SetCacheTTL(20 * time.Millisecond)
	t.Cleanup(func() { SetCacheTTL(old) })

	c := NewCache(0)
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry outlived the configured default TTL")
	}
}

func TestSetFetchLimit(t *testing.T) {
	old := FetchLimit()
	t.Cleanup(func() { SetFetchLimit(old) })

	SetFetchLimit(7)
	if got := FetchLimit(); got != 7 {
		t.Errorf("FetchLimit = %d, want 7", got)
	}
	// Non-positive values are ignored.
	SetFetchLimit(0)
	if got := FetchLimit(); got != 7 {
		t.Errorf("FetchLimit after SetFetchLimit(0) = %d, want 7", got)
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	for i := 0; i < 2; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}

	// The bucket is empty and the interval is long; a cancelled context
	// must abort the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait on empty bucket = %v, want context.Canceled", err)
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
}
