package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryCacheRoundTripsStructs(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", sample{Name: "DGS10", Value: 4.2}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got sample
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "DGS10" || got.Value != 4.2 {
		t.Fatalf("got %+v", got)
	}
	if err := mc.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("missing key err = %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "short", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if ok, _ := mc.Exists(ctx, "short"); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryLimits(2, 0))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", 0)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", "2", 0)
	time.Sleep(time.Millisecond)
	var s string
	_ = mc.Get(ctx, "a", &s)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatalf("expected a to survive")
	}
}

func TestMemoryCacheLockOwnership(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	token, ok, err := mc.TryLock(ctx, "lock:aggregate", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mc.TryLock(ctx, "lock:aggregate", time.Minute); ok {
		t.Fatalf("second lock must fail while held")
	}
	if err := mc.Unlock(ctx, "lock:aggregate", "someone-else"); !errors.Is(err, ErrLockNotHeld) {
		t.Fatalf("foreign unlock err = %v", err)
	}
	if err := mc.Unlock(ctx, "lock:aggregate", token); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, ok, _ := mc.TryLock(ctx, "lock:aggregate", time.Minute); !ok {
		t.Fatalf("lock should be free after unlock")
	}
}

func TestGetOrLoadCachesResult(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]float64, error) {
		calls++
		return []float64{1, 2, 3}, nil
	}
	for i := 0; i < 2; i++ {
		v, err := GetOrLoad(ctx, mc, "series", time.Minute, load)
		if err != nil || len(v) != 3 {
			t.Fatalf("v=%v err=%v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}
}
