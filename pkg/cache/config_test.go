package cache

import (
	"testing"
	"time"
)

func TestRedisOptionsKeepDefaultsForZeroValues(t *testing.T) {
	cfg := defaultRedisConfig()
	for _, opt := range []RedisOption{
		WithRedisAddr("", 0),
		WithRedisPool(0, 0, 0),
		WithRedisPrefix(""),
	} {
		opt(cfg)
	}
	o := cfg.clientOptions()
	if o.Addr != "localhost:6379" || o.PoolSize != 10 || o.MinIdleConns != 2 || o.PoolTimeout != 30*time.Second {
		t.Fatalf("unexpected options %+v", o)
	}
	if cfg.Prefix != "quantiq" {
		t.Fatalf("prefix = %q", cfg.Prefix)
	}
}

func TestRedisOptionsApplyConfiguredValues(t *testing.T) {
	cfg := defaultRedisConfig()
	WithRedisAddr("cache", 6380)(cfg)
	WithRedisAuth("secret", 3)(cfg)
	WithRedisPool(32, 4, time.Second)(cfg)
	WithRedisPrefix("staging")(cfg)

	o := cfg.clientOptions()
	if o.Addr != "cache:6380" || o.Password != "secret" || o.DB != 3 {
		t.Fatalf("unexpected connection options %+v", o)
	}
	if o.PoolSize != 32 || o.MinIdleConns != 4 || o.PoolTimeout != time.Second {
		t.Fatalf("unexpected pool options %+v", o)
	}
	if cfg.Prefix != "staging" {
		t.Fatalf("prefix = %q", cfg.Prefix)
	}
}

func TestMemoryLimits(t *testing.T) {
	cfg := &MemoryConfig{MaxSize: 1000, CleanupInterval: 5 * time.Minute}
	WithMemoryLimits(0, time.Minute)(cfg)
	if cfg.MaxSize != 1000 || cfg.CleanupInterval != time.Minute {
		t.Fatalf("unexpected memory config %+v", cfg)
	}
}
