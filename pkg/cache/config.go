package cache

import (
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds the connection settings and the key namespace shared by
// cached provider responses, outcomes and the aggregation lock.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	PingTimeout  time.Duration
	Prefix       string
}

func defaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  30 * time.Second,
		PingTimeout:  5 * time.Second,
		Prefix:       "quantiq",
	}
}

// clientOptions maps the config onto go-redis options.
func (c *RedisConfig) clientOptions() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		PoolTimeout:  c.PoolTimeout,
	}
}

// WithRedisAddr sets the server address. An empty host keeps the default
// host; a non-positive port keeps 6379.
func WithRedisAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		if host == "" {
			host = "localhost"
		}
		if port <= 0 {
			port = 6379
		}
		c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

// WithRedisAuth selects the database and password.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithRedisPool sets pool size and idle connections. Zero values keep the defaults.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if poolSize > 0 {
			c.PoolSize = poolSize
		}
		if minIdleConns > 0 {
			c.MinIdleConns = minIdleConns
		}
		if timeout > 0 {
			c.PoolTimeout = timeout
		}
	}
}

// WithRedisPrefix sets the namespace prepended to every key. Empty keeps "quantiq".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig bounds the in-process fallback used when Redis is disabled.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

// WithMemoryLimits sets the entry cap (least recently used entries are
// evicted) and the expiry sweep interval. Zero values keep the defaults.
func WithMemoryLimits(maxSize int, sweep time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if maxSize > 0 {
			c.MaxSize = maxSize
		}
		if sweep > 0 {
			c.CleanupInterval = sweep
		}
	}
}
