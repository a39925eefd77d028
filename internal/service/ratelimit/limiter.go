package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per provider key.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
}

func New() *Limiter { return &Limiter{m: make(map[string]*rate.Limiter)} }

// Register sets the budget for key. A non-positive rps leaves key unlimited.
func (l *Limiter) Register(key string, rps float64, burst int) {
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Inf, burst)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	l.mu.Lock()
	l.m[key] = lim
	l.mu.Unlock()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.m[key]
	if !ok {
		lim = rate.NewLimiter(rate.Inf, 1)
		l.m[key] = lim
	}
	return lim
}

// Wait blocks until key has a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if err := l.get(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}
	return nil
}

// Allow returns true if one token can be consumed for key now.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}
