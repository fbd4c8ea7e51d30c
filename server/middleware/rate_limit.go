// Package middleware holds HTTP-layer concerns shared by the API routes.
package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Chat traffic is human-paced; one message per second with a small burst
// absorbs retries and double-sends without letting a client flood the
// calendar backend.
const (
	defaultInterval = time.Second
	defaultBurst    = 5
)

// RateLimiter limits request rates per key (user id or remote address).
type RateLimiter struct {
	mu       sync.Mutex
	limits   map[string]*rate.Limiter
	interval time.Duration
	burst    int
}

// NewRateLimiter creates a rate limiter with the default chat limits.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(defaultInterval, defaultBurst)
}

// NewRateLimiterWithConfig creates a rate limiter allowing one request per
// interval with the given burst.
func NewRateLimiterWithConfig(interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limits:   make(map[string]*rate.Limiter),
		interval: interval,
		burst:    burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(rl.interval), rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait blocks until a request is allowed for the given key, or the context
// is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}
