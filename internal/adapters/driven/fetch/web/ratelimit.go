package web

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultBackoff applies when a 429 carries no usable Retry-After.
const defaultBackoff = 5 * time.Second

// maxBackoff bounds how long a single Retry-After can pause the batch.
const maxBackoff = time.Minute

// RateLimiter throttles outgoing requests with a token bucket and honours
// Retry-After backoff from servers that answer 429.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// A non-positive rps disables throttling.
func NewRateLimiter(rps float64) *RateLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimit sets a backoff period from a Retry-After header value.
func (r *RateLimiter) RecordRateLimit(retryAfter string) {
	d := parseRetryAfter(retryAfter)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(d)
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return defaultBackoff
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return defaultBackoff
		}
		return min(time.Duration(min(secs, math.MaxInt32))*time.Second, maxBackoff)
	}
	if at, err := time.Parse(time.RFC1123, v); err == nil {
		if d := time.Until(at); d > 0 {
			return min(d, maxBackoff)
		}
	}
	return defaultBackoff
}
