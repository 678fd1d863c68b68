// Package ratelimit paces outbound calls to the Metricore API so a busy
// dashboard cannot exhaust the account's request quota.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter.
type RateLimiter struct {
	rate       float64
	bucketSize float64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a rate limiter refilling at rate tokens per
// second with capacity bucketSize.
func NewRateLimiter(rate float64, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		rate:       rate,
		bucketSize: bucketSize,
		tokens:     bucketSize,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Refill for the time elapsed since the last caller.
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.bucketSize, rl.tokens+elapsed*rl.rate)
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return nil
	}

	waitTime := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))

	select {
	case <-time.After(waitTime):
		rl.tokens = 0
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
