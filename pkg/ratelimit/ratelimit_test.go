package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiterStartsFull(t *testing.T) {
	rl := NewRateLimiter(10.0, 20.0)
	if rl.rate != 10.0 {
		t.Errorf("rate = %v, want 10.0", rl.rate)
	}
	if rl.bucketSize != 20.0 {
		t.Errorf("bucketSize = %v, want 20.0", rl.bucketSize)
	}
	if rl.tokens != 20.0 {
		t.Errorf("tokens = %v, want a full bucket", rl.tokens)
	}
}

func TestWaitWithinBurstDoesNotBlock(t *testing.T) {
	rl := NewRateLimiter(10.0, 5.0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("burst took %v, want near-instant", elapsed)
	}
}

func TestWaitBlocksWhenBucketEmpty(t *testing.T) {
	rl := NewRateLimiter(10.0, 1.0)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second Wait() returned after %v, want a refill pause", elapsed)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	rl := NewRateLimiter(0.5, 1.0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("second Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
