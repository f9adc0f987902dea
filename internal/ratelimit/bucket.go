// Package ratelimit provides a minimal token bucket shared by provider
// adapters that must respect a per-provider request rate (discovery,
// historical backfill).
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket refilled at a fixed rate up to a burst capacity.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// New creates a bucket that allows ratePerSecond sustained requests with
// bursts up to burst.
func New(ratePerSecond float64, burst int) *Bucket {
	return &Bucket{
		tokens:     float64(burst),
		capacity:   float64(burst),
		refillRate: ratePerSecond,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is canceled.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		wait := b.reserve()
		if wait <= 0 {
			return nil
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reserve refills the bucket, consumes a token if available, and returns
// how long the caller must wait before trying again.
func (b *Bucket) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return 0
	}
	deficit := 1 - b.tokens
	return time.Duration(deficit/b.refillRate*1000) * time.Millisecond
}
