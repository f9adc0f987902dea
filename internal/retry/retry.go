// Package retry provides a small exponential-backoff helper shared by the
// loops and the backfill pipeline that call external providers.
package retry

import (
	"context"
	"time"

	"github.com/jpillora/backoff"

	"dexswingbot/internal/ports"
)

// Config controls the backoff curve.
type Config struct {
	Min        time.Duration
	Max        time.Duration
	Factor     float64
	MaxRetries int // 0 means unlimited
}

// DefaultConfig returns a conservative curve suitable for HTTP providers.
func DefaultConfig() Config {
	return Config{
		Min:        500 * time.Millisecond,
		Max:        30 * time.Second,
		Factor:     2,
		MaxRetries: 3,
	}
}

// Do runs fn, retrying on transient errors (ports.IsTransient) with
// exponential backoff until it succeeds, a non-transient error is returned,
// MaxRetries is exhausted, or ctx is canceled.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    cfg.Min,
		Max:    cfg.Max,
		Factor: cfg.Factor,
		Jitter: true,
	}

	attempt := 0
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !ports.IsTransient(err) {
			return err
		}

		attempt++
		if cfg.MaxRetries > 0 && attempt >= cfg.MaxRetries {
			return err
		}

		delay := b.Duration()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
