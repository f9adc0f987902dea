package app

import (
	"context"
	"time"
)

// nextAlignedTick returns the first instant strictly after now that falls on an
// interval boundary plus offset (e.g. interval=5m, offset=30s ticks at
// :00:30, :05:30, :10:30, ...).
func nextAlignedTick(now time.Time, interval, offset time.Duration) time.Time {
	base := now.Truncate(interval)
	next := base.Add(offset)
	if !next.After(now) {
		next = next.Add(interval)
	}
	return next
}

// runOnSchedule blocks, invoking tick at each clock-aligned boundary, until
// ctx is canceled. tick runs synchronously; a long tick delays the next
// boundary rather than overlapping with it.
func runOnSchedule(ctx context.Context, interval, offset time.Duration, tick func(now time.Time)) {
	for {
		next := nextAlignedTick(time.Now().UTC(), interval, offset)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			tick(now.UTC())
		}
	}
}
