// Package backfill fetches a historical price/volume series, buckets it
// into fixed-width candles, and merges the result into the candle store
// without disturbing the region the live ingestor already owns.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dexswingbot/internal/domain"
	"dexswingbot/internal/ports"
	"dexswingbot/internal/retry"
	"dexswingbot/internal/signals"
)

// BucketWidth is the fixed candle width every backfilled candle is
// synthesized at, matching the live ingestor's cadence.
const BucketWidth = signals.BarInterval

// Stats summarizes one backfill run.
type Stats struct {
	FetchedPoints      int
	ConvertedCandles   int
	SkippedExisting    int
	SkippedLiveOverlap int
	StoredNew          int
	ValidationFailures int
}

// Run executes the full backfill pipeline for one symbol.
func Run(ctx context.Context, store ports.CandleStore, provider ports.HistoricalProvider, symbol, address string, days int, force bool) (Stats, error) {
	var stats Stats

	var externalID string
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		id, err := provider.ResolveExternalID(ctx, symbol, address)
		if err != nil {
			return err
		}
		externalID = id
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("resolve external id for %s: %w", symbol, err)
	}

	var series ports.HistoricalSeries
	err = retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		s, err := provider.GetMarketChart(ctx, externalID, days)
		if err != nil {
			return err
		}
		series = s
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("fetch market chart for %s: %w", symbol, err)
	}
	stats.FetchedPoints = len(series.Prices)
	if stats.FetchedPoints == 0 {
		return stats, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}

	candles := convertToCandles(symbol, series)
	stats.ConvertedCandles = len(candles)

	var latestLive time.Time
	existing, err := store.Timestamps(ctx, symbol)
	if err != nil {
		return stats, fmt.Errorf("load existing timestamps for %s: %w", symbol, err)
	}
	for _, ts := range existing {
		if ts.After(latestLive) {
			latestLive = ts
		}
	}
	liveBoundary := latestLive.Add(-24 * time.Hour)

	toStore := make([]domain.Candle, 0, len(candles))
	now := time.Now().UTC()
	for _, c := range candles {
		if err := c.Validate(now); err != nil {
			stats.ValidationFailures++
			continue
		}
		if !latestLive.IsZero() && c.Timestamp.After(liveBoundary) {
			stats.SkippedLiveOverlap++
			continue
		}
		if !force && isDuplicate(c, existing) {
			stats.SkippedExisting++
			continue
		}
		toStore = append(toStore, c)
	}

	if len(toStore) == 0 {
		return stats, nil
	}
	if err := store.SaveCandles(ctx, symbol, toStore); err != nil {
		return stats, fmt.Errorf("save backfilled candles for %s: %w", symbol, err)
	}
	stats.StoredNew = len(toStore)
	return stats, nil
}

func isDuplicate(c domain.Candle, existing []time.Time) bool {
	for _, ts := range existing {
		delta := c.Timestamp.Sub(ts)
		if delta < 0 {
			delta = -delta
		}
		if delta <= domain.DuplicateWindow {
			return true
		}
	}
	return false
}

// convertToCandles deduplicates by timestamp (last value wins), sorts
// ascending, buckets into fixed UTC-aligned 5-minute windows, and
// synthesizes one OHLCV candle per non-empty bucket. Empty buckets are
// skipped, never forward-filled.
func convertToCandles(symbol string, series ports.HistoricalSeries) []domain.Candle {
	deduped := dedupeSorted(series.Prices)
	if len(deduped) == 0 {
		return nil
	}

	buckets := make(map[int64][]float64)
	var order []int64
	for _, p := range deduped {
		key := bucketStart(p.Timestamp).Unix()
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], p.Value)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	candles := make([]domain.Candle, 0, len(order))
	for _, key := range order {
		values := buckets[key]
		c := domain.Candle{
			Symbol:    symbol,
			Timestamp: time.Unix(key, 0).UTC(),
			Open:      values[0],
			Close:     values[len(values)-1],
			Volume:    0,
		}
		c.High, c.Low = values[0], values[0]
		for _, v := range values {
			if v > c.High {
				c.High = v
			}
			if v < c.Low {
				c.Low = v
			}
		}
		candles = append(candles, c)
	}
	return candles
}

func bucketStart(t time.Time) time.Time {
	return t.UTC().Truncate(BucketWidth)
}

func dedupeSorted(points []ports.HistoricalPoint) []ports.HistoricalPoint {
	byTimestamp := make(map[int64]ports.HistoricalPoint, len(points))
	var order []int64
	for _, p := range points {
		key := p.Timestamp.Unix()
		if _, ok := byTimestamp[key]; !ok {
			order = append(order, key)
		}
		byTimestamp[key] = p // last value wins
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]ports.HistoricalPoint, len(order))
	for i, key := range order {
		out[i] = byTimestamp[key]
	}
	return out
}

// ErrEmptySeries is returned when a provider responds with zero price points.
var ErrEmptySeries = errors.New("historical series is empty")
