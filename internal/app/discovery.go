package app

import (
	"context"
	"time"

	"dexswingbot/config"
	"dexswingbot/internal/backfill"
	"dexswingbot/internal/domain"
	"dexswingbot/internal/execution"
	"dexswingbot/internal/ports"
	"dexswingbot/internal/retry"
)

// trendingLimit is how many candidates the discovery loop asks the
// provider for each tick.
const trendingLimit = 20

// staleAfter/removedAfter are the rotation cutoffs.
const staleAfter = 24 * time.Hour
const removedAfter = 7 * 24 * time.Hour

// discoveryBackfillDays is the fixed lookback the discovery loop seeds a
// newly-found token with, independent of the CLI backfill command's
// configurable --days.
const discoveryBackfillDays = 7

// DiscoveryLoop refreshes the watchlist from a trending provider, applies
// safety filters, ages out stale symbols, and seeds new ones with historical
// data.
type DiscoveryLoop struct {
	logger     ports.Logger
	tokens     ports.TokenRegistry
	candles    ports.CandleStore
	discovery  ports.DiscoveryProvider
	historical ports.HistoricalProvider
	pm         *execution.PositionManager
	mustTrack  map[string]struct{}
	cfg        *config.Config
	interval   time.Duration
}

// NewDiscoveryLoop constructs a DiscoveryLoop from application config.
func NewDiscoveryLoop(logger ports.Logger, tokens ports.TokenRegistry, candles ports.CandleStore, discovery ports.DiscoveryProvider, historical ports.HistoricalProvider, pm *execution.PositionManager, cfg *config.Config) *DiscoveryLoop {
	return &DiscoveryLoop{
		logger:     logger,
		tokens:     tokens,
		candles:    candles,
		discovery:  discovery,
		historical: historical,
		pm:         pm,
		mustTrack:  mustTrackSet(cfg.MustTrackSymbols),
		cfg:        cfg,
		interval:   time.Duration(cfg.DiscoveryIntervalMinutes) * time.Minute,
	}
}

// Run blocks, ticking every DiscoveryIntervalMinutes, until ctx is
// canceled.
func (dl *DiscoveryLoop) Run(ctx context.Context) {
	runOnSchedule(ctx, dl.interval, 0, func(now time.Time) {
		dl.tick(ctx, now)
	})
}

func (dl *DiscoveryLoop) tick(ctx context.Context, now time.Time) {
	existing, err := dl.tokens.ListActive(ctx)
	if err != nil {
		dl.logger.Error(ctx, err, "discovery loop: list active tokens failed")
		return
	}
	knownAddresses := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		knownAddresses[t.Address] = struct{}{}
	}

	var candidates []ports.TrendingCandidate
	err = retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		c, err := dl.discovery.GetTrending(ctx, trendingLimit)
		candidates = c
		return err
	})
	if err != nil {
		dl.logger.Error(ctx, err, "discovery loop: fetch trending failed")
		return
	}

	survivors := make([]ports.TrendingCandidate, 0, len(candidates))
	for _, c := range candidates {
		if dl.passesFilters(c) {
			survivors = append(survivors, c)
		}
	}
	dl.logger.Info(ctx, "discovery loop: candidates filtered", map[string]interface{}{
		"fetched":   len(candidates),
		"survivors": len(survivors),
	})

	newlyInserted := make([]ports.TrendingCandidate, 0)
	for _, c := range survivors {
		if err := dl.tokens.Upsert(ctx, &domain.TrackedToken{
			Symbol:   c.Symbol,
			Address:  c.Address,
			Name:     c.Name,
			Decimals: c.Decimals,
		}); err != nil {
			dl.logger.Warn(ctx, "discovery loop: upsert failed", map[string]interface{}{"symbol": c.Symbol, "error": err.Error()})
			continue
		}
		if _, known := knownAddresses[c.Address]; !known {
			newlyInserted = append(newlyInserted, c)
		}
	}

	protected := watchlistSet(dl.mustTrack, dl.pm.OpenPositions())

	if _, err := dl.tokens.MarkStaleBefore(ctx, now.Add(-staleAfter), protected); err != nil {
		dl.logger.Error(ctx, err, "discovery loop: mark stale failed")
	}
	if _, err := dl.tokens.MarkRemovedBefore(ctx, now.Add(-removedAfter), protected); err != nil {
		dl.logger.Error(ctx, err, "discovery loop: mark removed failed")
	}

	for _, c := range newlyInserted {
		count, err := dl.candles.CountSnapshots(ctx, c.Symbol)
		if err != nil {
			dl.logger.Warn(ctx, "discovery loop: snapshot count failed", map[string]interface{}{"symbol": c.Symbol, "error": err.Error()})
			continue
		}
		if count > 0 {
			continue
		}
		stats, err := backfill.Run(ctx, dl.candles, dl.historical, c.Symbol, c.Address, discoveryBackfillDays, false)
		if err != nil {
			dl.logger.Warn(ctx, "discovery loop: backfill failed", map[string]interface{}{"symbol": c.Symbol, "error": err.Error()})
			continue
		}
		dl.logger.Info(ctx, "discovery loop: backfilled new token", map[string]interface{}{
			"symbol":    c.Symbol,
			"storedNew": stats.StoredNew,
		})
	}

	demoted, err := dl.tokens.EvictOldestActive(ctx, dl.cfg.MaxWatchlist, protected)
	if err != nil {
		dl.logger.Error(ctx, err, "discovery loop: evict oldest failed")
	} else if demoted > 0 {
		dl.logger.Info(ctx, "discovery loop: capped watchlist", map[string]interface{}{"demoted": demoted})
	}
}

func (dl *DiscoveryLoop) passesFilters(c ports.TrendingCandidate) bool {
	if c.LiquidityUSD < dl.cfg.MinLiquidityUSD {
		return false
	}
	if c.Volume24hUSD < dl.cfg.MinVolume24hUSD {
		return false
	}
	if c.FDVUSD < dl.cfg.MinFDVUSD {
		return false
	}
	if c.Rank > dl.cfg.MaxRank {
		return false
	}
	return true
}
