package app

import (
	"context"
	"sync"
	"time"

	"dexswingbot/internal/domain"
	"dexswingbot/internal/execution"
	"dexswingbot/internal/ports"
	"dexswingbot/internal/retry"
	"dexswingbot/internal/signals"
)

// maxConcurrentQuotes bounds how many symbols the ingestor fetches at once,
// so a slow or rate-limited provider can't pile up unbounded goroutines.
const maxConcurrentQuotes = 8

// cleanupInterval is how often the ingestor runs CleanupOld per symbol.
const cleanupInterval = time.Hour

// candleRetention is how far back CleanupOld keeps candles.
const candleRetention = 48 * time.Hour

// sessionGap bounds how far back the ingestor will look for a prior candle
// to chain opens from; older than this counts as a new session.
const sessionGap = 2 * signals.BarInterval

// PriceIngestor snapshots the current price of every active symbol into a
// new candle on a clock-aligned cadence.
type PriceIngestor struct {
	logger      ports.Logger
	tokens      ports.TokenRegistry
	candles     ports.CandleStore
	quotes      ports.LiveQuoteProvider
	pm          *execution.PositionManager
	mustTrack   map[string]struct{}
	interval    time.Duration
	lastCleanup time.Time
}

// NewPriceIngestor constructs a PriceIngestor polling at interval.
func NewPriceIngestor(logger ports.Logger, tokens ports.TokenRegistry, candles ports.CandleStore, quotes ports.LiveQuoteProvider, pm *execution.PositionManager, mustTrack map[string]struct{}, interval time.Duration) *PriceIngestor {
	return &PriceIngestor{
		logger:    logger,
		tokens:    tokens,
		candles:   candles,
		quotes:    quotes,
		pm:        pm,
		mustTrack: mustTrack,
		interval:  interval,
	}
}

// Run blocks, ticking on a clock-aligned cadence until ctx is canceled.
func (ing *PriceIngestor) Run(ctx context.Context) {
	runOnSchedule(ctx, ing.interval, 0, func(now time.Time) {
		ing.tick(ctx, now)
	})
}

func (ing *PriceIngestor) tick(ctx context.Context, now time.Time) {
	watch := watchlistSet(ing.mustTrack, ing.pm.OpenPositions())
	tokens, err := ing.tokens.ListActiveWithPositions(ctx, watch)
	if err != nil {
		ing.logger.Error(ctx, err, "ingestor: list active tokens failed")
		return
	}

	sem := make(chan struct{}, maxConcurrentQuotes)
	var wg sync.WaitGroup
	for _, tok := range tokens {
		tok := tok
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			ing.ingestOne(ctx, tok, now)
		}()
	}
	wg.Wait()

	if now.Sub(ing.lastCleanup) >= cleanupInterval {
		for _, tok := range tokens {
			if _, err := ing.candles.CleanupOld(ctx, tok.Symbol, candleRetention); err != nil {
				ing.logger.Warn(ctx, "ingestor: cleanup failed", map[string]interface{}{"symbol": tok.Symbol, "error": err.Error()})
			}
		}
		ing.lastCleanup = now
	}
}

func (ing *PriceIngestor) ingestOne(ctx context.Context, tok *domain.TrackedToken, now time.Time) {
	var quote ports.Quote
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		q, err := ing.quotes.GetQuote(ctx, tok.Address)
		quote = q
		return err
	})
	if err != nil {
		ing.logger.Warn(ctx, "ingestor: quote fetch failed", map[string]interface{}{"symbol": tok.Symbol, "error": err.Error()})
		return
	}

	candle := domain.Candle{
		Symbol:    tok.Symbol,
		Timestamp: now,
		Close:     quote.Price,
		Volume:    quote.Volume24h,
	}
	if prev, ok := ing.lastCandle(ctx, tok.Symbol, now); ok {
		candle.Open = prev.Close
	} else {
		candle.Open = quote.Price
	}
	candle.High = max(candle.Open, candle.Close)
	candle.Low = min(candle.Open, candle.Close)

	if err := candle.Validate(now); err != nil {
		ing.logger.Warn(ctx, "ingestor: dropped invalid snapshot", map[string]interface{}{"symbol": tok.Symbol, "error": err.Error()})
		return
	}

	if err := ing.candles.SaveCandles(ctx, tok.Symbol, []domain.Candle{candle}); err != nil {
		ing.logger.Error(ctx, err, "ingestor: save candle failed", map[string]interface{}{"symbol": tok.Symbol})
	}
}

func (ing *PriceIngestor) lastCandle(ctx context.Context, symbol string, now time.Time) (domain.Candle, bool) {
	window, err := ing.candles.LoadCandles(ctx, symbol, sessionGap)
	if err != nil || len(window) == 0 {
		return domain.Candle{}, false
	}
	last := window[len(window)-1]
	if now.Sub(last.Timestamp) > sessionGap {
		return domain.Candle{}, false
	}
	return last, true
}

func watchlistSet(mustTrack map[string]struct{}, open []domain.Position) map[string]struct{} {
	set := make(map[string]struct{}, len(mustTrack)+len(open))
	for sym := range mustTrack {
		set[sym] = struct{}{}
	}
	for _, p := range open {
		set[p.Symbol] = struct{}{}
	}
	return set
}
