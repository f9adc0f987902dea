package app

import (
	"context"
	"time"

	"dexswingbot/config"
	"dexswingbot/internal/domain"
	"dexswingbot/internal/execution"
	"dexswingbot/internal/ports"
	"dexswingbot/internal/risk"
	"dexswingbot/internal/signals"
)

// tradingOffset is how far the Trading Loop's tick trails the Price
// Ingestor's, so the latest candle is in place before signals run.
const tradingOffset = 30 * time.Second

// TradingLoop checks exits, then generates and applies entry signals once
// per clock-aligned tick.
type TradingLoop struct {
	logger    ports.Logger
	tokens    ports.TokenRegistry
	candles   ports.CandleStore
	positions ports.PositionStore
	pm        *execution.PositionManager
	breakers  *risk.CircuitBreakers
	execCfg   execution.Config
	userID    string
	lookback  time.Duration
	mustTrack map[string]struct{}
	interval  time.Duration
}

// NewTradingLoop constructs a TradingLoop from application config.
func NewTradingLoop(logger ports.Logger, tokens ports.TokenRegistry, candles ports.CandleStore, positions ports.PositionStore, pm *execution.PositionManager, breakers *risk.CircuitBreakers, cfg *config.Config) *TradingLoop {
	return &TradingLoop{
		logger:    logger,
		tokens:    tokens,
		candles:   candles,
		positions: positions,
		pm:        pm,
		breakers:  breakers,
		execCfg:   executionConfig(cfg),
		userID:    cfg.UserID,
		lookback:  time.Duration(cfg.LookbackHours) * time.Hour,
		mustTrack: mustTrackSet(cfg.MustTrackSymbols),
		interval:  time.Duration(cfg.PollIntervalMinutes) * time.Minute,
	}
}

// Run blocks, ticking 30s after every Price Ingestor boundary, until ctx is
// canceled.
func (tl *TradingLoop) Run(ctx context.Context) {
	runOnSchedule(ctx, tl.interval, tradingOffset, func(now time.Time) {
		tl.tick(ctx, now)
	})
}

func (tl *TradingLoop) tick(ctx context.Context, now time.Time) {
	state := tl.pm.TradingState()
	if !sameUTCDate(state.LastResetDate, now) {
		tl.pm.ResetDaily(now)
	}

	watch := watchlistSet(tl.mustTrack, tl.pm.OpenPositions())
	tokens, err := tl.tokens.ListActiveWithPositions(ctx, watch)
	if err != nil {
		tl.logger.Error(ctx, err, "trading loop: list active tokens failed")
		return
	}

	prices := make(map[string]float64, len(tokens))
	windows := make(map[string][]domain.Candle, len(tokens))
	for _, tok := range tokens {
		window, err := tl.candles.LoadCandles(ctx, tok.Symbol, tl.lookback)
		if err != nil || len(window) == 0 {
			continue
		}
		windows[tok.Symbol] = window
		prices[tok.Symbol] = window[len(window)-1].Close
	}

	for _, id := range tl.pm.CheckExits(prices, now) {
		tl.persist(ctx, id)
	}

	for _, tok := range tokens {
		window, ok := windows[tok.Symbol]
		if !ok {
			continue
		}
		tl.evaluate(ctx, tok, window, prices, now)
	}

	portfolio := tl.pm.PortfolioValue(prices)
	tl.logger.Info(ctx, "trading loop tick complete", map[string]interface{}{
		"portfolio_value": portfolio,
		"open_positions":  len(tl.pm.OpenPositions()),
		"symbols":         len(tokens),
	})
}

func (tl *TradingLoop) evaluate(ctx context.Context, tok *domain.TrackedToken, window []domain.Candle, prices map[string]float64, now time.Time) {
	price, ok := prices[tok.Symbol]
	if !ok {
		return
	}

	sigCfg := signalConfigFor(tok)
	result := signals.Generate(window, sigCfg, containsBackfill(window))
	if result.Signal == domain.SignalHold {
		return
	}

	decision := execution.ProcessSignal(result.Signal, tok.Symbol, price, tl.pm, tl.breakers, tl.execCfg, prices)
	tl.apply(ctx, decision, now, prices)
}

func (tl *TradingLoop) apply(ctx context.Context, decision domain.ExecutionDecision, now time.Time, prices map[string]float64) {
	switch decision.Kind {
	case domain.DecisionExecute:
		pos, err := tl.pm.Open(decision.Symbol, decision.Price, decision.Quantity, now)
		if err != nil {
			tl.logger.Warn(ctx, "trading loop: open failed", map[string]interface{}{"symbol": decision.Symbol, "error": err.Error()})
			return
		}
		pos.UserID = tl.userID
		if err := tl.positions.Insert(ctx, pos); err != nil {
			tl.logger.Error(ctx, err, "trading loop: persist new position failed", map[string]interface{}{"symbol": decision.Symbol})
		}

	case domain.DecisionClose:
		if _, err := tl.pm.Close(decision.PositionID, decision.Price, domain.ExitReasonManual, now, prices); err != nil {
			tl.logger.Warn(ctx, "trading loop: close failed", map[string]interface{}{"positionID": decision.PositionID, "error": err.Error()})
			return
		}
		tl.persist(ctx, decision.PositionID)

	case domain.DecisionSkip:
		tl.logger.Debug(ctx, "trading loop: signal skipped", map[string]interface{}{"reason": decision.Reason})
	}
}

func (tl *TradingLoop) persist(ctx context.Context, positionID string) {
	pos := tl.pm.Position(positionID)
	if pos == nil {
		return
	}
	pos.UserID = tl.userID
	if err := tl.positions.Update(ctx, pos); err != nil {
		tl.logger.Error(ctx, err, "trading loop: persist closed position failed", map[string]interface{}{"positionID": positionID})
	}
}

// containsBackfill reports whether window plausibly mixes backfilled
// candles (volume=0, per the backfill converter) with live snapshots, so
// the signal generator's uniformity check uses the wider tolerance.
func containsBackfill(window []domain.Candle) bool {
	for _, c := range window {
		if c.Volume == 0 {
			return true
		}
	}
	return false
}

func sameUTCDate(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
