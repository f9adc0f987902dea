// Package app wires the Candle Store, Position Store, Token Registry, and
// provider adapters into the three cooperating loops described in the
// concurrency model: the Price Ingestor, the Trading Loop, and the
// Discovery Loop.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dexswingbot/config"
	"dexswingbot/internal/execution"
	"dexswingbot/internal/ports"
	"dexswingbot/internal/risk"
)

// Service owns the shared Position Manager and the three independently
// ticked loops that read and mutate it.
type Service struct {
	logger ports.Logger

	ingestor *PriceIngestor
	trading  *TradingLoop
	discover *DiscoveryLoop

	pm *execution.PositionManager
}

// New wires a Service from durable stores and provider adapters, restoring
// in-memory trading state from whatever Open and Closed positions already
// exist for cfg.UserID.
func New(
	ctx context.Context,
	cfg *config.Config,
	logger ports.Logger,
	candles ports.CandleStore,
	positions ports.PositionStore,
	tokens ports.TokenRegistry,
	liveQuote ports.LiveQuoteProvider,
	discovery ports.DiscoveryProvider,
	historical ports.HistoricalProvider,
) (*Service, error) {
	open, err := positions.LoadOpen(ctx, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("load open positions: %w", err)
	}
	closedDesc, err := positions.LoadClosed(ctx, cfg.UserID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load closed positions: %w", err)
	}

	execCfg := executionConfig(cfg)
	now := time.Now().UTC()
	state := restoreState(cfg.InitialPortfolioValue, execCfg.FeePerTrade, now, open, closedDesc)
	pm := execution.Restore(execCfg, state, open)

	logger.Info(ctx, "trading state restored", map[string]interface{}{
		"openPositions":   len(open),
		"cashBalance":     state.CashBalance,
		"dailyTradeCount": state.DailyTradeCount,
		"consecutiveLoss": state.ConsecutiveLosses,
	})

	breakers := risk.New(riskConfig(cfg))
	mustTrack := mustTrackSet(cfg.MustTrackSymbols)
	pollInterval := time.Duration(cfg.PollIntervalMinutes) * time.Minute

	return &Service{
		logger:   logger,
		pm:       pm,
		ingestor: NewPriceIngestor(logger, tokens, candles, liveQuote, pm, mustTrack, pollInterval),
		trading:  NewTradingLoop(logger, tokens, candles, positions, pm, breakers, cfg),
		discover: NewDiscoveryLoop(logger, tokens, candles, discovery, historical, pm, cfg),
	}, nil
}

// Run starts all three loops and blocks until ctx is canceled or a SIGINT/
// SIGTERM is received, then waits for every loop to finish its current
// tick before returning.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "shutdown signal received", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info(ctx, "starting loops")

	var wg sync.WaitGroup
	for _, loop := range []func(context.Context){s.ingestor.Run, s.trading.Run, s.discover.Run} {
		loop := loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx)
		}()
	}
	wg.Wait()

	s.logger.Info(ctx, "all loops stopped")
	return nil
}
