// Package risk implements the pre-trade circuit breaker gate.
package risk

import (
	"fmt"

	"dexswingbot/internal/domain"
)

// Config holds the circuit breaker thresholds.
type Config struct {
	MaxDailyLossPct      float64
	MaxDrawdownPct       float64
	MaxConsecutiveLosses int
	MaxDailyTrades       int
	MaxPositionSizePct   float64
}

// DefaultConfig returns typical production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxDailyLossPct:      0.05,
		MaxDrawdownPct:       0.20,
		MaxConsecutiveLosses: 5,
		MaxDailyTrades:       10,
		MaxPositionSizePct:   0.05,
	}
}

// Trip names which breaker denied the trade.
type Trip string

const (
	TripDailyLoss         Trip = "DailyLoss"
	TripMaxDrawdown       Trip = "MaxDrawdown"
	TripConsecutiveLosses Trip = "ConsecutiveLosses"
	TripDailyTradeLimit   Trip = "DailyTradeLimit"
)

// DeniedError wraps the specific breaker that tripped.
type DeniedError struct {
	Trip Trip
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("circuit breaker: %s", e.Trip)
}

// CircuitBreakers is a pure pre-trade gate over TradingState. Breaker trips
// pause new entries only; Open positions may still be closed.
type CircuitBreakers struct {
	config Config
}

// New constructs a CircuitBreakers with the given thresholds.
func New(config Config) *CircuitBreakers {
	return &CircuitBreakers{config: config}
}

// Check evaluates the four denial rules in order, first match wins, against
// the given trading state and the current portfolio value (computed by the
// Position Manager). It returns nil when no breaker trips.
func (b *CircuitBreakers) Check(state domain.TradingState, portfolioValue float64) error {
	if state.InitialBalance > 0 {
		dailyLossPct := state.DailyPnL / state.InitialBalance
		if dailyLossPct <= -b.config.MaxDailyLossPct {
			return &DeniedError{Trip: TripDailyLoss}
		}
	}

	if state.PeakPortfolioValue > 0 {
		drawdown := (state.PeakPortfolioValue - portfolioValue) / state.PeakPortfolioValue
		if drawdown >= b.config.MaxDrawdownPct {
			return &DeniedError{Trip: TripMaxDrawdown}
		}
	}

	if state.ConsecutiveLosses >= b.config.MaxConsecutiveLosses {
		return &DeniedError{Trip: TripConsecutiveLosses}
	}

	if state.DailyTradeCount >= b.config.MaxDailyTrades {
		return &DeniedError{Trip: TripDailyTradeLimit}
	}

	return nil
}
