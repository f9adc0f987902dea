package execution

import (
	"errors"
	"fmt"

	"dexswingbot/internal/domain"
	"dexswingbot/internal/risk"
)

// ProcessSignal is a pure decision function from a signal and current market
// price to an ExecutionDecision. It does not mutate the PositionManager; the
// caller applies the returned decision.
func ProcessSignal(signal domain.Signal, symbol string, currentPrice float64, pm *PositionManager, breakers *risk.CircuitBreakers, cfg Config, prices map[string]float64) domain.ExecutionDecision {
	switch signal {
	case domain.SignalSell:
		if p := pm.OpenPosition(symbol); p != nil {
			return domain.ExecutionDecision{Kind: domain.DecisionClose, PositionID: p.ID, Price: currentPrice}
		}
		return skip("no position")

	case domain.SignalHold:
		return skip("hold")

	case domain.SignalBuy:
		if pm.HasOpenPosition(symbol) {
			return skip("already positioned")
		}
		if err := pm.CircuitBreakerCheck(breakers, prices); err != nil {
			return skip(fmt.Sprintf("circuit breaker: %s", unwrapTrip(err)))
		}

		state := pm.TradingState()
		target := state.InitialBalance * cfg.MaxPositionSizePct
		actual := target
		if cash := pm.AvailableCash(); cash < actual {
			actual = cash
		}
		if actual < cfg.MinPositionNotional {
			return skip("position too small")
		}
		if currentPrice <= 0 {
			return skip("invalid price")
		}

		return domain.ExecutionDecision{
			Kind:     domain.DecisionExecute,
			Symbol:   symbol,
			Quantity: actual / currentPrice,
			Price:    currentPrice,
		}

	default:
		return skip("unknown signal")
	}
}

func skip(reason string) domain.ExecutionDecision {
	return domain.ExecutionDecision{Kind: domain.DecisionSkip, Reason: reason}
}

// unwrapTrip extracts the Trip name for a denial, falling back to the raw
// error text for anything unexpected.
func unwrapTrip(err error) string {
	var denied *risk.DeniedError
	if errors.As(err, &denied) {
		return string(denied.Trip)
	}
	return err.Error()
}
