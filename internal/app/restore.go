package app

import (
	"time"

	"dexswingbot/internal/domain"
)

// restoreState rebuilds a fresh TradingState after a process restart.
// Per the concurrency model, cash_balance and the daily/streak counters are
// process-local; only Open positions are durable. This does not replay the
// full P&L ledger, it reconstructs exactly what the current process needs
// to behave correctly from this point on:
//   - cash_balance starts at initialBalance minus the cost already sunk
//     into positions that are still Open.
//   - daily_trade_count and daily_pnl are reconstructed from today's
//     activity only.
//   - consecutive_losses is reconstructed by scanning closed positions
//     newest-first until the first win, since that streak does not reset
//     on day rollover and would otherwise be silently lost on restart.
func restoreState(initialBalance, feePerTrade float64, now time.Time, open []*domain.Position, closedDesc []*domain.Position) domain.TradingState {
	state := domain.NewTradingState(initialBalance, now)

	for _, p := range open {
		state.CashBalance -= p.EntryPrice*p.Quantity + feePerTrade
	}

	sameUTCDate := func(t time.Time) bool {
		a, b := t.UTC(), now.UTC()
		return a.Year() == b.Year() && a.YearDay() == b.YearDay()
	}

	for _, p := range open {
		if sameUTCDate(p.EntryTime) {
			state.DailyTradeCount++
		}
	}
	for _, p := range closedDesc {
		if sameUTCDate(p.EntryTime) {
			state.DailyTradeCount++
		}
		if p.RealizedPnL != nil && p.ExitTime != nil && sameUTCDate(*p.ExitTime) {
			state.DailyPnL += *p.RealizedPnL
		}
	}

	for _, p := range closedDesc {
		if p.RealizedPnL == nil {
			continue
		}
		if *p.RealizedPnL < 0 {
			state.ConsecutiveLosses++
		} else {
			break
		}
	}

	return state
}
