package domain

import "time"

// TradingState is the per-user, process-resident risk/P&L state. It is
// mutated only by the Position Manager's critical section.
type TradingState struct {
	InitialBalance     float64
	CashBalance        float64
	DailyPnL           float64
	PeakPortfolioValue float64
	ConsecutiveLosses  int
	DailyTradeCount    int
	LastResetDate      time.Time
}

// NewTradingState seeds a fresh state with the given starting capital.
func NewTradingState(initialBalance float64, now time.Time) TradingState {
	return TradingState{
		InitialBalance:     initialBalance,
		CashBalance:        initialBalance,
		PeakPortfolioValue: initialBalance,
		LastResetDate:      now,
	}
}

// ResetDaily zeroes the daily counters on a UTC date rollover.
// ConsecutiveLosses does NOT reset here; it only resets on a winning close.
func (s *TradingState) ResetDaily(now time.Time) {
	s.DailyPnL = 0
	s.DailyTradeCount = 0
	s.LastResetDate = now
}
