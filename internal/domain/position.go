package domain

import "time"

// Position is a single paper-trading position, open or closed. While Open,
// all exit fields are the zero value and TrailingHigh >= EntryPrice; while
// Closed, all exit fields are set and RealizedPnL is the fee-adjusted gain.
type Position struct {
	ID           string // uuid
	UserID       string
	Symbol       string
	EntryPrice   float64
	Quantity     float64
	EntryTime    time.Time
	StopLoss     float64
	TakeProfit   float64 // 0 means "not yet activated"
	TrailingHigh float64
	Status       PositionStatus

	RealizedPnL *float64
	ExitPrice   *float64
	ExitTime    *time.Time
	ExitReason  *ExitReason
}

// IsOpen reports whether the position is currently open.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// UnrealizedPnL computes the mark-to-market gain at currentPrice for an Open
// position. Callers must not call this on a Closed position.
func (p *Position) UnrealizedPnL(currentPrice float64) float64 {
	return (currentPrice - p.EntryPrice) * p.Quantity
}
