package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dexswingbot/internal/domain"
)

func TestRestoreState_SubtractsOpenPositionCost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	open := []*domain.Position{
		{Symbol: "SOL", EntryPrice: 100, Quantity: 2, EntryTime: now.Add(-time.Hour)},
	}

	state := restoreState(10000, 1, now, open, nil)
	assert.Equal(t, 10000.0-(100*2+1), state.CashBalance)
	assert.Equal(t, 1, state.DailyTradeCount)
}

func TestRestoreState_ConsecutiveLossesScansBackwardFromNewest(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loss1 := -5.0
	loss2 := -3.0
	win := 7.0
	exitA := now.Add(-3 * time.Hour)
	exitB := now.Add(-2 * time.Hour)
	exitC := now.Add(-time.Hour)

	// LoadClosed returns newest-first; the most recent two are losses, the
	// oldest is a win, so consecutive_losses should be 2.
	closedDesc := []*domain.Position{
		{ExitTime: &exitC, RealizedPnL: &loss2},
		{ExitTime: &exitB, RealizedPnL: &loss1},
		{ExitTime: &exitA, RealizedPnL: &win},
	}

	state := restoreState(10000, 0, now, nil, closedDesc)
	assert.Equal(t, 2, state.ConsecutiveLosses)
}

func TestRestoreState_OnlyTodaysClosesCountTowardDailyPnL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	today := now.Add(-time.Hour)
	yesterday := now.Add(-25 * time.Hour)
	pnlToday := 10.0
	pnlYesterday := 20.0

	closedDesc := []*domain.Position{
		{ExitTime: &today, RealizedPnL: &pnlToday, EntryTime: today},
		{ExitTime: &yesterday, RealizedPnL: &pnlYesterday, EntryTime: yesterday},
	}

	state := restoreState(10000, 0, now, nil, closedDesc)
	assert.Equal(t, 10.0, state.DailyPnL)
}
