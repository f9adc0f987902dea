package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexswingbot/internal/domain"
)

func testConfig() Config {
	return Config{
		StopLossPct:         0.08,
		TPActivationPct:     0.12,
		TrailPct:            0.05,
		TimeStopDays:        14,
		FeePerTrade:         0,
		MaxPositionSizePct:  0.05,
		MinPositionNotional: 10,
	}
}

func TestPositionManager_Open(t *testing.T) {
	pm := New(testConfig(), 10000, time.Now())
	p, err := pm.Open("SOL", 100, 1, time.Now())
	require.NoError(t, err)

	assert.True(t, pm.HasOpenPosition("SOL"))
	assert.Equal(t, 92.0, p.StopLoss)
	assert.Equal(t, domain.StatusOpen, p.Status)
	assert.Equal(t, 9900.0, pm.AvailableCash())
}

func TestPositionManager_Open_RejectsDuplicateSymbol(t *testing.T) {
	pm := New(testConfig(), 10000, time.Now())
	_, err := pm.Open("SOL", 100, 1, time.Now())
	require.NoError(t, err)

	_, err = pm.Open("SOL", 105, 1, time.Now())
	assert.Error(t, err)
}

func TestPositionManager_Open_RejectsInsufficientCash(t *testing.T) {
	pm := New(testConfig(), 50, time.Now())
	_, err := pm.Open("SOL", 100, 1, time.Now())
	assert.Error(t, err)
}

func TestPositionManager_CheckExits_StopLoss(t *testing.T) {
	now := time.Now()
	pm := New(testConfig(), 10000, now)
	p, err := pm.Open("SOL", 100, 1, now)
	require.NoError(t, err)

	closed := pm.CheckExits(map[string]float64{"SOL": 91}, now)
	require.Len(t, closed, 1)
	assert.Equal(t, p.ID, closed[0])
	assert.False(t, pm.HasOpenPosition("SOL"))
}

func TestPositionManager_CheckExits_TrailingTakeProfit(t *testing.T) {
	now := time.Now()
	pm := New(testConfig(), 10000, now)
	_, err := pm.Open("SOL", 100, 1, now)
	require.NoError(t, err)

	// 110 doesn't activate the trailing stop (needs +12%).
	closed := pm.CheckExits(map[string]float64{"SOL": 110}, now)
	assert.Empty(t, closed)
	assert.Equal(t, 0.0, pm.OpenPosition("SOL").TakeProfit)

	// 113 activates it: trailing_high=113, take_profit=113*0.95=107.35.
	closed = pm.CheckExits(map[string]float64{"SOL": 113}, now)
	assert.Empty(t, closed)
	assert.InDelta(t, 107.35, pm.OpenPosition("SOL").TakeProfit, 1e-9)

	// New high at 120 ratchets the trailing stop up to 114.
	closed = pm.CheckExits(map[string]float64{"SOL": 120}, now)
	assert.Empty(t, closed)
	assert.InDelta(t, 114.0, pm.OpenPosition("SOL").TakeProfit, 1e-9)

	// 113 is below the ratcheted stop: exit.
	closed = pm.CheckExits(map[string]float64{"SOL": 113}, now)
	require.Len(t, closed, 1)
}

func TestPositionManager_CheckExits_TimeStop(t *testing.T) {
	now := time.Now()
	pm := New(testConfig(), 10000, now)
	entryTime := now.Add(-15 * 24 * time.Hour)
	_, err := pm.Open("SOL", 100, 1, entryTime)
	require.NoError(t, err)

	closed := pm.CheckExits(map[string]float64{"SOL": 105}, now)
	require.Len(t, closed, 1)
}

func TestPositionManager_Close_TracksPnLAndConsecutiveLosses(t *testing.T) {
	now := time.Now()
	pm := New(testConfig(), 10000, now)
	p, err := pm.Open("SOL", 100, 2, now)
	require.NoError(t, err)

	pnl, err := pm.Close(p.ID, 95, domain.ExitReasonStopLoss, now, nil)
	require.NoError(t, err)
	assert.Equal(t, -10.0, pnl)
	assert.Equal(t, 1, pm.TradingState().ConsecutiveLosses)
	assert.Equal(t, -10.0, pm.TradingState().DailyPnL)

	p2, err := pm.Open("JUP", 1, 100, now)
	require.NoError(t, err)
	pnl, err = pm.Close(p2.ID, 1.1, domain.ExitReasonTakeProfit, now, nil)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, pnl, 1e-9)
	assert.Equal(t, 0, pm.TradingState().ConsecutiveLosses)
}

func TestPositionManager_Close_RejectsAlreadyClosed(t *testing.T) {
	now := time.Now()
	pm := New(testConfig(), 10000, now)
	p, err := pm.Open("SOL", 100, 1, now)
	require.NoError(t, err)

	_, err = pm.Close(p.ID, 110, domain.ExitReasonTakeProfit, now, nil)
	require.NoError(t, err)

	_, err = pm.Close(p.ID, 115, domain.ExitReasonManual, now, nil)
	assert.Error(t, err)
}

func TestPositionManager_PortfolioValue(t *testing.T) {
	now := time.Now()
	pm := New(testConfig(), 10000, now)
	_, err := pm.Open("SOL", 100, 2, now)
	require.NoError(t, err)

	prices := map[string]float64{"SOL": 110}
	// cash after open: 10000 - 200 = 9800; position marks at 2*110=220.
	assert.Equal(t, 10020.0, pm.PortfolioValue(prices))
}
