package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dexswingbot/internal/domain"
	"dexswingbot/internal/ports"
	"dexswingbot/internal/risk"
)

// PositionManager owns all positions and the cash/P&L cell for one user.
// Every mutating operation runs inside a single short critical section so
// concurrent readers (the executor, the trading loop) always observe a
// consistent snapshot.
type PositionManager struct {
	mu sync.Mutex

	cfg       Config
	state     domain.TradingState
	positions map[string]*domain.Position
	bySymbol  map[string]string // symbol -> open position id
}

// New constructs an empty PositionManager seeded with initialBalance.
func New(cfg Config, initialBalance float64, now time.Time) *PositionManager {
	return &PositionManager{
		cfg:       cfg,
		state:     domain.NewTradingState(initialBalance, now),
		positions: make(map[string]*domain.Position),
		bySymbol:  make(map[string]string),
	}
}

// Restore rebuilds a PositionManager from previously persisted positions and
// a TradingState the caller has already reconstructed. It recomputes
// nothing: state is installed as given, every position is indexed by id, and
// Open ones also by symbol. Mirrors the store-restart path.
func Restore(cfg Config, state domain.TradingState, positions []*domain.Position) *PositionManager {
	pm := &PositionManager{
		cfg:       cfg,
		state:     state,
		positions: make(map[string]*domain.Position),
		bySymbol:  make(map[string]string),
	}
	for _, p := range positions {
		pm.positions[p.ID] = p
		if p.IsOpen() {
			pm.bySymbol[p.Symbol] = p.ID
		}
	}
	return pm
}

// TradingState returns a copy of the current risk/P&L state.
func (pm *PositionManager) TradingState() domain.TradingState {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.state
}

// AvailableCash is the cash_balance available for new entries.
func (pm *PositionManager) AvailableCash() float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.state.CashBalance
}

// HasOpenPosition reports whether symbol currently has an Open position.
func (pm *PositionManager) HasOpenPosition(symbol string) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	_, ok := pm.bySymbol[symbol]
	return ok
}

// OpenPosition returns the Open position for symbol, if any.
func (pm *PositionManager) OpenPosition(symbol string) *domain.Position {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	id, ok := pm.bySymbol[symbol]
	if !ok {
		return nil
	}
	p := *pm.positions[id]
	return &p
}

// Position returns a copy of the position with id, open or closed, or nil
// if id is unknown. Callers use this to persist the result of Close or
// CheckExits, which report ids without the full record.
func (pm *PositionManager) Position(id string) *domain.Position {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	p, ok := pm.positions[id]
	if !ok {
		return nil
	}
	result := *p
	return &result
}

// OpenPositions returns a snapshot of every currently Open position.
func (pm *PositionManager) OpenPositions() []domain.Position {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	out := make([]domain.Position, 0, len(pm.bySymbol))
	for _, id := range pm.bySymbol {
		out = append(out, *pm.positions[id])
	}
	return out
}

// PortfolioValue is cash_balance plus the mark-to-market value of every Open
// position priced from prices. A symbol missing from prices contributes
// nothing (its last-known value is simply not marked).
func (pm *PositionManager) PortfolioValue(prices map[string]float64) float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.portfolioValueLocked(prices)
}

func (pm *PositionManager) portfolioValueLocked(prices map[string]float64) float64 {
	total := pm.state.CashBalance
	for _, id := range pm.bySymbol {
		p := pm.positions[id]
		if price, ok := prices[p.Symbol]; ok {
			total += p.Quantity * price
		}
	}
	return total
}

// ResetDaily zeroes the daily counters; called by the Trading Loop once per
// tick, before generating new signals, whenever the UTC date has rolled
// over since the last tick.
func (pm *PositionManager) ResetDaily(now time.Time) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.state.ResetDaily(now)
}

// Open opens a new position for symbol. Fails if symbol already has
// an Open position, quantity is non-positive, or the notional plus fee
// exceeds available cash.
func (pm *PositionManager) Open(symbol string, entryPrice, quantity float64, now time.Time) (*domain.Position, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.bySymbol[symbol]; exists {
		return nil, fmt.Errorf("open position for %s: %w", symbol, ports.ErrPositionAlreadyOpen)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("open position for %s: %w", symbol, ports.ErrInvalidQuantity)
	}
	cost := entryPrice*quantity + pm.cfg.FeePerTrade
	if cost > pm.state.CashBalance {
		return nil, fmt.Errorf("open position for %s: %w", symbol, ports.ErrInsufficientCash)
	}

	p := &domain.Position{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		EntryPrice:   entryPrice,
		Quantity:     quantity,
		EntryTime:    now,
		StopLoss:     entryPrice * (1 - pm.cfg.StopLossPct),
		TrailingHigh: entryPrice,
		Status:       domain.StatusOpen,
	}

	pm.positions[p.ID] = p
	pm.bySymbol[symbol] = p.ID
	pm.state.CashBalance -= cost
	pm.state.DailyTradeCount++

	result := *p
	return &result, nil
}

// Close closes an Open position by id at exitPrice for reason, updating
// cash, realized P&L, consecutive-loss streak, and the peak-portfolio-value
// high-water mark. prices is used to mark the rest of the book for the
// peak-portfolio-value update.
func (pm *PositionManager) Close(id string, exitPrice float64, reason domain.ExitReason, now time.Time, prices map[string]float64) (float64, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, ok := pm.positions[id]
	if !ok || !p.IsOpen() {
		return 0, fmt.Errorf("close position %s: %w", id, ports.ErrPositionNotOpen)
	}

	gross := (exitPrice - p.EntryPrice) * p.Quantity
	pnl := gross - 2*pm.cfg.FeePerTrade

	p.Status = domain.StatusClosed
	p.RealizedPnL = &pnl
	p.ExitPrice = &exitPrice
	p.ExitTime = &now
	p.ExitReason = &reason

	delete(pm.bySymbol, p.Symbol)

	pm.state.CashBalance += exitPrice*p.Quantity - pm.cfg.FeePerTrade
	pm.state.DailyPnL += pnl
	if pnl < 0 {
		pm.state.ConsecutiveLosses++
	} else {
		pm.state.ConsecutiveLosses = 0
	}

	if pv := pm.portfolioValueLocked(prices); pv > pm.state.PeakPortfolioValue {
		pm.state.PeakPortfolioValue = pv
	}

	return pnl, nil
}

// CheckExits evaluates every Open position with a known price in prices,
// updates trailing-stop bookkeeping, and closes any position whose exit
// condition fires. Exit precedence is StopLoss, then TakeProfit, then
// TimeStop. It returns the ids of positions closed this call.
func (pm *PositionManager) CheckExits(prices map[string]float64, now time.Time) []string {
	pm.mu.Lock()

	type pending struct {
		id     string
		price  float64
		reason domain.ExitReason
	}
	var toClose []pending

	for symbol, id := range pm.bySymbol {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		p := pm.positions[id]

		if price > p.TrailingHigh {
			p.TrailingHigh = price
		}
		activationPrice := p.EntryPrice * (1 + pm.cfg.TPActivationPct)
		if p.TrailingHigh >= activationPrice {
			p.TakeProfit = p.TrailingHigh * (1 - pm.cfg.TrailPct)
		}

		switch {
		case price <= p.StopLoss:
			toClose = append(toClose, pending{id, price, domain.ExitReasonStopLoss})
		case p.TakeProfit > 0 && price <= p.TakeProfit:
			toClose = append(toClose, pending{id, price, domain.ExitReasonTakeProfit})
		case now.Sub(p.EntryTime) >= time.Duration(pm.cfg.TimeStopDays)*24*time.Hour:
			toClose = append(toClose, pending{id, price, domain.ExitReasonTimeStop})
		}
	}
	pm.mu.Unlock()

	closed := make([]string, 0, len(toClose))
	for _, c := range toClose {
		if _, err := pm.Close(c.id, c.price, c.reason, now, prices); err == nil {
			closed = append(closed, c.id)
		}
	}
	return closed
}

// CircuitBreakerCheck runs breakers against the current state and the
// portfolio value implied by prices.
func (pm *PositionManager) CircuitBreakerCheck(breakers *risk.CircuitBreakers, prices map[string]float64) error {
	pm.mu.Lock()
	state := pm.state
	pv := pm.portfolioValueLocked(prices)
	pm.mu.Unlock()
	return breakers.Check(state, pv)
}
