package ports

import (
	"context"
	"time"

	"dexswingbot/internal/domain"
)

// CandleStore is a persistent, per-symbol ordered sequence of OHLCV bars.
type CandleStore interface {
	// SaveCandles is an idempotent write keyed by timestamp: a later write
	// at the same second-precision timestamp replaces the earlier one.
	SaveCandles(ctx context.Context, symbol string, candles []domain.Candle) error
	// LoadCandles returns candles with timestamp >= now-hoursBack, ascending.
	LoadCandles(ctx context.Context, symbol string, hoursBack time.Duration) ([]domain.Candle, error)
	// CountSnapshots returns the number of stored candles for symbol.
	CountSnapshots(ctx context.Context, symbol string) (int, error)
	// CleanupOld deletes candles older than now-keepHours and returns the
	// number removed.
	CleanupOld(ctx context.Context, symbol string, keepHours time.Duration) (int, error)
	// Timestamps returns every stored timestamp for symbol, used for
	// overlap detection during backfill.
	Timestamps(ctx context.Context, symbol string) ([]time.Time, error)
}

// PositionStore holds durable open/closed position records per user.
type PositionStore interface {
	Insert(ctx context.Context, pos *domain.Position) error
	// Update persists the only permitted transition: Open -> Closed with
	// all exit fields set atomically.
	Update(ctx context.Context, pos *domain.Position) error
	LoadOpen(ctx context.Context, userID string) ([]*domain.Position, error)
	LoadClosed(ctx context.Context, userID string, since time.Time) ([]*domain.Position, error)
	FindOpenBySymbol(ctx context.Context, userID, symbol string) (*domain.Position, error)
}

// TokenRegistry is the mutable set of tracked symbols.
type TokenRegistry interface {
	ListActive(ctx context.Context) ([]*domain.TrackedToken, error)
	// ListActiveWithPositions returns tokens with Status Active OR whose
	// symbol is in openSymbols; callers put must-track symbols into that set
	// alongside the symbols with open positions.
	ListActiveWithPositions(ctx context.Context, openSymbols map[string]struct{}) ([]*domain.TrackedToken, error)
	// Upsert inserts or updates the token row keyed by address, setting
	// LastSeenTrending=now and Status=Active.
	Upsert(ctx context.Context, token *domain.TrackedToken) error
	MarkStaleBefore(ctx context.Context, cutoff time.Time, protected map[string]struct{}) (int, error)
	MarkRemovedBefore(ctx context.Context, cutoff time.Time, protected map[string]struct{}) (int, error)
	UpdateStrategyConfig(ctx context.Context, symbol, config string) error
	// EvictOldestActive demotes the oldest-seen Active tokens beyond the
	// maxActive watchlist cap to Stale, skipping protected symbols. It
	// returns how many rows were demoted.
	EvictOldestActive(ctx context.Context, maxActive int, protected map[string]struct{}) (int, error)
}
