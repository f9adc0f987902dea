package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dexswingbot/internal/domain"
)

// ListActive returns every token with Status Active.
func (s *Store) ListActive(ctx context.Context) ([]*domain.TrackedToken, error) {
	const query = tokenColumns + ` WHERE status = ?`
	return s.queryTokens(ctx, query, domain.TokenActive)
}

// ListActiveWithPositions returns tokens that are Active, or whose symbol
// is in openSymbols, regardless of status.
func (s *Store) ListActiveWithPositions(ctx context.Context, openSymbols map[string]struct{}) ([]*domain.TrackedToken, error) {
	if len(openSymbols) == 0 {
		return s.ListActive(ctx)
	}

	placeholders := make([]string, 0, len(openSymbols))
	args := []interface{}{domain.TokenActive}
	for sym := range openSymbols {
		placeholders = append(placeholders, "?")
		args = append(args, sym)
	}
	query := tokenColumns + fmt.Sprintf(` WHERE status = ? OR symbol IN (%s)`, strings.Join(placeholders, ","))
	return s.queryTokens(ctx, query, args...)
}

// Upsert inserts or updates the token row keyed by address, always setting
// LastSeenTrending=now and Status=Active.
func (s *Store) Upsert(ctx context.Context, token *domain.TrackedToken) error {
	now := time.Now().UTC()
	const query = `
	INSERT INTO tokens (symbol, address, name, decimals, status, strategy_type, strategy_config,
		last_seen_trending, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		symbol = excluded.symbol, name = excluded.name, decimals = excluded.decimals,
		status = excluded.status, last_seen_trending = excluded.last_seen_trending,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		token.Symbol, token.Address, token.Name, token.Decimals, domain.TokenActive,
		token.StrategyType, token.StrategyConfig, now, now, now)
	if err != nil {
		return fmt.Errorf("upsert token %s: %w", token.Symbol, err)
	}
	s.logger.Debug(ctx, "token upserted", map[string]interface{}{"symbol": token.Symbol, "address": token.Address})
	return nil
}

// MarkStaleBefore transitions Active tokens last seen trending before
// cutoff to Stale, skipping any symbol in protected.
func (s *Store) MarkStaleBefore(ctx context.Context, cutoff time.Time, protected map[string]struct{}) (int, error) {
	return s.markBefore(ctx, domain.TokenActive, domain.TokenStale, cutoff, protected)
}

// MarkRemovedBefore transitions Stale tokens last seen trending before
// cutoff to Removed, skipping any symbol in protected.
func (s *Store) MarkRemovedBefore(ctx context.Context, cutoff time.Time, protected map[string]struct{}) (int, error) {
	return s.markBefore(ctx, domain.TokenStale, domain.TokenRemoved, cutoff, protected)
}

func (s *Store) markBefore(ctx context.Context, from, to domain.TokenStatus, cutoff time.Time, protected map[string]struct{}) (int, error) {
	query := `UPDATE tokens SET status = ?, updated_at = ? WHERE status = ? AND last_seen_trending < ?`
	args := []interface{}{to, time.Now().UTC(), from, cutoff}
	if len(protected) > 0 {
		placeholders := make([]string, 0, len(protected))
		for sym := range protected {
			placeholders = append(placeholders, "?")
			args = append(args, sym)
		}
		query += fmt.Sprintf(` AND symbol NOT IN (%s)`, strings.Join(placeholders, ","))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark tokens %s->%s: %w", from, to, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for %s->%s: %w", from, to, err)
	}
	return int(rows), nil
}

// UpdateStrategyConfig overwrites the opaque per-symbol strategy config
// blob.
func (s *Store) UpdateStrategyConfig(ctx context.Context, symbol, config string) error {
	const query = `UPDATE tokens SET strategy_config = ?, updated_at = ? WHERE symbol = ?`
	_, err := s.db.ExecContext(ctx, query, config, time.Now().UTC(), symbol)
	if err != nil {
		return fmt.Errorf("update strategy config for %s: %w", symbol, err)
	}
	return nil
}

// EvictOldestActive demotes the oldest-seen Active tokens beyond maxActive
// to Stale, skipping any symbol in protected. Protected symbols count
// toward maxActive but are never demoted: unprotected tokens are demoted in
// last_seen_trending ascending order until the Active count is within
// maxActive or no unprotected token is left.
func (s *Store) EvictOldestActive(ctx context.Context, maxActive int, protected map[string]struct{}) (int, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active tokens for eviction: %w", err)
	}

	unprotected := make([]*domain.TrackedToken, 0, len(active))
	for _, t := range active {
		if _, ok := protected[t.Symbol]; !ok {
			unprotected = append(unprotected, t)
		}
	}
	excess := len(active) - maxActive
	if excess <= 0 || len(unprotected) == 0 {
		return 0, nil
	}
	if excess > len(unprotected) {
		excess = len(unprotected)
	}

	sort.Slice(unprotected, func(i, j int) bool {
		return unprotected[i].LastSeenTrending.Before(unprotected[j].LastSeenTrending)
	})

	demoted := 0
	now := time.Now().UTC()
	for _, t := range unprotected[:excess] {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE tokens SET status = ?, updated_at = ? WHERE address = ? AND status = ?`,
			domain.TokenStale, now, t.Address, domain.TokenActive); err != nil {
			return demoted, fmt.Errorf("evict token %s: %w", t.Symbol, err)
		}
		demoted++
	}
	return demoted, nil
}

func (s *Store) queryTokens(ctx context.Context, query string, args ...interface{}) ([]*domain.TrackedToken, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]*domain.TrackedToken, 0)
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

const tokenColumns = `
SELECT id, symbol, address, name, decimals, status, strategy_type, strategy_config,
       last_seen_trending, created_at, updated_at
FROM tokens`

func scanToken(row scanner) (*domain.TrackedToken, error) {
	t := &domain.TrackedToken{}
	var status string
	err := row.Scan(
		&t.ID, &t.Symbol, &t.Address, &t.Name, &t.Decimals, &status,
		&t.StrategyType, &t.StrategyConfig, &t.LastSeenTrending, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TokenStatus(status)
	return t, nil
}
