package sqlite

import (
	"context"
	"fmt"
	"time"

	"dexswingbot/internal/domain"
)

// SaveCandles upserts one candle per (symbol, timestamp); a later write at
// the same second-precision timestamp replaces the earlier one.
func (s *Store) SaveCandles(ctx context.Context, symbol string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save candles tx for %s: %w", symbol, err)
	}
	defer tx.Rollback()

	const query = `
	INSERT INTO candles (symbol, ts, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol, ts) DO UPDATE SET
		open = excluded.open, high = excluded.high, low = excluded.low,
		close = excluded.close, volume = excluded.volume`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare save candles for %s: %w", symbol, err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, c.Timestamp.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("insert candle %s@%s: %w", symbol, c.Timestamp, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save candles for %s: %w", symbol, err)
	}
	s.logger.Debug(ctx, "candles saved", map[string]interface{}{"symbol": symbol, "count": len(candles)})
	return nil
}

// LoadCandles returns candles for symbol with timestamp >= now-hoursBack,
// ascending.
func (s *Store) LoadCandles(ctx context.Context, symbol string, hoursBack time.Duration) ([]domain.Candle, error) {
	cutoff := time.Now().Add(-hoursBack).Unix()
	const query = `
	SELECT symbol, ts, open, high, low, close, volume
	FROM candles
	WHERE symbol = ? AND ts >= ?
	ORDER BY ts ASC`

	rows, err := s.db.QueryContext(ctx, query, symbol, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load candles for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []domain.Candle
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candle for %s: %w", symbol, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles for %s: %w", symbol, err)
	}
	return out, nil
}

// CountSnapshots returns the number of stored candles for symbol.
func (s *Store) CountSnapshots(ctx context.Context, symbol string) (int, error) {
	const query = `SELECT COUNT(*) FROM candles WHERE symbol = ?`
	var count int
	if err := s.db.QueryRowContext(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots for %s: %w", symbol, err)
	}
	return count, nil
}

// CleanupOld deletes candles older than now-keepHours and returns the
// number removed.
func (s *Store) CleanupOld(ctx context.Context, symbol string, keepHours time.Duration) (int, error) {
	cutoff := time.Now().Add(-keepHours).Unix()
	const query = `DELETE FROM candles WHERE symbol = ? AND ts < ?`
	result, err := s.db.ExecContext(ctx, query, symbol, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old candles for %s: %w", symbol, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed candles for %s: %w", symbol, err)
	}
	return int(removed), nil
}

// Timestamps returns every stored timestamp for symbol.
func (s *Store) Timestamps(ctx context.Context, symbol string) ([]time.Time, error) {
	const query = `SELECT ts FROM candles WHERE symbol = ? ORDER BY ts ASC`
	rows, err := s.db.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("load timestamps for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan timestamp for %s: %w", symbol, err)
		}
		out = append(out, time.Unix(ts, 0).UTC())
	}
	return out, rows.Err()
}

func scanCandle(row scanner) (domain.Candle, error) {
	var c domain.Candle
	var ts int64
	if err := row.Scan(&c.Symbol, &ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
		return domain.Candle{}, err
	}
	c.Timestamp = time.Unix(ts, 0).UTC()
	return c, nil
}
