package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dexswingbot/internal/domain"
	"dexswingbot/internal/ports"
)

// Insert saves a new Open position. The unique partial index on
// (user_id, symbol) WHERE status='open' enforces the one-Open invariant;
// a violation surfaces as ports.ErrPositionAlreadyOpen.
func (s *Store) Insert(ctx context.Context, pos *domain.Position) error {
	const query = `
	INSERT INTO positions (id, user_id, symbol, entry_price, quantity, entry_time,
		stop_loss, take_profit, trailing_high, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		pos.ID, pos.UserID, pos.Symbol, pos.EntryPrice, pos.Quantity, pos.EntryTime,
		pos.StopLoss, pos.TakeProfit, pos.TrailingHigh, pos.Status)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("insert position for %s: %w", pos.Symbol, ports.ErrPositionAlreadyOpen)
		}
		return fmt.Errorf("insert position for %s: %w", pos.Symbol, err)
	}
	s.logger.Debug(ctx, "position inserted", map[string]interface{}{"positionID": pos.ID, "symbol": pos.Symbol})
	return nil
}

// Update persists the Open -> Closed transition with all exit fields set
// atomically.
func (s *Store) Update(ctx context.Context, pos *domain.Position) error {
	const query = `
	UPDATE positions
	SET status = ?, realized_pnl = ?, exit_price = ?, exit_time = ?, exit_reason = ?, trailing_high = ?, take_profit = ?
	WHERE id = ?`

	var realizedPnL, exitPrice sql.NullFloat64
	var exitTime sql.NullTime
	var exitReason sql.NullString
	if pos.RealizedPnL != nil {
		realizedPnL = sql.NullFloat64{Float64: *pos.RealizedPnL, Valid: true}
	}
	if pos.ExitPrice != nil {
		exitPrice = sql.NullFloat64{Float64: *pos.ExitPrice, Valid: true}
	}
	if pos.ExitTime != nil {
		exitTime = sql.NullTime{Time: *pos.ExitTime, Valid: true}
	}
	if pos.ExitReason != nil {
		exitReason = sql.NullString{String: string(*pos.ExitReason), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query,
		pos.Status, realizedPnL, exitPrice, exitTime, exitReason, pos.TrailingHigh, pos.TakeProfit, pos.ID)
	if err != nil {
		return fmt.Errorf("update position %s: %w", pos.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for update position %s: %w", pos.ID, err)
	}
	if rows == 0 {
		return fmt.Errorf("update position %s: %w", pos.ID, ports.ErrNotFound)
	}
	s.logger.Debug(ctx, "position updated", map[string]interface{}{"positionID": pos.ID, "status": pos.Status})
	return nil
}

// LoadOpen returns every Open position for userID.
func (s *Store) LoadOpen(ctx context.Context, userID string) ([]*domain.Position, error) {
	const query = positionColumns + ` WHERE user_id = ? AND status = ?`
	return s.queryPositions(ctx, query, userID, domain.StatusOpen)
}

// LoadClosed returns every Closed position for userID whose exit time is
// at or after since.
func (s *Store) LoadClosed(ctx context.Context, userID string, since time.Time) ([]*domain.Position, error) {
	const query = positionColumns + ` WHERE user_id = ? AND status = ? AND exit_time >= ? ORDER BY exit_time DESC`
	return s.queryPositions(ctx, query, userID, domain.StatusClosed, since)
}

// FindOpenBySymbol returns the Open position for (userID, symbol), or nil
// if none exists.
func (s *Store) FindOpenBySymbol(ctx context.Context, userID, symbol string) (*domain.Position, error) {
	const query = positionColumns + ` WHERE user_id = ? AND symbol = ? AND status = ?`
	row := s.db.QueryRowContext(ctx, query, userID, symbol, domain.StatusOpen)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open position for %s/%s: %w", userID, symbol, err)
	}
	return pos, nil
}

func (s *Store) queryPositions(ctx context.Context, query string, args ...interface{}) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]*domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

const positionColumns = `
SELECT id, user_id, symbol, entry_price, quantity, entry_time, stop_loss, take_profit,
       trailing_high, status, realized_pnl, exit_price, exit_time, exit_reason
FROM positions`

func scanPosition(row scanner) (*domain.Position, error) {
	p := &domain.Position{}
	var realizedPnL, exitPrice sql.NullFloat64
	var exitTime sql.NullTime
	var exitReason sql.NullString
	var status string

	err := row.Scan(
		&p.ID, &p.UserID, &p.Symbol, &p.EntryPrice, &p.Quantity, &p.EntryTime,
		&p.StopLoss, &p.TakeProfit, &p.TrailingHigh, &status,
		&realizedPnL, &exitPrice, &exitTime, &exitReason)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PositionStatus(status)
	if realizedPnL.Valid {
		v := realizedPnL.Float64
		p.RealizedPnL = &v
	}
	if exitPrice.Valid {
		v := exitPrice.Float64
		p.ExitPrice = &v
	}
	if exitTime.Valid {
		v := exitTime.Time
		p.ExitTime = &v
	}
	if exitReason.Valid {
		v := domain.ExitReason(exitReason.String)
		p.ExitReason = &v
	}
	return p, nil
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
