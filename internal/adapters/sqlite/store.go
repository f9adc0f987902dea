// Package sqlite implements the candle store, position store, and token
// registry ports on top of a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dexswingbot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements ports.CandleStore, ports.PositionStore, and
// ports.TokenRegistry using SQLite.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// New opens (creating if necessary) the database at cfg.DBPath and ensures
// the schema is in place.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for sqlite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/dexswingbot.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("create data directory %q: %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "sqlite store initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("open database %q: %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "sqlite store initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("ping database %q: %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "sqlite store initialization failed")
		return nil, err
	}

	// SQLite serializes writes internally; a single connection avoids
	// SQLITE_BUSY churn under the Go driver's pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, logger: cfg.Logger}
	if err := store.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("initialize schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "sqlite store initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "sqlite store ready", map[string]interface{}{"path": dbPath})
	return store, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		ts INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, ts)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_ts ON candles (symbol, ts);

	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		entry_price REAL NOT NULL,
		quantity REAL NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL DEFAULT 0,
		trailing_high REAL NOT NULL,
		status TEXT NOT NULL,
		realized_pnl REAL DEFAULT NULL,
		exit_price REAL DEFAULT NULL,
		exit_time TIMESTAMP DEFAULT NULL,
		exit_reason TEXT DEFAULT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_one_open_per_symbol
		ON positions (user_id, symbol) WHERE status = 'open';
	CREATE INDEX IF NOT EXISTS idx_positions_user_status ON positions (user_id, status);

	CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		address TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		decimals INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		strategy_type TEXT NOT NULL DEFAULT '',
		strategy_config TEXT NOT NULL DEFAULT '',
		last_seen_trending TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tokens_status ON tokens (status);
	`
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info(context.Background(), "closing sqlite store")
	return s.db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
