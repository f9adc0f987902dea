package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"dexswingbot/config"
	"dexswingbot/internal/adapters/logger"
	"dexswingbot/internal/adapters/providers"
	"dexswingbot/internal/adapters/sqlite"
	"dexswingbot/internal/backfill"
)

func main() {
	days := flag.Int("days", 30, "number of days of history to fetch")
	force := flag.Bool("force", false, "overwrite candles that already exist for the window")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--days N] [--force] <symbol> <address>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	symbol, address := flag.Arg(0), flag.Arg(1)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel, os.Stderr)
	ctx := context.Background()

	store, err := sqlite.New(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: failed to initialize database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(ctx, err, "error closing database")
		}
	}()

	historical := providers.NewCoinGeckoClient(cfg.CoinGeckoAPIKey)

	stats, err := backfill.Run(ctx, store, historical, symbol, address, *days, *force)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: backfill failed", map[string]interface{}{"symbol": symbol})
		os.Exit(1)
	}

	appLogger.Info(ctx, "backfill complete", map[string]interface{}{
		"symbol": symbol, "storedNew": stats.StoredNew, "skippedExisting": stats.SkippedExisting,
	})
}
