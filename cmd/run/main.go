package main

import (
	"context"
	"log" // standard log only for fatal errors before the logger is ready
	"os"

	"dexswingbot/config"
	"dexswingbot/internal/adapters/logger"
	"dexswingbot/internal/adapters/providers"
	"dexswingbot/internal/adapters/sqlite"
	"dexswingbot/internal/app"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel, os.Stderr)
	ctx := context.Background()
	appLogger.Info(ctx, "logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	store, err := sqlite.New(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to initialize database")
		log.Fatalf("FATAL: failed to initialize database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(ctx, err, "error closing database")
		}
	}()
	appLogger.Info(ctx, "database initialized", map[string]interface{}{"path": cfg.DBPath})

	liveQuotes := providers.NewDexScreenerClient()
	discovery := providers.NewBirdeyeClient(cfg.BirdeyeAPIKey)
	historical := providers.NewCoinGeckoClient(cfg.CoinGeckoAPIKey)

	svc, err := app.New(ctx, cfg, appLogger, store, store, store, liveQuotes, discovery, historical)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: failed to initialize trading service")
		log.Fatalf("FATAL: failed to initialize trading service: %v", err)
	}

	appLogger.Info(ctx, "starting dexswingbot")
	if err := svc.Run(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: service exited with error")
		os.Exit(1)
	}
}
