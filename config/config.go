package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"dexswingbot/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Providers
	BirdeyeAPIKey   string
	CoinGeckoAPIKey string

	// Portfolio
	InitialPortfolioValue float64

	// Cadence
	PollIntervalMinutes      int
	DiscoveryIntervalMinutes int
	LookbackHours            int

	// Exit parameters
	StopLossPct     float64
	TPActivationPct float64
	TrailPct        float64
	TimeStopDays    int

	// Circuit breakers
	MaxPositionSizePct   float64
	MaxDailyLossPct      float64
	MaxDrawdownPct       float64
	MaxConsecutiveLosses int
	MaxDailyTrades       int

	// Discovery filters
	MinLiquidityUSD float64
	MinVolume24hUSD float64
	MinFDVUSD        float64
	MaxRank          int
	MaxWatchlist     int
	MustTrackSymbols []string

	// Backfill
	BackfillDays int

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	UserID string
}

// Load reads configuration from environment variables, optionally seeded by
// a .env file. Every field is validated even after an earlier one fails, so
// a single run reports every misconfiguration rather than one at a time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.BirdeyeAPIKey = getEnv("BIRDEYE_API_KEY", "")
	if cfg.BirdeyeAPIKey == "" {
		errs = append(errs, "BIRDEYE_API_KEY must be set")
	}
	cfg.CoinGeckoAPIKey = getEnv("COINGECKO_API_KEY", "")

	cfg.InitialPortfolioValue = getEnvAsFloat("INITIAL_PORTFOLIO_VALUE", 10000)
	if cfg.InitialPortfolioValue <= 0 {
		errs = append(errs, "INITIAL_PORTFOLIO_VALUE must be positive")
	}

	cfg.PollIntervalMinutes = getEnvAsInt("POLL_INTERVAL_MINUTES", 5)
	if cfg.PollIntervalMinutes <= 0 {
		errs = append(errs, "POLL_INTERVAL_MINUTES must be positive")
	}
	cfg.DiscoveryIntervalMinutes = getEnvAsInt("DISCOVERY_INTERVAL_MINUTES", 30)
	if cfg.DiscoveryIntervalMinutes <= 0 {
		errs = append(errs, "DISCOVERY_INTERVAL_MINUTES must be positive")
	}
	cfg.LookbackHours = getEnvAsInt("LOOKBACK_HOURS", 24)
	if cfg.LookbackHours <= 0 {
		errs = append(errs, "LOOKBACK_HOURS must be positive")
	}

	cfg.StopLossPct = getEnvAsFloat("STOP_LOSS_PCT", 0.08)
	if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 1 {
		errs = append(errs, "STOP_LOSS_PCT must be between 0 and 1")
	}
	cfg.TPActivationPct = getEnvAsFloat("TP_ACTIVATION_PCT", 0.12)
	if cfg.TPActivationPct <= 0 {
		errs = append(errs, "TP_ACTIVATION_PCT must be positive")
	}
	cfg.TrailPct = getEnvAsFloat("TRAIL_PCT", 0.05)
	if cfg.TrailPct <= 0 || cfg.TrailPct >= 1 {
		errs = append(errs, "TRAIL_PCT must be between 0 and 1")
	}
	cfg.TimeStopDays = getEnvAsInt("TIME_STOP_DAYS", 14)
	if cfg.TimeStopDays <= 0 {
		errs = append(errs, "TIME_STOP_DAYS must be positive")
	}

	cfg.MaxPositionSizePct = getEnvAsFloat("MAX_POSITION_SIZE_PCT", 0.05)
	if cfg.MaxPositionSizePct <= 0 || cfg.MaxPositionSizePct > 1 {
		errs = append(errs, "MAX_POSITION_SIZE_PCT must be between 0 and 1")
	}
	cfg.MaxDailyLossPct = getEnvAsFloat("MAX_DAILY_LOSS_PCT", 0.05)
	if cfg.MaxDailyLossPct <= 0 || cfg.MaxDailyLossPct > 1 {
		errs = append(errs, "MAX_DAILY_LOSS_PCT must be between 0 and 1")
	}
	cfg.MaxDrawdownPct = getEnvAsFloat("MAX_DRAWDOWN_PCT", 0.20)
	if cfg.MaxDrawdownPct <= 0 || cfg.MaxDrawdownPct > 1 {
		errs = append(errs, "MAX_DRAWDOWN_PCT must be between 0 and 1")
	}
	cfg.MaxConsecutiveLosses = getEnvAsInt("MAX_CONSECUTIVE_LOSSES", 5)
	if cfg.MaxConsecutiveLosses <= 0 {
		errs = append(errs, "MAX_CONSECUTIVE_LOSSES must be positive")
	}
	cfg.MaxDailyTrades = getEnvAsInt("MAX_DAILY_TRADES", 10)
	if cfg.MaxDailyTrades <= 0 {
		errs = append(errs, "MAX_DAILY_TRADES must be positive")
	}

	cfg.MinLiquidityUSD = getEnvAsFloat("MIN_LIQUIDITY_USD", 50000)
	if cfg.MinLiquidityUSD < 0 {
		errs = append(errs, "MIN_LIQUIDITY_USD cannot be negative")
	}
	cfg.MinVolume24hUSD = getEnvAsFloat("MIN_VOLUME_24H_USD", 100000)
	if cfg.MinVolume24hUSD < 0 {
		errs = append(errs, "MIN_VOLUME_24H_USD cannot be negative")
	}
	cfg.MinFDVUSD = getEnvAsFloat("MIN_FDV_USD", 1000000)
	if cfg.MinFDVUSD < 0 {
		errs = append(errs, "MIN_FDV_USD cannot be negative")
	}
	cfg.MaxRank = getEnvAsInt("MAX_RANK", 100)
	if cfg.MaxRank <= 0 {
		errs = append(errs, "MAX_RANK must be positive")
	}
	cfg.MaxWatchlist = getEnvAsInt("MAX_WATCHLIST", 30)
	if cfg.MaxWatchlist <= 0 {
		errs = append(errs, "MAX_WATCHLIST must be positive")
	}
	cfg.MustTrackSymbols = getEnvAsList("MUST_TRACK_SYMBOLS")

	cfg.BackfillDays = getEnvAsInt("BACKFILL_DAYS", 14)
	if cfg.BackfillDays <= 0 {
		errs = append(errs, "BACKFILL_DAYS must be positive")
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/dexswingbot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	cfg.UserID = getEnv("USER_ID", "default")
	if cfg.UserID == "" {
		errs = append(errs, "USER_ID must be set")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvAsList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
