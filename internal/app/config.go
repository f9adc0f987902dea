package app

import (
	"github.com/goccy/go-json"

	"dexswingbot/config"
	"dexswingbot/internal/domain"
	"dexswingbot/internal/execution"
	"dexswingbot/internal/risk"
	"dexswingbot/internal/signals"
)

func executionConfig(cfg *config.Config) execution.Config {
	ec := execution.DefaultConfig()
	ec.StopLossPct = cfg.StopLossPct
	ec.TPActivationPct = cfg.TPActivationPct
	ec.TrailPct = cfg.TrailPct
	ec.TimeStopDays = cfg.TimeStopDays
	ec.MaxPositionSizePct = cfg.MaxPositionSizePct
	return ec
}

func riskConfig(cfg *config.Config) risk.Config {
	return risk.Config{
		MaxDailyLossPct:      cfg.MaxDailyLossPct,
		MaxDrawdownPct:       cfg.MaxDrawdownPct,
		MaxConsecutiveLosses: cfg.MaxConsecutiveLosses,
		MaxDailyTrades:       cfg.MaxDailyTrades,
		MaxPositionSizePct:   cfg.MaxPositionSizePct,
	}
}

// signalConfigFor decodes a token's opaque StrategyConfig JSON blob into a
// signals.Config, falling back to signals.DefaultConfig() on an empty or
// malformed blob so one bad row never takes down the whole tick.
func signalConfigFor(token *domain.TrackedToken) signals.Config {
	cfg := signals.DefaultConfig()
	if token.StrategyConfig == "" {
		return cfg
	}
	if err := json.Unmarshal([]byte(token.StrategyConfig), &cfg); err != nil {
		return signals.DefaultConfig()
	}
	return cfg
}

func mustTrackSet(symbols []string) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return set
}
