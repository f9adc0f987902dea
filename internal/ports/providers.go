package ports

import (
	"context"
	"time"
)

// Quote is the live price/volume reading for a single on-chain address.
type Quote struct {
	Price     float64
	Volume24h float64
	Timestamp time.Time
}

// LiveQuoteProvider polls the current price/volume for a given address.
// Errors: rate-limited, not-found, transient.
type LiveQuoteProvider interface {
	GetQuote(ctx context.Context, address string) (Quote, error)
}

// TrendingCandidate is one entry of a discovery provider's ranked list.
type TrendingCandidate struct {
	Address         string
	Symbol          string
	Name            string
	Decimals        int
	LiquidityUSD    float64
	Volume24hUSD    float64
	FDVUSD          float64
	PriceUSD        float64
	Rank            int
	PriceChangePct  float64 // 24h price change, supplemental (not gated on by the safety filters)
	VolumeChangePct float64 // 24h volume change, supplemental
}

// DiscoveryProvider returns a ranked list of trending tokens.
type DiscoveryProvider interface {
	GetTrending(ctx context.Context, limit int) ([]TrendingCandidate, error)
}

// HistoricalPoint is one (timestamp, value) sample from a historical series.
type HistoricalPoint struct {
	Timestamp time.Time
	Value     float64
}

// HistoricalSeries is the raw time series a historical provider returns for
// a backfill request: price points and a coarser rolling-24h-volume series.
type HistoricalSeries struct {
	Prices       []HistoricalPoint
	TotalVolumes []HistoricalPoint
}

// HistoricalProvider resolves a token's external identifier and fetches its
// historical price/volume series for backfilling a candle window.
type HistoricalProvider interface {
	// ResolveExternalID maps (symbol, address) to the provider's own
	// identifier, per the lookup order: exact address match,
	// then native-asset special case, then first matching symbol that
	// also has an address mapping. Returns ErrTokenNotFound otherwise.
	ResolveExternalID(ctx context.Context, symbol, address string) (string, error)
	// GetMarketChart fetches the price/volume series for the requested
	// window.
	GetMarketChart(ctx context.Context, externalID string, days int) (HistoricalSeries, error)
}
