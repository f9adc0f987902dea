package providers

import (
	"context"
	"fmt"
	"time"

	"dexswingbot/internal/ports"
	"dexswingbot/internal/ratelimit"
)

const birdeyeBaseURL = "https://public-api.birdeye.so"

// BirdeyeClient implements ports.DiscoveryProvider against Birdeye's free
// token_trending endpoint.
type BirdeyeClient struct {
	http    *httpClient
	apiKey  string
	baseURL string
	limiter *ratelimit.Bucket
}

// NewBirdeyeClient builds a discovery provider, rate limited to the
// default 1 request/second discovery budget. apiKey may be empty for
// local testing against a stub server.
func NewBirdeyeClient(apiKey string) *BirdeyeClient {
	return &BirdeyeClient{
		http:    newHTTPClient(10 * time.Second),
		apiKey:  apiKey,
		baseURL: birdeyeBaseURL,
		limiter: ratelimit.New(1, 1),
	}
}

// WithBaseURL overrides the endpoint, for pointing the client at a test
// server.
func (c *BirdeyeClient) WithBaseURL(url string) *BirdeyeClient {
	c.baseURL = url
	return c
}

type birdeyeTrendingResponse struct {
	Success bool                `json:"success" validate:"required"`
	Data    birdeyeTrendingData `json:"data"`
}

type birdeyeTrendingData struct {
	Tokens []birdeyeTrendingToken `json:"tokens" validate:"dive"`
}

type birdeyeTrendingToken struct {
	Address      string  `json:"address" validate:"required"`
	Symbol       string  `json:"symbol" validate:"required"`
	Name         string  `json:"name"`
	Decimals     int     `json:"decimals"`
	Liquidity    float64 `json:"liquidity"`
	Volume24hUSD float64 `json:"volume24hUSD"`
	FDV          float64 `json:"fdv"`
	Rank         int     `json:"rank"`
	Price        float64 `json:"price"`
	PriceChange  float64 `json:"price24hChangePercent"`
	VolumeChange float64 `json:"volume24hChangePercent"`
}

// GetTrending fetches the top limit trending tokens ranked by Birdeye's own
// rank field.
func (c *BirdeyeClient) GetTrending(ctx context.Context, limit int) ([]ports.TrendingCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/defi/token_trending?sort_by=rank&sort_type=asc&offset=0&limit=%d", c.baseURL, limit)
	headers := map[string]string{"X-API-KEY": c.apiKey, "x-chain": "solana"}

	var resp birdeyeTrendingResponse
	if err := c.http.getJSON(ctx, url, headers, &resp); err != nil {
		return nil, fmt.Errorf("fetch birdeye trending: %w", err)
	}
	if err := c.http.validateStruct(&resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("birdeye trending request returned success=false")
	}

	out := make([]ports.TrendingCandidate, 0, len(resp.Data.Tokens))
	for _, t := range resp.Data.Tokens {
		out = append(out, ports.TrendingCandidate{
			Address:         t.Address,
			Symbol:          t.Symbol,
			Name:            t.Name,
			Decimals:        t.Decimals,
			LiquidityUSD:    t.Liquidity,
			Volume24hUSD:    t.Volume24hUSD,
			FDVUSD:          t.FDV,
			PriceUSD:        t.Price,
			Rank:            t.Rank,
			PriceChangePct:  t.PriceChange,
			VolumeChangePct: t.VolumeChange,
		})
	}
	return out, nil
}
