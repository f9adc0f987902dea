package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dexswingbot/internal/ports"
)

const dexscreenerBaseURL = "https://api.dexscreener.com/latest/dex"

// DexScreenerClient implements ports.LiveQuoteProvider against DexScreener's
// public pairs-by-token endpoint. DexScreener reports price as a decimal
// string rather than a float, so it is parsed through shopspring/decimal
// before being normalized to the float64 the rest of the system uses.
type DexScreenerClient struct {
	http    *httpClient
	baseURL string
}

// NewDexScreenerClient builds a live quote provider. DexScreener's public
// endpoints require no API key.
func NewDexScreenerClient() *DexScreenerClient {
	return &DexScreenerClient{http: newHTTPClient(10 * time.Second), baseURL: dexscreenerBaseURL}
}

// WithBaseURL overrides the endpoint, for pointing the client at a test
// server.
func (c *DexScreenerClient) WithBaseURL(url string) *DexScreenerClient {
	c.baseURL = url
	return c
}

type dexscreenerPairsResponse struct {
	Pairs []dexscreenerPair `json:"pairs" validate:"dive"`
}

type dexscreenerPair struct {
	ChainID   string               `json:"chainId" validate:"required"`
	BaseToken dexscreenerTokenInfo `json:"baseToken"`
	PriceUSD  string               `json:"priceUsd" validate:"required,numeric"`
	Volume    dexscreenerVolume    `json:"volume"`
}

type dexscreenerTokenInfo struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

type dexscreenerVolume struct {
	H24 float64 `json:"h24"`
}

// GetQuote returns the current price and 24h volume for address, preferring
// the Solana pair when the token trades on multiple chains.
func (c *DexScreenerClient) GetQuote(ctx context.Context, address string) (ports.Quote, error) {
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, address)

	var resp dexscreenerPairsResponse
	if err := c.http.getJSON(ctx, url, nil, &resp); err != nil {
		return ports.Quote{}, fmt.Errorf("fetch dexscreener quote for %s: %w", address, err)
	}

	var solanaPair *dexscreenerPair
	for i := range resp.Pairs {
		if resp.Pairs[i].ChainID == "solana" {
			solanaPair = &resp.Pairs[i]
			break
		}
	}
	if solanaPair == nil {
		return ports.Quote{}, fmt.Errorf("%w: no solana pair for %s", ports.ErrNotFound, address)
	}
	if err := c.http.validateStruct(solanaPair); err != nil {
		return ports.Quote{}, fmt.Errorf("validate dexscreener pair for %s: %w", address, err)
	}

	price, err := decimal.NewFromString(solanaPair.PriceUSD)
	if err != nil {
		return ports.Quote{}, fmt.Errorf("parse price for %s: %w", address, err)
	}

	return ports.Quote{
		Price:     price.InexactFloat64(),
		Volume24h: solanaPair.Volume.H24,
		Timestamp: time.Now().UTC(),
	}, nil
}
