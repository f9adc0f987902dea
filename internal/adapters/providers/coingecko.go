package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dexswingbot/internal/ports"
	"dexswingbot/internal/ratelimit"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	// nativeSolAddress is the wrapped-SOL mint overridden to the native
	// "solana" coin id, since native-asset market data is more reliable
	// than the wrapped-token entry.
	nativeSolAddress = "So11111111111111111111111111111111111111112"
	nativeSolCoinID  = "solana"
)

// CoinGeckoClient implements ports.HistoricalProvider. It keeps a one-shot
// coin-list cache in memory, indexed by on-chain address and by symbol, so
// ResolveExternalID never re-fetches the full coin list per call.
type CoinGeckoClient struct {
	http    *httpClient
	apiKey  string
	baseURL string
	limiter *ratelimit.Bucket

	mu         sync.RWMutex
	byAddress  map[string]string
	bySymbol   map[string][]string
	hasAddress map[string]bool // coin id -> has a known Solana address
	loaded     bool
}

// NewCoinGeckoClient builds a historical provider. apiKey is the CoinGecko
// demo-tier key appended to every request.
func NewCoinGeckoClient(apiKey string) *CoinGeckoClient {
	return &CoinGeckoClient{
		http:      newHTTPClient(30 * time.Second),
		apiKey:    apiKey,
		baseURL:   coingeckoBaseURL,
		limiter:   ratelimit.New(30.0/60.0, 1),
		byAddress: make(map[string]string),
		bySymbol:  make(map[string][]string),
	}
}

// WithBaseURL overrides the endpoint, for pointing the client at a test
// server.
func (c *CoinGeckoClient) WithBaseURL(url string) *CoinGeckoClient {
	c.baseURL = url
	return c
}

type coinListEntry struct {
	ID        string            `json:"id"`
	Symbol    string            `json:"symbol"`
	Platforms map[string]string `json:"platforms"`
}

func (c *CoinGeckoClient) ensureCoinCache(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/coins/list?include_platform=true&x_cg_demo_api_key=%s", c.baseURL, c.apiKey)
	var entries []coinListEntry
	if err := c.http.getJSON(ctx, url, nil, &entries); err != nil {
		return fmt.Errorf("load coingecko coin list: %w", err)
	}

	byAddress := make(map[string]string, len(entries))
	bySymbol := make(map[string][]string, len(entries))
	hasAddress := make(map[string]bool, len(entries))
	for _, e := range entries {
		if addr, ok := e.Platforms["solana"]; ok && addr != "" {
			byAddress[addr] = e.ID
			hasAddress[e.ID] = true
		}
		sym := strings.ToUpper(e.Symbol)
		bySymbol[sym] = append(bySymbol[sym], e.ID)
	}
	byAddress[nativeSolAddress] = nativeSolCoinID
	hasAddress[nativeSolCoinID] = true

	c.mu.Lock()
	c.byAddress, c.bySymbol, c.hasAddress, c.loaded = byAddress, bySymbol, hasAddress, true
	c.mu.Unlock()
	return nil
}

// ResolveExternalID maps (symbol, address) to a CoinGecko coin id: exact
// address match first, then the native-SOL special case, then the first
// symbol match that also carries a Solana address mapping. Anything else is
// ports.ErrTokenNotFound.
func (c *CoinGeckoClient) ResolveExternalID(ctx context.Context, symbol, address string) (string, error) {
	if err := c.ensureCoinCache(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := c.byAddress[address]; ok {
		return id, nil
	}
	ids, ok := c.bySymbol[strings.ToUpper(symbol)]
	if !ok || len(ids) == 0 {
		return "", fmt.Errorf("%s (%s): %w", symbol, address, ports.ErrTokenNotFound)
	}
	for _, id := range ids {
		if c.hasAddress[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s (%s): %w", symbol, address, ports.ErrTokenNotFound)
}

type marketChartResponse struct {
	Prices       [][2]float64 `json:"prices" validate:"required"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// GetMarketChart fetches days worth of (timestamp_ms, price) and
// (timestamp_ms, volume_24h) series for externalID.
func (c *CoinGeckoClient) GetMarketChart(ctx context.Context, externalID string, days int) (ports.HistoricalSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ports.HistoricalSeries{}, err
	}
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&x_cg_demo_api_key=%s",
		c.baseURL, externalID, days, c.apiKey)

	var resp marketChartResponse
	if err := c.http.getJSON(ctx, url, nil, &resp); err != nil {
		return ports.HistoricalSeries{}, fmt.Errorf("fetch market chart for %s: %w", externalID, err)
	}
	if err := c.http.validateStruct(&resp); err != nil {
		return ports.HistoricalSeries{}, err
	}

	series := ports.HistoricalSeries{
		Prices:       make([]ports.HistoricalPoint, len(resp.Prices)),
		TotalVolumes: make([]ports.HistoricalPoint, len(resp.TotalVolumes)),
	}
	for i, p := range resp.Prices {
		series.Prices[i] = ports.HistoricalPoint{Timestamp: time.UnixMilli(int64(p[0])).UTC(), Value: p[1]}
	}
	for i, v := range resp.TotalVolumes {
		series.TotalVolumes[i] = ports.HistoricalPoint{Timestamp: time.UnixMilli(int64(v[0])).UTC(), Value: v[1]}
	}
	return series, nil
}
