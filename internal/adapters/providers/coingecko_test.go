package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexswingbot/internal/ports"
)

func coinListServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/coins/list"):
			w.Write([]byte(`[
				{"id": "bonk", "symbol": "bonk", "platforms": {"solana": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"}},
				{"id": "ethereum-bonk-wrapped", "symbol": "bonk", "platforms": {"ethereum": "0xdead"}},
				{"id": "usd-coin", "symbol": "usdc", "platforms": {"solana": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"}}
			]`))
		case strings.Contains(r.URL.Path, "/market_chart"):
			w.Write([]byte(`{
				"prices": [[1700000000000, 0.00002], [1700003600000, 0.000021]],
				"total_volumes": [[1700000000000, 500000], [1700003600000, 510000]]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCoinGeckoClient_ResolveExternalID_ExactAddressMatch(t *testing.T) {
	srv := coinListServer(t)
	defer srv.Close()

	client := NewCoinGeckoClient("demo-key").WithBaseURL(srv.URL)
	id, err := client.ResolveExternalID(context.Background(), "USDC", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	assert.Equal(t, "usd-coin", id)
}

func TestCoinGeckoClient_ResolveExternalID_NativeSolOverride(t *testing.T) {
	srv := coinListServer(t)
	defer srv.Close()

	client := NewCoinGeckoClient("demo-key").WithBaseURL(srv.URL)
	id, err := client.ResolveExternalID(context.Background(), "SOL", nativeSolAddress)
	require.NoError(t, err)
	assert.Equal(t, "solana", id)
}

func TestCoinGeckoClient_ResolveExternalID_PrefersSymbolMatchWithAddress(t *testing.T) {
	srv := coinListServer(t)
	defer srv.Close()

	client := NewCoinGeckoClient("demo-key").WithBaseURL(srv.URL)
	id, err := client.ResolveExternalID(context.Background(), "BONK", "some-unknown-address")
	require.NoError(t, err)
	assert.Equal(t, "bonk", id)
}

func TestCoinGeckoClient_ResolveExternalID_UnknownSymbolReturnsNotFound(t *testing.T) {
	srv := coinListServer(t)
	defer srv.Close()

	client := NewCoinGeckoClient("demo-key").WithBaseURL(srv.URL)
	_, err := client.ResolveExternalID(context.Background(), "NOPE", "nowhere")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)
}

func TestCoinGeckoClient_ResolveExternalID_CachesCoinList(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/coins/list") {
			calls++
			w.Write([]byte(`[{"id": "usd-coin", "symbol": "usdc", "platforms": {"solana": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"}}]`))
		}
	}))
	defer srv.Close()

	client := NewCoinGeckoClient("demo-key").WithBaseURL(srv.URL)
	_, err := client.ResolveExternalID(context.Background(), "USDC", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	_, err = client.ResolveExternalID(context.Background(), "USDC", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCoinGeckoClient_GetMarketChart(t *testing.T) {
	srv := coinListServer(t)
	defer srv.Close()

	client := NewCoinGeckoClient("demo-key").WithBaseURL(srv.URL)
	series, err := client.GetMarketChart(context.Background(), "bonk", 1)
	require.NoError(t, err)
	require.Len(t, series.Prices, 2)
	require.Len(t, series.TotalVolumes, 2)
	assert.InDelta(t, 0.00002, series.Prices[0].Value, 0.0000001)
	assert.InDelta(t, 510000, series.TotalVolumes[1].Value, 0.001)
}
