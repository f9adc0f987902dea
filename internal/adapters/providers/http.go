// Package providers implements the three external-data ports (live quote,
// discovery, historical) against real HTTP APIs: Birdeye for discovery,
// DexScreener for live quotes, CoinGecko for historical market charts.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"dexswingbot/internal/ports"
)

// httpClient is the shared transport every provider adapter builds on: a
// plain *http.Client plus a struct validator, since net/http is already
// what a websocket dialer or an exchange SDK would sit on top of.
type httpClient struct {
	client   *http.Client
	validate *validator.Validate
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

// getJSON issues a GET request and decodes the body as JSON into out. It does
// no struct-tag validation; callers run validateStruct where they need it.
func (h *httpClient) getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTimeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// validateStruct runs struct-tag validation on a decoded response. Callers
// use this only for top-level struct responses (validator rejects bare
// slices); the bare-list CoinGecko coin-list response is not validated.
func (h *httpClient) validateStruct(out interface{}) error {
	if err := h.validate.Struct(out); err != nil {
		return fmt.Errorf("validate response: %w", err)
	}
	return nil
}

func classifyStatus(code int, body []byte) error {
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ports.ErrRateLimited, string(body))
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ports.ErrNotFound, string(body))
	case code >= 500:
		return fmt.Errorf("%w: status %d: %s", ports.ErrTimeout, code, string(body))
	case code >= 400:
		return fmt.Errorf("provider returned status %d: %s", code, string(body))
	default:
		return nil
	}
}
