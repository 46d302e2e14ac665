package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CoinGeckoSource fetches the BTC/USD spot price from the CoinGecko simple
// price endpoint.
type CoinGeckoSource struct {
	baseURL    string
	httpClient *http.Client
}

// coinGeckoResponse is the shape of /api/v3/simple/price?ids=bitcoin&vs_currencies=usd.
type coinGeckoResponse struct {
	Bitcoin struct {
		USD float64 `json:"usd"`
	} `json:"bitcoin"`
}

// NewCoinGeckoSource creates a CoinGecko price source. baseURL defaults to
// the public API when empty.
func NewCoinGeckoSource(baseURL string, timeout time.Duration) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com"
	}
	return &CoinGeckoSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements provider.PriceSource.
func (s *CoinGeckoSource) Name() string { return "coingecko" }

// FetchPrice implements provider.PriceSource.
func (s *CoinGeckoSource) FetchPrice(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=bitcoin&vs_currencies=usd", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("coingecko returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp coinGeckoResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Bitcoin.USD <= 0 {
		return 0, fmt.Errorf("coingecko returned non-positive price %v", apiResp.Bitcoin.USD)
	}
	return apiResp.Bitcoin.USD, nil
}
