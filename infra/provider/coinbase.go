package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// CoinbaseSource fetches the BTC/USD spot price from the Coinbase public
// price endpoint.
type CoinbaseSource struct {
	baseURL    string
	httpClient *http.Client
}

// coinbaseResponse is the shape of /v2/prices/BTC-USD/spot. The amount is a
// decimal string.
type coinbaseResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// NewCoinbaseSource creates a Coinbase price source. baseURL defaults to the
// public API when empty.
func NewCoinbaseSource(baseURL string, timeout time.Duration) *CoinbaseSource {
	if baseURL == "" {
		baseURL = "https://api.coinbase.com"
	}
	return &CoinbaseSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements provider.PriceSource.
func (s *CoinbaseSource) Name() string { return "coinbase" }

// FetchPrice implements provider.PriceSource.
func (s *CoinbaseSource) FetchPrice(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/v2/prices/BTC-USD/spot", s.baseURL)
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
		return 0, fmt.Errorf("coinbase returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp coinbaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	value, err := strconv.ParseFloat(apiResp.Data.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("coinbase returned non-numeric amount %q: %w", apiResp.Data.Amount, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("coinbase returned non-positive price %v", value)
	}
	return value, nil
}
