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

// BinanceSource fetches the BTCUSDT last-trade price from the Binance public
// ticker endpoint. USDT is treated as a USD proxy; this source sits last in
// the fallback order.
type BinanceSource struct {
	baseURL    string
	httpClient *http.Client
}

// binanceResponse is the shape of /api/v3/ticker/price?symbol=BTCUSDT.
type binanceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// NewBinanceSource creates a Binance price source. baseURL defaults to the
// public API when empty.
func NewBinanceSource(baseURL string, timeout time.Duration) *BinanceSource {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements provider.PriceSource.
func (s *BinanceSource) Name() string { return "binance" }

// FetchPrice implements provider.PriceSource.
func (s *BinanceSource) FetchPrice(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=BTCUSDT", s.baseURL)
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
		return 0, fmt.Errorf("binance returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp binanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	value, err := strconv.ParseFloat(apiResp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance returned non-numeric price %q: %w", apiResp.Price, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("binance returned non-positive price %v", value)
	}
	return value, nil
}
