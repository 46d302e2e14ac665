package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinGeckoSource_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"bitcoin":{"usd":65000.25}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	source := NewCoinGeckoSource(srv.URL, time.Second)
	assert.Equal(t, "coingecko", source.Name())

	price, err := source.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.InEpsilon(t, 65000.25, price, 0.0001)
}

func TestCoinGeckoSource_FetchPrice_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	source := NewCoinGeckoSource(srv.URL, time.Second)
	_, err := source.FetchPrice(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCoinGeckoSource_FetchPrice_NonPositive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":0}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	source := NewCoinGeckoSource(srv.URL, time.Second)
	_, err := source.FetchPrice(context.Background())
	require.Error(t, err)
}

func TestCoinbaseSource_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/prices/BTC-USD/spot", r.URL.Path)
		w.Write([]byte(`{"data":{"amount":"64750.10","currency":"USD"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	source := NewCoinbaseSource(srv.URL, time.Second)
	assert.Equal(t, "coinbase", source.Name())

	price, err := source.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.InEpsilon(t, 64750.10, price, 0.0001)
}

func TestCoinbaseSource_FetchPrice_Unparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"amount":"not-a-number","currency":"USD"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	source := NewCoinbaseSource(srv.URL, time.Second)
	_, err := source.FetchPrice(context.Background())
	require.Error(t, err)
}

func TestBinanceSource_FetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"64900.00"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	source := NewBinanceSource(srv.URL, time.Second)
	assert.Equal(t, "binance", source.Name())

	price, err := source.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.InEpsilon(t, 64900.0, price, 0.0001)
}

func TestBinanceSource_FetchPrice_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	source := NewBinanceSource(srv.URL, time.Second)
	_, err := source.FetchPrice(context.Background())
	require.Error(t, err)
}
