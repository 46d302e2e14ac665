// Package config loads the application configuration from the environment.
package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DBConfig holds the database connection settings.
type DBConfig struct {
	Url string `envconfig:"URL"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"bitcard"`
}

// OracleConfig holds the settings for one price-oracle instance. Two
// independently configured instances run in the system: the quote path with
// a short TTL and the lower-traffic ticker path with a longer one.
type OracleConfig struct {
	TTL          time.Duration `envconfig:"TTL" default:"15s"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"5s"`
	MinPrice     float64       `envconfig:"MIN_PRICE" default:"1000"`
	MaxPrice     float64       `envconfig:"MAX_PRICE" default:"1000000"`
}

// TickerOracleConfig mirrors OracleConfig with the longer default TTL of
// the low-traffic ticker endpoint.
type TickerOracleConfig struct {
	TTL          time.Duration `envconfig:"TTL" default:"30s"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"5s"`
	MinPrice     float64       `envconfig:"MIN_PRICE" default:"1000"`
	MaxPrice     float64       `envconfig:"MAX_PRICE" default:"1000000"`
}

// RateLimitConfig holds the fixed-window limiter settings for the price
// endpoint.
type RateLimitConfig struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"30"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// GlobalRateLimitConfig holds the app-wide per-client limiter settings. The
// default quota sits well above the price endpoint's own limit so that the
// price handler, not this middleware, is the one denying over-quota ticker
// traffic with its rate-limit headers.
type GlobalRateLimitConfig struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"300"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// SquareConfig holds the terminal checkout gateway settings.
type SquareConfig struct {
	AccessToken string        `envconfig:"ACCESS_TOKEN"`
	DeviceID    string        `envconfig:"DEVICE_ID"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://connect.squareup.com"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

// PlaidConfig holds the bank aggregator settings. Empty credentials leave
// the integration unconfigured; the bank-link flow surfaces that distinctly
// from an outage.
type PlaidConfig struct {
	ClientID    string        `envconfig:"CLIENT_ID"`
	Secret      string        `envconfig:"SECRET"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://sandbox.plaid.com"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

// PriceSourcesConfig holds base-URL overrides for the external price
// sources. Empty values use each source's public API.
type PriceSourcesConfig struct {
	CoinGeckoURL string        `envconfig:"COINGECKO_URL"`
	CoinbaseURL  string        `envconfig:"COINBASE_URL"`
	BinanceURL   string        `envconfig:"BINANCE_URL"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s"`
}

// AuthConfig holds the caller credentials the server presents to the bank
// aggregator flows. Both empty means the credential chain fails closed.
type AuthConfig struct {
	SessionToken string `envconfig:"SESSION_TOKEN"`
	WalletToken  string `envconfig:"WALLET_TOKEN"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Env          string                `envconfig:"APP_ENV" default:"development"`
	Host         string                `envconfig:"APP_HOST" default:"localhost"`
	Port         int                   `envconfig:"APP_PORT" default:"3000"`
	DB           DBConfig              `envconfig:"DATABASE"`
	Log          LogConfig             `envconfig:"LOG"`
	QuoteOracle  OracleConfig          `envconfig:"QUOTE_ORACLE"`
	TickerOracle TickerOracleConfig    `envconfig:"TICKER_ORACLE"`
	RateLimit    RateLimitConfig       `envconfig:"RATE_LIMIT"`
	GlobalLimit  GlobalRateLimitConfig `envconfig:"GLOBAL_RATE_LIMIT"`
	Square       SquareConfig          `envconfig:"SQUARE"`
	Plaid        PlaidConfig           `envconfig:"PLAID"`
	PriceSources PriceSourcesConfig    `envconfig:"PRICE_SOURCES"`
	Auth         AuthConfig            `envconfig:"AUTH"`
}

func maskSecret(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

// LoadAppConfig loads configuration from an optional .env file and the
// process environment.
func LoadAppConfig(logger *slog.Logger, envFilePath ...string) (*AppConfig, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("No .env file found or specified, using system environment variables")
	} else {
		logger.Info("Environment variables loaded from .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	logger.Info("App config loaded",
		"env", cfg.Env,
		"quote_oracle_ttl", cfg.QuoteOracle.TTL,
		"ticker_oracle_ttl", cfg.TickerOracle.TTL,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"square_access_token", maskSecret(cfg.Square.AccessToken),
		"plaid_client_id", maskSecret(cfg.Plaid.ClientID),
		"plaid_configured", cfg.Plaid.ClientID != "" && cfg.Plaid.Secret != "",
	)
	return &cfg, nil
}
