// Package initializer wires infrastructure into the dependency set the
// application is assembled from.
package initializer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coinedge/bitcard/app"
	"github.com/coinedge/bitcard/config"
	"github.com/coinedge/bitcard/infra"
	infra_provider "github.com/coinedge/bitcard/infra/provider"
	banklink_repository "github.com/coinedge/bitcard/infra/repository/banklink"
	checkout_repository "github.com/coinedge/bitcard/infra/repository/checkout"
	reconciliation_repository "github.com/coinedge/bitcard/infra/repository/reconciliation"
	"github.com/coinedge/bitcard/pkg/auth"
	"github.com/coinedge/bitcard/pkg/provider"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.AppConfig) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{Config: cfg}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	// Price sources in priority order; the oracle walks them until one
	// returns a sane value.
	timeout := cfg.PriceSources.HTTPTimeout
	deps.PriceSources = []provider.PriceSource{
		infra_provider.NewCoinGeckoSource(cfg.PriceSources.CoinGeckoURL, timeout),
		infra_provider.NewCoinbaseSource(cfg.PriceSources.CoinbaseURL, timeout),
		infra_provider.NewBinanceSource(cfg.PriceSources.BinanceURL, timeout),
	}

	deps.TerminalGateway = infra_provider.NewSquareTerminalGateway(cfg.Square, logger)
	deps.BankAggregator = infra_provider.NewPlaidAggregator(cfg.Plaid, logger)
	deps.Credentials = buildCredentialChain(cfg.Auth, logger)

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.CheckoutRec = checkout_repository.New(db)
	deps.BankRepo = banklink_repository.New(db)
	deps.ReconRepo = reconciliation_repository.New(db)

	return
}

// buildCredentialChain wires the configured static credentials into the
// session-then-wallet fallback order. Unset tokens leave their provider
// declining, so with no credentials at all the chain fails closed.
func buildCredentialChain(cfg config.AuthConfig, logger *slog.Logger) *auth.Chain {
	session := &auth.SessionTokenProvider{
		GetSession: func(ctx context.Context) (string, bool) {
			return cfg.SessionToken, cfg.SessionToken != ""
		},
	}
	wallet := &auth.WalletTokenProvider{
		GetToken: func(ctx context.Context) (string, bool) {
			return cfg.WalletToken, cfg.WalletToken != ""
		},
	}
	return auth.NewChain(logger, session, wallet)
}
