// Package app assembles the services from their infrastructure
// dependencies.
package app

import (
	"log/slog"

	"github.com/coinedge/bitcard/config"
	"github.com/coinedge/bitcard/pkg/auth"
	"github.com/coinedge/bitcard/pkg/oracle"
	"github.com/coinedge/bitcard/pkg/provider"
	"github.com/coinedge/bitcard/pkg/ratelimit"
	banklinksvc "github.com/coinedge/bitcard/pkg/service/banklink"
	"github.com/coinedge/bitcard/pkg/service/payment"
	quotesvc "github.com/coinedge/bitcard/pkg/service/quote"
	reconsvc "github.com/coinedge/bitcard/pkg/service/reconciliation"
)

// Deps holds the wired infrastructure the services are built from.
type Deps struct {
	Logger          *slog.Logger
	Config          *config.AppConfig
	PriceSources    []provider.PriceSource
	TerminalGateway provider.TerminalGateway
	BankAggregator  provider.BankAggregator
	Credentials     *auth.Chain
	CheckoutRec     payment.Recorder
	BankRepo        banklinksvc.Repository
	ReconRepo       reconsvc.Repository
}

// App holds the assembled services.
type App struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// QuoteOracle serves the quote path with a short TTL; TickerOracle
	// serves the public ticker with a longer one. Their caches are fully
	// independent.
	QuoteOracle  *oracle.Oracle
	TickerOracle *oracle.Oracle

	QuoteService    *quotesvc.Service
	PaymentFlow     *payment.Flow
	BankLinkService *banklinksvc.Service
	Reconciliation  *reconsvc.Engine
	TickerLimiter   *ratelimit.Limiter
}

// New builds all services from the wired dependencies.
func New(deps *Deps) *App {
	cfg := deps.Config

	quoteOracle := oracle.New(deps.PriceSources, oracle.Config{
		TTL:          cfg.QuoteOracle.TTL,
		FetchTimeout: cfg.QuoteOracle.FetchTimeout,
		MinPrice:     cfg.QuoteOracle.MinPrice,
		MaxPrice:     cfg.QuoteOracle.MaxPrice,
	}, deps.Logger)
	tickerOracle := oracle.New(deps.PriceSources, oracle.Config{
		TTL:          cfg.TickerOracle.TTL,
		FetchTimeout: cfg.TickerOracle.FetchTimeout,
		MinPrice:     cfg.TickerOracle.MinPrice,
		MaxPrice:     cfg.TickerOracle.MaxPrice,
	}, deps.Logger)

	return &App{
		Config:       cfg,
		Logger:       deps.Logger,
		QuoteOracle:  quoteOracle,
		TickerOracle: tickerOracle,
		QuoteService: quotesvc.New(quoteOracle, deps.Logger),
		PaymentFlow:  payment.NewFlow(deps.TerminalGateway, deps.CheckoutRec, deps.Logger),
		BankLinkService: banklinksvc.New(
			deps.BankAggregator,
			deps.Credentials,
			deps.BankRepo,
			deps.Logger,
		),
		Reconciliation: reconsvc.New(
			deps.ReconRepo,
			&reconsvc.SlogAlerter{Logger: deps.Logger},
			deps.Logger,
		),
		TickerLimiter: ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
	}
}
