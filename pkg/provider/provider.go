// Package provider defines the contracts for the external collaborators the
// settlement core depends on: price sources, the terminal checkout gateway,
// the bank-link aggregator, and credential providers. Concrete
// implementations live under infra/provider; tests substitute fakes.
package provider

import (
	"context"
	"time"
)

// PriceSource fetches a spot BTC price in the quote currency.
//
// Contract: return a positive number, or an error. Sanity-band enforcement
// is the oracle's job, so a source that parses garbage into a number is
// still rejected downstream.
type PriceSource interface {
	// Name identifies the source in logs and in Price.Source tags.
	Name() string
	// FetchPrice returns the current spot price in major quote-currency
	// units. The context carries the per-fetch deadline.
	FetchPrice(ctx context.Context) (float64, error)
}

// CheckoutRequest is the input to a terminal checkout creation.
type CheckoutRequest struct {
	// AmountMinor is the charge amount in minor units (cents).
	AmountMinor int64
	Currency    string
	// ReferenceID ties the checkout to an internal activation event.
	ReferenceID string
	// Deadline is when the terminal should stop waiting for a card present.
	Deadline time.Time
}

// Checkout is the gateway's handle for a created terminal checkout.
type Checkout struct {
	CheckoutID string
}

// CheckoutStatus is the gateway-reported state of a checkout, in the
// gateway's own vocabulary. pkg/service/payment owns the translation to
// internal states.
type CheckoutStatus struct {
	Status     string
	PaymentIDs []string
}

// TerminalGateway is the card-terminal checkout processor.
type TerminalGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetCheckoutStatus(ctx context.Context, checkoutID string) (*CheckoutStatus, error)
}

// LinkedAccount is the account metadata returned by a public-token exchange.
type LinkedAccount struct {
	BankName string
	Mask     string
}

// BankAggregator exchanges short-lived link tokens for bank account
// metadata.
type BankAggregator interface {
	// Configured reports whether the operator has enabled the integration.
	// Callers surface the unconfigured case distinctly from transient
	// failures.
	Configured() bool
	CreateLinkToken(ctx context.Context, userToken string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) ([]LinkedAccount, error)
}

// TokenProvider yields an opaque bearer credential, if one is available.
// Providers are tried in a fixed priority order by pkg/auth.Chain.
type TokenProvider interface {
	Name() string
	// TryGetToken returns a credential and true, or "" and false when this
	// provider has nothing to offer.
	TryGetToken(ctx context.Context) (string, bool)
}
