// Package quote produces short-lived, price-locked conversion offers
// between the platform's assets.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/money"
	"github.com/coinedge/bitcard/pkg/oracle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the kind of conversion a quote locks in.
type Type string

const (
	TypeBuyBTC  Type = "BUY_BTC"
	TypeSellBTC Type = "SELL_BTC"
	TypeCashout Type = "CASHOUT"
	TypeRedeem  Type = "REDEEM"
)

// ValidityWindow is how long a quote stays executable after creation.
const ValidityWindow = 5 * time.Minute

// ConversionFeeRate is the platform fee on buy/sell/cashout conversions.
// Redemption carries no conversion fee here; the redemption fee split is
// charged separately at claim time (see pkg/fees).
var ConversionFeeRate = decimal.NewFromFloat(0.015)

// Quote is a time-bounded, price-locked conversion offer. It is a value
// object: produced fresh per request and never mutated. Execution paths must
// call Validate before honoring the locked-in rate; expired quotes are
// re-requested, never silently re-priced.
type Quote struct {
	ID           uuid.UUID    `json:"id"`
	Type         Type         `json:"type"`
	InputAmount  money.Money  `json:"input_amount"`
	OutputAmount money.Money  `json:"output_amount"`
	Fee          money.Money  `json:"fee"`
	Rate         oracle.Price `json:"rate"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// Validate reports whether the quote may still be executed at the given
// time.
func (q *Quote) Validate(now time.Time) error {
	if now.After(q.ExpiresAt) {
		return domain.ErrQuoteExpired
	}
	return nil
}

// PriceGetter is the slice of the oracle the service needs.
type PriceGetter interface {
	GetPrice(ctx context.Context) (*oracle.Price, error)
}

// Service creates quotes from the fee schedule and the current oracle rate.
type Service struct {
	prices PriceGetter
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a quote service.
func New(prices PriceGetter, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{prices: prices, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inputAsset is the required input asset per quote type.
var inputAsset = map[Type]money.Code{
	TypeBuyBTC:  money.USDC,
	TypeSellBTC: money.BTC,
	TypeCashout: money.USDC,
	TypeRedeem:  money.USD,
}

// CreateQuote produces a quote for converting the given amount.
//
// Fee and KYC eligibility of the caller is checked upstream; this service
// only prices the conversion.
func (s *Service) CreateQuote(ctx context.Context, qt Type, amount money.Money) (*Quote, error) {
	expected, ok := inputAsset[qt]
	if !ok {
		return nil, domain.ErrUnsupportedTransferType
	}
	if amount.Code() != expected {
		return nil, fmt.Errorf("%s quote requires %s input, got %s: %w",
			qt, expected, amount.Code(), money.ErrMismatchedCurrencies)
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	price, err := s.prices.GetPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("quote pricing: %w", err)
	}

	var fee, output money.Money
	switch qt {
	case TypeBuyBTC:
		// USDC in, 1.5% fee, remainder converted to BTC at the locked rate.
		fee = amount.MulRate(ConversionFeeRate)
		remainder, serr := amount.Sub(fee)
		if serr != nil {
			return nil, serr
		}
		output, err = remainder.Convert(price.Value, money.BTC)
	case TypeSellBTC:
		// BTC in, valued in USD at the locked rate, 1.5% fee, USDC out.
		gross, nerr := money.NewFromDecimal(amount.Decimal().Mul(price.Value), money.USDC)
		if nerr != nil {
			return nil, nerr
		}
		fee = gross.MulRate(ConversionFeeRate)
		output, err = gross.Sub(fee)
	case TypeCashout:
		// USDC in, 1.5% fee, 1:1 to USD.
		fee = amount.MulRate(ConversionFeeRate)
		net, serr := amount.Sub(fee)
		if serr != nil {
			return nil, serr
		}
		output, err = money.NewFromMinor(net.Amount(), money.USD)
	case TypeRedeem:
		// Voucher USD face value in, zero fee, BTC out at the locked rate.
		// The redemption fee split is charged at claim time, not here.
		fee = money.Zero(money.USD)
		output, err = amount.Convert(price.Value, money.BTC)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	q := &Quote{
		ID:           uuid.New(),
		Type:         qt,
		InputAmount:  amount,
		OutputAmount: output,
		Fee:          fee,
		Rate:         *price,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ValidityWindow),
	}
	s.logger.Info("quote created",
		"id", q.ID,
		"type", q.Type,
		"input", q.InputAmount.String(),
		"output", q.OutputAmount.String(),
		"rate_source", price.Source,
		"expires_at", q.ExpiresAt,
	)
	return q, nil
}
