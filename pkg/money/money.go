// Package money provides the monetary value object used by the settlement
// core.
//
// Invariants:
//   - Amount is always stored as an integer in the smallest unit of the asset
//     (cents for USD/USDC, satoshis for BTC). Settlement-affecting sums never
//     touch binary floating point.
//   - Arithmetic across assets is forbidden; conversion happens only through
//     an explicit price.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCurrency is returned for an unsupported asset code.
	ErrInvalidCurrency = fmt.Errorf("invalid currency code")
	// ErrMismatchedCurrencies is returned when performing arithmetic on
	// money in different assets.
	ErrMismatchedCurrencies = fmt.Errorf("mismatched currencies")
)

// Amount is a monetary amount in the smallest unit of its asset.
type Amount = int64

// Currency is an asset together with its minor-unit precision.
type Currency struct {
	Code     Code
	Decimals int
}

// String returns the asset code.
func (c Currency) String() string { return string(c.Code) }

var currencies = map[Code]Currency{
	USD:  {Code: USD, Decimals: 2},
	USDC: {Code: USDC, Decimals: 2},
	BTC:  {Code: BTC, Decimals: 8},
}

// Money is a monetary value in a specific asset.
type Money struct {
	amount   Amount
	currency Currency
}

// New creates Money from a major-unit amount, e.g. New(10.50, USD) is $10.50.
// The amount is converted exactly through decimal arithmetic and rounded
// half-up to the asset's minor unit.
func New(amount float64, code Code) (Money, error) {
	c, ok := currencies[code]
	if !ok {
		return Money{}, ErrInvalidCurrency
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(c.Decimals)).Round(0)
	if !minor.IsInteger() || !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("amount %v out of range for %s", amount, code)
	}
	return Money{amount: minor.IntPart(), currency: c}, nil
}

// NewFromMinor creates Money from an amount already expressed in the asset's
// smallest unit.
func NewFromMinor(amount int64, code Code) (Money, error) {
	c, ok := currencies[code]
	if !ok {
		return Money{}, ErrInvalidCurrency
	}
	return Money{amount: amount, currency: c}, nil
}

// NewFromDecimal creates Money from a major-unit decimal amount.
func NewFromDecimal(amount decimal.Decimal, code Code) (Money, error) {
	c, ok := currencies[code]
	if !ok {
		return Money{}, ErrInvalidCurrency
	}
	minor := amount.Shift(int32(c.Decimals)).Round(0)
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("amount %s out of range for %s", amount, code)
	}
	return Money{amount: minor.IntPart(), currency: c}, nil
}

// Zero returns a zero amount in the given asset.
func Zero(code Code) Money {
	return Money{amount: 0, currency: currencies[code]}
}

// Amount returns the amount in the asset's smallest unit.
func (m Money) Amount() Amount { return m.amount }

// Currency returns the asset of the value.
func (m Money) Currency() Currency { return m.currency }

// Code returns the asset code of the value.
func (m Money) Code() Code { return m.currency.Code }

// Decimal returns the amount in major units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, 0).Shift(-int32(m.currency.Decimals))
}

// Float returns the amount in major units. Display only; settlement paths
// use Amount or Decimal.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount > 0 }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// SameCurrency reports whether both values share an asset.
func (m Money) SameCurrency(other Money) bool {
	return m.currency.Code == other.currency.Code
}

// Add returns the sum of two values in the same asset.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Sub returns the difference of two values in the same asset.
func (m Money) Sub(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// MulRate multiplies the amount by a decimal rate, rounding half-up to the
// asset's minor unit. Used for fee application; the rounding remainder rule
// lives with the caller (see pkg/fees).
func (m Money) MulRate(rate decimal.Decimal) Money {
	minor := decimal.New(m.amount, 0).Mul(rate).Round(0)
	return Money{amount: minor.IntPart(), currency: m.currency}
}

// Convert re-denominates the value into another asset at the given
// major-unit price (units of m's asset per one unit of target asset).
// Example: 50,000 USD per BTC converts $25,000 into 0.5 BTC.
func (m Money) Convert(price decimal.Decimal, target Code) (Money, error) {
	if price.IsZero() || price.IsNegative() {
		return Money{}, fmt.Errorf("conversion price must be positive, got %s", price)
	}
	major := m.Decimal().Div(price)
	return NewFromDecimal(major, target)
}

// Equals reports whether two values have the same asset and amount.
func (m Money) Equals(other Money) bool {
	return m.SameCurrency(other) && m.amount == other.amount
}

// String formats the value in major units with the asset code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(int32(m.currency.Decimals)), m.currency.Code)
}

// MarshalJSON encodes the value as {"amount": <minor units>, "currency": <code>}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":   m.amount,
		"currency": m.currency.Code,
	})
}
