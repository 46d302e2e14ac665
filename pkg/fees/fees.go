// Package fees computes the multi-party fee splits for card activation at
// the point of sale and for BTC redemption. All functions are pure and
// recompute on every call; amounts are settled in integer minor units so the
// split parts always sum exactly to the total.
package fees

import (
	"errors"

	"github.com/coinedge/bitcard/pkg/domain"
	"github.com/coinedge/bitcard/pkg/money"
	"github.com/shopspring/decimal"
)

// ErrInvalidPaymentMethod is returned for a payment method other than card
// or cash.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// PaymentMethod is how a customer pays at the terminal.
type PaymentMethod string

const (
	MethodCard PaymentMethod = "CARD"
	MethodCash PaymentMethod = "CASH"
)

// IsValid reports whether the method is supported.
func (m PaymentMethod) IsValid() bool {
	return m == MethodCard || m == MethodCash
}

// Fee rates. Fixed product constants, expressed as exact decimals.
var (
	// MerchantCardRate is the merchant margin on card-paid activations.
	MerchantCardRate = decimal.NewFromFloat(0.02)
	// MerchantCashRate is the merchant margin on cash-paid activations.
	MerchantCashRate = decimal.NewFromFloat(0.05)
	// CardProcessingRate is the card-network surcharge passed to the customer.
	CardProcessingRate = decimal.NewFromFloat(0.03)

	// SalesRepRate is the sales-rep share of the redemption fee.
	SalesRepRate = decimal.NewFromFloat(0.02)
	// VolatilityReserveRate funds the BTC volatility reserve.
	VolatilityReserveRate = decimal.NewFromFloat(0.03)
	// PlatformRevenueRate is the platform's share of the redemption fee.
	PlatformRevenueRate = decimal.NewFromFloat(0.0375)
	// TotalRedemptionRate is exactly the sum of the three redemption rates
	// (8.75%).
	TotalRedemptionRate = SalesRepRate.Add(VolatilityReserveRate).Add(PlatformRevenueRate)
)

// POSFeeBreakdown is the fee split for a card activation at the terminal.
//
// The merchant fee is absorbed from the merchant's own margin and is never
// charged to the customer; only the card-network surcharge is.
type POSFeeBreakdown struct {
	BaseAmount    money.Money `json:"base_amount"`
	Method        PaymentMethod `json:"method"`
	MerchantFee   money.Money `json:"merchant_fee"`
	ProcessingFee money.Money `json:"processing_fee"`
	TotalPOSFee   money.Money `json:"total_pos_fee"`
	CustomerPays  money.Money `json:"customer_pays"`
}

// RedemptionFeeBreakdown is the fee split applied when a cardholder claims
// the underlying BTC value. Parts sum exactly to TotalRedemptionFee; any
// rounding remainder is assigned to PlatformRevenue, never dropped.
type RedemptionFeeBreakdown struct {
	BaseAmount         money.Money `json:"base_amount"`
	SalesRepFee        money.Money `json:"sales_rep_fee"`
	VolatilityReserve  money.Money `json:"volatility_reserve"`
	PlatformRevenue    money.Money `json:"platform_revenue"`
	TotalRedemptionFee money.Money `json:"total_redemption_fee"`
	NetValue           money.Money `json:"net_value"`
}

// FeeBreakdown is the combined POS + redemption view. Informational only:
// the two fee events occur at different points in the card lifecycle
// (purchase vs. claim) and are never both charged against the same leg of
// money movement.
type FeeBreakdown struct {
	POS        POSFeeBreakdown        `json:"pos"`
	Redemption RedemptionFeeBreakdown `json:"redemption"`
	TotalFee   money.Money            `json:"total_fee"`
}

// CalculatePOSFees computes the point-of-sale fee split for a card
// activation paid by the given method.
func CalculatePOSFees(base money.Money, method PaymentMethod) (POSFeeBreakdown, error) {
	if !base.IsPositive() {
		return POSFeeBreakdown{}, domain.ErrInvalidAmount
	}
	if !method.IsValid() {
		return POSFeeBreakdown{}, ErrInvalidPaymentMethod
	}

	merchantRate := MerchantCardRate
	processing := money.Zero(base.Code())
	if method == MethodCash {
		merchantRate = MerchantCashRate
	} else {
		processing = base.MulRate(CardProcessingRate)
	}

	customerPays, err := base.Add(processing)
	if err != nil {
		return POSFeeBreakdown{}, err
	}

	return POSFeeBreakdown{
		BaseAmount:    base,
		Method:        method,
		MerchantFee:   base.MulRate(merchantRate),
		ProcessingFee: processing,
		TotalPOSFee:   processing,
		CustomerPays:  customerPays,
	}, nil
}

// CalculateRedemptionFees computes the redemption fee split for a claim
// against the given base value.
func CalculateRedemptionFees(base money.Money) (RedemptionFeeBreakdown, error) {
	if !base.IsPositive() {
		return RedemptionFeeBreakdown{}, domain.ErrInvalidAmount
	}

	total := base.MulRate(TotalRedemptionRate)
	salesRep := base.MulRate(SalesRepRate)
	volatility := base.MulRate(VolatilityReserveRate)

	// The platform part takes the rounding remainder so the three parts sum
	// exactly to the total.
	platform, err := total.Sub(salesRep)
	if err != nil {
		return RedemptionFeeBreakdown{}, err
	}
	platform, err = platform.Sub(volatility)
	if err != nil {
		return RedemptionFeeBreakdown{}, err
	}

	net, err := base.Sub(total)
	if err != nil {
		return RedemptionFeeBreakdown{}, err
	}

	return RedemptionFeeBreakdown{
		BaseAmount:         base,
		SalesRepFee:        salesRep,
		VolatilityReserve:  volatility,
		PlatformRevenue:    platform,
		TotalRedemptionFee: total,
		NetValue:           net,
	}, nil
}

// CalculateFees computes the combined POS + redemption breakdown.
func CalculateFees(base money.Money, method PaymentMethod) (FeeBreakdown, error) {
	pos, err := CalculatePOSFees(base, method)
	if err != nil {
		return FeeBreakdown{}, err
	}
	redemption, err := CalculateRedemptionFees(base)
	if err != nil {
		return FeeBreakdown{}, err
	}
	totalFee, err := pos.TotalPOSFee.Add(redemption.TotalRedemptionFee)
	if err != nil {
		return FeeBreakdown{}, err
	}
	return FeeBreakdown{POS: pos, Redemption: redemption, TotalFee: totalFee}, nil
}
