package money

// Code identifies a currency or crypto asset.
type Code string

// Assets handled by the settlement core.
const (
	USD  Code = "USD"  // US Dollar
	USDC Code = "USDC" // USD Coin (stablecoin, settled at 2 decimals internally)
	BTC  Code = "BTC"  // Bitcoin (minor unit: satoshi)
)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}

// IsValid reports whether the code names a supported asset.
func (c Code) IsValid() bool {
	_, ok := currencies[c]
	return ok
}
