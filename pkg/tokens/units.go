package tokens

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a raw on-chain amount using the token's decimals,
// e.g. 1500000 with 6 decimals becomes "1.5".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// ParseUnits converts a human readable amount into raw units.
// Digits beyond the token's precision are truncated.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}
