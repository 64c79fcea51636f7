package utils

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("invalid hex address")

// NormalizeAddress returns the EIP-55 checksummed form of a 0x-prefixed or bare
// 20-byte hex address.
func NormalizeAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// ShortAddress abbreviates an address for log lines, e.g. 0xA0b8...eB48.
// Inputs too short to abbreviate are returned unchanged.
func ShortAddress(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
