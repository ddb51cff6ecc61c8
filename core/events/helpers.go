package events

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

func normalizeDenom(denom string) string {
	return strings.ToLower(strings.TrimSpace(denom))
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatUint(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
