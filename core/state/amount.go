package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Amounts are persisted as 256-bit words, the same width the ledger's
// fixed-point values are allowed to occupy.
func toStoredAmount(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("state: negative amount %s", v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("state: amount %s overflows 256 bits", v)
	}
	return out, nil
}

func fromStoredAmount(v *uint256.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v.ToBig()
}
