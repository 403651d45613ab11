package bank

import (
	"math/big"
	"strings"

	"veledger/crypto"
)

// DefaultDecimals matches the precision of the locked governance token.
const DefaultDecimals uint8 = 18

// Token describes a registered fungible token.
type Token struct {
	Address  crypto.Address
	Symbol   string
	Decimals uint8
	// Minter is the only account allowed to issue new supply. A zero minter
	// disables minting.
	Minter crypto.Address
	Supply *big.Int
}

// Clone returns a deep copy of the token metadata.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Supply = cloneBigInt(t.Supply)
	return &clone
}

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// TokenAddress derives a deterministic address for a token symbol so that
// tooling can refer to tokens by ticker.
func TokenAddress(symbol string) crypto.Address {
	return crypto.ModuleAddress("token/" + NormalizeSymbol(symbol))
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
