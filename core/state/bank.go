package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"veledger/crypto"
	"veledger/native/bank"
)

type storedToken struct {
	Address  [20]byte
	Symbol   string
	Decimals uint8
	Minter   [20]byte
	Supply   *uint256.Int
}

func newStoredToken(t *bank.Token) (*storedToken, error) {
	if t == nil {
		return nil, fmt.Errorf("bank: nil token")
	}
	supply, err := toStoredAmount(t.Supply)
	if err != nil {
		return nil, err
	}
	return &storedToken{
		Address:  t.Address,
		Symbol:   t.Symbol,
		Decimals: t.Decimals,
		Minter:   t.Minter,
		Supply:   supply,
	}, nil
}

func (s *storedToken) toToken() *bank.Token {
	return &bank.Token{
		Address:  crypto.Address(s.Address),
		Symbol:   s.Symbol,
		Decimals: s.Decimals,
		Minter:   crypto.Address(s.Minter),
		Supply:   fromStoredAmount(s.Supply),
	}
}

// BankToken loads a registered token's metadata.
func (m *Manager) BankToken(addr crypto.Address) (*bank.Token, bool, error) {
	var stored storedToken
	ok, err := m.KVGet(addressKey(bankTokenPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toToken(), true, nil
}

// BankPutToken persists token metadata.
func (m *Manager) BankPutToken(token *bank.Token) error {
	stored, err := newStoredToken(token)
	if err != nil {
		return err
	}
	return m.KVPut(addressKey(bankTokenPrefix, token.Address), stored)
}

// BankTokenList returns registered token addresses in registration order.
func (m *Manager) BankTokenList() ([]crypto.Address, error) {
	return m.addressList(bankTokenListKey)
}

// BankPutTokenList replaces the registered token list.
func (m *Manager) BankPutTokenList(list []crypto.Address) error {
	return m.putAddressList(bankTokenListKey, list)
}

// BankBalance returns account's balance of token, zero when unset.
func (m *Manager) BankBalance(token, account crypto.Address) (*big.Int, error) {
	return m.amount(addressKey(bankBalancePrefix, token, account))
}

// BankPutBalance stores account's balance of token. Zero balances are
// removed.
func (m *Manager) BankPutBalance(token, account crypto.Address, amount *big.Int) error {
	return m.putAmount(addressKey(bankBalancePrefix, token, account), amount)
}

// BankAllowance returns how much spender may move from owner.
func (m *Manager) BankAllowance(token, owner, spender crypto.Address) (*big.Int, error) {
	return m.amount(addressKey(bankAllowancePrefix, token, owner, spender))
}

// BankPutAllowance stores spender's allowance over owner's balance.
func (m *Manager) BankPutAllowance(token, owner, spender crypto.Address, amount *big.Int) error {
	return m.putAmount(addressKey(bankAllowancePrefix, token, owner, spender), amount)
}

func (m *Manager) amount(key []byte) (*big.Int, error) {
	stored := new(uint256.Int)
	ok, err := m.KVGet(key, stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return fromStoredAmount(stored), nil
}

func (m *Manager) putAmount(key []byte, amount *big.Int) error {
	stored, err := toStoredAmount(amount)
	if err != nil {
		return err
	}
	if stored.IsZero() {
		return m.KVDelete(key)
	}
	return m.KVPut(key, stored)
}

func (m *Manager) addressList(key []byte) ([]crypto.Address, error) {
	var raw [][20]byte
	if err := m.KVGetList(key, &raw); err != nil {
		return nil, err
	}
	out := make([]crypto.Address, len(raw))
	for i := range raw {
		out[i] = crypto.Address(raw[i])
	}
	return out, nil
}

func (m *Manager) putAddressList(key []byte, list []crypto.Address) error {
	raw := make([][20]byte, len(list))
	for i := range list {
		raw[i] = list[i]
	}
	return m.KVPut(key, raw)
}
