package bank

import (
	"errors"
	"fmt"
	"math/big"

	coreerrors "veledger/core/errors"
	"veledger/core/events"
	"veledger/crypto"
	nativecommon "veledger/native/common"
)

var (
	errNilState       = errors.New("bank: state not configured")
	errInvalidToken   = errors.New("bank: invalid token metadata")
	errNegativeAmount = errors.New("bank: negative amount")

	ErrTokenNotFound = errors.New("bank: token not registered")
	ErrTokenExists   = errors.New("bank: token already registered")
	ErrMintForbidden = fmt.Errorf("bank: %w: caller is not the token minter", coreerrors.ErrUnauthorized)

	ErrInsufficientBalance   = fmt.Errorf("bank: %w: transfer amount exceeds balance", coreerrors.ErrInsufficientAllowanceOrBalance)
	ErrInsufficientAllowance = fmt.Errorf("bank: %w: insufficient allowance", coreerrors.ErrInsufficientAllowanceOrBalance)
)

type engineState interface {
	BankToken(addr crypto.Address) (*Token, bool, error)
	BankPutToken(token *Token) error
	BankTokenList() ([]crypto.Address, error)
	BankPutTokenList(list []crypto.Address) error
	BankBalance(token, account crypto.Address) (*big.Int, error)
	BankPutBalance(token, account crypto.Address, amount *big.Int) error
	BankAllowance(token, owner, spender crypto.Address) (*big.Int, error)
	BankPutAllowance(token, owner, spender crypto.Address, amount *big.Int) error
}

// Engine is the fungible token collaborator used by the lock ledger and the
// reward distributor. Transfers conserve value: every debit has a matching
// credit.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine returns a bank engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event sink. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// RegisterToken records a new token. The token address must be unique.
func (e *Engine) RegisterToken(token *Token) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if token == nil || token.Address.IsZero() || NormalizeSymbol(token.Symbol) == "" {
		return errInvalidToken
	}
	if _, ok, err := e.state.BankToken(token.Address); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, token.Address)
	}
	stored := token.Clone()
	stored.Symbol = NormalizeSymbol(stored.Symbol)
	stored.Supply = big.NewInt(0)
	list, err := e.state.BankTokenList()
	if err != nil {
		return err
	}
	list = append(list, stored.Address)
	if err := e.state.BankPutTokenList(list); err != nil {
		return err
	}
	return e.state.BankPutToken(stored)
}

// Token returns the metadata of a registered token.
func (e *Engine) Token(addr crypto.Address) (*Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	token, ok, err := e.state.BankToken(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, addr)
	}
	return token, nil
}

// Tokens lists registered tokens in registration order.
func (e *Engine) Tokens() ([]*Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	list, err := e.state.BankTokenList()
	if err != nil {
		return nil, err
	}
	out := make([]*Token, 0, len(list))
	for _, addr := range list {
		token, err := e.Token(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

// Decimals returns the token's decimal precision.
func (e *Engine) Decimals(addr crypto.Address) (uint8, error) {
	token, err := e.Token(addr)
	if err != nil {
		return 0, err
	}
	return token.Decimals, nil
}

// Symbol returns the token ticker.
func (e *Engine) Symbol(addr crypto.Address) (string, error) {
	token, err := e.Token(addr)
	if err != nil {
		return "", err
	}
	return token.Symbol, nil
}

// BalanceOf returns the balance held by account.
func (e *Engine) BalanceOf(token, account crypto.Address) (*big.Int, error) {
	if _, err := e.Token(token); err != nil {
		return nil, err
	}
	return e.state.BankBalance(token, account)
}

// Allowance returns how much spender may move on behalf of owner.
func (e *Engine) Allowance(token, owner, spender crypto.Address) (*big.Int, error) {
	if _, err := e.Token(token); err != nil {
		return nil, err
	}
	return e.state.BankAllowance(token, owner, spender)
}

// Mint issues new supply to the recipient. Only the token minter may mint.
func (e *Engine) Mint(caller, token, to crypto.Address, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleBank); err != nil {
		return err
	}
	meta, err := e.Token(token)
	if err != nil {
		return err
	}
	if meta.Minter.IsZero() || meta.Minter != caller {
		return ErrMintForbidden
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	balance, err := e.state.BankBalance(token, to)
	if err != nil {
		return err
	}
	if err := e.state.BankPutBalance(token, to, new(big.Int).Add(balance, amt)); err != nil {
		return err
	}
	meta.Supply = new(big.Int).Add(cloneBigInt(meta.Supply), amt)
	if err := e.state.BankPutToken(meta); err != nil {
		return err
	}
	e.emit(events.Mint{Token: token, To: to, Amount: amt})
	return nil
}

// Approve sets the allowance of spender over owner's balance.
func (e *Engine) Approve(token, owner, spender crypto.Address, amount *big.Int) error {
	if _, err := e.Token(token); err != nil {
		return err
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if err := e.state.BankPutAllowance(token, owner, spender, amt); err != nil {
		return err
	}
	e.emit(events.Approval{Token: token, Owner: owner, Spender: spender, Amount: amt})
	return nil
}

// Transfer moves amount from one account to another.
func (e *Engine) Transfer(token, from, to crypto.Address, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleBank); err != nil {
		return err
	}
	meta, err := e.Token(token)
	if err != nil {
		return err
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	return e.move(meta, from, to, amt)
}

// Release moves amount out of a module custody account. It is not subject to
// the bank pause.
func (e *Engine) Release(token, custody, to crypto.Address, amount *big.Int) error {
	meta, err := e.Token(token)
	if err != nil {
		return err
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	return e.move(meta, custody, to, amt)
}

// TransferFrom moves amount out of from's balance using spender's allowance.
func (e *Engine) TransferFrom(token, spender, from, to crypto.Address, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleBank); err != nil {
		return err
	}
	meta, err := e.Token(token)
	if err != nil {
		return err
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if spender != from {
		allowance, err := e.state.BankAllowance(token, from, spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(amt) < 0 {
			return ErrInsufficientAllowance
		}
		if err := e.state.BankPutAllowance(token, from, spender, new(big.Int).Sub(allowance, amt)); err != nil {
			return err
		}
	}
	return e.move(meta, from, to, amt)
}

func (e *Engine) move(meta *Token, from, to crypto.Address, amt *big.Int) error {
	fromBal, err := e.state.BankBalance(meta.Address, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	if amt.Sign() == 0 || from == to {
		return nil
	}
	toBal, err := e.state.BankBalance(meta.Address, to)
	if err != nil {
		return err
	}
	if err := e.state.BankPutBalance(meta.Address, from, new(big.Int).Sub(fromBal, amt)); err != nil {
		return err
	}
	if err := e.state.BankPutBalance(meta.Address, to, new(big.Int).Add(toBal, amt)); err != nil {
		return err
	}
	e.emit(events.Transfer{Token: meta.Address, Symbol: meta.Symbol, From: from, To: to, Amount: new(big.Int).Set(amt)})
	return nil
}

func checkAmount(amount *big.Int) (*big.Int, error) {
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return nil, errNegativeAmount
	}
	return amt, nil
}
