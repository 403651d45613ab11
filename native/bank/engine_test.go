package bank_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	coreerrors "veledger/core/errors"
	"veledger/core/events"
	"veledger/core/state"
	"veledger/crypto"
	"veledger/native/bank"
	nativecommon "veledger/native/common"
	"veledger/storage"
)

var (
	minter  = crypto.ModuleAddress("test/minter")
	alice   = crypto.ModuleAddress("test/alice")
	bob     = crypto.ModuleAddress("test/bob")
	spender = crypto.ModuleAddress("test/spender")
)

func newBank(t *testing.T) (*bank.Engine, *events.Recorder, crypto.Address) {
	t.Helper()
	engine := bank.NewEngine()
	engine.SetState(state.NewManager(storage.NewMemDB()))
	recorder := &events.Recorder{}
	engine.SetEmitter(recorder)
	token := bank.TokenAddress("etha")
	require.NoError(t, engine.RegisterToken(&bank.Token{Address: token, Symbol: " etha ", Decimals: 18, Minter: minter}))
	return engine, recorder, token
}

func balance(t *testing.T, engine *bank.Engine, token, addr crypto.Address) *big.Int {
	t.Helper()
	bal, err := engine.BalanceOf(token, addr)
	require.NoError(t, err)
	return bal
}

func TestRegisterToken(t *testing.T) {
	engine, _, token := newBank(t)

	meta, err := engine.Token(token)
	require.NoError(t, err)
	require.Equal(t, "ETHA", meta.Symbol)
	require.Zero(t, meta.Supply.Sign())

	err = engine.RegisterToken(&bank.Token{Address: token, Symbol: "ETHA"})
	require.ErrorIs(t, err, bank.ErrTokenExists)
	require.Error(t, engine.RegisterToken(&bank.Token{Symbol: "ZERO"}))

	usdc := bank.TokenAddress("USDC")
	require.NoError(t, engine.RegisterToken(&bank.Token{Address: usdc, Symbol: "usdc", Decimals: 6}))
	tokens, err := engine.Tokens()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	require.Equal(t, token, tokens[0].Address)
	require.Equal(t, usdc, tokens[1].Address)

	decimals, err := engine.Decimals(usdc)
	require.NoError(t, err)
	require.Equal(t, uint8(6), decimals)
	symbol, err := engine.Symbol(usdc)
	require.NoError(t, err)
	require.Equal(t, "USDC", symbol)

	_, err = engine.BalanceOf(bank.TokenAddress("nope"), alice)
	require.ErrorIs(t, err, bank.ErrTokenNotFound)
}

func TestMintRequiresMinter(t *testing.T) {
	engine, recorder, token := newBank(t)

	if err := engine.Mint(alice, token, alice, big.NewInt(100)); !errors.Is(err, coreerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized mint, got %v", err)
	}
	if err := engine.Mint(minter, token, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := balance(t, engine, token, alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("alice balance %s, want 100", got)
	}
	meta, err := engine.Token(token)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if meta.Supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply %s, want 100", meta.Supply)
	}
	if types := recorder.Types(); len(types) != 1 || types[0] != events.TypeMint {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestTransferConservesValue(t *testing.T) {
	engine, _, token := newBank(t)
	require.NoError(t, engine.Mint(minter, token, alice, big.NewInt(100)))

	require.NoError(t, engine.Transfer(token, alice, bob, big.NewInt(40)))
	require.Equal(t, 0, balance(t, engine, token, alice).Cmp(big.NewInt(60)))
	require.Equal(t, 0, balance(t, engine, token, bob).Cmp(big.NewInt(40)))

	err := engine.Transfer(token, alice, bob, big.NewInt(61))
	require.ErrorIs(t, err, coreerrors.ErrInsufficientAllowanceOrBalance)
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)
	require.Error(t, engine.Transfer(token, alice, bob, big.NewInt(-1)))

	total := new(big.Int).Add(balance(t, engine, token, alice), balance(t, engine, token, bob))
	require.Equal(t, 0, total.Cmp(big.NewInt(100)))
}

func TestTransferFromUsesAllowance(t *testing.T) {
	engine, _, token := newBank(t)
	require.NoError(t, engine.Mint(minter, token, alice, big.NewInt(100)))

	err := engine.TransferFrom(token, spender, alice, bob, big.NewInt(10))
	require.ErrorIs(t, err, bank.ErrInsufficientAllowance)
	require.ErrorIs(t, err, coreerrors.ErrInsufficientAllowanceOrBalance)

	require.NoError(t, engine.Approve(token, alice, spender, big.NewInt(30)))
	require.NoError(t, engine.TransferFrom(token, spender, alice, bob, big.NewInt(10)))
	allowance, err := engine.Allowance(token, alice, spender)
	require.NoError(t, err)
	require.Equal(t, 0, allowance.Cmp(big.NewInt(20)))
	require.Equal(t, 0, balance(t, engine, token, bob).Cmp(big.NewInt(10)))

	// Moving one's own funds does not consume an allowance.
	require.NoError(t, engine.TransferFrom(token, alice, alice, bob, big.NewInt(5)))
	require.Equal(t, 0, balance(t, engine, token, alice).Cmp(big.NewInt(85)))
}

func TestReleaseIgnoresPause(t *testing.T) {
	engine, _, token := newBank(t)
	custody := crypto.ModuleAddress("test/custody")
	if err := engine.Mint(minter, token, custody, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	engine.SetPauses(nativecommon.StaticPauses{nativecommon.ModuleBank: true})

	if err := engine.Release(token, custody, alice, big.NewInt(60)); err != nil {
		t.Fatalf("release while paused: %v", err)
	}
	if got := balance(t, engine, token, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance %s, want 60", got)
	}
	if err := engine.Release(token, custody, alice, big.NewInt(41)); !errors.Is(err, coreerrors.ErrInsufficientAllowanceOrBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestPausedBankRejectsTransfers(t *testing.T) {
	engine, _, token := newBank(t)
	if err := engine.Mint(minter, token, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	engine.SetPauses(nativecommon.StaticPauses{nativecommon.ModuleBank: true})

	if err := engine.Transfer(token, alice, bob, big.NewInt(1)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused transfer, got %v", err)
	}
	if err := engine.Mint(minter, token, alice, big.NewInt(1)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused mint, got %v", err)
	}
}
