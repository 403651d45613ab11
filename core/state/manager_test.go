package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"veledger/crypto"
	"veledger/native/bank"
	"veledger/native/multifee"
	"veledger/native/voteescrow"
	"veledger/storage"
)

var (
	alice = crypto.ModuleAddress("test/alice")
	bob   = crypto.ModuleAddress("test/bob")
	etha  = crypto.ModuleAddress("token/ETHA")
	usdc  = crypto.ModuleAddress("token/USDC")
)

func TestBankRecords(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	token := &bank.Token{Address: etha, Symbol: "ETHA", Decimals: 18, Minter: alice, Supply: big.NewInt(500)}
	require.NoError(t, mgr.BankPutToken(token))
	require.NoError(t, mgr.BankPutTokenList([]crypto.Address{etha, usdc}))

	loaded, ok, err := mgr.BankToken(etha)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ETHA", loaded.Symbol)
	require.Equal(t, alice, loaded.Minter)
	require.Equal(t, 0, loaded.Supply.Cmp(big.NewInt(500)))

	_, ok, err = mgr.BankToken(usdc)
	require.NoError(t, err)
	require.False(t, ok)

	list, err := mgr.BankTokenList()
	require.NoError(t, err)
	require.Equal(t, []crypto.Address{etha, usdc}, list)

	bal, err := mgr.BankBalance(etha, bob)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
	require.NoError(t, mgr.BankPutBalance(etha, bob, big.NewInt(42)))
	require.NoError(t, mgr.BankPutAllowance(etha, bob, alice, big.NewInt(7)))
	bal, err = mgr.BankBalance(etha, bob)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Cmp(big.NewInt(42)))
	allowance, err := mgr.BankAllowance(etha, bob, alice)
	require.NoError(t, err)
	require.Equal(t, 0, allowance.Cmp(big.NewInt(7)))
	other, err := mgr.BankAllowance(etha, alice, bob)
	require.NoError(t, err)
	require.Zero(t, other.Sign())
}

func TestAmountsRejectOverflow(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	huge := new(big.Int).Lsh(big.NewInt(1), 256)
	require.Error(t, mgr.BankPutBalance(etha, bob, huge))
	require.Error(t, mgr.BankPutBalance(etha, bob, big.NewInt(-1)))

	max := new(big.Int).Sub(huge, big.NewInt(1))
	require.NoError(t, mgr.BankPutBalance(etha, bob, max))
	got, err := mgr.BankBalance(etha, bob)
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(max))
}

func TestVoteEscrowRecords(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)

	lock := &voteescrow.Lock{Owner: alice, Amount: big.NewInt(1000), Start: 10, End: 20, Power: big.NewInt(99)}
	require.NoError(t, mgr.VoteEscrowPutLock(lock))
	require.NoError(t, mgr.VoteEscrowPutTotals(&voteescrow.Totals{Power: big.NewInt(99), Locked: big.NewInt(1000)}))
	require.NoError(t, mgr.VoteEscrowPutSettings(&voteescrow.Settings{
		MinLockedAmount:          big.NewInt(5),
		EarlyWithdrawPenaltyRate: 30_000,
		PenaltyCollector:         bob,
		DistributorLinked:        true,
		Distributor:              usdc,
	}))
	require.NoError(t, mgr.Commit())

	reopened := NewManager(db)
	loaded, ok, err := reopened.VoteEscrowLock(alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, alice, loaded.Owner)
	require.Equal(t, uint64(20), loaded.End)
	require.Equal(t, 0, loaded.Amount.Cmp(big.NewInt(1000)))
	require.Equal(t, 0, loaded.Power.Cmp(big.NewInt(99)))

	totals, err := reopened.VoteEscrowTotals()
	require.NoError(t, err)
	require.Equal(t, 0, totals.Locked.Cmp(big.NewInt(1000)))

	settings, ok, err := reopened.VoteEscrowSettings()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, settings.DistributorLinked)
	require.Equal(t, usdc, settings.Distributor)
	require.Equal(t, bob, settings.PenaltyCollector)

	require.NoError(t, reopened.VoteEscrowDeleteLock(alice))
	_, ok, err = reopened.VoteEscrowLock(alice)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVoteEscrowEmptyTotals(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	totals, err := mgr.VoteEscrowTotals()
	require.NoError(t, err)
	require.Zero(t, totals.Power.Sign())
	require.Zero(t, totals.Locked.Sign())
	_, ok, err := mgr.VoteEscrowSettings()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMultiFeeRecords(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	tokens, err := mgr.MultiFeeRewardTokens()
	require.NoError(t, err)
	require.Empty(t, tokens)

	require.NoError(t, mgr.MultiFeePutRewardTokens([]crypto.Address{usdc, etha}))
	require.NoError(t, mgr.MultiFeePutRewardData(&multifee.RewardData{
		Token:                usdc,
		LastUpdateTime:       100,
		RewardPerShareStored: big.NewInt(3),
		RewardRate:           big.NewInt(4),
		PeriodFinish:         200,
		Balance:              big.NewInt(5),
	}))
	require.NoError(t, mgr.MultiFeePutSnapshot(alice, usdc, &multifee.Snapshot{
		RewardPerSharePaid: big.NewInt(3),
		Accrued:            big.NewInt(9),
	}))
	require.NoError(t, mgr.MultiFeePutSettings(&multifee.Settings{VoteEscrowLinked: true, VoteEscrow: bob}))

	tokens, err = mgr.MultiFeeRewardTokens()
	require.NoError(t, err)
	require.Equal(t, []crypto.Address{usdc, etha}, tokens)

	data, ok, err := mgr.MultiFeeRewardData(usdc)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, usdc, data.Token)
	require.Equal(t, uint64(200), data.PeriodFinish)
	require.Equal(t, 0, data.Balance.Cmp(big.NewInt(5)))

	snapshot, err := mgr.MultiFeeSnapshot(alice, usdc)
	require.NoError(t, err)
	require.Equal(t, 0, snapshot.Accrued.Cmp(big.NewInt(9)))
	empty, err := mgr.MultiFeeSnapshot(bob, usdc)
	require.NoError(t, err)
	require.Zero(t, empty.Accrued.Sign())

	settings, ok, err := mgr.MultiFeeSettings()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bob, settings.VoteEscrow)
}
