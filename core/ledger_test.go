package core

import (
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"veledger/config"
	coreerrors "veledger/core/errors"
	"veledger/core/events"
	"veledger/crypto"
	"veledger/native/bank"
	nativecommon "veledger/native/common"
	"veledger/storage"
)

var (
	alice     = crypto.ModuleAddress("test/alice")
	bob       = crypto.ModuleAddress("test/bob")
	collector = crypto.ModuleAddress("test/collector")
)

type fixture struct {
	ledger   *Ledger
	clock    *clockwork.FakeClock
	recorder *events.Recorder
	owner    crypto.Address
	etha     crypto.Address
	usdc     crypto.Address
}

func testConfig(mutate func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Escrow.MinLockedAmount = "1000"
	cfg.Escrow.PenaltyCollector = collector.String()
	cfg.Distribution.RewardTokens = []config.RewardToken{{Symbol: "USDC", Decimals: 6}}
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func openLedger(t *testing.T, cfg *config.Config, db storage.Database, clock *clockwork.FakeClock) *fixture {
	t.Helper()
	ledger, err := NewLedger(cfg, db)
	require.NoError(t, err)
	ledger.SetClock(clock)
	recorder := &events.Recorder{}
	ledger.SetEmitter(recorder)
	require.NoError(t, ledger.Bootstrap())
	return &fixture{
		ledger:   ledger,
		clock:    clock,
		recorder: recorder,
		owner:    ledger.Owner(),
		etha:     ledger.LockedToken(),
		usdc:     bank.TokenAddress("USDC"),
	}
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	return openLedger(t, testConfig(mutate), storage.NewMemDB(), clock)
}

func (f *fixture) fundAndLock(t *testing.T, who crypto.Address, amount int64, days uint64) {
	t.Helper()
	require.NoError(t, f.ledger.Mint(f.owner, f.etha, who, big.NewInt(amount)))
	require.NoError(t, f.ledger.Approve(f.etha, who, f.ledger.EscrowAddress(), big.NewInt(amount)))
	require.NoError(t, f.ledger.CreateLock(who, big.NewInt(amount), days))
}

func (f *fixture) balance(t *testing.T, token, who crypto.Address) *big.Int {
	t.Helper()
	bal, err := f.ledger.BalanceOf(token, who)
	require.NoError(t, err)
	return bal
}

func TestBootstrapWiresComponents(t *testing.T) {
	f := newFixture(t, nil)

	params, err := f.ledger.EscrowParams()
	require.NoError(t, err)
	require.True(t, params.DistributorLinked)
	require.Equal(t, f.ledger.DistributorAddress(), params.Distributor)
	require.Equal(t, collector, params.PenaltyCollector)
	require.Equal(t, "veETHA", params.Symbol)
	require.Equal(t, uint64(30_000), params.EarlyWithdrawPenaltyRate)

	tokens, err := f.ledger.GetRewardTokens()
	require.NoError(t, err)
	require.Equal(t, []crypto.Address{f.usdc}, tokens)

	registered, err := f.ledger.Tokens()
	require.NoError(t, err)
	require.Len(t, registered, 2)

	require.Contains(t, f.recorder.Types(), events.TypeComponentLinked)
	require.Contains(t, f.recorder.Types(), events.TypeRewardAdded)

	// A second bootstrap is a no-op.
	before := len(f.recorder.Events())
	require.NoError(t, f.ledger.Bootstrap())
	require.Len(t, f.recorder.Events(), before)
}

func TestEmergencyWithdrawSplitsPenalty(t *testing.T) {
	f := newFixture(t, nil)
	f.fundAndLock(t, alice, 1000, 90)

	power, err := f.ledger.VotingPower(alice)
	require.NoError(t, err)
	require.Equal(t, 0, power.Cmp(big.NewInt(83)))

	f.clock.Advance(10 * 24 * time.Hour)
	require.NoError(t, f.ledger.EmergencyWithdraw(alice))

	require.Equal(t, 0, f.balance(t, f.etha, alice).Cmp(big.NewInt(700)))
	require.Equal(t, 0, f.balance(t, f.etha, collector).Cmp(big.NewInt(300)))
	require.Zero(t, f.balance(t, f.etha, f.ledger.EscrowAddress()).Sign())

	lock, err := f.ledger.Lock(alice)
	require.NoError(t, err)
	require.False(t, lock.Active())
	total, err := f.ledger.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, total.Sign())
}

func TestWithdrawAfterExpiry(t *testing.T) {
	f := newFixture(t, nil)
	f.fundAndLock(t, alice, 5000, 30)

	err := f.ledger.Withdraw(alice)
	require.ErrorIs(t, err, coreerrors.ErrLockNotExpired)

	f.clock.Advance(30 * 24 * time.Hour)
	require.NoError(t, f.ledger.Withdraw(alice))
	require.Equal(t, 0, f.balance(t, f.etha, alice).Cmp(big.NewInt(5000)))

	locked, err := f.ledger.TotalLocked()
	require.NoError(t, err)
	require.Zero(t, locked.Sign())
}

func TestRewardsStreamProRata(t *testing.T) {
	f := newFixture(t, nil)
	f.fundAndLock(t, alice, 1000, 90)
	f.fundAndLock(t, bob, 1000, 90)

	funded := new(big.Int).Mul(big.NewInt(604_800), big.NewInt(1_000_000))
	require.NoError(t, f.ledger.Mint(f.owner, f.usdc, f.owner, funded))
	require.NoError(t, f.ledger.FundRewards(f.owner, f.usdc, funded))
	require.NoError(t, f.ledger.Checkpoint())

	data, err := f.ledger.RewardData(f.usdc)
	require.NoError(t, err)
	require.Equal(t, 0, data.Balance.Cmp(funded))
	require.Equal(t, uint64(f.clock.Now().Unix())+604_800, data.PeriodFinish)

	f.clock.Advance(8 * 24 * time.Hour)

	claimable, err := f.ledger.ClaimableRewards(alice)
	require.NoError(t, err)
	require.Len(t, claimable, 1)

	paid, err := f.ledger.GetReward(alice, []crypto.Address{f.usdc}, crypto.ZeroAddress)
	require.NoError(t, err)
	require.Equal(t, 0, paid[0].Amount.Cmp(claimable[0].Amount))
	_, err = f.ledger.GetReward(bob, []crypto.Address{f.usdc}, crypto.ZeroAddress)
	require.NoError(t, err)

	aliceGot := f.balance(t, f.usdc, alice)
	bobGot := f.balance(t, f.usdc, bob)
	require.Equal(t, 0, aliceGot.Cmp(bobGot))

	half := new(big.Int).Quo(funded, big.NewInt(2))
	shortfall := new(big.Int).Sub(half, aliceGot)
	require.True(t, shortfall.Sign() >= 0 && shortfall.Cmp(big.NewInt(1)) <= 0, "shortfall %s", shortfall)

	remaining := f.balance(t, f.usdc, f.ledger.DistributorAddress())
	sum := new(big.Int).Add(aliceGot, bobGot)
	sum.Add(sum, remaining)
	require.Equal(t, 0, sum.Cmp(funded))
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ledger.Mint(f.owner, f.etha, alice, big.NewInt(1000)))
	before, err := f.ledger.RewardData(f.usdc)
	require.NoError(t, err)
	eventsBefore := len(f.recorder.Events())

	f.clock.Advance(time.Hour)
	// No approval: settlement runs, then the transfer fails.
	err = f.ledger.CreateLock(alice, big.NewInt(1000), 90)
	require.ErrorIs(t, err, coreerrors.ErrInsufficientAllowanceOrBalance)

	after, err := f.ledger.RewardData(f.usdc)
	require.NoError(t, err)
	require.Equal(t, before.LastUpdateTime, after.LastUpdateTime)
	lock, err := f.ledger.Lock(alice)
	require.NoError(t, err)
	require.False(t, lock.Active())
	require.Equal(t, 0, f.balance(t, f.etha, alice).Cmp(big.NewInt(1000)))
	require.Len(t, f.recorder.Events(), eventsBefore)
}

func TestFundRewardsRejectsUnknownToken(t *testing.T) {
	f := newFixture(t, nil)
	err := f.ledger.FundRewards(f.owner, bank.TokenAddress("DAI"), big.NewInt(1))
	if !errors.Is(err, coreerrors.ErrUnknownRewardToken) {
		t.Fatalf("expected unknown reward token, got %v", err)
	}
}

func TestPausedEscrowStillWithdraws(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	db := storage.NewMemDB()
	f := openLedger(t, testConfig(nil), db, clock)
	f.fundAndLock(t, alice, 1000, 30)

	paused := openLedger(t, testConfig(func(cfg *config.Config) { cfg.Pauses.VoteEscrow = true }), db, clock)
	require.NoError(t, paused.ledger.Mint(paused.owner, paused.etha, bob, big.NewInt(1000)))
	err := paused.ledger.CreateLock(bob, big.NewInt(1000), 30)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)

	clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, paused.ledger.Withdraw(alice))
}

func TestPausedBankStillReleasesPrincipal(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	db := storage.NewMemDB()
	f := openLedger(t, testConfig(nil), db, clock)
	f.fundAndLock(t, alice, 1000, 30)
	f.fundAndLock(t, bob, 1000, 90)

	paused := openLedger(t, testConfig(func(cfg *config.Config) { cfg.Pauses.Bank = true }), db, clock)
	if err := paused.ledger.Transfer(paused.etha, bob, alice, big.NewInt(1)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused transfer, got %v", err)
	}
	if err := paused.ledger.EmergencyWithdraw(bob); err != nil {
		t.Fatalf("emergency withdraw while bank paused: %v", err)
	}
	clock.Advance(31 * 24 * time.Hour)
	if err := paused.ledger.Withdraw(alice); err != nil {
		t.Fatalf("withdraw while bank paused: %v", err)
	}
	if got := paused.balance(t, paused.etha, alice); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("alice balance %s, want 1000", got)
	}
	if got := paused.balance(t, paused.etha, bob); got.Cmp(big.NewInt(700)) != 0 {
		t.Fatalf("bob balance %s, want 700", got)
	}
}

func TestLedgerSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))

	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	f := openLedger(t, testConfig(nil), db, clock)
	f.fundAndLock(t, alice, 2000, 365)
	funded := big.NewInt(604_800_000)
	require.NoError(t, f.ledger.Mint(f.owner, f.usdc, f.owner, funded))
	require.NoError(t, f.ledger.FundRewards(f.owner, f.usdc, funded))
	require.NoError(t, f.ledger.Checkpoint())
	db.Close()

	clock.Advance(24 * time.Hour)
	db, err = storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db.Close()
	reopened := openLedger(t, testConfig(nil), db, clock)

	lock, err := reopened.ledger.Lock(alice)
	require.NoError(t, err)
	require.True(t, lock.Active())
	require.Equal(t, 0, lock.Amount.Cmp(big.NewInt(2000)))

	// The distributor link is restored, so claims see alice's power.
	paid, err := reopened.ledger.GetReward(alice, []crypto.Address{reopened.usdc}, crypto.ZeroAddress)
	require.NoError(t, err)
	require.Positive(t, paid[0].Amount.Sign())

	require.NoError(t, reopened.ledger.Mint(reopened.owner, reopened.etha, alice, big.NewInt(1000)))
	require.NoError(t, reopened.ledger.Approve(reopened.etha, alice, reopened.ledger.EscrowAddress(), big.NewInt(1000)))
	require.NoError(t, reopened.ledger.IncreaseAmount(alice, big.NewInt(1000)))
	locked, err := reopened.ledger.LockedOf(alice)
	require.NoError(t, err)
	require.Equal(t, 0, locked.Cmp(big.NewInt(3000)))
}

func TestAdminSettersRequireOwner(t *testing.T) {
	f := newFixture(t, nil)

	err := f.ledger.SetEarlyWithdrawPenaltyRate(alice, 10)
	require.ErrorIs(t, err, coreerrors.ErrUnauthorized)
	require.NoError(t, f.ledger.SetEarlyWithdrawPenaltyRate(f.owner, 50_000))
	require.NoError(t, f.ledger.SetMinLockedAmount(f.owner, big.NewInt(10)))
	require.NoError(t, f.ledger.SetPenaltyCollector(f.owner, bob))

	params, err := f.ledger.EscrowParams()
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), params.EarlyWithdrawPenaltyRate)
	require.Equal(t, 0, params.MinLockedAmount.Cmp(big.NewInt(10)))
	require.Equal(t, bob, params.PenaltyCollector)

	// Bootstrap must not restore the configured collector.
	require.NoError(t, f.ledger.Bootstrap())
	params, err = f.ledger.EscrowParams()
	require.NoError(t, err)
	require.Equal(t, bob, params.PenaltyCollector)
}
