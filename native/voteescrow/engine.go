package voteescrow

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jonboulle/clockwork"

	coreerrors "veledger/core/errors"
	"veledger/core/events"
	"veledger/crypto"
	nativecommon "veledger/native/common"
)

var (
	errNilState   = errors.New("voteescrow engine: state not configured")
	errNilBank    = errors.New("voteescrow engine: token bank not configured")
	errNilSettler = errors.New("voteescrow engine: settlement hook must not be nil")
	errZeroTarget = errors.New("voteescrow engine: address must not be zero")
)

type engineState interface {
	VoteEscrowLock(addr crypto.Address) (*Lock, bool, error)
	VoteEscrowPutLock(lock *Lock) error
	VoteEscrowDeleteLock(addr crypto.Address) error
	VoteEscrowTotals() (*Totals, error)
	VoteEscrowPutTotals(totals *Totals) error
	VoteEscrowSettings() (*Settings, bool, error)
	VoteEscrowPutSettings(settings *Settings) error
}

type tokenBank interface {
	TransferFrom(token, spender, from, to crypto.Address, amount *big.Int) error
	Release(token, custody, to crypto.Address, amount *big.Int) error
}

// RewardSettler rolls reward accounting forward for an account before its
// voting power changes.
type RewardSettler interface {
	Address() crypto.Address
	Settle(account crypto.Address) error
}

// Engine owns every account's lock and the derived voting power.
type Engine struct {
	params  Params
	state   engineState
	bank    tokenBank
	emitter events.Emitter
	pauses  nativecommon.PauseView
	clock   clockwork.Clock

	settler    RewardSettler
	settlerSet bool
}

// NewEngine constructs an engine from params, filling unset values with the
// package defaults.
func NewEngine(params Params) *Engine {
	if params.Name == "" {
		params.Name = DefaultName
	}
	if params.Symbol == "" {
		params.Symbol = DefaultSymbol
	}
	if params.Decimals == 0 {
		params.Decimals = DefaultDecimals
	}
	if params.MinLockedAmount == nil || params.MinLockedAmount.Sign() <= 0 {
		params.MinLockedAmount = new(big.Int).Set(DefaultMinLockedAmount)
	} else {
		params.MinLockedAmount = new(big.Int).Set(params.MinLockedAmount)
	}
	if params.Curve == nil {
		params.Curve = LinearPower
	}
	if params.Custody.IsZero() {
		params.Custody = crypto.ModuleAddress(nativecommon.ModuleVoteEscrow)
	}
	return &Engine{
		params:  params,
		emitter: events.NoopEmitter{},
		clock:   clockwork.NewRealClock(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank configures the token collaborator used to move principal.
func (e *Engine) SetBank(bank tokenBank) { e.bank = bank }

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

// SetClock overrides the time source. Passing nil restores the real clock.
func (e *Engine) SetClock(clock clockwork.Clock) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e.clock = clock
}

func (e *Engine) now() uint64 {
	ts := e.clock.Now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.bank == nil {
		return errNilBank
	}
	return nil
}

func (e *Engine) requireOwner(caller crypto.Address) error {
	if e.params.Owner.IsZero() || caller != e.params.Owner {
		return fmt.Errorf("%w: VoteEscrow: caller is not the owner", coreerrors.ErrUnauthorized)
	}
	return nil
}

// Address is the custody account holding escrowed principal.
func (e *Engine) Address() crypto.Address { return e.params.Custody }

func (e *Engine) Name() string { return e.params.Name }
func (e *Engine) Symbol() string { return e.params.Symbol }
func (e *Engine) Decimals() uint8 { return e.params.Decimals }
func (e *Engine) LockedToken() crypto.Address { return e.params.LockedToken }
func (e *Engine) Owner() crypto.Address { return e.params.Owner }
func (e *Engine) MinDays() uint64 { return MinDays }
func (e *Engine) MaxDays() uint64 { return MaxDays }
func (e *Engine) Precision() uint64 { return Precision }
func (e *Engine) maxSeconds() uint64 { return MaxDays * SecondsPerDay }

func (e *Engine) power(amount *big.Int, lockSeconds uint64) *big.Int {
	return e.params.Curve(amount, lockSeconds, e.maxSeconds())
}

// Settings returns the persisted admin parameters, or the construction
// defaults when nothing has been persisted yet.
func (e *Engine) Settings() (*Settings, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	settings, ok, err := e.state.VoteEscrowSettings()
	if err != nil {
		return nil, err
	}
	if ok {
		if settings.MinLockedAmount == nil {
			settings.MinLockedAmount = big.NewInt(0)
		}
		return settings, nil
	}
	return &Settings{
		MinLockedAmount:          new(big.Int).Set(e.params.MinLockedAmount),
		EarlyWithdrawPenaltyRate: e.params.EarlyWithdrawPenaltyRate,
		PenaltyCollector:         e.params.PenaltyCollector,
	}, nil
}

// MinLockedAmount is the minimum accepted by CreateLock and IncreaseAmount.
func (e *Engine) MinLockedAmount() (*big.Int, error) {
	settings, err := e.Settings()
	if err != nil {
		return nil, err
	}
	return settings.MinLockedAmount, nil
}

// EarlyWithdrawPenaltyRate is the emergency withdraw penalty over Precision.
func (e *Engine) EarlyWithdrawPenaltyRate() (uint64, error) {
	settings, err := e.Settings()
	if err != nil {
		return 0, err
	}
	return settings.EarlyWithdrawPenaltyRate, nil
}

// PenaltyCollector returns the account receiving emergency withdraw
// penalties. The zero address means unset.
func (e *Engine) PenaltyCollector() (crypto.Address, error) {
	settings, err := e.Settings()
	if err != nil {
		return crypto.ZeroAddress, err
	}
	return settings.PenaltyCollector, nil
}

// MultiFeeDistribution returns the linked distributor address and whether
// the link has been made.
func (e *Engine) MultiFeeDistribution() (crypto.Address, bool, error) {
	settings, err := e.Settings()
	if err != nil {
		return crypto.ZeroAddress, false, err
	}
	return settings.Distributor, settings.DistributorLinked, nil
}

// SetMultiFeeDistribution binds the reward distributor. The binding is
// permanent.
func (e *Engine) SetMultiFeeDistribution(caller crypto.Address, settler RewardSettler) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if settler == nil {
		return errNilSettler
	}
	target := settler.Address()
	if target.IsZero() {
		return errZeroTarget
	}
	settings, err := e.Settings()
	if err != nil {
		return err
	}
	if settings.DistributorLinked || e.settlerSet {
		return fmt.Errorf("%w: VoteEscrow: the MultiFeeDistribution is already set (%s)", coreerrors.ErrAlreadyLinked, settings.Distributor)
	}
	settings.DistributorLinked = true
	settings.Distributor = target
	if err := e.state.VoteEscrowPutSettings(settings); err != nil {
		return err
	}
	e.settler = settler
	e.settlerSet = true
	e.emit(events.ComponentLinked{Component: "voteescrow", Target: target})
	return nil
}

// AttachMultiFeeDistribution restores the in-memory settlement hook for a
// link persisted by an earlier process.
func (e *Engine) AttachMultiFeeDistribution(settler RewardSettler) error {
	if settler == nil {
		return errNilSettler
	}
	linked, ok, err := e.MultiFeeDistribution()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: VoteEscrow: the MultiFeeDistribution is not set", coreerrors.ErrNotLinked)
	}
	if linked != settler.Address() {
		return fmt.Errorf("%w: VoteEscrow: the MultiFeeDistribution is already set (%s)", coreerrors.ErrAlreadyLinked, linked)
	}
	e.settler = settler
	e.settlerSet = true
	return nil
}

// DetachMultiFeeDistribution clears the in-memory hook after the state
// that linked it was discarded.
func (e *Engine) DetachMultiFeeDistribution() {
	e.settler = nil
	e.settlerSet = false
}

func (e *Engine) settle(account crypto.Address) error {
	if !e.settlerSet || e.settler == nil {
		return nil
	}
	return e.settler.Settle(account)
}

// SetPenaltyCollector changes the recipient of emergency withdraw penalties.
func (e *Engine) SetPenaltyCollector(caller, collector crypto.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if collector.IsZero() {
		return errZeroTarget
	}
	settings, err := e.Settings()
	if err != nil {
		return err
	}
	settings.PenaltyCollector = collector
	if err := e.state.VoteEscrowPutSettings(settings); err != nil {
		return err
	}
	e.emit(events.EscrowParamUpdated{Name: "penaltyCollector", Value: collector.String()})
	return nil
}

// SetMinLockedAmount changes the minimum principal for new locks and
// increases.
func (e *Engine) SetMinLockedAmount(caller crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: VoteEscrow: minimum locked amount", coreerrors.ErrInvalidAmount)
	}
	settings, err := e.Settings()
	if err != nil {
		return err
	}
	settings.MinLockedAmount = new(big.Int).Set(amount)
	if err := e.state.VoteEscrowPutSettings(settings); err != nil {
		return err
	}
	e.emit(events.EscrowParamUpdated{Name: "minLockedAmount", Value: amount.String()})
	return nil
}

// SetEarlyWithdrawPenaltyRate changes the emergency withdraw penalty.
func (e *Engine) SetEarlyWithdrawPenaltyRate(caller crypto.Address, rate uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if rate > Precision {
		return fmt.Errorf("voteescrow engine: penalty rate %d exceeds precision %d", rate, Precision)
	}
	settings, err := e.Settings()
	if err != nil {
		return err
	}
	settings.EarlyWithdrawPenaltyRate = rate
	if err := e.state.VoteEscrowPutSettings(settings); err != nil {
		return err
	}
	e.emit(events.EscrowParamUpdated{Name: "earlyWithdrawPenaltyRate", Value: fmt.Sprintf("%d", rate)})
	return nil
}

// Lock returns the account's lock. Accounts without a lock receive a zero
// record.
func (e *Engine) Lock(addr crypto.Address) (*Lock, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	lock, ok, err := e.state.VoteEscrowLock(addr)
	if err != nil {
		return nil, err
	}
	if !ok || lock == nil {
		return &Lock{Owner: addr, Amount: big.NewInt(0), Power: big.NewInt(0)}, nil
	}
	lock.Owner = addr
	if lock.Amount == nil {
		lock.Amount = big.NewInt(0)
	}
	if lock.Power == nil {
		lock.Power = big.NewInt(0)
	}
	return lock, nil
}

// LockedOf returns the account's locked principal.
func (e *Engine) LockedOf(addr crypto.Address) (*big.Int, error) {
	lock, err := e.Lock(addr)
	if err != nil {
		return nil, err
	}
	return lock.Amount, nil
}

// LockedEnd returns the account's unlock time, zero when no lock is active.
func (e *Engine) LockedEnd(addr crypto.Address) (uint64, error) {
	lock, err := e.Lock(addr)
	if err != nil {
		return 0, err
	}
	return lock.End, nil
}

// BalanceOf returns the account's voting power.
func (e *Engine) BalanceOf(addr crypto.Address) (*big.Int, error) {
	lock, err := e.Lock(addr)
	if err != nil {
		return nil, err
	}
	return lock.Power, nil
}

// Totals returns the aggregate voting power and locked principal.
func (e *Engine) Totals() (*Totals, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	totals, err := e.state.VoteEscrowTotals()
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = &Totals{}
	}
	if totals.Power == nil {
		totals.Power = big.NewInt(0)
	}
	if totals.Locked == nil {
		totals.Locked = big.NewInt(0)
	}
	return totals, nil
}

// TotalSupply returns the sum of every account's voting power.
func (e *Engine) TotalSupply() (*big.Int, error) {
	totals, err := e.Totals()
	if err != nil {
		return nil, err
	}
	return totals.Power, nil
}

// TotalLocked returns the principal held in custody.
func (e *Engine) TotalLocked() (*big.Int, error) {
	totals, err := e.Totals()
	if err != nil {
		return nil, err
	}
	return totals.Locked, nil
}

func (e *Engine) applyTotals(powerDelta, lockedDelta *big.Int) error {
	totals, err := e.Totals()
	if err != nil {
		return err
	}
	totals.Power = new(big.Int).Add(totals.Power, powerDelta)
	totals.Locked = new(big.Int).Add(totals.Locked, lockedDelta)
	if totals.Power.Sign() < 0 || totals.Locked.Sign() < 0 {
		return fmt.Errorf("voteescrow engine: totals underflow (power=%s locked=%s)", totals.Power, totals.Locked)
	}
	return e.state.VoteEscrowPutTotals(totals)
}

func (e *Engine) checkMinimum(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: VoteEscrow: amount must be positive", coreerrors.ErrInvalidAmount)
	}
	min, err := e.MinLockedAmount()
	if err != nil {
		return err
	}
	if amount.Cmp(min) < 0 {
		return fmt.Errorf("%w: VoteEscrow: amount %s is less than the minimum %s", coreerrors.ErrBelowMinimumAmount, amount, min)
	}
	return nil
}

func (e *Engine) activeLock(addr crypto.Address) (*Lock, error) {
	lock, err := e.Lock(addr)
	if err != nil {
		return nil, err
	}
	if !lock.Active() {
		return nil, fmt.Errorf("%w: VoteEscrow: no lock for %s", coreerrors.ErrNoActiveLock, addr)
	}
	return lock, nil
}

// CreateLock escrows amount from caller for days and grants voting power.
func (e *Engine) CreateLock(caller crypto.Address, amount *big.Int, days uint64) error {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleVoteEscrow); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.checkMinimum(amount); err != nil {
		return err
	}
	if days < MinDays || days > MaxDays {
		return fmt.Errorf("%w: VoteEscrow: lock days must be within [%d, %d], got %d", coreerrors.ErrInvalidDuration, MinDays, MaxDays, days)
	}
	existing, err := e.Lock(caller)
	if err != nil {
		return err
	}
	if existing.Active() {
		return fmt.Errorf("%w: VoteEscrow: withdraw old tokens first", coreerrors.ErrLockExists)
	}
	now := e.now()
	if err := e.settle(caller); err != nil {
		return err
	}
	if err := e.bank.TransferFrom(e.params.LockedToken, e.params.Custody, caller, e.params.Custody, amount); err != nil {
		return err
	}
	end := now + days*SecondsPerDay
	lock := &Lock{
		Owner:  caller,
		Amount: new(big.Int).Set(amount),
		Start:  now,
		End:    end,
		Power:  e.power(amount, end-now),
	}
	if err := e.state.VoteEscrowPutLock(lock); err != nil {
		return err
	}
	if err := e.applyTotals(lock.Power, lock.Amount); err != nil {
		return err
	}
	e.emit(events.LockCreated{Account: caller, Amount: lock.Amount, End: end, Power: lock.Power})
	return nil
}

// IncreaseAmount adds principal to an unexpired lock without changing its
// unlock time.
func (e *Engine) IncreaseAmount(caller crypto.Address, delta *big.Int) error {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleVoteEscrow); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.checkMinimum(delta); err != nil {
		return err
	}
	lock, err := e.activeLock(caller)
	if err != nil {
		return err
	}
	now := e.now()
	if lock.Expired(now) {
		return fmt.Errorf("%w: VoteEscrow: lock expired, withdraw first", coreerrors.ErrLockExpired)
	}
	if err := e.settle(caller); err != nil {
		return err
	}
	if err := e.bank.TransferFrom(e.params.LockedToken, e.params.Custody, caller, e.params.Custody, delta); err != nil {
		return err
	}
	oldPower := lock.Power
	lock.Amount = new(big.Int).Add(lock.Amount, delta)
	lock.Power = e.power(lock.Amount, lock.End-now)
	if err := e.state.VoteEscrowPutLock(lock); err != nil {
		return err
	}
	if err := e.applyTotals(new(big.Int).Sub(lock.Power, oldPower), delta); err != nil {
		return err
	}
	e.emit(events.LockAmountIncreased{Account: caller, Added: new(big.Int).Set(delta), NewTotal: lock.Amount, Power: lock.Power})
	return nil
}

// IncreaseUnlockTime moves the unlock time of an unexpired lock out by exactly
// extraDays. The new unlock time may be at most MaxDays from now.
func (e *Engine) IncreaseUnlockTime(caller crypto.Address, extraDays uint64) error {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleVoteEscrow); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if extraDays == 0 {
		return fmt.Errorf("%w: VoteEscrow: extension must be at least one day", coreerrors.ErrInvalidDuration)
	}
	if extraDays > MaxDays {
		return fmt.Errorf("%w: VoteEscrow: extension of %d days exceeds %d", coreerrors.ErrInvalidDuration, extraDays, MaxDays)
	}
	lock, err := e.activeLock(caller)
	if err != nil {
		return err
	}
	now := e.now()
	if lock.Expired(now) {
		return fmt.Errorf("%w: VoteEscrow: lock expired, withdraw first", coreerrors.ErrLockExpired)
	}
	oldEnd := lock.End
	newEnd := oldEnd + extraDays*SecondsPerDay
	remaining := newEnd - now
	if remaining > MaxDays*SecondsPerDay {
		return fmt.Errorf("%w: VoteEscrow: unlock time %d is more than %d days from now", coreerrors.ErrInvalidDuration, newEnd, MaxDays)
	}
	if err := e.settle(caller); err != nil {
		return err
	}
	oldPower := lock.Power
	lock.End = newEnd
	lock.Power = e.power(lock.Amount, remaining)
	if err := e.state.VoteEscrowPutLock(lock); err != nil {
		return err
	}
	if err := e.applyTotals(new(big.Int).Sub(lock.Power, oldPower), big.NewInt(0)); err != nil {
		return err
	}
	e.emit(events.LockTimeIncreased{Account: caller, OldEnd: oldEnd, NewEnd: newEnd, Power: lock.Power})
	return nil
}

// Withdraw releases the full principal of an expired lock.
func (e *Engine) Withdraw(caller crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	lock, err := e.activeLock(caller)
	if err != nil {
		return err
	}
	if !lock.Expired(e.now()) {
		return fmt.Errorf("%w: The lock didn't expire", coreerrors.ErrLockNotExpired)
	}
	if err := e.settle(caller); err != nil {
		return err
	}
	if err := e.bank.Release(e.params.LockedToken, e.params.Custody, caller, lock.Amount); err != nil {
		return err
	}
	if err := e.release(lock); err != nil {
		return err
	}
	e.emit(events.LockWithdrawn{Account: caller, Amount: lock.Amount})
	return nil
}

// EmergencyWithdraw releases a lock at any time, sending the penalty share
// to the penalty collector.
func (e *Engine) EmergencyWithdraw(caller crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	lock, err := e.activeLock(caller)
	if err != nil {
		return err
	}
	settings, err := e.Settings()
	if err != nil {
		return err
	}
	penalty := EarlyWithdrawPenalty(lock.Amount, settings.EarlyWithdrawPenaltyRate)
	if penalty.Sign() > 0 && settings.PenaltyCollector.IsZero() {
		return fmt.Errorf("%w: VoteEscrow: penalty collector is not set", coreerrors.ErrPenaltyCollectorUnset)
	}
	if err := e.settle(caller); err != nil {
		return err
	}
	returned := new(big.Int).Sub(lock.Amount, penalty)
	if err := e.bank.Release(e.params.LockedToken, e.params.Custody, caller, returned); err != nil {
		return err
	}
	if penalty.Sign() > 0 {
		if err := e.bank.Release(e.params.LockedToken, e.params.Custody, settings.PenaltyCollector, penalty); err != nil {
			return err
		}
	}
	if err := e.release(lock); err != nil {
		return err
	}
	e.emit(events.LockEmergencyWithdrawn{Account: caller, Returned: returned, Penalty: penalty, Collector: settings.PenaltyCollector})
	return nil
}

func (e *Engine) release(lock *Lock) error {
	if err := e.state.VoteEscrowDeleteLock(lock.Owner); err != nil {
		return err
	}
	return e.applyTotals(new(big.Int).Neg(lock.Power), new(big.Int).Neg(lock.Amount))
}

// EarlyWithdrawPenalty returns amount*rate/Precision rounded down.
func EarlyWithdrawPenalty(amount *big.Int, rate uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || rate == 0 {
		return big.NewInt(0)
	}
	if rate > Precision {
		rate = Precision
	}
	penalty := new(big.Int).Mul(amount, new(big.Int).SetUint64(rate))
	return penalty.Quo(penalty, new(big.Int).SetUint64(Precision))
}
