package multifee

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
	errNilState     = errors.New("multifee engine: state not configured")
	errNilBank      = errors.New("multifee engine: token bank not configured")
	errNilSource    = errors.New("multifee engine: power source must not be nil")
	errZeroAddress  = errors.New("multifee engine: address must not be zero")
	errZeroDuration = errors.New("multifee engine: rewards duration must be positive")
)

type engineState interface {
	MultiFeeRewardTokens() ([]crypto.Address, error)
	MultiFeePutRewardTokens(tokens []crypto.Address) error
	MultiFeeRewardData(token crypto.Address) (*RewardData, bool, error)
	MultiFeePutRewardData(data *RewardData) error
	MultiFeeSnapshot(account, token crypto.Address) (*Snapshot, error)
	MultiFeePutSnapshot(account, token crypto.Address, snapshot *Snapshot) error
	MultiFeeSettings() (*Settings, bool, error)
	MultiFeePutSettings(settings *Settings) error
}

type tokenBank interface {
	Transfer(token, from, to crypto.Address, amount *big.Int) error
	BalanceOf(token, account crypto.Address) (*big.Int, error)
}

// PowerSource exposes the voting power rewards are shared by.
type PowerSource interface {
	Address() crypto.Address
	BalanceOf(account crypto.Address) (*big.Int, error)
	TotalSupply() (*big.Int, error)
}

// Engine distributes any number of reward tokens pro rata to voting power.
type Engine struct {
	params  Params
	state   engineState
	bank    tokenBank
	emitter events.Emitter
	pauses  nativecommon.PauseView
	clock   clockwork.Clock

	source    PowerSource
	sourceSet bool
}

// NewEngine constructs an engine from params.
func NewEngine(params Params) *Engine {
	if params.RewardsDuration == 0 {
		params.RewardsDuration = DefaultRewardsDuration
	}
	if params.Custody.IsZero() {
		params.Custody = crypto.ModuleAddress(nativecommon.ModuleMultiFee)
	}
	return &Engine{
		params:  params,
		emitter: events.NoopEmitter{},
		clock:   clockwork.NewRealClock(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank configures the token collaborator rewards are paid through.
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
	if e.params.RewardsDuration == 0 {
		return errZeroDuration
	}
	return nil
}

func (e *Engine) requireOwner(caller crypto.Address) error {
	if e.params.Owner.IsZero() || caller != e.params.Owner {
		return fmt.Errorf("%w: MultiFeeDistribution: caller is not the owner", coreerrors.ErrUnauthorized)
	}
	return nil
}

// Address is the custody account rewards are funded into.
func (e *Engine) Address() crypto.Address { return e.params.Custody }

// Owner returns the privileged account.
func (e *Engine) Owner() crypto.Address { return e.params.Owner }

// RewardsDuration returns the streaming window in seconds.
func (e *Engine) RewardsDuration() uint64 { return e.params.RewardsDuration }

func (e *Engine) settings() (*Settings, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	settings, ok, err := e.state.MultiFeeSettings()
	if err != nil {
		return nil, err
	}
	if !ok || settings == nil {
		return &Settings{}, nil
	}
	return settings, nil
}

// VoteEscrow returns the linked power source address and whether the link
// has been made.
func (e *Engine) VoteEscrow() (crypto.Address, bool, error) {
	settings, err := e.settings()
	if err != nil {
		return crypto.ZeroAddress, false, err
	}
	return settings.VoteEscrow, settings.VoteEscrowLinked, nil
}

// SetVoteEscrow binds the voting power source. The binding is permanent.
func (e *Engine) SetVoteEscrow(caller crypto.Address, source PowerSource) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if source == nil {
		return errNilSource
	}
	target := source.Address()
	if target.IsZero() {
		return errZeroAddress
	}
	settings, err := e.settings()
	if err != nil {
		return err
	}
	if settings.VoteEscrowLinked || e.sourceSet {
		return fmt.Errorf("%w: MultiFeeDistribution: the voteEscrow contract is already set (%s)", coreerrors.ErrAlreadyLinked, settings.VoteEscrow)
	}
	settings.VoteEscrowLinked = true
	settings.VoteEscrow = target
	if err := e.state.MultiFeePutSettings(settings); err != nil {
		return err
	}
	e.source = source
	e.sourceSet = true
	e.emit(events.ComponentLinked{Component: "multifee", Target: target})
	return nil
}

// AttachVoteEscrow restores the in-memory power source for a link persisted
// by an earlier process.
func (e *Engine) AttachVoteEscrow(source PowerSource) error {
	if source == nil {
		return errNilSource
	}
	linked, ok, err := e.VoteEscrow()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: MultiFeeDistribution: the voteEscrow contract is not set", coreerrors.ErrNotLinked)
	}
	if linked != source.Address() {
		return fmt.Errorf("%w: MultiFeeDistribution: the voteEscrow contract is already set (%s)", coreerrors.ErrAlreadyLinked, linked)
	}
	e.source = source
	e.sourceSet = true
	return nil
}

// DetachVoteEscrow clears the in-memory power source after the state that
// linked it was discarded.
func (e *Engine) DetachVoteEscrow() {
	e.source = nil
	e.sourceSet = false
}

func (e *Engine) totalPower() (*big.Int, error) {
	if !e.sourceSet || e.source == nil {
		return big.NewInt(0), nil
	}
	total, err := e.source.TotalSupply()
	if err != nil {
		return nil, err
	}
	return cloneBigInt(total), nil
}

func (e *Engine) powerOf(account crypto.Address) (*big.Int, error) {
	if !e.sourceSet || e.source == nil {
		return big.NewInt(0), nil
	}
	power, err := e.source.BalanceOf(account)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(power), nil
}

// GetRewardTokens lists reward tokens in registration order.
func (e *Engine) GetRewardTokens() ([]crypto.Address, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tokens, err := e.state.MultiFeeRewardTokens()
	if err != nil {
		return nil, err
	}
	return append([]crypto.Address(nil), tokens...), nil
}

// RewardData returns the accumulator state of a registered reward token.
func (e *Engine) RewardData(token crypto.Address) (*RewardData, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	data, ok, err := e.state.MultiFeeRewardData(token)
	if err != nil {
		return nil, err
	}
	if !ok || data == nil {
		return nil, fmt.Errorf("%w: %s", coreerrors.ErrUnknownRewardToken, token)
	}
	data.Token = token
	return data.normalize(), nil
}

// Snapshot returns an account's settlement position for a reward token.
func (e *Engine) Snapshot(account, token crypto.Address) (*Snapshot, error) {
	if _, err := e.RewardData(token); err != nil {
		return nil, err
	}
	snapshot, err := e.state.MultiFeeSnapshot(account, token)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &Snapshot{}
	}
	return snapshot.normalize(), nil
}

// AddReward registers a new reward token.
func (e *Engine) AddReward(caller, token crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if token.IsZero() {
		return errZeroAddress
	}
	if _, ok, err := e.state.MultiFeeRewardData(token); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: MultiFeeDistribution: reward token already added (%s)", coreerrors.ErrUnknownRewardToken, token)
	}
	tokens, err := e.state.MultiFeeRewardTokens()
	if err != nil {
		return err
	}
	tokens = append(tokens, token)
	if err := e.state.MultiFeePutRewardTokens(tokens); err != nil {
		return err
	}
	data := &RewardData{
		Token:                token,
		LastUpdateTime:       e.now(),
		RewardPerShareStored: big.NewInt(0),
		RewardRate:           big.NewInt(0),
		Balance:              big.NewInt(0),
	}
	if err := e.state.MultiFeePutRewardData(data); err != nil {
		return err
	}
	e.emit(events.RewardAdded{Token: token, Index: len(tokens) - 1})
	return nil
}

// Settle brings every reward accumulator up to date and, unless account is
// the zero address, rolls the account's snapshots forward with its current
// voting power. It must run before any change to that power.
func (e *Engine) Settle(account crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	now := e.now()
	total, err := e.totalPower()
	if err != nil {
		return err
	}
	tokens, err := e.state.MultiFeeRewardTokens()
	if err != nil {
		return err
	}
	stored := make([]*big.Int, len(tokens))
	for i, token := range tokens {
		data, err := e.RewardData(token)
		if err != nil {
			return err
		}
		accrue(data, now, total)
		if err := e.notify(data, now); err != nil {
			return err
		}
		if err := e.state.MultiFeePutRewardData(data); err != nil {
			return err
		}
		stored[i] = data.RewardPerShareStored
	}
	if account.IsZero() {
		return nil
	}
	power, err := e.powerOf(account)
	if err != nil {
		return err
	}
	for i, token := range tokens {
		snapshot, err := e.state.MultiFeeSnapshot(account, token)
		if err != nil {
			return err
		}
		if snapshot == nil {
			snapshot = &Snapshot{}
		}
		snapshot.normalize()
		snapshot.Accrued = earned(power, stored[i], snapshot)
		snapshot.RewardPerSharePaid = new(big.Int).Set(stored[i])
		if err := e.state.MultiFeePutSnapshot(account, token, snapshot); err != nil {
			return err
		}
	}
	return nil
}

// notify folds distributor balance that has not been accounted for yet into
// the token's reward stream.
func (e *Engine) notify(data *RewardData, now uint64) error {
	held, err := e.bank.BalanceOf(data.Token, e.params.Custody)
	if err != nil {
		return err
	}
	unseen := new(big.Int).Sub(held, data.Balance)
	if unseen.Sign() <= 0 {
		return nil
	}
	duration := new(big.Int).SetUint64(e.params.RewardsDuration)
	scaled := new(big.Int).Mul(unseen, RewardPrecision)
	if now < data.PeriodFinish {
		leftover := new(big.Int).Mul(new(big.Int).SetUint64(data.PeriodFinish-now), data.RewardRate)
		scaled.Add(scaled, leftover)
	}
	data.RewardRate = scaled.Quo(scaled, duration)
	data.LastUpdateTime = now
	data.PeriodFinish = now + e.params.RewardsDuration
	data.Balance = new(big.Int).Add(data.Balance, unseen)
	e.emit(events.RewardNotified{
		Token:        data.Token,
		Amount:       unseen,
		RewardRate:   new(big.Int).Set(data.RewardRate),
		PeriodFinish: data.PeriodFinish,
	})
	return nil
}

// accrue advances the accumulator to now. Only the part of the elapsed window
// inside the reward period is distributed, and none of it while no voting
// power is outstanding. LastUpdateTime always moves to now.
func accrue(data *RewardData, now uint64, total *big.Int) {
	if now <= data.LastUpdateTime {
		return
	}
	applicable := now
	if data.PeriodFinish < applicable {
		applicable = data.PeriodFinish
	}
	if applicable > data.LastUpdateTime && total != nil && total.Sign() > 0 && data.RewardRate.Sign() > 0 {
		delta := new(big.Int).Mul(new(big.Int).SetUint64(applicable-data.LastUpdateTime), data.RewardRate)
		delta.Quo(delta, total)
		data.RewardPerShareStored = new(big.Int).Add(data.RewardPerShareStored, delta)
	}
	data.LastUpdateTime = now
}

func earned(power, rewardPerShare *big.Int, snapshot *Snapshot) *big.Int {
	delta := new(big.Int).Sub(rewardPerShare, snapshot.RewardPerSharePaid)
	if delta.Sign() <= 0 || power.Sign() <= 0 {
		return new(big.Int).Set(snapshot.Accrued)
	}
	out := new(big.Int).Mul(power, delta)
	out.Quo(out, RewardPrecision)
	return out.Add(out, snapshot.Accrued)
}

// ClaimableRewards reports, for every reward token in registration order,
// what account would receive if it claimed now. Balance that has not been
// notified yet is not included.
func (e *Engine) ClaimableRewards(account crypto.Address) ([]Claimable, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	now := e.now()
	total, err := e.totalPower()
	if err != nil {
		return nil, err
	}
	power, err := e.powerOf(account)
	if err != nil {
		return nil, err
	}
	tokens, err := e.state.MultiFeeRewardTokens()
	if err != nil {
		return nil, err
	}
	out := make([]Claimable, 0, len(tokens))
	for _, token := range tokens {
		data, err := e.RewardData(token)
		if err != nil {
			return nil, err
		}
		accrue(data, now, total)
		snapshot, err := e.Snapshot(account, token)
		if err != nil {
			return nil, err
		}
		amount := earned(power, data.RewardPerShareStored, snapshot)
		if amount.Cmp(data.Balance) > 0 {
			amount = new(big.Int).Set(data.Balance)
		}
		out = append(out, Claimable{Token: token, Amount: amount})
	}
	return out, nil
}

// GetReward settles caller and pays the accrued rewards of the listed
// tokens to receiver. A zero receiver pays caller.
func (e *Engine) GetReward(caller crypto.Address, tokens []crypto.Address, receiver crypto.Address) ([]Claimable, error) {
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleMultiFee); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	for _, token := range tokens {
		if _, err := e.RewardData(token); err != nil {
			return nil, err
		}
	}
	if receiver.IsZero() {
		receiver = caller
	}
	if err := e.Settle(caller); err != nil {
		return nil, err
	}
	paid := make([]Claimable, 0, len(tokens))
	for _, token := range tokens {
		data, err := e.RewardData(token)
		if err != nil {
			return nil, err
		}
		snapshot, err := e.Snapshot(caller, token)
		if err != nil {
			return nil, err
		}
		amount := new(big.Int).Set(snapshot.Accrued)
		if amount.Cmp(data.Balance) > 0 {
			amount = new(big.Int).Set(data.Balance)
		}
		if amount.Sign() > 0 {
			if err := e.bank.Transfer(token, e.params.Custody, receiver, amount); err != nil {
				return nil, err
			}
			data.Balance = new(big.Int).Sub(data.Balance, amount)
			if err := e.state.MultiFeePutRewardData(data); err != nil {
				return nil, err
			}
			snapshot.Accrued = new(big.Int).Sub(snapshot.Accrued, amount)
			if err := e.state.MultiFeePutSnapshot(caller, token, snapshot); err != nil {
				return nil, err
			}
			e.emit(events.RewardPaid{Account: caller, Receiver: receiver, Token: token, Amount: new(big.Int).Set(amount)})
		}
		paid = append(paid, Claimable{Token: token, Amount: amount})
	}
	return paid, nil
}
