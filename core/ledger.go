package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/jonboulle/clockwork"

	"veledger/config"
	"veledger/core/events"
	"veledger/core/state"
	"veledger/core/types"
	"veledger/crypto"
	"veledger/native/bank"
	"veledger/native/multifee"
	"veledger/native/voteescrow"
	"veledger/observability/metrics"
	"veledger/storage"
)

var errNilConfig = errors.New("ledger: config must not be nil")

// Ledger composes the token bank, the lock ledger and the reward distributor
// over one state overlay. Every public method is atomic: it either commits
// all of its writes in a single batch or leaves no trace.
type Ledger struct {
	cfg   *config.Config
	db    storage.Database
	state *state.Manager
	owner crypto.Address

	bank    *bank.Engine
	escrow  *voteescrow.Engine
	rewards *multifee.Engine

	buffer  *events.Buffer
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.LedgerMetrics

	stateMu sync.Mutex
}

// NewLedger builds the engines from cfg over db. Links persisted by an
// earlier process are restored; Bootstrap performs the first-time wiring.
func NewLedger(cfg *config.Config, db storage.Database) (*Ledger, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		return nil, err
	}
	lockedToken, err := cfg.Escrow.LockedTokenAddress()
	if err != nil {
		return nil, err
	}
	minAmount, err := cfg.Escrow.MinLockedAmountValue()
	if err != nil {
		return nil, err
	}
	collector, err := cfg.Escrow.PenaltyCollectorAddress()
	if err != nil {
		return nil, err
	}
	curve, err := voteescrow.CurveByName(cfg.Escrow.PowerCurve)
	if err != nil {
		return nil, err
	}

	manager := state.NewManager(db)
	if err := manager.EnsureStateVersion(); err != nil {
		return nil, err
	}

	buffer := &events.Buffer{}
	pauses := cfg.Pauses.PauseView()

	bankEngine := bank.NewEngine()
	bankEngine.SetState(manager)
	bankEngine.SetEmitter(buffer)
	bankEngine.SetPauses(pauses)

	escrow := voteescrow.NewEngine(voteescrow.Params{
		LockedToken:              lockedToken,
		Owner:                    owner,
		MinLockedAmount:          minAmount,
		EarlyWithdrawPenaltyRate: cfg.Escrow.PenaltyRate(),
		PenaltyCollector:         collector,
		Curve:                    curve,
	})
	escrow.SetState(manager)
	escrow.SetBank(bankEngine)
	escrow.SetEmitter(buffer)
	escrow.SetPauses(pauses)

	rewards := multifee.NewEngine(multifee.Params{
		Owner:           owner,
		RewardsDuration: cfg.Distribution.RewardsDurationSeconds,
	})
	rewards.SetState(manager)
	rewards.SetBank(bankEngine)
	rewards.SetEmitter(buffer)
	rewards.SetPauses(pauses)

	l := &Ledger{
		cfg:     cfg,
		db:      db,
		state:   manager,
		owner:   owner,
		bank:    bankEngine,
		escrow:  escrow,
		rewards: rewards,
		buffer:  buffer,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
	}
	if err := l.restoreLinks(); err != nil {
		return nil, err
	}
	return l, nil
}

// SetClock replaces the time source of both engines.
func (l *Ledger) SetClock(clock clockwork.Clock) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.escrow.SetClock(clock)
	l.rewards.SetClock(clock)
}

// SetEmitter configures the sink receiving events of committed operations.
// Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

func (l *Ledger) SetLogger(logger *slog.Logger) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	l.logger = logger
}

// SetMetrics enables metric collection. A nil value disables it.
func (l *Ledger) SetMetrics(m *metrics.LedgerMetrics) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.metrics = m
}

func (l *Ledger) Config() *config.Config { return l.cfg }

func (l *Ledger) Owner() crypto.Address { return l.owner }

// EscrowAddress is the custody account holding locked principal. Accounts
// approve it before creating or increasing a lock.
func (l *Ledger) EscrowAddress() crypto.Address { return l.escrow.Address() }

// DistributorAddress is the custody account reward tokens are funded into.
func (l *Ledger) DistributorAddress() crypto.Address { return l.rewards.Address() }

func (l *Ledger) LockedToken() crypto.Address { return l.escrow.LockedToken() }

// restoreLinks re-binds the in-memory settlement hook and power source to
// the committed link state.
func (l *Ledger) restoreLinks() error {
	l.escrow.DetachMultiFeeDistribution()
	l.rewards.DetachVoteEscrow()
	if _, linked, err := l.escrow.MultiFeeDistribution(); err != nil {
		return err
	} else if linked {
		if err := l.escrow.AttachMultiFeeDistribution(l.rewards); err != nil {
			return err
		}
	}
	if _, linked, err := l.rewards.VoteEscrow(); err != nil {
		return err
	} else if linked {
		if err := l.rewards.AttachVoteEscrow(l.escrow); err != nil {
			return err
		}
	}
	return nil
}

// Bootstrap performs the deployment sequence: register the locked and
// reward tokens, set the penalty collector, link both components and add
// every configured reward token. Steps already applied are skipped, so
// calling it on every start is safe.
func (l *Ledger) Bootstrap() error {
	err := l.apply("bootstrap", func() error {
		if err := l.ensureToken(l.escrow.LockedToken(), l.cfg.Escrow.LockedSymbol, l.cfg.Escrow.LockedDecimals); err != nil {
			return err
		}
		rewardTokens := make([]crypto.Address, 0, len(l.cfg.Distribution.RewardTokens))
		for _, token := range l.cfg.Distribution.RewardTokens {
			addr, err := token.TokenAddress()
			if err != nil {
				return err
			}
			if err := l.ensureToken(addr, token.Symbol, token.Decimals); err != nil {
				return err
			}
			rewardTokens = append(rewardTokens, addr)
		}

		_, escrowLinked, err := l.escrow.MultiFeeDistribution()
		if err != nil {
			return err
		}
		if !escrowLinked {
			collector, err := l.cfg.Escrow.PenaltyCollectorAddress()
			if err != nil {
				return err
			}
			if !collector.IsZero() {
				if err := l.escrow.SetPenaltyCollector(l.owner, collector); err != nil {
					return err
				}
			}
		}
		if _, linked, err := l.rewards.VoteEscrow(); err != nil {
			return err
		} else if !linked {
			if err := l.rewards.SetVoteEscrow(l.owner, l.escrow); err != nil {
				return err
			}
		}
		if !escrowLinked {
			if err := l.escrow.SetMultiFeeDistribution(l.owner, l.rewards); err != nil {
				return err
			}
		}

		for _, token := range rewardTokens {
			if _, err := l.rewards.RewardData(token); err == nil {
				continue
			}
			if err := l.rewards.AddReward(l.owner, token); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if linkErr := l.restoreLinks(); linkErr != nil {
			return errors.Join(err, linkErr)
		}
		return err
	}
	l.logger.Info("ledger bootstrapped",
		"escrow", l.escrow.Address().String(),
		"distributor", l.rewards.Address().String(),
		"rewardTokens", len(l.cfg.Distribution.RewardTokens))
	return nil
}

func (l *Ledger) ensureToken(addr crypto.Address, symbol string, decimals uint8) error {
	_, err := l.bank.Token(addr)
	if err == nil {
		return nil
	}
	if !errors.Is(err, bank.ErrTokenNotFound) {
		return err
	}
	return l.bank.RegisterToken(&bank.Token{
		Address:  addr,
		Symbol:   symbol,
		Decimals: decimals,
		Minter:   l.owner,
	})
}

// apply runs fn against the state overlay and commits its writes, or
// discards them together with the events fn emitted.
func (l *Ledger) apply(op string, fn func() error) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	if err := fn(); err != nil {
		l.state.Discard()
		l.buffer.Drop()
		l.metrics.ObserveError(op)
		l.logger.Debug("ledger operation rejected", "op", op, "error", err)
		return err
	}
	if err := l.state.Commit(); err != nil {
		l.state.Discard()
		l.buffer.Drop()
		l.metrics.ObserveError(op)
		return fmt.Errorf("ledger: commit %s: %w", op, err)
	}
	committed := l.buffer.Flush(l.emitter)
	l.observe(op, committed)
	return nil
}

// view runs a read-only fn. Reads observe committed state only because the
// overlay is always empty between operations.
func (l *Ledger) view(fn func() error) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return fn()
}

type attributed interface {
	Event() *types.Event
}

func (l *Ledger) observe(op string, committed []events.Event) {
	totalsChanged := false
	for _, evt := range committed {
		switch e := evt.(type) {
		case events.LockCreated:
			l.metrics.ObserveLockCreated()
			totalsChanged = true
		case events.LockAmountIncreased:
			l.metrics.ObserveLockMutation("amount")
			totalsChanged = true
		case events.LockTimeIncreased:
			l.metrics.ObserveLockMutation("time")
			totalsChanged = true
		case events.LockWithdrawn:
			l.metrics.ObserveWithdrawal("expired")
			totalsChanged = true
		case events.LockEmergencyWithdrawn:
			l.metrics.ObserveWithdrawal("emergency")
			l.metrics.ObservePenalty(e.Penalty)
			totalsChanged = true
		case events.RewardPaid:
			l.metrics.ObserveRewardPaid(l.tokenLabel(e.Token), e.Amount)
		}
		if a, ok := evt.(attributed); ok {
			payload := a.Event()
			args := make([]any, 0, 2*len(payload.Attributes)+2)
			args = append(args, "op", op)
			for k, v := range payload.Attributes {
				args = append(args, k, v)
			}
			l.logger.Debug(payload.Type, args...)
		}
	}
	if totalsChanged && l.metrics != nil {
		if totals, err := l.escrow.Totals(); err == nil {
			l.metrics.SetTotals(totals.Locked, totals.Power)
		}
	}
}

func (l *Ledger) tokenLabel(token crypto.Address) string {
	if symbol, err := l.bank.Symbol(token); err == nil {
		return symbol
	}
	return token.String()
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
