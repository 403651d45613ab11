package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks lock and reward activity.
type LedgerMetrics struct {
	locksCreated    prometheus.Counter
	lockMutations   *prometheus.CounterVec
	withdrawals     *prometheus.CounterVec
	penalties       prometheus.Counter
	rewardsPaid     *prometheus.CounterVec
	totalLocked     prometheus.Gauge
	totalPower      prometheus.Gauge
	operationErrors *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them with the
// default registry on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = NewLedgerMetrics(prometheus.DefaultRegisterer)
	})
	return ledgerRegistry
}

// NewLedgerMetrics builds ledger metrics registered with reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		locksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veledger_locks_created_total",
			Help: "Count of locks created.",
		}),
		lockMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veledger_lock_mutations_total",
			Help: "Count of lock extensions by kind.",
		}, []string{"kind"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veledger_withdrawals_total",
			Help: "Count of lock withdrawals by kind.",
		}, []string{"kind"}),
		penalties: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veledger_penalty_base_units_total",
			Help: "Early withdrawal penalties collected in base units.",
		}),
		rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veledger_rewards_paid_base_units_total",
			Help: "Rewards paid out per token in base units.",
		}, []string{"token"}),
		totalLocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "veledger_total_locked",
			Help: "Tokens currently held in escrow.",
		}),
		totalPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "veledger_total_power",
			Help: "Aggregate voting power.",
		}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veledger_operation_errors_total",
			Help: "Count of rejected ledger operations by operation.",
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.locksCreated,
			m.lockMutations,
			m.withdrawals,
			m.penalties,
			m.rewardsPaid,
			m.totalLocked,
			m.totalPower,
			m.operationErrors,
		)
	}
	return m
}

func (m *LedgerMetrics) ObserveLockCreated() {
	if m == nil {
		return
	}
	m.locksCreated.Inc()
}

func (m *LedgerMetrics) ObserveLockMutation(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.lockMutations.WithLabelValues(kind).Inc()
}

func (m *LedgerMetrics) ObserveWithdrawal(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.withdrawals.WithLabelValues(kind).Inc()
}

func (m *LedgerMetrics) ObservePenalty(amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	m.penalties.Add(toFloat(amount))
}

func (m *LedgerMetrics) ObserveRewardPaid(token string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	m.rewardsPaid.WithLabelValues(token).Add(toFloat(amount))
}

// SetTotals records the escrow aggregates after a committed mutation.
func (m *LedgerMetrics) SetTotals(locked, power *big.Int) {
	if m == nil {
		return
	}
	m.totalLocked.Set(toFloat(locked))
	m.totalPower.Set(toFloat(power))
}

func (m *LedgerMetrics) ObserveError(operation string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.operationErrors.WithLabelValues(operation).Inc()
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
