package metrics

import (
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLedgerMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveLockCreated()
	m.ObserveLockCreated()
	m.ObserveWithdrawal("emergency")
	m.ObservePenalty(big.NewInt(300))
	m.ObservePenalty(big.NewInt(0))
	m.ObserveRewardPaid("USDC", big.NewInt(1_500))
	m.SetTotals(big.NewInt(700), big.NewInt(42))
	m.ObserveError("")

	if got := testutil.ToFloat64(m.locksCreated); got != 2 {
		t.Fatalf("locks created: got %v", got)
	}
	if got := testutil.ToFloat64(m.withdrawals.WithLabelValues("emergency")); got != 1 {
		t.Fatalf("emergency withdrawals: got %v", got)
	}
	if got := testutil.ToFloat64(m.penalties); got != 300 {
		t.Fatalf("penalties: got %v", got)
	}
	if got := testutil.ToFloat64(m.rewardsPaid.WithLabelValues("USDC")); got != 1_500 {
		t.Fatalf("rewards paid: got %v", got)
	}
	if got := testutil.ToFloat64(m.totalLocked); got != 700 {
		t.Fatalf("total locked: got %v", got)
	}
	if got := testutil.ToFloat64(m.totalPower); got != 42 {
		t.Fatalf("total power: got %v", got)
	}
	if got := testutil.ToFloat64(m.operationErrors.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("errors: got %v", got)
	}
	if count, err := testutil.GatherAndCount(reg); err != nil || count == 0 {
		t.Fatalf("gather: count=%d err=%v", count, err)
	}
}

func TestNilLedgerMetricsAreSafe(t *testing.T) {
	var m *LedgerMetrics
	m.ObserveLockCreated()
	m.ObserveLockMutation("amount")
	m.ObserveWithdrawal("expired")
	m.ObservePenalty(big.NewInt(1))
	m.ObserveRewardPaid("WETH", big.NewInt(1))
	m.SetTotals(big.NewInt(1), big.NewInt(1))
	m.ObserveError("create_lock")
}
