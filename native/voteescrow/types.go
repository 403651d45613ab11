package voteescrow

import (
	"math/big"

	"veledger/crypto"
)

const (
	// MinDays is the shortest lock accepted, in days.
	MinDays uint64 = 30
	// MaxDays is the longest lock accepted, in days.
	MaxDays uint64 = 3 * 365
	// Precision is the denominator of EarlyWithdrawPenaltyRate.
	Precision uint64 = 100_000
	// SecondsPerDay converts lock days to clock seconds.
	SecondsPerDay uint64 = 86_400

	DefaultEarlyWithdrawPenaltyRate uint64 = 30_000
	DefaultName                            = "Vote Escrow ETHA"
	DefaultSymbol                          = "veETHA"
	DefaultDecimals                 uint8  = 18
)

// DefaultMinLockedAmount is 1000 whole tokens at 18 decimals.
var DefaultMinLockedAmount = new(big.Int).Mul(big.NewInt(1000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Lock is an account's escrow position. A zero End means the account has no
// active lock.
type Lock struct {
	Owner crypto.Address
	// Amount is the locked principal.
	Amount *big.Int
	// Start is the creation time of the lock.
	Start uint64
	// End is the unlock time in unix seconds.
	End uint64
	// Power is the voting power derived from Amount and the lock duration.
	Power *big.Int
}

// Active reports whether the lock holds principal.
func (l *Lock) Active() bool {
	return l != nil && l.End != 0
}

// Expired reports whether the lock can be withdrawn without penalty.
func (l *Lock) Expired(now uint64) bool {
	return l.Active() && now >= l.End
}

// Clone returns a deep copy of the lock.
func (l *Lock) Clone() *Lock {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Amount = cloneBigInt(l.Amount)
	clone.Power = cloneBigInt(l.Power)
	return &clone
}

// Totals aggregates all locks.
type Totals struct {
	Power  *big.Int
	Locked *big.Int
}

// Settings holds the admin-mutable parameters persisted in state.
type Settings struct {
	MinLockedAmount          *big.Int
	EarlyWithdrawPenaltyRate uint64
	PenaltyCollector         crypto.Address
	// DistributorLinked is flipped exactly once by SetMultiFeeDistribution.
	DistributorLinked bool
	Distributor       crypto.Address
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	clone := *s
	clone.MinLockedAmount = cloneBigInt(s.MinLockedAmount)
	return &clone
}

// Params configures an engine at construction time. Settings values act as
// defaults until an admin call persists an override.
type Params struct {
	Name        string
	Symbol      string
	Decimals    uint8
	LockedToken crypto.Address
	// Custody is the account holding escrowed principal.
	Custody                  crypto.Address
	Owner                    crypto.Address
	MinLockedAmount          *big.Int
	EarlyWithdrawPenaltyRate uint64
	PenaltyCollector         crypto.Address
	Curve                    PowerCurve
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
