package multifee

import (
	"math/big"

	"veledger/crypto"
)

// DefaultRewardsDuration is the window over which newly observed rewards
// are streamed.
const DefaultRewardsDuration uint64 = 7 * 86_400

// RewardPrecision scales reward-per-share and reward-rate values.
var RewardPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// RewardData is the accumulator state of one reward token.
type RewardData struct {
	Token          crypto.Address
	LastUpdateTime uint64
	// RewardPerShareStored is scaled by RewardPrecision and never decreases.
	RewardPerShareStored *big.Int
	// RewardRate is tokens per second scaled by RewardPrecision.
	RewardRate   *big.Int
	PeriodFinish uint64
	// Balance is the amount notified and not yet paid out.
	Balance *big.Int
}

// Clone returns a deep copy of the reward data.
func (d *RewardData) Clone() *RewardData {
	if d == nil {
		return nil
	}
	clone := *d
	clone.RewardPerShareStored = cloneBigInt(d.RewardPerShareStored)
	clone.RewardRate = cloneBigInt(d.RewardRate)
	clone.Balance = cloneBigInt(d.Balance)
	return &clone
}

func (d *RewardData) normalize() *RewardData {
	if d.RewardPerShareStored == nil {
		d.RewardPerShareStored = big.NewInt(0)
	}
	if d.RewardRate == nil {
		d.RewardRate = big.NewInt(0)
	}
	if d.Balance == nil {
		d.Balance = big.NewInt(0)
	}
	return d
}

// Snapshot is an account's settlement position for one reward token.
type Snapshot struct {
	RewardPerSharePaid *big.Int
	Accrued            *big.Int
}

func (s *Snapshot) normalize() *Snapshot {
	if s.RewardPerSharePaid == nil {
		s.RewardPerSharePaid = big.NewInt(0)
	}
	if s.Accrued == nil {
		s.Accrued = big.NewInt(0)
	}
	return s
}

// Claimable is the amount of one reward token an account could claim.
type Claimable struct {
	Token  crypto.Address
	Amount *big.Int
}

// Settings holds the distributor state persisted outside reward data.
type Settings struct {
	// VoteEscrowLinked is flipped exactly once by SetVoteEscrow.
	VoteEscrowLinked bool
	VoteEscrow       crypto.Address
}

// Params configures an engine at construction time.
type Params struct {
	Owner crypto.Address
	// Custody is the account reward tokens are funded into and paid from.
	Custody         crypto.Address
	RewardsDuration uint64
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
