package core

import (
	"math/big"

	"veledger/crypto"
	"veledger/native/bank"
	"veledger/native/multifee"
	"veledger/native/voteescrow"
)

// EscrowParams summarises the lock ledger configuration and aggregates.
type EscrowParams struct {
	Name                     string
	Symbol                   string
	Decimals                 uint8
	LockedToken              crypto.Address
	Custody                  crypto.Address
	Owner                    crypto.Address
	PenaltyCollector         crypto.Address
	Distributor              crypto.Address
	DistributorLinked        bool
	MinDays                  uint64
	MaxDays                  uint64
	Precision                uint64
	MinLockedAmount          *big.Int
	EarlyWithdrawPenaltyRate uint64
	TotalLocked              *big.Int
	TotalSupply              *big.Int
	RewardsDuration          uint64
}

// EscrowParams returns the current lock ledger parameters.
func (l *Ledger) EscrowParams() (*EscrowParams, error) {
	var out *EscrowParams
	err := l.view(func() error {
		settings, err := l.escrow.Settings()
		if err != nil {
			return err
		}
		totals, err := l.escrow.Totals()
		if err != nil {
			return err
		}
		out = &EscrowParams{
			Name:                     l.escrow.Name(),
			Symbol:                   l.escrow.Symbol(),
			Decimals:                 l.escrow.Decimals(),
			LockedToken:              l.escrow.LockedToken(),
			Custody:                  l.escrow.Address(),
			Owner:                    l.escrow.Owner(),
			PenaltyCollector:         settings.PenaltyCollector,
			Distributor:              settings.Distributor,
			DistributorLinked:        settings.DistributorLinked,
			MinDays:                  l.escrow.MinDays(),
			MaxDays:                  l.escrow.MaxDays(),
			Precision:                l.escrow.Precision(),
			MinLockedAmount:          cloneAmount(settings.MinLockedAmount),
			EarlyWithdrawPenaltyRate: settings.EarlyWithdrawPenaltyRate,
			TotalLocked:              cloneAmount(totals.Locked),
			TotalSupply:              cloneAmount(totals.Power),
			RewardsDuration:          l.rewards.RewardsDuration(),
		}
		return nil
	})
	return out, err
}

// Lock returns addr's lock. Accounts without a lock get a zero record.
func (l *Ledger) Lock(addr crypto.Address) (*voteescrow.Lock, error) {
	var out *voteescrow.Lock
	err := l.view(func() error {
		var err error
		out, err = l.escrow.Lock(addr)
		return err
	})
	return out, err
}

func (l *Ledger) LockedOf(addr crypto.Address) (*big.Int, error) {
	return l.amountView(func() (*big.Int, error) { return l.escrow.LockedOf(addr) })
}

func (l *Ledger) LockedEnd(addr crypto.Address) (uint64, error) {
	var end uint64
	err := l.view(func() error {
		var err error
		end, err = l.escrow.LockedEnd(addr)
		return err
	})
	return end, err
}

// VotingPower returns addr's voting power.
func (l *Ledger) VotingPower(addr crypto.Address) (*big.Int, error) {
	return l.amountView(func() (*big.Int, error) { return l.escrow.BalanceOf(addr) })
}

// TotalSupply returns the aggregate voting power.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.amountView(l.escrow.TotalSupply)
}

func (l *Ledger) TotalLocked() (*big.Int, error) {
	return l.amountView(l.escrow.TotalLocked)
}

func (l *Ledger) BalanceOf(token, addr crypto.Address) (*big.Int, error) {
	return l.amountView(func() (*big.Int, error) { return l.bank.BalanceOf(token, addr) })
}

func (l *Ledger) Allowance(token, owner, spender crypto.Address) (*big.Int, error) {
	return l.amountView(func() (*big.Int, error) { return l.bank.Allowance(token, owner, spender) })
}

func (l *Ledger) Token(addr crypto.Address) (*bank.Token, error) {
	var out *bank.Token
	err := l.view(func() error {
		var err error
		out, err = l.bank.Token(addr)
		return err
	})
	return out, err
}

func (l *Ledger) Tokens() ([]*bank.Token, error) {
	var out []*bank.Token
	err := l.view(func() error {
		var err error
		out, err = l.bank.Tokens()
		return err
	})
	return out, err
}

// GetRewardTokens lists reward tokens in registration order.
func (l *Ledger) GetRewardTokens() ([]crypto.Address, error) {
	var out []crypto.Address
	err := l.view(func() error {
		var err error
		out, err = l.rewards.GetRewardTokens()
		return err
	})
	return out, err
}

func (l *Ledger) RewardData(token crypto.Address) (*multifee.RewardData, error) {
	var out *multifee.RewardData
	err := l.view(func() error {
		var err error
		out, err = l.rewards.RewardData(token)
		return err
	})
	return out, err
}

// ClaimableRewards reports what addr would receive per reward token if it
// claimed now.
func (l *Ledger) ClaimableRewards(addr crypto.Address) ([]multifee.Claimable, error) {
	var out []multifee.Claimable
	err := l.view(func() error {
		var err error
		out, err = l.rewards.ClaimableRewards(addr)
		return err
	})
	return out, err
}

func (l *Ledger) amountView(fn func() (*big.Int, error)) (*big.Int, error) {
	var out *big.Int
	err := l.view(func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}
