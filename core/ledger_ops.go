package core

import (
	"math/big"

	"veledger/crypto"
	"veledger/native/bank"
	"veledger/native/multifee"
)

// RegisterToken adds a token to the bank.
func (l *Ledger) RegisterToken(token *bank.Token) error {
	return l.apply("register_token", func() error {
		return l.bank.RegisterToken(token)
	})
}

func (l *Ledger) Mint(caller, token, to crypto.Address, amount *big.Int) error {
	return l.apply("mint", func() error {
		return l.bank.Mint(caller, token, to, amount)
	})
}

func (l *Ledger) Transfer(token, from, to crypto.Address, amount *big.Int) error {
	return l.apply("transfer", func() error {
		return l.bank.Transfer(token, from, to, amount)
	})
}

func (l *Ledger) Approve(token, owner, spender crypto.Address, amount *big.Int) error {
	return l.apply("approve", func() error {
		return l.bank.Approve(token, owner, spender, amount)
	})
}

func (l *Ledger) TransferFrom(token, spender, from, to crypto.Address, amount *big.Int) error {
	return l.apply("transfer_from", func() error {
		return l.bank.TransferFrom(token, spender, from, to, amount)
	})
}

// CreateLock escrows amount of the locked token from caller for days.
// The caller must have approved EscrowAddress for at least amount.
func (l *Ledger) CreateLock(caller crypto.Address, amount *big.Int, days uint64) error {
	return l.apply("create_lock", func() error {
		return l.escrow.CreateLock(caller, amount, days)
	})
}

func (l *Ledger) IncreaseAmount(caller crypto.Address, delta *big.Int) error {
	return l.apply("increase_amount", func() error {
		return l.escrow.IncreaseAmount(caller, delta)
	})
}

func (l *Ledger) IncreaseUnlockTime(caller crypto.Address, extraDays uint64) error {
	return l.apply("increase_unlock_time", func() error {
		return l.escrow.IncreaseUnlockTime(caller, extraDays)
	})
}

func (l *Ledger) Withdraw(caller crypto.Address) error {
	return l.apply("withdraw", func() error {
		return l.escrow.Withdraw(caller)
	})
}

func (l *Ledger) EmergencyWithdraw(caller crypto.Address) error {
	return l.apply("emergency_withdraw", func() error {
		return l.escrow.EmergencyWithdraw(caller)
	})
}

func (l *Ledger) SetPenaltyCollector(caller, collector crypto.Address) error {
	err := l.apply("set_penalty_collector", func() error {
		return l.escrow.SetPenaltyCollector(caller, collector)
	})
	if err == nil {
		l.logger.Info("penalty collector updated", "collector", collector.String())
	}
	return err
}

func (l *Ledger) SetMinLockedAmount(caller crypto.Address, amount *big.Int) error {
	err := l.apply("set_min_locked_amount", func() error {
		return l.escrow.SetMinLockedAmount(caller, amount)
	})
	if err == nil {
		l.logger.Info("minimum locked amount updated", "amount", amount.String())
	}
	return err
}

func (l *Ledger) SetEarlyWithdrawPenaltyRate(caller crypto.Address, rate uint64) error {
	err := l.apply("set_penalty_rate", func() error {
		return l.escrow.SetEarlyWithdrawPenaltyRate(caller, rate)
	})
	if err == nil {
		l.logger.Info("early withdraw penalty rate updated", "rate", rate)
	}
	return err
}

// AddReward registers a reward token with the distributor.
func (l *Ledger) AddReward(caller, token crypto.Address) error {
	err := l.apply("add_reward", func() error {
		return l.rewards.AddReward(caller, token)
	})
	if err == nil {
		l.logger.Info("reward token added", "token", token.String())
	}
	return err
}

// FundRewards moves amount of a reward token from funder into the
// distributor. It is streamed out from the next settlement onwards.
func (l *Ledger) FundRewards(funder, token crypto.Address, amount *big.Int) error {
	return l.apply("fund_rewards", func() error {
		if _, err := l.rewards.RewardData(token); err != nil {
			return err
		}
		return l.bank.Transfer(token, funder, l.rewards.Address(), amount)
	})
}

// Checkpoint settles every reward accumulator without touching any
// account, notifying newly funded rewards.
func (l *Ledger) Checkpoint() error {
	return l.apply("checkpoint", func() error {
		return l.rewards.Settle(crypto.ZeroAddress)
	})
}

// GetReward pays caller's accrued rewards of tokens to receiver. A zero
// receiver pays caller.
func (l *Ledger) GetReward(caller crypto.Address, tokens []crypto.Address, receiver crypto.Address) ([]multifee.Claimable, error) {
	var paid []multifee.Claimable
	err := l.apply("get_reward", func() error {
		var err error
		paid, err = l.rewards.GetReward(caller, tokens, receiver)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}
