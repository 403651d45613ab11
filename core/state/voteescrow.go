package state

import (
	"fmt"

	"github.com/holiman/uint256"

	"veledger/crypto"
	"veledger/native/voteescrow"
)

type storedLock struct {
	Amount *uint256.Int
	Start  uint64
	End    uint64
	Power  *uint256.Int
}

type storedEscrowTotals struct {
	Power  *uint256.Int
	Locked *uint256.Int
}

type storedEscrowSettings struct {
	MinLockedAmount          *uint256.Int
	EarlyWithdrawPenaltyRate uint64
	PenaltyCollector         [20]byte
	DistributorLinked        bool
	Distributor              [20]byte
}

// VoteEscrowLock loads the lock held by addr.
func (m *Manager) VoteEscrowLock(addr crypto.Address) (*voteescrow.Lock, bool, error) {
	var stored storedLock
	ok, err := m.KVGet(addressKey(escrowLockPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &voteescrow.Lock{
		Owner:  addr,
		Amount: fromStoredAmount(stored.Amount),
		Start:  stored.Start,
		End:    stored.End,
		Power:  fromStoredAmount(stored.Power),
	}, true, nil
}

// VoteEscrowPutLock persists a lock keyed by its owner.
func (m *Manager) VoteEscrowPutLock(lock *voteescrow.Lock) error {
	if lock == nil {
		return fmt.Errorf("voteescrow: nil lock")
	}
	amount, err := toStoredAmount(lock.Amount)
	if err != nil {
		return err
	}
	power, err := toStoredAmount(lock.Power)
	if err != nil {
		return err
	}
	return m.KVPut(addressKey(escrowLockPrefix, lock.Owner), &storedLock{
		Amount: amount,
		Start:  lock.Start,
		End:    lock.End,
		Power:  power,
	})
}

// VoteEscrowDeleteLock removes addr's lock.
func (m *Manager) VoteEscrowDeleteLock(addr crypto.Address) error {
	return m.KVDelete(addressKey(escrowLockPrefix, addr))
}

// VoteEscrowTotals returns the aggregate power and principal.
func (m *Manager) VoteEscrowTotals() (*voteescrow.Totals, error) {
	var stored storedEscrowTotals
	if _, err := m.KVGet(escrowTotalsKey, &stored); err != nil {
		return nil, err
	}
	return &voteescrow.Totals{
		Power:  fromStoredAmount(stored.Power),
		Locked: fromStoredAmount(stored.Locked),
	}, nil
}

// VoteEscrowPutTotals persists the aggregates.
func (m *Manager) VoteEscrowPutTotals(totals *voteescrow.Totals) error {
	if totals == nil {
		return fmt.Errorf("voteescrow: nil totals")
	}
	power, err := toStoredAmount(totals.Power)
	if err != nil {
		return err
	}
	locked, err := toStoredAmount(totals.Locked)
	if err != nil {
		return err
	}
	return m.KVPut(escrowTotalsKey, &storedEscrowTotals{Power: power, Locked: locked})
}

// VoteEscrowSettings loads the admin parameters, if any were persisted.
func (m *Manager) VoteEscrowSettings() (*voteescrow.Settings, bool, error) {
	var stored storedEscrowSettings
	ok, err := m.KVGet(escrowSettingsKey, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &voteescrow.Settings{
		MinLockedAmount:          fromStoredAmount(stored.MinLockedAmount),
		EarlyWithdrawPenaltyRate: stored.EarlyWithdrawPenaltyRate,
		PenaltyCollector:         crypto.Address(stored.PenaltyCollector),
		DistributorLinked:        stored.DistributorLinked,
		Distributor:              crypto.Address(stored.Distributor),
	}, true, nil
}

// VoteEscrowPutSettings persists the admin parameters.
func (m *Manager) VoteEscrowPutSettings(settings *voteescrow.Settings) error {
	if settings == nil {
		return fmt.Errorf("voteescrow: nil settings")
	}
	min, err := toStoredAmount(settings.MinLockedAmount)
	if err != nil {
		return err
	}
	return m.KVPut(escrowSettingsKey, &storedEscrowSettings{
		MinLockedAmount:          min,
		EarlyWithdrawPenaltyRate: settings.EarlyWithdrawPenaltyRate,
		PenaltyCollector:         settings.PenaltyCollector,
		DistributorLinked:        settings.DistributorLinked,
		Distributor:              settings.Distributor,
	})
}
