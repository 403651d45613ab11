package state

import (
	"fmt"

	"github.com/holiman/uint256"

	"veledger/crypto"
	"veledger/native/multifee"
)

type storedRewardData struct {
	LastUpdateTime       uint64
	RewardPerShareStored *uint256.Int
	RewardRate           *uint256.Int
	PeriodFinish         uint64
	Balance              *uint256.Int
}

type storedSnapshot struct {
	RewardPerSharePaid *uint256.Int
	Accrued            *uint256.Int
}

type storedRewardSettings struct {
	VoteEscrowLinked bool
	VoteEscrow       [20]byte
}

// MultiFeeRewardTokens returns reward tokens in registration order.
func (m *Manager) MultiFeeRewardTokens() ([]crypto.Address, error) {
	return m.addressList(rewardTokenListKey)
}

// MultiFeePutRewardTokens replaces the reward token list.
func (m *Manager) MultiFeePutRewardTokens(tokens []crypto.Address) error {
	return m.putAddressList(rewardTokenListKey, tokens)
}

// MultiFeeRewardData loads a reward token's accumulator.
func (m *Manager) MultiFeeRewardData(token crypto.Address) (*multifee.RewardData, bool, error) {
	var stored storedRewardData
	ok, err := m.KVGet(addressKey(rewardDataPrefix, token), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &multifee.RewardData{
		Token:                token,
		LastUpdateTime:       stored.LastUpdateTime,
		RewardPerShareStored: fromStoredAmount(stored.RewardPerShareStored),
		RewardRate:           fromStoredAmount(stored.RewardRate),
		PeriodFinish:         stored.PeriodFinish,
		Balance:              fromStoredAmount(stored.Balance),
	}, true, nil
}

// MultiFeePutRewardData persists a reward token's accumulator.
func (m *Manager) MultiFeePutRewardData(data *multifee.RewardData) error {
	if data == nil {
		return fmt.Errorf("multifee: nil reward data")
	}
	rps, err := toStoredAmount(data.RewardPerShareStored)
	if err != nil {
		return err
	}
	rate, err := toStoredAmount(data.RewardRate)
	if err != nil {
		return err
	}
	balance, err := toStoredAmount(data.Balance)
	if err != nil {
		return err
	}
	return m.KVPut(addressKey(rewardDataPrefix, data.Token), &storedRewardData{
		LastUpdateTime:       data.LastUpdateTime,
		RewardPerShareStored: rps,
		RewardRate:           rate,
		PeriodFinish:         data.PeriodFinish,
		Balance:              balance,
	})
}

// MultiFeeSnapshot returns account's snapshot for token. Missing snapshots
// are zero.
func (m *Manager) MultiFeeSnapshot(account, token crypto.Address) (*multifee.Snapshot, error) {
	var stored storedSnapshot
	if _, err := m.KVGet(addressKey(rewardSnapshotPrefix, token, account), &stored); err != nil {
		return nil, err
	}
	return &multifee.Snapshot{
		RewardPerSharePaid: fromStoredAmount(stored.RewardPerSharePaid),
		Accrued:            fromStoredAmount(stored.Accrued),
	}, nil
}

// MultiFeePutSnapshot persists account's snapshot for token.
func (m *Manager) MultiFeePutSnapshot(account, token crypto.Address, snapshot *multifee.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("multifee: nil snapshot")
	}
	paid, err := toStoredAmount(snapshot.RewardPerSharePaid)
	if err != nil {
		return err
	}
	accrued, err := toStoredAmount(snapshot.Accrued)
	if err != nil {
		return err
	}
	return m.KVPut(addressKey(rewardSnapshotPrefix, token, account), &storedSnapshot{
		RewardPerSharePaid: paid,
		Accrued:            accrued,
	})
}

// MultiFeeSettings loads the distributor link state.
func (m *Manager) MultiFeeSettings() (*multifee.Settings, bool, error) {
	var stored storedRewardSettings
	ok, err := m.KVGet(rewardSettingsKey, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &multifee.Settings{
		VoteEscrowLinked: stored.VoteEscrowLinked,
		VoteEscrow:       crypto.Address(stored.VoteEscrow),
	}, true, nil
}

// MultiFeePutSettings persists the distributor link state.
func (m *Manager) MultiFeePutSettings(settings *multifee.Settings) error {
	if settings == nil {
		return fmt.Errorf("multifee: nil settings")
	}
	return m.KVPut(rewardSettingsKey, &storedRewardSettings{
		VoteEscrowLinked: settings.VoteEscrowLinked,
		VoteEscrow:       settings.VoteEscrow,
	})
}
