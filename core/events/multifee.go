package events

import (
	"math/big"

	"veledger/core/types"
	"veledger/crypto"
)

const (
	// TypeRewardAdded is emitted when a reward token is registered.
	TypeRewardAdded = "multifee.rewardAdded"
	// TypeRewardNotified is emitted when unseen distributor balance starts streaming.
	TypeRewardNotified = "multifee.rewardNotified"
	// TypeRewardPaid is emitted for every non-zero reward payout.
	TypeRewardPaid = "multifee.rewardPaid"
)

// RewardAdded captures a new reward token registration.
type RewardAdded struct {
	Token crypto.Address
	Index int
}

// EventType satisfies the Event interface.
func (RewardAdded) EventType() string { return TypeRewardAdded }

// Event converts the structured payload into a broadcastable event.
func (e RewardAdded) Event() *types.Event {
	attrs := map[string]string{"index": formatUint(uint64(e.Index))}
	setAddress(attrs, "token", e.Token)
	return &types.Event{Type: TypeRewardAdded, Attributes: attrs}
}

// RewardNotified captures newly observed rewards folded into the stream.
type RewardNotified struct {
	Token        crypto.Address
	Amount       *big.Int
	RewardRate   *big.Int
	PeriodFinish uint64
}

// EventType satisfies the Event interface.
func (RewardNotified) EventType() string { return TypeRewardNotified }

// Event converts the structured payload into a broadcastable event.
func (e RewardNotified) Event() *types.Event {
	attrs := map[string]string{
		"amount":       formatAmount(e.Amount),
		"rewardRate":   formatAmount(e.RewardRate),
		"periodFinish": formatUint(e.PeriodFinish),
	}
	setAddress(attrs, "token", e.Token)
	return &types.Event{Type: TypeRewardNotified, Attributes: attrs}
}

// RewardPaid captures a reward claim.
type RewardPaid struct {
	Account  crypto.Address
	Receiver crypto.Address
	Token    crypto.Address
	Amount   *big.Int
}

// EventType satisfies the Event interface.
func (RewardPaid) EventType() string { return TypeRewardPaid }

// Event converts the structured payload into a broadcastable event.
func (e RewardPaid) Event() *types.Event {
	attrs := map[string]string{"amount": formatAmount(e.Amount)}
	setAddress(attrs, "addr", e.Account)
	setAddress(attrs, "receiver", e.Receiver)
	setAddress(attrs, "token", e.Token)
	return &types.Event{Type: TypeRewardPaid, Attributes: attrs}
}
