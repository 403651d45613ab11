package events

import (
	"math/big"

	"veledger/core/types"
	"veledger/crypto"
)

const (
	// TypeLockCreated is emitted when an account opens a new lock.
	TypeLockCreated = "voteescrow.lockCreated"
	// TypeLockAmountIncreased is emitted when principal is added to a lock.
	TypeLockAmountIncreased = "voteescrow.amountIncreased"
	// TypeLockTimeIncreased is emitted when a lock's unlock time is extended.
	TypeLockTimeIncreased = "voteescrow.unlockTimeIncreased"
	// TypeLockWithdrawn is emitted when an expired lock is withdrawn in full.
	TypeLockWithdrawn = "voteescrow.withdrawn"
	// TypeLockEmergencyWithdrawn is emitted when a lock exits early with a penalty.
	TypeLockEmergencyWithdrawn = "voteescrow.emergencyWithdrawn"
	// TypeEscrowParamUpdated is emitted for admin parameter changes.
	TypeEscrowParamUpdated = "voteescrow.paramUpdated"
	// TypeComponentLinked is emitted when one component binds its counterpart.
	TypeComponentLinked = "ledger.linked"
)

// LockCreated captures a new lock.
type LockCreated struct {
	Account crypto.Address
	Amount  *big.Int
	End     uint64
	Power   *big.Int
}

// EventType satisfies the Event interface.
func (LockCreated) EventType() string { return TypeLockCreated }

// Event converts the structured payload into a broadcastable event.
func (e LockCreated) Event() *types.Event {
	attrs := map[string]string{
		"amount": formatAmount(e.Amount),
		"end":    formatUint(e.End),
		"power":  formatAmount(e.Power),
	}
	setAddress(attrs, "addr", e.Account)
	return &types.Event{Type: TypeLockCreated, Attributes: attrs}
}

// LockAmountIncreased captures additional principal deposited into a lock.
type LockAmountIncreased struct {
	Account  crypto.Address
	Added    *big.Int
	NewTotal *big.Int
	Power    *big.Int
}

// EventType satisfies the Event interface.
func (LockAmountIncreased) EventType() string { return TypeLockAmountIncreased }

// Event converts the structured payload into a broadcastable event.
func (e LockAmountIncreased) Event() *types.Event {
	attrs := map[string]string{
		"added":    formatAmount(e.Added),
		"newTotal": formatAmount(e.NewTotal),
		"power":    formatAmount(e.Power),
	}
	setAddress(attrs, "addr", e.Account)
	return &types.Event{Type: TypeLockAmountIncreased, Attributes: attrs}
}

// LockTimeIncreased captures an unlock time extension.
type LockTimeIncreased struct {
	Account crypto.Address
	OldEnd  uint64
	NewEnd  uint64
	Power   *big.Int
}

// EventType satisfies the Event interface.
func (LockTimeIncreased) EventType() string { return TypeLockTimeIncreased }

// Event converts the structured payload into a broadcastable event.
func (e LockTimeIncreased) Event() *types.Event {
	attrs := map[string]string{
		"oldEnd": formatUint(e.OldEnd),
		"newEnd": formatUint(e.NewEnd),
		"power":  formatAmount(e.Power),
	}
	setAddress(attrs, "addr", e.Account)
	return &types.Event{Type: TypeLockTimeIncreased, Attributes: attrs}
}

// LockWithdrawn captures the release of an expired lock.
type LockWithdrawn struct {
	Account crypto.Address
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (LockWithdrawn) EventType() string { return TypeLockWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e LockWithdrawn) Event() *types.Event {
	attrs := map[string]string{"amount": formatAmount(e.Amount)}
	setAddress(attrs, "addr", e.Account)
	return &types.Event{Type: TypeLockWithdrawn, Attributes: attrs}
}

// LockEmergencyWithdrawn captures a penalised early exit.
type LockEmergencyWithdrawn struct {
	Account   crypto.Address
	Returned  *big.Int
	Penalty   *big.Int
	Collector crypto.Address
}

// EventType satisfies the Event interface.
func (LockEmergencyWithdrawn) EventType() string { return TypeLockEmergencyWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e LockEmergencyWithdrawn) Event() *types.Event {
	attrs := map[string]string{
		"returned": formatAmount(e.Returned),
		"penalty":  formatAmount(e.Penalty),
	}
	setAddress(attrs, "addr", e.Account)
	setAddress(attrs, "collector", e.Collector)
	return &types.Event{Type: TypeLockEmergencyWithdrawn, Attributes: attrs}
}

// EscrowParamUpdated captures an admin change to a vote escrow parameter.
type EscrowParamUpdated struct {
	Name  string
	Value string
}

// EventType satisfies the Event interface.
func (EscrowParamUpdated) EventType() string { return TypeEscrowParamUpdated }

// Event converts the structured payload into a broadcastable event.
func (e EscrowParamUpdated) Event() *types.Event {
	return &types.Event{Type: TypeEscrowParamUpdated, Attributes: map[string]string{
		"name":  e.Name,
		"value": e.Value,
	}}
}

// ComponentLinked captures the one-time binding between the two components.
type ComponentLinked struct {
	Component string
	Target    crypto.Address
}

// EventType satisfies the Event interface.
func (ComponentLinked) EventType() string { return TypeComponentLinked }

// Event converts the structured payload into a broadcastable event.
func (e ComponentLinked) Event() *types.Event {
	attrs := map[string]string{"component": e.Component}
	setAddress(attrs, "target", e.Target)
	return &types.Event{Type: TypeComponentLinked, Attributes: attrs}
}
