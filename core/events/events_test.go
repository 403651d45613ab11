package events

import (
	"math/big"
	"testing"

	"veledger/crypto"
)

func TestBufferFlushPreservesOrder(t *testing.T) {
	buf := &Buffer{}
	buf.Emit(LockCreated{Account: crypto.ModuleAddress("a"), Amount: big.NewInt(1)})
	buf.Emit(nil)
	buf.Emit(LockWithdrawn{Account: crypto.ModuleAddress("a"), Amount: big.NewInt(1)})

	rec := &Recorder{}
	flushed := buf.Flush(rec)
	if len(flushed) != 2 {
		t.Fatalf("expected 2 flushed events, got %d", len(flushed))
	}
	types := rec.Types()
	if len(types) != 2 || types[0] != TypeLockCreated || types[1] != TypeLockWithdrawn {
		t.Fatalf("unexpected recorded types: %v", types)
	}
	if again := buf.Flush(rec); len(again) != 0 {
		t.Fatalf("buffer not cleared after flush: %d events", len(again))
	}
}

func TestBufferDropDiscardsPending(t *testing.T) {
	buf := &Buffer{}
	buf.Emit(RewardAdded{Token: crypto.ModuleAddress("token"), Index: 0})
	buf.Drop()

	rec := &Recorder{}
	buf.Flush(rec)
	if len(rec.Events()) != 0 {
		t.Fatalf("dropped events were delivered: %v", rec.Types())
	}
}

func TestEmergencyWithdrawEventAttributes(t *testing.T) {
	account := crypto.ModuleAddress("test/alice")
	collector := crypto.ModuleAddress("test/collector")
	evt := LockEmergencyWithdrawn{
		Account:   account,
		Returned:  big.NewInt(700),
		Penalty:   big.NewInt(300),
		Collector: collector,
	}.Event()

	if evt.Type != TypeLockEmergencyWithdrawn {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	want := map[string]string{
		"addr":      account.String(),
		"collector": collector.String(),
		"returned":  "700",
		"penalty":   "300",
	}
	for key, value := range want {
		if evt.Attributes[key] != value {
			t.Fatalf("attribute %s: got %q want %q", key, evt.Attributes[key], value)
		}
	}
}

func TestRewardPaidOmitsZeroAddresses(t *testing.T) {
	evt := RewardPaid{Token: crypto.ModuleAddress("token"), Amount: nil}.Event()
	if evt.Attributes["amount"] != "0" {
		t.Fatalf("nil amount should render as 0, got %q", evt.Attributes["amount"])
	}
	if _, ok := evt.Attributes["addr"]; ok {
		t.Fatalf("zero account should be omitted: %v", evt.Attributes)
	}
	if _, ok := evt.Attributes["receiver"]; ok {
		t.Fatalf("zero receiver should be omitted: %v", evt.Attributes)
	}
}
