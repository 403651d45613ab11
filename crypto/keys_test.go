package crypto

import (
	"strings"
	"testing"
)

func TestAddressBech32RoundTrip(t *testing.T) {
	addr := ModuleAddress("voteescrow")
	encoded := addr.String()
	if !strings.HasPrefix(encoded, AddressPrefix+"1") {
		t.Fatalf("unexpected prefix in %s", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != addr {
		t.Fatalf("round trip mismatch: got %s want %s", decoded.Hex(), addr.Hex())
	}
}

func TestParseAddressAcceptsHex(t *testing.T) {
	addr := BytesToAddress([]byte{0x01, 0x02})
	parsed, err := ParseAddress(addr.Hex())
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if parsed != addr {
		t.Fatalf("unexpected address %s", parsed.Hex())
	}
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected short hex address to be rejected")
	}
	if _, err := ParseAddress(""); err == nil {
		t.Fatalf("expected empty address to be rejected")
	}
}

func TestModuleAddressesAreDistinct(t *testing.T) {
	if ModuleAddress("voteescrow") == ModuleAddress("multifee") {
		t.Fatalf("module addresses must differ")
	}
	if ModuleAddress("voteescrow").IsZero() {
		t.Fatalf("module address must not be zero")
	}
}

func TestAddressTextMarshalling(t *testing.T) {
	addr := BytesToAddress([]byte{0xaa})
	text, err := addr.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Address
	if err := out.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != addr {
		t.Fatalf("text round trip mismatch")
	}
}
