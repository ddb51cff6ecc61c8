package crypto

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x5a}, AddressLength)
	addr := NewAddress(UltraPrefix, raw)
	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) || decoded.Prefix() != UltraPrefix {
		t.Fatalf("unexpected decoded address %s", decoded)
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatalf("expected decode failure")
	}
}

func TestContractAddressDeterministic(t *testing.T) {
	a := ContractAddress("trove_manager")
	b := ContractAddress("trove_manager")
	c := ContractAddress("coll_surplus_pool")
	if !a.Equal(b) {
		t.Fatalf("expected stable contract address")
	}
	if a.Equal(c) {
		t.Fatalf("expected distinct contract addresses")
	}
}

func TestNewAddressCopiesInput(t *testing.T) {
	raw := bytes.Repeat([]byte{0x01}, AddressLength)
	addr := NewAddress(UltraPrefix, raw)
	raw[0] = 0xff
	if addr.Bytes()[0] != 0x01 {
		t.Fatalf("address aliases caller slice")
	}
}
