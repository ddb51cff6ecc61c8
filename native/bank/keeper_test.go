package bank

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"ultrachain/core/events"
	"ultrachain/core/state"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/storage"
)

func makeAddress(b byte) crypto.Address {
	return crypto.NewAddress(crypto.UltraPrefix, bytes.Repeat([]byte{b}, crypto.AddressLength))
}

func TestKeeperSend(t *testing.T) {
	keeper := NewKeeper(state.NewManager(storage.NewMemDB()))
	collector := &events.Collector{}
	keeper.SetEmitter(collector)
	pool, alice := makeAddress(0x01), makeAddress(0x02)

	if err := keeper.Mint(pool, "ujuno", big.NewInt(150)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	msg := types.BankSend{From: pool.String(), To: alice.String(), Denom: "ujuno", Amount: big.NewInt(100)}
	if err := keeper.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	poolBalance, _ := keeper.Balance(pool, "ujuno")
	aliceBalance, _ := keeper.Balance(alice, "UJUNO")
	if poolBalance.Int64() != 50 || aliceBalance.Int64() != 100 {
		t.Fatalf("unexpected balances pool=%s alice=%s", poolBalance, aliceBalance)
	}
	if len(collector.Events()) != 1 || collector.Events()[0].Type != events.TypeBankTransfer {
		t.Fatalf("expected transfer event, got %+v", collector.Events())
	}

	if err := keeper.Send(msg); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if err := keeper.Send(types.BankSend{From: pool.String(), To: alice.String(), Denom: " ", Amount: big.NewInt(1)}); !errors.Is(err, ErrInvalidDenom) {
		t.Fatalf("expected invalid denom, got %v", err)
	}
}
