package state

import (
	"math/big"
	"testing"

	"ultrachain/storage"
)

type kvRecord struct {
	Name   string
	Amount *big.Int
}

func TestKVPutGetDelete(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	mgr := NewManager(db)

	if err := mgr.KVPut([]byte("record/1"), &kvRecord{Name: "one", Amount: big.NewInt(7)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out kvRecord
	ok, err := mgr.KVGet([]byte("record/1"), &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Name != "one" || out.Amount.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("unexpected record: %+v", out)
	}

	if err := mgr.KVDelete([]byte("record/1")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err = mgr.KVGet([]byte("record/1"), &out)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if ok {
		t.Fatalf("expected record to be gone")
	}
}

func TestKVAppendAndRemove(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	key := []byte("index/owner")

	for _, v := range [][]byte{[]byte("a"), []byte("b"), []byte("a")} {
		if err := mgr.KVAppend(key, v); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	var list [][]byte
	if err := mgr.KVGetList(key, &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected deduplicated list of 2, got %d", len(list))
	}

	if err := mgr.KVRemove(key, []byte("a")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := mgr.KVRemove(key, []byte("b")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, err := mgr.KVGet(key, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected empty list key to be deleted")
	}
	list = nil
	if err := mgr.KVGetList(key, &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", list)
	}
}

func TestBalanceDefaultsToZero(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := make([]byte, 20)
	addr[0] = 1

	bal, err := mgr.Balance(addr, "ujuno")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", bal)
	}
	if err := mgr.SetBalance(addr, "UJUNO", big.NewInt(42)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	bal, err = mgr.Balance(addr, "ujuno")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected balance %s", bal)
	}
	if err := mgr.SetBalance(addr, "ujuno", big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative balance rejection")
	}
}
