package surplus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"ultrachain/core/events"
	"ultrachain/core/state"
	"ultrachain/crypto"
	"ultrachain/native/roles"
	kvstore "ultrachain/storage"
)

func makeAddress(b byte) crypto.Address {
	return crypto.NewAddress(crypto.UltraPrefix, bytes.Repeat([]byte{b}, crypto.AddressLength))
}

var (
	owner        = makeAddress(0x01)
	troveManager = makeAddress(0x02)
	borrowerOps  = makeAddress(0x03)
	poolAddress  = crypto.ContractAddress("coll_surplus_pool")
)

func newTestLedger(t *testing.T) (*Ledger, *events.Collector) {
	t.Helper()
	mgr := state.NewManager(kvstore.NewMemDB())
	provider := roles.NewProvider(mgr, "role_provider")
	if err := provider.Instantiate(map[roles.Role]crypto.Address{
		roles.Owner:              owner,
		roles.TroveManager:       troveManager,
		roles.BorrowerOperations: borrowerOps,
	}); err != nil {
		t.Fatalf("instantiate provider: %v", err)
	}
	consumer := roles.NewConsumer(mgr, "coll_surplus_pool", roles.Static(provider))
	if err := consumer.SetProvider(crypto.ContractAddress("role_provider")); err != nil {
		t.Fatalf("set provider: %v", err)
	}
	ledger := NewLedger(mgr, "coll_surplus_pool", consumer, poolAddress)
	collector := &events.Collector{}
	ledger.SetEmitter(collector)
	return ledger, collector
}

func mustCollateral(t *testing.T, l *Ledger, account crypto.Address) uint64 {
	t.Helper()
	amount, err := l.Collateral(account)
	if err != nil {
		t.Fatalf("collateral: %v", err)
	}
	return amount.Uint64()
}

func mustTotal(t *testing.T, l *Ledger) uint64 {
	t.Helper()
	total, err := l.TotalColl()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	return total.Uint64()
}

func TestClaimCollEndToEnd(t *testing.T) {
	ledger, collector := newTestLedger(t)
	alice := makeAddress(0xA1)

	if got := mustTotal(t, ledger); got != 0 {
		t.Fatalf("expected empty pool, got %d", got)
	}
	if err := ledger.AccountSurplus(troveManager, alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("account surplus: %v", err)
	}
	if got := mustCollateral(t, ledger, alice); got != 100 {
		t.Fatalf("expected 100 claimable, got %d", got)
	}
	if got := mustTotal(t, ledger); got != 100 {
		t.Fatalf("expected pool total 100, got %d", got)
	}

	msg, err := ledger.ClaimColl(borrowerOps, alice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if msg.To != alice.String() || msg.From != poolAddress.String() || msg.Denom != DefaultDenom {
		t.Fatalf("unexpected bank send %+v", msg)
	}
	if msg.Amount.Uint64() != 100 {
		t.Fatalf("expected payout 100, got %s", msg.Amount)
	}
	if got := mustCollateral(t, ledger, alice); got != 0 {
		t.Fatalf("account not zeroed, got %d", got)
	}
	if got := mustTotal(t, ledger); got != 0 {
		t.Fatalf("pool not debited, got %d", got)
	}

	if _, err := ledger.ClaimColl(borrowerOps, alice); !errors.Is(err, ErrNoCollAvailable) {
		t.Fatalf("expected no collateral on second claim, got %v", err)
	}
	if len(collector.Events()) != 2 {
		t.Fatalf("expected accounted and claimed events, got %d", len(collector.Events()))
	}
}

func TestAccountSurplusAccumulates(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice, bob := makeAddress(0xA1), makeAddress(0xB2)
	for _, step := range []struct {
		account crypto.Address
		amount  uint64
	}{{alice, 40}, {bob, 15}, {alice, 2}} {
		if err := ledger.AccountSurplus(troveManager, step.account, uint256.NewInt(step.amount)); err != nil {
			t.Fatalf("account surplus: %v", err)
		}
	}
	if got := mustCollateral(t, ledger, alice); got != 42 {
		t.Fatalf("alice expected 42, got %d", got)
	}
	if got := mustTotal(t, ledger); got != 57 {
		t.Fatalf("total expected 57, got %d", got)
	}
	if _, err := ledger.ClaimColl(borrowerOps, bob); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := mustTotal(t, ledger); got != 42 {
		t.Fatalf("total after bob claim expected 42, got %d", got)
	}
}

func TestLedgerRoleGating(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := makeAddress(0xA1)

	if err := ledger.AccountSurplus(borrowerOps, alice, uint256.NewInt(5)); !errors.Is(err, roles.ErrUnauthorized) {
		t.Fatalf("borrower operations cannot account surplus, got %v", err)
	}
	if got := mustTotal(t, ledger); got != 0 {
		t.Fatalf("unauthorized call changed total to %d", got)
	}
	if err := ledger.AccountSurplus(troveManager, alice, uint256.NewInt(5)); err != nil {
		t.Fatalf("account surplus: %v", err)
	}
	if _, err := ledger.ClaimColl(troveManager, alice); !errors.Is(err, roles.ErrUnauthorized) {
		t.Fatalf("trove manager cannot claim, got %v", err)
	}
	if got := mustCollateral(t, ledger, alice); got != 5 {
		t.Fatalf("unauthorized claim changed balance to %d", got)
	}
}

func TestAccountSurplusValidation(t *testing.T) {
	ledger, _ := newTestLedger(t)
	if err := ledger.AccountSurplus(troveManager, makeAddress(0xA1), new(uint256.Int)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := ledger.AccountSurplus(troveManager, crypto.Address{}, uint256.NewInt(1)); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected invalid account, got %v", err)
	}
}

func TestClaimDetectsPoolInvariantBreach(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := makeAddress(0xA1)
	if err := ledger.AccountSurplus(troveManager, alice, uint256.NewInt(10)); err != nil {
		t.Fatalf("account surplus: %v", err)
	}
	// Corrupt the pool total below the account balance.
	if err := ledger.storeAmount(ledger.totalKey(), uint256.NewInt(3)); err != nil {
		t.Fatalf("corrupt total: %v", err)
	}
	if _, err := ledger.ClaimColl(borrowerOps, alice); !errors.Is(err, ErrPoolInvariant) {
		t.Fatalf("expected pool invariant error, got %v", err)
	}
	if got := mustCollateral(t, ledger, alice); got != 10 {
		t.Fatalf("failed claim zeroed the account")
	}
}
