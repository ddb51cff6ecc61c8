package common

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestCheckedSubUnderflow(t *testing.T) {
	a := uint256.NewInt(5)
	b := uint256.NewInt(6)
	if _, err := CheckedSub(a, b); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if a.Uint64() != 5 || b.Uint64() != 6 {
		t.Fatalf("operands mutated")
	}
	out, err := CheckedSub(b, a)
	if err != nil || out.Uint64() != 1 {
		t.Fatalf("unexpected result %v %v", out, err)
	}
}

func TestCheckedAddOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	if _, err := CheckedAdd(max, uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestMulDiv(t *testing.T) {
	out, err := MulDiv(uint256.NewInt(10), uint256.NewInt(3), uint256.NewInt(4))
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if out.Uint64() != 7 {
		t.Fatalf("expected 7, got %s", out)
	}
	if _, err := MulDiv(uint256.NewInt(1), uint256.NewInt(1), new(uint256.Int)); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected divide by zero, got %v", err)
	}
	max := new(uint256.Int).SetAllOne()
	if _, err := MulDiv(max, uint256.NewInt(2), uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	// The product exceeds 256 bits but the quotient fits.
	out, err = MulDiv(max, uint256.NewInt(4), uint256.NewInt(8))
	if err != nil {
		t.Fatalf("wide product: %v", err)
	}
	if want := new(uint256.Int).Rsh(max, 1); !out.Eq(want) {
		t.Fatalf("expected %s, got %s", want.Dec(), out.Dec())
	}
}

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "troves"); err != nil {
		t.Fatalf("nil view should pass: %v", err)
	}
	if err := Guard(pauseMap{"troves": true}, "troves"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := Guard(pauseMap{"troves": true}, "surplus"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
