package troves

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	nativecommon "ultrachain/native/common"
)

func TestCompositeDebt(t *testing.T) {
	got, err := CompositeDebt(uint256.NewInt(1_000), DefaultGasCompensation)
	if err != nil {
		t.Fatalf("composite debt: %v", err)
	}
	want := new(uint256.Int).Add(DefaultGasCompensation, uint256.NewInt(1_000))
	if !got.Eq(want) {
		t.Fatalf("unexpected composite debt %s", got.Dec())
	}
	if _, err := CompositeDebt(MaxICR(), uint256.NewInt(1)); !errors.Is(err, nativecommon.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestICRZeroDebtIsMax(t *testing.T) {
	nicr, err := NominalICR(uint256.NewInt(5), new(uint256.Int))
	if err != nil || !nicr.Eq(MaxICR()) {
		t.Fatalf("expected max nominal icr, got %v %v", nicr, err)
	}
	icr, err := CurrentICR(uint256.NewInt(5), new(uint256.Int), DecimalPrecision)
	if err != nil || !icr.Eq(MaxICR()) {
		t.Fatalf("expected max current icr, got %v %v", icr, err)
	}
}

func TestCurrentICRValues(t *testing.T) {
	// 2 units of collateral at price 1500 against 1000 debt -> 300%.
	coll := uint256.NewInt(2)
	price := new(uint256.Int).Mul(uint256.NewInt(1500), DecimalPrecision)
	icr, err := CurrentICR(coll, uint256.NewInt(1000), price)
	if err != nil {
		t.Fatalf("current icr: %v", err)
	}
	want := new(uint256.Int).Mul(uint256.NewInt(3), DecimalPrecision)
	if !icr.Eq(want) {
		t.Fatalf("expected %s got %s", want.Dec(), icr.Dec())
	}

	nicr, err := NominalICR(uint256.NewInt(3), uint256.NewInt(2))
	if err != nil {
		t.Fatalf("nominal icr: %v", err)
	}
	if nicr.Dec() != "150000000000000000000" {
		t.Fatalf("unexpected nominal icr %s", nicr.Dec())
	}
}

func TestCurrentICRProductOverflow(t *testing.T) {
	_, err := CurrentICR(MaxICR(), uint256.NewInt(1), uint256.NewInt(2))
	if !errors.Is(err, nativecommon.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	// coll * price is above 2^256 but the ratio against a large debt fits.
	coll := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	price := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	debt := new(uint256.Int).Lsh(uint256.NewInt(1), 120)
	icr, err := CurrentICR(coll, debt, price)
	if err != nil {
		t.Fatalf("wide product: %v", err)
	}
	if want := new(uint256.Int).Lsh(uint256.NewInt(1), 180); !icr.Eq(want) {
		t.Fatalf("expected 2^180, got %s", icr.Dec())
	}
}

func TestICRMonotonicity(t *testing.T) {
	samples := []uint64{1, 2, 7, 100, 12_345, 1_000_000_007}
	price := new(uint256.Int).Mul(uint256.NewInt(2000), DecimalPrecision)
	for _, coll := range samples {
		for _, debt := range samples {
			base, err := CurrentICR(uint256.NewInt(coll), uint256.NewInt(debt), price)
			if err != nil {
				t.Fatalf("icr(%d,%d): %v", coll, debt, err)
			}
			moreColl, err := CurrentICR(uint256.NewInt(coll+1), uint256.NewInt(debt), price)
			if err != nil {
				t.Fatalf("icr(%d,%d): %v", coll+1, debt, err)
			}
			if moreColl.Lt(base) {
				t.Fatalf("icr decreased when collateral grew: coll=%d debt=%d", coll, debt)
			}
			moreDebt, err := CurrentICR(uint256.NewInt(coll), uint256.NewInt(debt+1), price)
			if err != nil {
				t.Fatalf("icr(%d,%d): %v", coll, debt+1, err)
			}
			if moreDebt.Gt(base) {
				t.Fatalf("icr increased when debt grew: coll=%d debt=%d", coll, debt)
			}
			nBase, _ := NominalICR(uint256.NewInt(coll), uint256.NewInt(debt))
			nMore, _ := NominalICR(uint256.NewInt(coll+1), uint256.NewInt(debt))
			if nMore.Lt(nBase) {
				t.Fatalf("nominal icr decreased when collateral grew: coll=%d debt=%d", coll, debt)
			}
		}
	}
}

func TestAdjustmentsAreChecked(t *testing.T) {
	trove := NewTrove(makeAddress(0x01))
	trove.Coll = uint256.NewInt(10)

	next, err := IncreaseColl(trove, uint256.NewInt(5))
	if err != nil || next.Coll.Uint64() != 15 {
		t.Fatalf("increase coll: %v %v", next.Coll, err)
	}
	if trove.Coll.Uint64() != 10 {
		t.Fatalf("input trove mutated")
	}
	if _, err := DecreaseColl(trove, uint256.NewInt(11)); !errors.Is(err, nativecommon.ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if _, err := DecreaseDebt(trove, uint256.NewInt(1)); !errors.Is(err, nativecommon.ErrUnderflow) {
		t.Fatalf("expected debt underflow, got %v", err)
	}
	trove.Debt = MaxICR()
	if _, err := IncreaseDebt(trove, uint256.NewInt(1)); !errors.Is(err, nativecommon.ErrOverflow) {
		t.Fatalf("expected debt overflow, got %v", err)
	}
}
