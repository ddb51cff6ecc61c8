package troves

import (
	"github.com/holiman/uint256"

	nativecommon "ultrachain/native/common"
)

var (
	// DecimalPrecision scales prices and ICR values (1e18 == 100%).
	DecimalPrecision = uint256.NewInt(1_000_000_000_000_000_000)
	// NICRPrecision scales the nominal ICR.
	NICRPrecision = uint256.MustFromDecimal("100000000000000000000")
	// DefaultMCR is the minimum collateral ratio, 110%.
	DefaultMCR = uint256.NewInt(1_100_000_000_000_000_000)
	// DefaultGasCompensation is the reserve added to every trove's debt.
	DefaultGasCompensation = uint256.MustFromDecimal("200000000000000000000")
	// maxICR stands in for an infinite ratio on debt-free troves.
	maxICR = new(uint256.Int).SetAllOne()
)

// MaxICR returns the value reported for troves without debt.
func MaxICR() *uint256.Int {
	return new(uint256.Int).Set(maxICR)
}

// CompositeDebt adds the gas compensation reserve to the borrower's net debt.
func CompositeDebt(netDebt, gasCompensation *uint256.Int) (*uint256.Int, error) {
	return nativecommon.CheckedAdd(netDebt, gasCompensation)
}

// NominalICR is coll * 1e20 / debt, independent of price.
func NominalICR(coll, debt *uint256.Int) (*uint256.Int, error) {
	if debt == nil || debt.IsZero() {
		return MaxICR(), nil
	}
	return nativecommon.MulDiv(coll, NICRPrecision, debt)
}

// CurrentICR is coll * price / debt with price scaled by 1e18.
func CurrentICR(coll, debt, price *uint256.Int) (*uint256.Int, error) {
	if debt == nil || debt.IsZero() {
		return MaxICR(), nil
	}
	return nativecommon.MulDiv(coll, price, debt)
}

// IncreaseColl returns a copy of t with delta more collateral.
func IncreaseColl(t Trove, delta *uint256.Int) (Trove, error) {
	next := t.Clone()
	coll, err := nativecommon.CheckedAdd(next.Coll, delta)
	if err != nil {
		return Trove{}, err
	}
	next.Coll = coll
	return next, nil
}

// DecreaseColl returns a copy of t with delta less collateral.
func DecreaseColl(t Trove, delta *uint256.Int) (Trove, error) {
	next := t.Clone()
	coll, err := nativecommon.CheckedSub(next.Coll, delta)
	if err != nil {
		return Trove{}, err
	}
	next.Coll = coll
	return next, nil
}

// IncreaseDebt returns a copy of t with delta more debt.
func IncreaseDebt(t Trove, delta *uint256.Int) (Trove, error) {
	next := t.Clone()
	debt, err := nativecommon.CheckedAdd(next.Debt, delta)
	if err != nil {
		return Trove{}, err
	}
	next.Debt = debt
	return next, nil
}

// DecreaseDebt returns a copy of t with delta less debt.
func DecreaseDebt(t Trove, delta *uint256.Int) (Trove, error) {
	next := t.Clone()
	debt, err := nativecommon.CheckedSub(next.Debt, delta)
	if err != nil {
		return Trove{}, err
	}
	next.Debt = debt
	return next, nil
}
