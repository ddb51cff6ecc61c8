package common

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow marks a result that exceeded 256 bits.
	ErrOverflow = errors.New("arithmetic: overflow")
	// ErrUnderflow marks a subtraction that would have gone below zero.
	ErrUnderflow = errors.New("arithmetic: underflow")
	// ErrDivideByZero marks a division by a zero denominator.
	ErrDivideByZero = errors.New("arithmetic: division by zero")
)

// CheckedAdd returns a+b without mutating either operand.
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(orZero(a), orZero(b))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// CheckedSub returns a-b, failing instead of wrapping when b > a.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, error) {
	out, underflow := new(uint256.Int).SubOverflow(orZero(a), orZero(b))
	if underflow {
		return nil, ErrUnderflow
	}
	return out, nil
}

// MulDiv returns a*b/d over a 512-bit intermediate product, failing when the
// quotient exceeds 256 bits or d is zero.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d == nil || d.IsZero() {
		return nil, ErrDivideByZero
	}
	out, overflow := new(uint256.Int).MulDivOverflow(orZero(a), orZero(b), d)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Clone copies v, mapping nil to zero.
func Clone(v *uint256.Int) *uint256.Int {
	return new(uint256.Int).Set(orZero(v))
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
