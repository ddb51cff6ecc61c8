package errors

import (
	stderrors "errors"

	"ultrachain/native/admin"
	"ultrachain/native/bank"
	nativecommon "ultrachain/native/common"
	"ultrachain/native/pricing"
	"ultrachain/native/roles"
	"ultrachain/native/surplus"
	"ultrachain/native/troves"
)

// Code is the stable external classification of a failed invocation.
type Code uint32

const (
	CodeOK             Code = 0
	CodeUnauthorized   Code = 1
	CodeNotFound       Code = 2
	CodeArithmetic     Code = 3
	CodePrecondition   Code = 4
	CodeInvalidRequest Code = 5
	CodeInternal       Code = 6
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeNotFound:
		return "not_found"
	case CodeArithmetic:
		return "arithmetic"
	case CodePrecondition:
		return "precondition"
	case CodeInvalidRequest:
		return "invalid_request"
	default:
		return "internal"
	}
}

var (
	ErrUnknownContract = stderrors.New("runtime: unknown contract")
	ErrUnknownMessage  = stderrors.New("runtime: unknown message")
	ErrInvalidMessage  = stderrors.New("runtime: invalid message")
	ErrAlreadyExists   = stderrors.New("runtime: contract already instantiated")
	ErrNotInstantiated = stderrors.New("runtime: contract not instantiated")
)

var classes = []struct {
	code Code
	errs []error
}{
	{CodeUnauthorized, []error{
		roles.ErrUnauthorized,
		roles.ErrProviderNotSet,
		admin.ErrNotAdmin,
		admin.ErrUnauthorizedOwner,
	}},
	{CodeArithmetic, []error{
		nativecommon.ErrOverflow,
		nativecommon.ErrUnderflow,
		nativecommon.ErrDivideByZero,
	}},
	{CodeNotFound, []error{
		troves.ErrTroveNotFound,
		troves.ErrOwnerIndexOutOfRange,
		admin.ErrParamsNotFound,
		roles.ErrProviderNotFound,
		pricing.ErrNoPrice,
		ErrUnknownContract,
		ErrNotInstantiated,
	}},
	{CodePrecondition, []error{
		troves.ErrTroveNotActive,
		troves.ErrTroveClosed,
		troves.ErrTroveHasDebt,
		troves.ErrNotLiquidatable,
		troves.ErrTroveOwnerExists,
		troves.ErrInvalidTransition,
		troves.ErrPriceUnavailable,
		troves.ErrOwnerImmutable,
		surplus.ErrNoCollAvailable,
		pricing.ErrStalePrice,
		bank.ErrInsufficientFunds,
		nativecommon.ErrModulePaused,
		ErrAlreadyExists,
	}},
	{CodeInvalidRequest, []error{
		troves.ErrInvalidStatus,
		troves.ErrInvalidOwner,
		troves.ErrInvalidAmount,
		surplus.ErrInvalidAmount,
		surplus.ErrInvalidAccount,
		roles.ErrUnknownRole,
		admin.ErrInvalidParams,
		pricing.ErrInvalidPrice,
		bank.ErrInvalidAmount,
		bank.ErrInvalidDenom,
		ErrUnknownMessage,
		ErrInvalidMessage,
	}},
}

// Classify maps err onto its external code. Unrecognised errors, including
// surplus.ErrPoolInvariant, are internal faults.
func Classify(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, class := range classes {
		for _, target := range class.errs {
			if stderrors.Is(err, target) {
				return class.code
			}
		}
	}
	return CodeInternal
}
