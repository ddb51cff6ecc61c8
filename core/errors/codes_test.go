package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	nativecommon "ultrachain/native/common"
	"ultrachain/native/roles"
	"ultrachain/native/surplus"
	"ultrachain/native/troves"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, CodeOK},
		{fmt.Errorf("wrapped: %w", roles.ErrUnauthorized), CodeUnauthorized},
		{troves.ErrTroveNotFound, CodeNotFound},
		{fmt.Errorf("decrease: %w", nativecommon.ErrUnderflow), CodeArithmetic},
		{troves.ErrNotLiquidatable, CodePrecondition},
		{surplus.ErrNoCollAvailable, CodePrecondition},
		{ErrInvalidMessage, CodeInvalidRequest},
		{surplus.ErrPoolInvariant, CodeInternal},
		{stderrors.New("disk on fire"), CodeInternal},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
