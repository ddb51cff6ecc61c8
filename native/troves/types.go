package troves

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"ultrachain/crypto"
	nativecommon "ultrachain/native/common"
)

// Status is the lifecycle state of a trove.
type Status uint8

const (
	// StatusNonExistent is the implicit state of an owner with no record.
	StatusNonExistent Status = iota
	StatusActive
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusNonExistent:
		return "NonExistent"
	case StatusActive:
		return "Active"
	case StatusClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// ParseStatus accepts the variant names case-insensitively, with or without
// underscores.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "_", ""))
	switch normalized {
	case "nonexistent":
		return StatusNonExistent, nil
	case "active":
		return StatusActive, nil
	case "closed":
		return StatusClosed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Trove is a borrower's collateralized debt position.
type Trove struct {
	// Coll is the locked native collateral.
	Coll *uint256.Int
	// Debt is the outstanding stable-token debt, gas compensation included.
	Debt *uint256.Int
	// Stake is the borrower's share used for redistribution bookkeeping.
	Stake  *uint256.Int
	Status Status
	// Owner never changes once the record exists.
	Owner crypto.Address
	// ArrayIndex is the trove's position in the owners array.
	ArrayIndex uint64
}

// NewTrove returns an empty record for owner.
func NewTrove(owner crypto.Address) Trove {
	return Trove{
		Coll:   new(uint256.Int),
		Debt:   new(uint256.Int),
		Stake:  new(uint256.Int),
		Status: StatusNonExistent,
		Owner:  owner,
	}
}

// Clone returns a deep copy so callers never alias stored amounts.
func (t Trove) Clone() Trove {
	clone := t
	clone.Coll = nativecommon.Clone(t.Coll)
	clone.Debt = nativecommon.Clone(t.Debt)
	clone.Stake = nativecommon.Clone(t.Stake)
	if !t.Owner.IsZero() {
		clone.Owner = crypto.NewAddress(t.Owner.Prefix(), t.Owner.Bytes())
	}
	return clone
}

type storedTrove struct {
	Coll       *big.Int
	Debt       *big.Int
	Stake      *big.Int
	Status     uint8
	Owner      []byte
	ArrayIndex uint64
}

func toStored(t Trove) *storedTrove {
	return &storedTrove{
		Coll:       nativecommon.Clone(t.Coll).ToBig(),
		Debt:       nativecommon.Clone(t.Debt).ToBig(),
		Stake:      nativecommon.Clone(t.Stake).ToBig(),
		Status:     uint8(t.Status),
		Owner:      append([]byte(nil), t.Owner.Bytes()...),
		ArrayIndex: t.ArrayIndex,
	}
}

func fromStored(s *storedTrove) (Trove, error) {
	coll, err := fromBig(s.Coll)
	if err != nil {
		return Trove{}, err
	}
	debt, err := fromBig(s.Debt)
	if err != nil {
		return Trove{}, err
	}
	stake, err := fromBig(s.Stake)
	if err != nil {
		return Trove{}, err
	}
	owner, err := crypto.AddressFromBytes(crypto.UltraPrefix, s.Owner)
	if err != nil {
		return Trove{}, err
	}
	if s.Status > uint8(StatusClosed) {
		return Trove{}, fmt.Errorf("%w: stored status %d", ErrInvalidStatus, s.Status)
	}
	return Trove{
		Coll:       coll,
		Debt:       debt,
		Stake:      stake,
		Status:     Status(s.Status),
		Owner:      owner,
		ArrayIndex: s.ArrayIndex,
	}, nil
}

func fromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	out, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, fmt.Errorf("troves: stored amount %s out of range", v)
	}
	return out, nil
}
