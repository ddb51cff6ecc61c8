package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	coreerrors "ultrachain/core/errors"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/native/roles"
)

// Contract is a named state machine hosted by the Runtime. Messages arrive as
// externally tagged JSON objects such as {"claim_coll":{"account":"ultra1..."}}.
type Contract interface {
	Instantiate(ctx *Context, msg json.RawMessage) (*types.Response, error)
	Execute(ctx *Context, msg json.RawMessage) (*types.Response, error)
	Query(ctx *Context, msg json.RawMessage) (interface{}, error)
}

// Sudoer is implemented by contracts accepting privileged maintenance
// messages.
type Sudoer interface {
	Sudo(ctx *Context, msg json.RawMessage) (*types.Response, error)
}

// RoleOracleSource is implemented by contracts that answer role queries for
// other contracts.
type RoleOracleSource interface {
	RoleOracle(ctx *Context) roles.Oracle
}

// PriceSource is implemented by contracts publishing the collateral price.
type PriceSource interface {
	LatestPrice(ctx *Context) (*uint256.Int, error)
}

// SurplusAccountant is implemented by contracts that hold seized collateral
// on behalf of liquidated borrowers. ctx.Sender is the authority the credit
// is made under.
type SurplusAccountant interface {
	AccountSurplus(ctx *Context, account crypto.Address, amount *uint256.Int) error
}

// DecodeMessage splits a tagged message into its variant name and body. A bare
// JSON string is accepted for variants without fields.
func DecodeMessage(raw json.RawMessage) (string, json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil, fmt.Errorf("%w: empty message", coreerrors.ErrInvalidMessage)
	}
	if trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return "", nil, fmt.Errorf("%w: %v", coreerrors.ErrInvalidMessage, err)
		}
		return strings.TrimSpace(name), json.RawMessage("{}"), nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return "", nil, fmt.Errorf("%w: %v", coreerrors.ErrInvalidMessage, err)
	}
	if len(envelope) != 1 {
		return "", nil, fmt.Errorf("%w: expected exactly one variant, got %d", coreerrors.ErrInvalidMessage, len(envelope))
	}
	for name, body := range envelope {
		if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			body = json.RawMessage("{}")
		}
		return name, body, nil
	}
	return "", nil, coreerrors.ErrInvalidMessage
}

// DecodeBody strictly decodes a variant body, rejecting unknown fields.
func DecodeBody(body json.RawMessage, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", coreerrors.ErrInvalidMessage, err)
	}
	return nil
}

// UnknownMessage reports a variant the contract does not handle.
func UnknownMessage(name string) error {
	return fmt.Errorf("%w: %q", coreerrors.ErrUnknownMessage, name)
}

// ParseAddress decodes a bech32 address field, naming the field on failure.
func ParseAddress(field, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%w: %s: %v", coreerrors.ErrInvalidMessage, field, err)
	}
	return addr, nil
}

// ParseAmount decodes a base-10 unsigned amount field.
func ParseAmount(field, value string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", coreerrors.ErrInvalidMessage, field, err)
	}
	return amount, nil
}
