// Package roleprovider is the contract answering role queries for the rest of
// the protocol.
package roleprovider

import (
	"encoding/json"
	"strings"

	"ultrachain/core"
	"ultrachain/core/events"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/native/roles"
)

// InstantiateMsg lists the initial role holders. Empty fields stay unassigned.
type InstantiateMsg struct {
	ActivePool         string `json:"active_pool,omitempty"`
	TroveManager       string `json:"trove_manager,omitempty"`
	Owner              string `json:"owner"`
	StabilityPool      string `json:"stability_pool,omitempty"`
	BorrowerOperations string `json:"borrower_operations,omitempty"`
}

type updateRoleMsg struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

type hasAnyRoleQuery struct {
	Address string   `json:"address"`
	Roles   []string `json:"roles"`
}

type roleAddressQuery struct {
	Role string `json:"role"`
}

// HasAnyRoleResponse answers has_any_role.
type HasAnyRoleResponse struct {
	HasRole bool `json:"has_role"`
}

// RoleAddressResponse answers role_address.
type RoleAddressResponse struct {
	Address *string `json:"address"`
}

// Contract implements core.Contract and core.RoleOracleSource.
type Contract struct{}

func New() *Contract { return &Contract{} }

func provider(ctx *core.Context) *roles.Provider {
	return roles.NewProvider(ctx.State, ctx.Namespace)
}

// RoleOracle exposes the provider state to consuming contracts.
func (c *Contract) RoleOracle(ctx *core.Context) roles.Oracle {
	return provider(ctx)
}

func (c *Contract) Instantiate(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	var msg InstantiateMsg
	if err := core.DecodeBody(raw, &msg); err != nil {
		return nil, err
	}
	fields := map[roles.Role]string{
		roles.ActivePool:         msg.ActivePool,
		roles.TroveManager:       msg.TroveManager,
		roles.Owner:              msg.Owner,
		roles.StabilityPool:      msg.StabilityPool,
		roles.BorrowerOperations: msg.BorrowerOperations,
	}
	assignments := make(map[roles.Role]crypto.Address, len(fields))
	for role, value := range fields {
		if strings.TrimSpace(value) == "" && role != roles.Owner {
			continue
		}
		addr, err := core.ParseAddress(string(role), value)
		if err != nil {
			return nil, err
		}
		assignments[role] = addr
	}
	if err := provider(ctx).Instantiate(assignments); err != nil {
		return nil, err
	}
	return types.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("owner", assignments[roles.Owner].String()), nil
}

func (c *Contract) Execute(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	if name != "update_role" {
		return nil, core.UnknownMessage(name)
	}
	var msg updateRoleMsg
	if err := core.DecodeBody(body, &msg); err != nil {
		return nil, err
	}
	role, err := roles.ParseRole(msg.Role)
	if err != nil {
		return nil, err
	}
	var addr crypto.Address
	if strings.TrimSpace(msg.Address) != "" {
		if addr, err = core.ParseAddress("address", msg.Address); err != nil {
			return nil, err
		}
	}
	if err := provider(ctx).UpdateRole(ctx.Sender, role, addr); err != nil {
		return nil, err
	}
	ctx.Events.Emit(events.RoleUpdated{Contract: ctx.Namespace, Role: role.String(), Address: addr.String()})
	return types.NewResponse().
		AddAttribute("action", "update_role").
		AddAttribute("role", role.String()).
		AddAttribute("address", addr.String()), nil
}

func (c *Contract) Query(ctx *core.Context, raw json.RawMessage) (interface{}, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	switch name {
	case "has_any_role":
		var q hasAnyRoleQuery
		if err := core.DecodeBody(body, &q); err != nil {
			return nil, err
		}
		addr, err := core.ParseAddress("address", q.Address)
		if err != nil {
			return nil, err
		}
		wanted := make([]roles.Role, 0, len(q.Roles))
		for _, value := range q.Roles {
			role, err := roles.ParseRole(value)
			if err != nil {
				return nil, err
			}
			wanted = append(wanted, role)
		}
		ok, err := provider(ctx).HasAnyRole(addr, wanted)
		if err != nil {
			return nil, err
		}
		return HasAnyRoleResponse{HasRole: ok}, nil
	case "role_address":
		var q roleAddressQuery
		if err := core.DecodeBody(body, &q); err != nil {
			return nil, err
		}
		role, err := roles.ParseRole(q.Role)
		if err != nil {
			return nil, err
		}
		addr, ok, err := provider(ctx).RoleAddress(role)
		if err != nil {
			return nil, err
		}
		if !ok {
			return RoleAddressResponse{}, nil
		}
		encoded := addr.String()
		return RoleAddressResponse{Address: &encoded}, nil
	}
	return nil, core.UnknownMessage(name)
}
