package events

import "ultrachain/core/types"

const (
	TypeAdminUpdated  = "admin.updated"
	TypeRoleUpdated   = "roles.updated"
	TypeParamsUpdated = "params.updated"
)

type AdminUpdated struct {
	Contract string
	Admin    string
}

func (AdminUpdated) EventType() string { return TypeAdminUpdated }

func (e AdminUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeAdminUpdated,
		Attributes: map[string]string{
			"contract": e.Contract,
			"admin":    e.Admin,
		},
	}
}

// RoleUpdated covers both a consumer switching role providers and a provider
// assigning a role to an address.
type RoleUpdated struct {
	Contract string
	Role     string
	Address  string
}

func (RoleUpdated) EventType() string { return TypeRoleUpdated }

func (e RoleUpdated) Event() *types.Event {
	attrs := map[string]string{
		"contract": e.Contract,
		"address":  e.Address,
	}
	if e.Role != "" {
		attrs["role"] = e.Role
	}
	return &types.Event{Type: TypeRoleUpdated, Attributes: attrs}
}

type ParamsUpdated struct {
	Contract string
	Name     string
	Owner    string
}

func (ParamsUpdated) EventType() string { return TypeParamsUpdated }

func (e ParamsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeParamsUpdated,
		Attributes: map[string]string{
			"contract": e.Contract,
			"name":     e.Name,
			"owner":    e.Owner,
		},
	}
}
