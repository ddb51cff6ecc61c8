// Package base holds the admin, role-provider and params plumbing shared by
// the protocol contracts.
package base

import (
	"encoding/json"
	"strings"

	"ultrachain/core"
	"ultrachain/core/events"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/native/admin"
	"ultrachain/native/roles"
)

// InstantiateMsg is accepted by every protocol contract.
type InstantiateMsg struct {
	Name         string `json:"name"`
	Owner        string `json:"owner"`
	RoleProvider string `json:"role_provider,omitempty"`
}

// ParamsResponse is returned by get_params.
type ParamsResponse struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

type updateAdminMsg struct {
	Admin string `json:"admin"`
}

type updateRoleMsg struct {
	RoleProvider string `json:"role_provider"`
}

type updateParamsMsg struct {
	Name  *string `json:"name,omitempty"`
	Owner *string `json:"owner,omitempty"`
}

// Admin returns the admin store of the running contract.
func Admin(ctx *core.Context) *admin.Store {
	return admin.NewStore(ctx.State, ctx.Namespace)
}

// Roles returns the role consumer of the running contract.
func Roles(ctx *core.Context) *roles.Consumer {
	return roles.NewConsumer(ctx.State, ctx.Namespace, ctx.RoleResolver())
}

// Instantiate makes the sender admin and stores params and the optional role
// provider.
func Instantiate(ctx *core.Context, msg InstantiateMsg) (*types.Response, error) {
	owner, err := core.ParseAddress("owner", msg.Owner)
	if err != nil {
		return nil, err
	}
	store := Admin(ctx)
	if err := store.SetAdmin(ctx.Sender); err != nil {
		return nil, err
	}
	if err := store.SetParams(admin.Params{Name: msg.Name, Owner: owner}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.RoleProvider) != "" {
		provider, err := core.ParseAddress("role_provider", msg.RoleProvider)
		if err != nil {
			return nil, err
		}
		if err := Roles(ctx).SetProvider(provider); err != nil {
			return nil, err
		}
	}
	return types.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("name", strings.TrimSpace(msg.Name)).
		AddAttribute("owner", owner.String()), nil
}

// HandleAdminMessage executes update_admin and update_role. The boolean is
// false when name is neither.
func HandleAdminMessage(ctx *core.Context, name string, body json.RawMessage) (*types.Response, bool, error) {
	switch name {
	case "update_admin":
		var msg updateAdminMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, true, err
		}
		next, err := core.ParseAddress("admin", msg.Admin)
		if err != nil {
			return nil, true, err
		}
		if err := Admin(ctx).UpdateAdmin(ctx.Sender, next); err != nil {
			return nil, true, err
		}
		ctx.Events.Emit(events.AdminUpdated{Contract: ctx.Namespace, Admin: next.String()})
		return types.NewResponse().
			AddAttribute("action", "update_admin").
			AddAttribute("admin", next.String()), true, nil
	case "update_role":
		var msg updateRoleMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, true, err
		}
		provider, err := core.ParseAddress("role_provider", msg.RoleProvider)
		if err != nil {
			return nil, true, err
		}
		if err := Admin(ctx).AssertAdmin(ctx.Sender); err != nil {
			return nil, true, err
		}
		if err := Roles(ctx).SetProvider(provider); err != nil {
			return nil, true, err
		}
		ctx.Events.Emit(events.RoleUpdated{Contract: ctx.Namespace, Role: "role_provider", Address: provider.String()})
		return types.NewResponse().
			AddAttribute("action", "update_role").
			AddAttribute("role_provider_addr", provider.String()), true, nil
	}
	return nil, false, nil
}

// Sudo handles update_params, restricted to the params owner.
func Sudo(ctx *core.Context, msg json.RawMessage) (*types.Response, error) {
	name, body, err := core.DecodeMessage(msg)
	if err != nil {
		return nil, err
	}
	if name != "update_params" {
		return nil, core.UnknownMessage(name)
	}
	var update updateParamsMsg
	if err := core.DecodeBody(body, &update); err != nil {
		return nil, err
	}
	var owner *crypto.Address
	if update.Owner != nil {
		addr, err := core.ParseAddress("owner", *update.Owner)
		if err != nil {
			return nil, err
		}
		owner = &addr
	}
	params, err := Admin(ctx).UpdateParams(ctx.Sender, update.Name, owner)
	if err != nil {
		return nil, err
	}
	ctx.Events.Emit(events.ParamsUpdated{Contract: ctx.Namespace, Name: params.Name, Owner: params.Owner.String()})
	return types.NewResponse().
		AddAttribute("action", "update_params").
		AddAttribute("name", params.Name).
		AddAttribute("owner", params.Owner.String()), nil
}

// QueryParams answers get_params.
func QueryParams(ctx *core.Context) (ParamsResponse, error) {
	params, err := Admin(ctx).Params()
	if err != nil {
		return ParamsResponse{}, err
	}
	return ParamsResponse{Name: params.Name, Owner: params.Owner.String()}, nil
}
