// Package collsurplus is the contract holding collateral owed to borrowers
// whose troves were liquidated.
package collsurplus

import (
	"encoding/json"

	"github.com/holiman/uint256"

	"ultrachain/contracts/base"
	"ultrachain/core"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/native/surplus"
)

type accountSurplusMsg struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type claimCollMsg struct {
	Account string `json:"account"`
}

type collateralQuery struct {
	Account string `json:"account"`
}

// Contract implements core.Contract, core.Sudoer and core.SurplusAccountant.
type Contract struct {
	denom string
}

// New returns the contract paying claims in denom.
func New(denom string) *Contract {
	if denom == "" {
		denom = surplus.DefaultDenom
	}
	return &Contract{denom: denom}
}

func (c *Contract) ledger(ctx *core.Context) *surplus.Ledger {
	ledger := surplus.NewLedger(ctx.State, ctx.Namespace, base.Roles(ctx), ctx.Self)
	ledger.SetDenom(c.denom)
	ledger.SetPauses(ctx.Pauses)
	ledger.SetEmitter(ctx.Events)
	return ledger
}

func (c *Contract) Instantiate(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	var msg base.InstantiateMsg
	if err := core.DecodeBody(raw, &msg); err != nil {
		return nil, err
	}
	return base.Instantiate(ctx, msg)
}

// AccountSurplus credits account on behalf of ctx.Sender.
func (c *Contract) AccountSurplus(ctx *core.Context, account crypto.Address, amount *uint256.Int) error {
	return c.ledger(ctx).AccountSurplus(ctx.Sender, account, amount)
}

func (c *Contract) Execute(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	if resp, handled, err := base.HandleAdminMessage(ctx, name, body); handled {
		return resp, err
	}
	switch name {
	case "account_surplus":
		var msg accountSurplusMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		account, err := core.ParseAddress("account", msg.Account)
		if err != nil {
			return nil, err
		}
		amount, err := core.ParseAmount("amount", msg.Amount)
		if err != nil {
			return nil, err
		}
		if err := c.AccountSurplus(ctx, account, amount); err != nil {
			return nil, err
		}
		return types.NewResponse().
			AddAttribute("action", "account_surplus").
			AddAttribute("account", account.String()).
			AddAttribute("amount", amount.Dec()), nil
	case "claim_coll":
		var msg claimCollMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		account, err := core.ParseAddress("account", msg.Account)
		if err != nil {
			return nil, err
		}
		send, err := c.ledger(ctx).ClaimColl(ctx.Sender, account)
		if err != nil {
			return nil, err
		}
		return types.NewResponse().
			AddMessage(send).
			AddAttribute("action", "claim_coll").
			AddAttribute("account", account.String()).
			AddAttribute("amount", send.Amount.String()), nil
	}
	return nil, core.UnknownMessage(name)
}

func (c *Contract) Sudo(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	return base.Sudo(ctx, raw)
}

func (c *Contract) Query(ctx *core.Context, raw json.RawMessage) (interface{}, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	switch name {
	case "get_params":
		return base.QueryParams(ctx)
	case "get_juno":
		total, err := c.ledger(ctx).TotalColl()
		if err != nil {
			return nil, err
		}
		return total.Dec(), nil
	case "get_collateral":
		var q collateralQuery
		if err := core.DecodeBody(body, &q); err != nil {
			return nil, err
		}
		account, err := core.ParseAddress("account", q.Account)
		if err != nil {
			return nil, err
		}
		amount, err := c.ledger(ctx).Collateral(account)
		if err != nil {
			return nil, err
		}
		return amount.Dec(), nil
	}
	return nil, core.UnknownMessage(name)
}
