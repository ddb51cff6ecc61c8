// Package trovemanager is the contract owning every trove record. Borrower
// operations adjust troves through it and the trove manager role liquidates
// them.
package trovemanager

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"ultrachain/contracts/base"
	"ultrachain/core"
	"ultrachain/core/types"
	"ultrachain/crypto"
	nativecommon "ultrachain/native/common"
	"ultrachain/native/troves"
)

// Contract implements core.Contract and core.Sudoer.
type Contract struct {
	mcr     *uint256.Int
	gasComp *uint256.Int
}

// New returns a trove manager using the given risk parameters. Nil values
// select the protocol defaults.
func New(mcr, gasCompensation *uint256.Int) *Contract {
	c := &Contract{mcr: nativecommon.Clone(troves.DefaultMCR), gasComp: nativecommon.Clone(troves.DefaultGasCompensation)}
	if mcr != nil && !mcr.IsZero() {
		c.mcr = nativecommon.Clone(mcr)
	}
	if gasCompensation != nil {
		c.gasComp = nativecommon.Clone(gasCompensation)
	}
	return c
}

func dependencyKey(ctx *core.Context, name string) []byte {
	return []byte(fmt.Sprintf("%s/deps/%s", ctx.Namespace, name))
}

func loadDependency(ctx *core.Context, name string) (crypto.Address, bool, error) {
	var raw []byte
	ok, err := ctx.State.KVGet(dependencyKey(ctx, name), &raw)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	addr, err := crypto.AddressFromBytes(crypto.UltraPrefix, raw)
	return addr, err == nil, err
}

func storeDependency(ctx *core.Context, name, value string) (crypto.Address, error) {
	addr, err := core.ParseAddress(name, value)
	if err != nil {
		return crypto.Address{}, err
	}
	return addr, ctx.State.KVPut(dependencyKey(ctx, name), addr.Bytes())
}

// surplusBridge forwards liquidation credits to the surplus pool contract.
type surplusBridge struct {
	ctx  *core.Context
	pool crypto.Address
}

func (b surplusBridge) AccountSurplus(caller, account crypto.Address, amount *uint256.Int) error {
	contract, sub, err := b.ctx.Call(b.pool)
	if err != nil {
		return err
	}
	accountant, ok := contract.(core.SurplusAccountant)
	if !ok {
		return fmt.Errorf("trovemanager: %s does not accept surplus", b.pool)
	}
	sub.Sender = caller
	return accountant.AccountSurplus(sub, account, amount)
}

// priceBridge reads the latest price from the price feed contract.
type priceBridge struct {
	ctx  *core.Context
	feed crypto.Address
}

func (b priceBridge) LatestPrice() (*uint256.Int, error) {
	contract, sub, err := b.ctx.Call(b.feed)
	if err != nil {
		return nil, err
	}
	source, ok := contract.(core.PriceSource)
	if !ok {
		return nil, fmt.Errorf("trovemanager: %s does not publish prices", b.feed)
	}
	return source.LatestPrice(sub)
}

func (c *Contract) engine(ctx *core.Context) (*troves.Engine, error) {
	engine := troves.NewEngine(troves.NewStore(ctx.State, ctx.Namespace), base.Roles(ctx))
	engine.SetMCR(c.mcr)
	engine.SetGasCompensation(c.gasComp)
	engine.SetPauses(ctx.Pauses)
	engine.SetEmitter(ctx.Events)
	if pool, ok, err := loadDependency(ctx, "coll_surplus_pool"); err != nil {
		return nil, err
	} else if ok {
		engine.SetSurplusSink(surplusBridge{ctx: ctx, pool: pool})
	}
	if feed, ok, err := loadDependency(ctx, "price_feed"); err != nil {
		return nil, err
	} else if ok {
		engine.SetPriceFeed(priceBridge{ctx: ctx, feed: feed})
	}
	return engine, nil
}

func (c *Contract) Instantiate(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	var msg InstantiateMsg
	if err := core.DecodeBody(raw, &msg); err != nil {
		return nil, err
	}
	resp, err := base.Instantiate(ctx, base.InstantiateMsg{Name: msg.Name, Owner: msg.Owner, RoleProvider: msg.RoleProvider})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.CollSurplusPool) != "" {
		if _, err := storeDependency(ctx, "coll_surplus_pool", msg.CollSurplusPool); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(msg.PriceFeed) != "" {
		if _, err := storeDependency(ctx, "price_feed", msg.PriceFeed); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *Contract) Sudo(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	return base.Sudo(ctx, raw)
}

func (c *Contract) Execute(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	if resp, handled, err := base.HandleAdminMessage(ctx, name, body); handled {
		return resp, err
	}
	if name == "update_dependencies" {
		return c.updateDependencies(ctx, body)
	}
	engine, err := c.engine(ctx)
	if err != nil {
		return nil, err
	}
	switch name {
	case "add_trove_owner_to_array":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		index, err := engine.AddTroveOwnerToArray(ctx.Sender, borrower)
		if err != nil {
			return nil, err
		}
		return types.NewResponse().
			AddAttribute("action", name).
			AddAttribute("borrower", borrower.String()).
			AddAttribute("index", strconv.FormatUint(index, 10)), nil
	case "set_trove_status":
		var msg setTroveStatusMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		borrower, err := core.ParseAddress("borrower", msg.Borrower)
		if err != nil {
			return nil, err
		}
		if err := engine.SetTroveStatus(ctx.Sender, borrower, msg.Status); err != nil {
			return nil, err
		}
		return types.NewResponse().
			AddAttribute("action", name).
			AddAttribute("borrower", borrower.String()).
			AddAttribute("status", msg.Status.String()), nil
	case "increase_trove_coll":
		var msg collIncreaseMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		return adjust(ctx, name, msg.Borrower, "coll_increase", msg.CollIncrease, "coll", engine.IncreaseTroveColl)
	case "decrease_trove_coll":
		var msg collDecreaseMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		return adjust(ctx, name, msg.Borrower, "coll_decrease", msg.CollDecrease, "coll", engine.DecreaseTroveColl)
	case "increase_trove_debt":
		var msg debtIncreaseMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		return adjust(ctx, name, msg.Borrower, "debt_increase", msg.DebtIncrease, "debt", engine.IncreaseTroveDebt)
	case "decrease_trove_debt":
		var msg debtDecreaseMsg
		if err := core.DecodeBody(body, &msg); err != nil {
			return nil, err
		}
		return adjust(ctx, name, msg.Borrower, "debt_decrease", msg.DebtDecrease, "debt", engine.DecreaseTroveDebt)
	case "liquidate":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		result, err := engine.Liquidate(ctx.Sender, borrower)
		if err != nil {
			return nil, err
		}
		return types.NewResponse().
			AddAttribute("action", name).
			AddAttribute("borrower", borrower.String()).
			AddAttribute("coll", result.Coll.Dec()).
			AddAttribute("debt", result.Debt.Dec()).
			AddAttribute("price", result.Price.Dec()).
			AddAttribute("icr", result.ICR.Dec()), nil
	case "close_trove":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		if err := engine.CloseTrove(ctx.Sender, borrower); err != nil {
			return nil, err
		}
		return types.NewResponse().AddAttribute("action", name).AddAttribute("borrower", borrower.String()), nil
	case "delete_trove":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		if err := engine.DeleteTrove(ctx.Sender, borrower); err != nil {
			return nil, err
		}
		return types.NewResponse().AddAttribute("action", name).AddAttribute("borrower", borrower.String()), nil
	}
	return nil, core.UnknownMessage(name)
}

type adjustOp func(caller, borrower crypto.Address, amount *uint256.Int) (*uint256.Int, error)

func adjust(ctx *core.Context, action, rawBorrower, amountField, rawAmount, resultField string, op adjustOp) (*types.Response, error) {
	borrower, err := core.ParseAddress("borrower", rawBorrower)
	if err != nil {
		return nil, err
	}
	amount, err := core.ParseAmount(amountField, rawAmount)
	if err != nil {
		return nil, err
	}
	updated, err := op(ctx.Sender, borrower, amount)
	if err != nil {
		return nil, err
	}
	return types.NewResponse().
		AddAttribute("action", action).
		AddAttribute("borrower", borrower.String()).
		AddAttribute(amountField, amount.Dec()).
		AddAttribute(resultField, updated.Dec()), nil
}

func decodeBorrower(body json.RawMessage) (crypto.Address, error) {
	var msg borrowerMsg
	if err := core.DecodeBody(body, &msg); err != nil {
		return crypto.Address{}, err
	}
	return core.ParseAddress("borrower", msg.Borrower)
}

func (c *Contract) updateDependencies(ctx *core.Context, body json.RawMessage) (*types.Response, error) {
	var msg updateDependenciesMsg
	if err := core.DecodeBody(body, &msg); err != nil {
		return nil, err
	}
	if err := base.Admin(ctx).AssertAdmin(ctx.Sender); err != nil {
		return nil, err
	}
	resp := types.NewResponse().AddAttribute("action", "update_dependencies")
	if msg.CollSurplusPool != nil {
		addr, err := storeDependency(ctx, "coll_surplus_pool", *msg.CollSurplusPool)
		if err != nil {
			return nil, err
		}
		resp.AddAttribute("coll_surplus_pool", addr.String())
	}
	if msg.PriceFeed != nil {
		addr, err := storeDependency(ctx, "price_feed", *msg.PriceFeed)
		if err != nil {
			return nil, err
		}
		resp.AddAttribute("price_feed", addr.String())
	}
	return resp, nil
}
