package trovemanager

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"ultrachain/contracts/base"
	"ultrachain/core"
	coreerrors "ultrachain/core/errors"
)

func (c *Contract) Query(ctx *core.Context, raw json.RawMessage) (interface{}, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	engine, err := c.engine(ctx)
	if err != nil {
		return nil, err
	}
	switch name {
	case "get_params":
		return base.QueryParams(ctx)
	case "get_dependencies":
		return queryDependencies(ctx)
	case "get_trove":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		t, err := engine.Trove(borrower)
		if err != nil {
			return nil, err
		}
		return TroveResponse{
			Owner:      t.Owner.String(),
			Coll:       t.Coll.Dec(),
			Debt:       t.Debt.Dec(),
			Stake:      t.Stake.Dec(),
			Status:     t.Status,
			ArrayIndex: t.ArrayIndex,
		}, nil
	case "get_trove_status":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		return engine.TroveStatus(borrower)
	case "get_trove_coll", "get_trove_debt", "get_trove_stake", "get_nominal_icr":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		var value *uint256.Int
		switch name {
		case "get_trove_coll":
			value, err = engine.TroveColl(borrower)
		case "get_trove_debt":
			value, err = engine.TroveDebt(borrower)
		case "get_trove_stake":
			value, err = engine.TroveStake(borrower)
		default:
			value, err = engine.NominalICR(borrower)
		}
		if err != nil {
			return nil, err
		}
		return value.Dec(), nil
	case "get_current_icr":
		var q currentICRQuery
		if err := core.DecodeBody(body, &q); err != nil {
			return nil, err
		}
		borrower, err := core.ParseAddress("borrower", q.Borrower)
		if err != nil {
			return nil, err
		}
		price, err := core.ParseAmount("price", q.Price)
		if err != nil {
			return nil, err
		}
		icr, err := engine.CurrentICR(borrower, price)
		if err != nil {
			return nil, err
		}
		return icr.Dec(), nil
	case "get_entire_debt_and_coll":
		borrower, err := decodeBorrower(body)
		if err != nil {
			return nil, err
		}
		debt, coll, err := engine.EntireDebtAndColl(borrower)
		if err != nil {
			return nil, err
		}
		return EntireDebtAndCollResponse{Debt: debt.Dec(), Coll: coll.Dec()}, nil
	case "get_composite_debt":
		var q compositeDebtQuery
		if err := core.DecodeBody(body, &q); err != nil {
			return nil, err
		}
		net, err := core.ParseAmount("net_debt", q.NetDebt)
		if err != nil {
			return nil, err
		}
		composite, err := engine.CompositeDebt(net)
		if err != nil {
			return nil, err
		}
		return composite.Dec(), nil
	case "get_trove_owners_count":
		count, err := engine.TroveOwnersCount()
		if err != nil {
			return nil, err
		}
		return strconv.FormatUint(count, 10), nil
	case "get_trove_from_trove_owners_array":
		var q ownerIndexQuery
		if err := core.DecodeBody(body, &q); err != nil {
			return nil, err
		}
		index, err := strconv.ParseUint(q.Index, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: index: %v", coreerrors.ErrInvalidMessage, err)
		}
		owner, err := engine.TroveFromOwnersArray(index)
		if err != nil {
			return nil, err
		}
		return owner.String(), nil
	}
	return nil, core.UnknownMessage(name)
}

func queryDependencies(ctx *core.Context) (DependenciesResponse, error) {
	var resp DependenciesResponse
	if pool, ok, err := loadDependency(ctx, "coll_surplus_pool"); err != nil {
		return resp, err
	} else if ok {
		resp.CollSurplusPool = pool.String()
	}
	if feed, ok, err := loadDependency(ctx, "price_feed"); err != nil {
		return resp, err
	} else if ok {
		resp.PriceFeed = feed.String()
	}
	provider, ok, err := base.Roles(ctx).Provider()
	if err != nil {
		return resp, err
	}
	if ok {
		resp.RoleProvider = provider.String()
	}
	return resp, nil
}
