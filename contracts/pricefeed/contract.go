// Package pricefeed publishes the collateral price used for liquidations.
package pricefeed

import (
	"encoding/json"
	"time"

	"github.com/holiman/uint256"

	"ultrachain/contracts/base"
	"ultrachain/core"
	"ultrachain/core/types"
	"ultrachain/native/pricing"
)

type setPriceMsg struct {
	Price string `json:"price"`
}

// Contract implements core.Contract and core.PriceSource.
type Contract struct {
	maxAge time.Duration
}

// New returns a feed rejecting quotes older than maxAge. Zero disables the
// check.
func New(maxAge time.Duration) *Contract {
	return &Contract{maxAge: maxAge}
}

func (c *Contract) feed(ctx *core.Context) *pricing.Feed {
	feed := pricing.NewFeed(ctx.State, ctx.Namespace, base.Roles(ctx), c.maxAge)
	now := ctx.Time
	feed.SetClock(func() time.Time { return now })
	return feed
}

// LatestPrice returns the fresh price scaled by 1e18.
func (c *Contract) LatestPrice(ctx *core.Context) (*uint256.Int, error) {
	return c.feed(ctx).LatestPrice()
}

func (c *Contract) Instantiate(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	var msg base.InstantiateMsg
	if err := core.DecodeBody(raw, &msg); err != nil {
		return nil, err
	}
	return base.Instantiate(ctx, msg)
}

func (c *Contract) Execute(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	name, body, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	if resp, handled, err := base.HandleAdminMessage(ctx, name, body); handled {
		return resp, err
	}
	if name != "set_price" {
		return nil, core.UnknownMessage(name)
	}
	var msg setPriceMsg
	if err := core.DecodeBody(body, &msg); err != nil {
		return nil, err
	}
	price, err := core.ParseAmount("price", msg.Price)
	if err != nil {
		return nil, err
	}
	if err := c.feed(ctx).SetPrice(ctx.Sender, price); err != nil {
		return nil, err
	}
	return types.NewResponse().
		AddAttribute("action", "set_price").
		AddAttribute("price", price.Dec()), nil
}

func (c *Contract) Sudo(ctx *core.Context, raw json.RawMessage) (*types.Response, error) {
	return base.Sudo(ctx, raw)
}

func (c *Contract) Query(ctx *core.Context, raw json.RawMessage) (interface{}, error) {
	name, _, err := core.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	switch name {
	case "get_params":
		return base.QueryParams(ctx)
	case "get_price":
		quote, err := c.feed(ctx).Quote()
		if err != nil {
			return nil, err
		}
		return struct {
			Price      string              `json:"price"`
			UpdatedAt  time.Time           `json:"updated_at"`
			AgeSeconds uint32              `json:"age_seconds"`
			Status     pricing.PriceStatus `json:"status"`
		}{quote.Price.Dec(), quote.UpdatedAt, quote.AgeSeconds, quote.Status}, nil
	}
	return nil, core.UnknownMessage(name)
}
