package events

import (
	"strconv"

	"github.com/holiman/uint256"

	"ultrachain/core/types"
)

const (
	TypeTroveUpdated       = "troves.updated"
	TypeTroveStatusChanged = "troves.status_changed"
	TypeTroveOwnerIndexed  = "troves.owner_indexed"
	TypeTroveLiquidated    = "troves.liquidated"
	TypeTroveDeleted       = "troves.deleted"
)

// TroveUpdated is emitted after any collateral or debt mutation.
type TroveUpdated struct {
	Borrower  string
	Operation string
	Delta     *uint256.Int
	Coll      *uint256.Int
	Debt      *uint256.Int
}

func (TroveUpdated) EventType() string { return TypeTroveUpdated }

func (e TroveUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeTroveUpdated,
		Attributes: map[string]string{
			"borrower":  e.Borrower,
			"operation": e.Operation,
			"delta":     formatUint(e.Delta),
			"coll":      formatUint(e.Coll),
			"debt":      formatUint(e.Debt),
		},
	}
}

type TroveStatusChanged struct {
	Borrower string
	From     string
	To       string
}

func (TroveStatusChanged) EventType() string { return TypeTroveStatusChanged }

func (e TroveStatusChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeTroveStatusChanged,
		Attributes: map[string]string{
			"borrower": e.Borrower,
			"from":     e.From,
			"to":       e.To,
		},
	}
}

type TroveOwnerIndexed struct {
	Borrower string
	Index    uint64
}

func (TroveOwnerIndexed) EventType() string { return TypeTroveOwnerIndexed }

func (e TroveOwnerIndexed) Event() *types.Event {
	return &types.Event{
		Type: TypeTroveOwnerIndexed,
		Attributes: map[string]string{
			"borrower": e.Borrower,
			"index":    strconv.FormatUint(e.Index, 10),
		},
	}
}

// TroveLiquidated records a single-trove liquidation.
type TroveLiquidated struct {
	Borrower    string
	Coll        *uint256.Int
	Debt        *uint256.Int
	Price       *uint256.Int
	ICR         *uint256.Int
	SurplusColl *uint256.Int
}

func (TroveLiquidated) EventType() string { return TypeTroveLiquidated }

func (e TroveLiquidated) Event() *types.Event {
	return &types.Event{
		Type: TypeTroveLiquidated,
		Attributes: map[string]string{
			"borrower":    e.Borrower,
			"coll":        formatUint(e.Coll),
			"debt":        formatUint(e.Debt),
			"price":       formatUint(e.Price),
			"icr":         formatUint(e.ICR),
			"surplusColl": formatUint(e.SurplusColl),
		},
	}
}

type TroveDeleted struct {
	Borrower string
}

func (TroveDeleted) EventType() string { return TypeTroveDeleted }

func (e TroveDeleted) Event() *types.Event {
	return &types.Event{
		Type:       TypeTroveDeleted,
		Attributes: map[string]string{"borrower": e.Borrower},
	}
}
