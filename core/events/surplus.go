package events

import (
	"math/big"

	"github.com/holiman/uint256"

	"ultrachain/core/types"
)

const (
	TypeSurplusAccounted = "surplus.accounted"
	TypeSurplusClaimed   = "surplus.claimed"
	TypeBankTransfer     = "bank.transfer"
)

type SurplusAccounted struct {
	Account string
	Amount  *uint256.Int
	Balance *uint256.Int
	Total   *uint256.Int
}

func (SurplusAccounted) EventType() string { return TypeSurplusAccounted }

func (e SurplusAccounted) Event() *types.Event {
	return &types.Event{
		Type: TypeSurplusAccounted,
		Attributes: map[string]string{
			"account": e.Account,
			"amount":  formatUint(e.Amount),
			"balance": formatUint(e.Balance),
			"total":   formatUint(e.Total),
		},
	}
}

type SurplusClaimed struct {
	Account string
	Denom   string
	Amount  *uint256.Int
	Total   *uint256.Int
}

func (SurplusClaimed) EventType() string { return TypeSurplusClaimed }

func (e SurplusClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeSurplusClaimed,
		Attributes: map[string]string{
			"account": e.Account,
			"denom":   normalizeDenom(e.Denom),
			"amount":  formatUint(e.Amount),
			"total":   formatUint(e.Total),
		},
	}
}

// BankTransfer is emitted by the host when an outbound BankSend is applied.
type BankTransfer struct {
	From   string
	To     string
	Denom  string
	Amount *big.Int
}

func (BankTransfer) EventType() string { return TypeBankTransfer }

func (e BankTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeBankTransfer,
		Attributes: map[string]string{
			"from":   e.From,
			"to":     e.To,
			"denom":  normalizeDenom(e.Denom),
			"amount": formatAmount(e.Amount),
		},
	}
}
