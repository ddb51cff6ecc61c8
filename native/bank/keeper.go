package bank

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"ultrachain/core/events"
	"ultrachain/core/types"
	"ultrachain/crypto"
)

var (
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrInvalidAmount     = errors.New("bank: amount must be positive")
	ErrInvalidDenom      = errors.New("bank: denom required")
)

type balances interface {
	Balance(addr []byte, denom string) (*big.Int, error)
	SetBalance(addr []byte, denom string, amount *big.Int) error
}

// Keeper moves native funds between accounts. Outbound contract messages are
// applied through Send once the emitting invocation has committed.
type Keeper struct {
	state   balances
	emitter events.Emitter
}

// NewKeeper binds a keeper to the balance store.
func NewKeeper(state balances) *Keeper {
	return &Keeper{state: state, emitter: events.NoopEmitter{}}
}

func (k *Keeper) SetEmitter(emitter events.Emitter) {
	if k == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	k.emitter = emitter
}

func normalizeDenom(denom string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(denom))
	if normalized == "" {
		return "", ErrInvalidDenom
	}
	return normalized, nil
}

// Balance returns addr's holdings of denom.
func (k *Keeper) Balance(addr crypto.Address, denom string) (*big.Int, error) {
	if k == nil || k.state == nil {
		return nil, fmt.Errorf("bank: state not configured")
	}
	normalized, err := normalizeDenom(denom)
	if err != nil {
		return nil, err
	}
	return k.state.Balance(addr.Bytes(), normalized)
}

// Mint credits freshly issued funds, used for genesis allocations.
func (k *Keeper) Mint(addr crypto.Address, denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	current, err := k.Balance(addr, denom)
	if err != nil {
		return err
	}
	normalized, _ := normalizeDenom(denom)
	return k.state.SetBalance(addr.Bytes(), normalized, new(big.Int).Add(current, amount))
}

// Send applies a BankSend message.
func (k *Keeper) Send(msg types.BankSend) error {
	if msg.Amount == nil || msg.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	from, err := crypto.DecodeAddress(msg.From)
	if err != nil {
		return fmt.Errorf("bank: sender: %w", err)
	}
	to, err := crypto.DecodeAddress(msg.To)
	if err != nil {
		return fmt.Errorf("bank: recipient: %w", err)
	}
	denom, err := normalizeDenom(msg.Denom)
	if err != nil {
		return err
	}
	fromBalance, err := k.Balance(from, denom)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(msg.Amount) < 0 {
		return fmt.Errorf("%w: %s holds %s%s, needs %s", ErrInsufficientFunds, msg.From, fromBalance, denom, msg.Amount)
	}
	toBalance, err := k.Balance(to, denom)
	if err != nil {
		return err
	}
	if from.Equal(to) {
		return nil
	}
	if err := k.state.SetBalance(from.Bytes(), denom, new(big.Int).Sub(fromBalance, msg.Amount)); err != nil {
		return err
	}
	if err := k.state.SetBalance(to.Bytes(), denom, new(big.Int).Add(toBalance, msg.Amount)); err != nil {
		return err
	}
	k.emitter.Emit(events.BankTransfer{From: msg.From, To: msg.To, Denom: denom, Amount: new(big.Int).Set(msg.Amount)})
	return nil
}
