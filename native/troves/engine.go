package troves

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"ultrachain/core/events"
	"ultrachain/crypto"
	nativecommon "ultrachain/native/common"
	"ultrachain/native/roles"
)

var (
	ErrInvalidStatus        = errors.New("troves: invalid status")
	ErrInvalidOwner         = errors.New("troves: owner address required")
	ErrOwnerImmutable       = errors.New("troves: owner cannot change")
	ErrOwnerIndexOutOfRange = errors.New("troves: owner index out of range")
	ErrTroveOwnerExists     = errors.New("troves: owner already in array")
	ErrTroveNotFound        = errors.New("troves: trove not found")
	ErrTroveNotActive       = errors.New("troves: trove not active")
	ErrTroveClosed          = errors.New("troves: trove closed")
	ErrTroveHasDebt         = errors.New("troves: trove has outstanding debt")
	ErrNotLiquidatable      = errors.New("troves: trove not liquidatable")
	ErrInvalidAmount        = errors.New("troves: amount must be positive")
	ErrInvalidTransition    = errors.New("troves: invalid status transition")
	ErrPriceUnavailable     = errors.New("troves: price unavailable")
	errNilStore             = errors.New("troves: store not configured")
	errNilAuthorizer        = errors.New("troves: authorizer not configured")
	errNilSurplusSink       = errors.New("troves: surplus sink not configured")
)

const moduleName = "troves"

// PriceFeed supplies the latest collateral price scaled by 1e18.
type PriceFeed interface {
	LatestPrice() (*uint256.Int, error)
}

// SurplusSink receives collateral seized during liquidation. The liquidating
// caller's authority is forwarded with the credit.
type SurplusSink interface {
	AccountSurplus(caller, account crypto.Address, amount *uint256.Int) error
}

// Authorizer checks the caller against the role provider.
type Authorizer interface {
	AssertRole(caller crypto.Address, required ...roles.Role) error
}

// Engine applies lifecycle transitions to the trove store.
type Engine struct {
	store   *Store
	auth    Authorizer
	prices  PriceFeed
	surplus SurplusSink
	mcr     *uint256.Int
	gasComp *uint256.Int
	pauses  nativecommon.PauseView
	emitter events.Emitter
}

// NewEngine binds an engine to a store and an authorizer using default risk
// parameters.
func NewEngine(store *Store, auth Authorizer) *Engine {
	return &Engine{
		store:   store,
		auth:    auth,
		mcr:     nativecommon.Clone(DefaultMCR),
		gasComp: nativecommon.Clone(DefaultGasCompensation),
		emitter: events.NoopEmitter{},
	}
}

func (e *Engine) SetPriceFeed(feed PriceFeed) {
	if e == nil {
		return
	}
	e.prices = feed
}

func (e *Engine) SetSurplusSink(sink SurplusSink) {
	if e == nil {
		return
	}
	e.surplus = sink
}

// SetMCR overrides the minimum collateral ratio. Nil or zero keeps the current
// value.
func (e *Engine) SetMCR(mcr *uint256.Int) {
	if e == nil || mcr == nil || mcr.IsZero() {
		return
	}
	e.mcr = nativecommon.Clone(mcr)
}

// MCR returns the configured minimum collateral ratio.
func (e *Engine) MCR() *uint256.Int {
	if e == nil {
		return nativecommon.Clone(DefaultMCR)
	}
	return nativecommon.Clone(e.mcr)
}

func (e *Engine) SetGasCompensation(amount *uint256.Int) {
	if e == nil || amount == nil {
		return
	}
	e.gasComp = nativecommon.Clone(amount)
}

// GasCompensation returns the reserve added by CompositeDebt.
func (e *Engine) GasCompensation() *uint256.Int {
	if e == nil {
		return nativecommon.Clone(DefaultGasCompensation)
	}
	return nativecommon.Clone(e.gasComp)
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

func (e *Engine) authorize(caller crypto.Address, required ...roles.Role) error {
	if e == nil || e.store == nil {
		return errNilStore
	}
	if e.auth == nil {
		return errNilAuthorizer
	}
	if err := e.auth.AssertRole(caller, required...); err != nil {
		return err
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

// SetTroveStatus records a new lifecycle state for borrower, creating the
// record when it does not exist yet.
func (e *Engine) SetTroveStatus(caller, borrower crypto.Address, status Status) error {
	if err := e.authorize(caller, roles.BorrowerOperations, roles.TroveManager); err != nil {
		return err
	}
	if status > StatusClosed {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	var from Status
	_, err := e.store.Update(borrower, func(current *Trove) (Trove, error) {
		next := NewTrove(borrower)
		if current != nil {
			next = current.Clone()
		}
		from = next.Status
		if status == StatusNonExistent {
			return Trove{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}
		if from == StatusClosed && status != StatusClosed {
			return Trove{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}
		if from == StatusNonExistent && status == StatusClosed {
			return Trove{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}
		next.Status = status
		return next, nil
	})
	if err != nil {
		return err
	}
	e.emit(events.TroveStatusChanged{Borrower: borrower.String(), From: from.String(), To: status.String()})
	return nil
}

type adjustFunc func(Trove, *uint256.Int) (Trove, error)

func (e *Engine) adjust(caller, borrower crypto.Address, amount *uint256.Int, op string, increase bool, fn adjustFunc) (Trove, error) {
	if err := e.authorize(caller, roles.BorrowerOperations); err != nil {
		return Trove{}, err
	}
	if amount == nil || amount.IsZero() {
		return Trove{}, ErrInvalidAmount
	}
	updated, err := e.store.Update(borrower, func(current *Trove) (Trove, error) {
		if current == nil {
			if !increase {
				return Trove{}, ErrTroveNotFound
			}
			return fn(NewTrove(borrower), amount)
		}
		switch {
		case current.Status == StatusClosed && increase:
			return Trove{}, ErrTroveClosed
		case current.Status != StatusActive && !increase:
			return Trove{}, fmt.Errorf("%w: status %s", ErrTroveNotActive, current.Status)
		}
		return fn(*current, amount)
	})
	if err != nil {
		return Trove{}, err
	}
	e.emit(events.TroveUpdated{
		Borrower:  borrower.String(),
		Operation: op,
		Delta:     nativecommon.Clone(amount),
		Coll:      updated.Coll,
		Debt:      updated.Debt,
	})
	return updated, nil
}

// IncreaseTroveColl adds collateral and returns the new balance.
func (e *Engine) IncreaseTroveColl(caller, borrower crypto.Address, amount *uint256.Int) (*uint256.Int, error) {
	t, err := e.adjust(caller, borrower, amount, "increase_coll", true, IncreaseColl)
	if err != nil {
		return nil, err
	}
	return t.Coll, nil
}

// DecreaseTroveColl removes collateral and returns the new balance.
func (e *Engine) DecreaseTroveColl(caller, borrower crypto.Address, amount *uint256.Int) (*uint256.Int, error) {
	t, err := e.adjust(caller, borrower, amount, "decrease_coll", false, DecreaseColl)
	if err != nil {
		return nil, err
	}
	return t.Coll, nil
}

// IncreaseTroveDebt adds debt and returns the new balance.
func (e *Engine) IncreaseTroveDebt(caller, borrower crypto.Address, amount *uint256.Int) (*uint256.Int, error) {
	t, err := e.adjust(caller, borrower, amount, "increase_debt", true, IncreaseDebt)
	if err != nil {
		return nil, err
	}
	return t.Debt, nil
}

// DecreaseTroveDebt removes debt and returns the new balance.
func (e *Engine) DecreaseTroveDebt(caller, borrower crypto.Address, amount *uint256.Int) (*uint256.Int, error) {
	t, err := e.adjust(caller, borrower, amount, "decrease_debt", false, DecreaseDebt)
	if err != nil {
		return nil, err
	}
	return t.Debt, nil
}

// AddTroveOwnerToArray registers borrower in the owners array and records the
// index on its trove.
func (e *Engine) AddTroveOwnerToArray(caller, borrower crypto.Address) (uint64, error) {
	if err := e.authorize(caller, roles.BorrowerOperations); err != nil {
		return 0, err
	}
	if borrower.IsZero() {
		return 0, ErrInvalidOwner
	}
	index, err := e.store.appendOwner(borrower)
	if err != nil {
		return 0, err
	}
	if _, err := e.store.Update(borrower, func(current *Trove) (Trove, error) {
		next := NewTrove(borrower)
		if current != nil {
			next = current.Clone()
		}
		next.ArrayIndex = index
		return next, nil
	}); err != nil {
		return 0, err
	}
	e.emit(events.TroveOwnerIndexed{Borrower: borrower.String(), Index: index})
	return index, nil
}

// LiquidationResult describes a closed trove.
type LiquidationResult struct {
	Borrower crypto.Address
	Coll     *uint256.Int
	Debt     *uint256.Int
	Price    *uint256.Int
	ICR      *uint256.Int
}

// Liquidate closes borrower's trove when its ICR at the latest price is at or
// below the MCR and drops it from the owners array. The seized collateral is
// credited to the borrower in the surplus pool.
func (e *Engine) Liquidate(caller, borrower crypto.Address) (*LiquidationResult, error) {
	if err := e.authorize(caller, roles.TroveManager); err != nil {
		return nil, err
	}
	if e.prices == nil {
		return nil, ErrPriceUnavailable
	}
	if e.surplus == nil {
		return nil, errNilSurplusSink
	}
	trove, ok, err := e.store.Get(borrower)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTroveNotFound
	}
	if trove.Status != StatusActive {
		return nil, fmt.Errorf("%w: status %s", ErrTroveNotActive, trove.Status)
	}
	price, err := e.prices.LatestPrice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	if price == nil || price.IsZero() {
		return nil, ErrPriceUnavailable
	}
	icr, err := CurrentICR(trove.Coll, trove.Debt, price)
	if err != nil {
		return nil, err
	}
	if icr.Gt(e.mcr) {
		return nil, fmt.Errorf("%w: icr %s above mcr %s", ErrNotLiquidatable, icr.Dec(), e.mcr.Dec())
	}
	result := &LiquidationResult{
		Borrower: borrower,
		Coll:     nativecommon.Clone(trove.Coll),
		Debt:     nativecommon.Clone(trove.Debt),
		Price:    nativecommon.Clone(price),
		ICR:      icr,
	}
	closed := trove.Clone()
	closed.Status = StatusClosed
	closed.Coll = new(uint256.Int)
	closed.Debt = new(uint256.Int)
	closed.Stake = new(uint256.Int)
	if err := e.store.Set(borrower, closed); err != nil {
		return nil, err
	}
	if err := e.store.removeOwner(borrower); err != nil {
		return nil, err
	}
	if !result.Coll.IsZero() {
		if err := e.surplus.AccountSurplus(caller, borrower, result.Coll); err != nil {
			return nil, err
		}
	}
	e.emit(events.TroveStatusChanged{Borrower: borrower.String(), From: StatusActive.String(), To: StatusClosed.String()})
	e.emit(events.TroveLiquidated{
		Borrower:    borrower.String(),
		Coll:        result.Coll,
		Debt:        result.Debt,
		Price:       result.Price,
		ICR:         result.ICR,
		SurplusColl: result.Coll,
	})
	return result, nil
}

// CloseTrove marks an active, debt-free trove Closed and drops it from the
// owners array.
func (e *Engine) CloseTrove(caller, borrower crypto.Address) error {
	if err := e.authorize(caller, roles.TroveManager); err != nil {
		return err
	}
	_, err := e.store.Update(borrower, func(current *Trove) (Trove, error) {
		if current == nil {
			return Trove{}, ErrTroveNotFound
		}
		if current.Status != StatusActive {
			return Trove{}, fmt.Errorf("%w: status %s", ErrTroveNotActive, current.Status)
		}
		if !current.Debt.IsZero() {
			return Trove{}, ErrTroveHasDebt
		}
		next := current.Clone()
		next.Status = StatusClosed
		next.Coll = new(uint256.Int)
		next.Stake = new(uint256.Int)
		return next, nil
	})
	if err != nil {
		return err
	}
	if err := e.store.removeOwner(borrower); err != nil {
		return err
	}
	e.emit(events.TroveStatusChanged{Borrower: borrower.String(), From: StatusActive.String(), To: StatusClosed.String()})
	return nil
}

// DeleteTrove drops a Closed trove, or a record that never became Active, and
// any owners array entry left for it. The owner returns to NonExistent.
func (e *Engine) DeleteTrove(caller, borrower crypto.Address) error {
	if err := e.authorize(caller, roles.TroveManager); err != nil {
		return err
	}
	trove, ok, err := e.store.Get(borrower)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTroveNotFound
	}
	if trove.Status == StatusActive {
		return fmt.Errorf("%w: status %s", ErrInvalidTransition, trove.Status)
	}
	if err := e.store.removeOwner(borrower); err != nil {
		return err
	}
	if err := e.store.Delete(borrower); err != nil {
		return err
	}
	e.emit(events.TroveDeleted{Borrower: borrower.String()})
	return nil
}

func (e *Engine) load(borrower crypto.Address) (Trove, error) {
	if e == nil || e.store == nil {
		return Trove{}, errNilStore
	}
	trove, ok, err := e.store.Get(borrower)
	if err != nil {
		return Trove{}, err
	}
	if !ok {
		return NewTrove(borrower), nil
	}
	return trove, nil
}

// Trove returns the borrower's record, zero-valued when absent.
func (e *Engine) Trove(borrower crypto.Address) (Trove, error) {
	return e.load(borrower)
}

func (e *Engine) TroveStatus(borrower crypto.Address) (Status, error) {
	t, err := e.load(borrower)
	return t.Status, err
}

func (e *Engine) TroveColl(borrower crypto.Address) (*uint256.Int, error) {
	t, err := e.load(borrower)
	if err != nil {
		return nil, err
	}
	return t.Coll, nil
}

func (e *Engine) TroveDebt(borrower crypto.Address) (*uint256.Int, error) {
	t, err := e.load(borrower)
	if err != nil {
		return nil, err
	}
	return t.Debt, nil
}

func (e *Engine) TroveStake(borrower crypto.Address) (*uint256.Int, error) {
	t, err := e.load(borrower)
	if err != nil {
		return nil, err
	}
	return t.Stake, nil
}

// NominalICR returns the borrower's price-independent collateral ratio.
func (e *Engine) NominalICR(borrower crypto.Address) (*uint256.Int, error) {
	t, err := e.load(borrower)
	if err != nil {
		return nil, err
	}
	return NominalICR(t.Coll, t.Debt)
}

// CurrentICR returns the borrower's collateral ratio at price.
func (e *Engine) CurrentICR(borrower crypto.Address, price *uint256.Int) (*uint256.Int, error) {
	t, err := e.load(borrower)
	if err != nil {
		return nil, err
	}
	return CurrentICR(t.Coll, t.Debt, price)
}

// EntireDebtAndColl returns debt and collateral together. Pending rewards are
// not tracked, so both are the stored values.
func (e *Engine) EntireDebtAndColl(borrower crypto.Address) (debt, coll *uint256.Int, err error) {
	t, err := e.load(borrower)
	if err != nil {
		return nil, nil, err
	}
	return t.Debt, t.Coll, nil
}

// CompositeDebt adds the configured gas compensation to netDebt.
func (e *Engine) CompositeDebt(netDebt *uint256.Int) (*uint256.Int, error) {
	return CompositeDebt(netDebt, e.GasCompensation())
}

func (e *Engine) TroveOwnersCount() (uint64, error) {
	if e == nil || e.store == nil {
		return 0, errNilStore
	}
	return e.store.OwnersCount()
}

func (e *Engine) TroveFromOwnersArray(index uint64) (crypto.Address, error) {
	if e == nil || e.store == nil {
		return crypto.Address{}, errNilStore
	}
	return e.store.OwnerAt(index)
}
