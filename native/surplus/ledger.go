package surplus

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"ultrachain/core/events"
	"ultrachain/core/types"
	"ultrachain/crypto"
	nativecommon "ultrachain/native/common"
	"ultrachain/native/roles"
)

var (
	// ErrNoCollAvailable is returned when an account has nothing to claim.
	ErrNoCollAvailable = errors.New("surplus: no collateral available to claim")
	// ErrPoolInvariant signals that account balances exceed the pool total.
	// It indicates corrupted state and is never expected in practice.
	ErrPoolInvariant  = errors.New("surplus: pool total below account balance")
	ErrInvalidAmount  = errors.New("surplus: amount must be positive")
	ErrInvalidAccount = errors.New("surplus: account address required")
	errNilStore       = errors.New("surplus: store not configured")
	errNilAuthorizer  = errors.New("surplus: authorizer not configured")
)

const moduleName = "surplus"

// DefaultDenom is the native collateral denomination paid out on claims.
const DefaultDenom = "ujuno"

type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Authorizer checks the caller against the role provider.
type Authorizer interface {
	AssertRole(caller crypto.Address, required ...roles.Role) error
}

// Ledger tracks collateral owed to borrowers whose troves were liquidated and
// the pool total backing it.
type Ledger struct {
	store     storage
	namespace string
	auth      Authorizer
	self      crypto.Address
	denom     string
	pauses    nativecommon.PauseView
	emitter   events.Emitter
}

// NewLedger binds the ledger to a state namespace. self is the pool address
// funds are sent from.
func NewLedger(store storage, namespace string, auth Authorizer, self crypto.Address) *Ledger {
	return &Ledger{
		store:     store,
		namespace: namespace,
		auth:      auth,
		self:      self,
		denom:     DefaultDenom,
		emitter:   events.NoopEmitter{},
	}
}

// SetDenom overrides the payout denomination.
func (l *Ledger) SetDenom(denom string) {
	if l == nil || denom == "" {
		return
	}
	l.denom = denom
}

func (l *Ledger) Denom() string {
	if l == nil {
		return DefaultDenom
	}
	return l.denom
}

func (l *Ledger) SetPauses(p nativecommon.PauseView) {
	if l == nil {
		return
	}
	l.pauses = p
}

func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if l == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

func (l *Ledger) accountKey(account crypto.Address) []byte {
	return []byte(fmt.Sprintf("%s/balances/%x", l.namespace, account.Bytes()))
}

func (l *Ledger) totalKey() []byte {
	return []byte(l.namespace + "/total_coll")
}

func (l *Ledger) loadAmount(key []byte) (*uint256.Int, error) {
	var stored big.Int
	ok, err := l.store.KVGet(key, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	value, overflow := uint256.FromBig(&stored)
	if overflow {
		return nil, fmt.Errorf("surplus: stored amount %s out of range", stored.String())
	}
	return value, nil
}

func (l *Ledger) storeAmount(key []byte, amount *uint256.Int) error {
	if amount.IsZero() {
		return l.store.KVDelete(key)
	}
	return l.store.KVPut(key, amount.ToBig())
}

func (l *Ledger) authorize(caller crypto.Address, required roles.Role) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	if l.auth == nil {
		return errNilAuthorizer
	}
	if err := l.auth.AssertRole(caller, required); err != nil {
		return err
	}
	return nativecommon.Guard(l.pauses, moduleName)
}

// AccountSurplus credits amount to account and grows the pool total by the
// same amount.
func (l *Ledger) AccountSurplus(caller, account crypto.Address, amount *uint256.Int) error {
	if err := l.authorize(caller, roles.TroveManager); err != nil {
		return err
	}
	if account.IsZero() {
		return ErrInvalidAccount
	}
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	balance, err := l.loadAmount(l.accountKey(account))
	if err != nil {
		return err
	}
	total, err := l.loadAmount(l.totalKey())
	if err != nil {
		return err
	}
	nextBalance, err := nativecommon.CheckedAdd(balance, amount)
	if err != nil {
		return err
	}
	nextTotal, err := nativecommon.CheckedAdd(total, amount)
	if err != nil {
		return err
	}
	if err := l.storeAmount(l.accountKey(account), nextBalance); err != nil {
		return err
	}
	if err := l.storeAmount(l.totalKey(), nextTotal); err != nil {
		return err
	}
	l.emitter.Emit(events.SurplusAccounted{
		Account: account.String(),
		Amount:  nativecommon.Clone(amount),
		Balance: nextBalance,
		Total:   nextTotal,
	})
	return nil
}

// ClaimColl zeroes the account's surplus, debits the pool total and returns the
// bank transfer paying it out. State is persisted before the transfer is
// built; delivering it is up to the caller.
func (l *Ledger) ClaimColl(caller, account crypto.Address) (types.BankSend, error) {
	if err := l.authorize(caller, roles.BorrowerOperations); err != nil {
		return types.BankSend{}, err
	}
	if account.IsZero() {
		return types.BankSend{}, ErrInvalidAccount
	}
	claimable, err := l.loadAmount(l.accountKey(account))
	if err != nil {
		return types.BankSend{}, err
	}
	if claimable.IsZero() {
		return types.BankSend{}, ErrNoCollAvailable
	}
	total, err := l.loadAmount(l.totalKey())
	if err != nil {
		return types.BankSend{}, err
	}
	nextTotal, err := nativecommon.CheckedSub(total, claimable)
	if err != nil {
		return types.BankSend{}, fmt.Errorf("%w: total %s claim %s", ErrPoolInvariant, total.Dec(), claimable.Dec())
	}
	if err := l.storeAmount(l.accountKey(account), new(uint256.Int)); err != nil {
		return types.BankSend{}, err
	}
	if err := l.storeAmount(l.totalKey(), nextTotal); err != nil {
		return types.BankSend{}, err
	}
	msg := types.BankSend{
		From:   l.self.String(),
		To:     account.String(),
		Denom:  l.denom,
		Amount: claimable.ToBig(),
	}
	l.emitter.Emit(events.SurplusClaimed{
		Account: account.String(),
		Denom:   l.denom,
		Amount:  claimable,
		Total:   nextTotal,
	})
	return msg, nil
}

// Collateral returns the account's claimable surplus, zero when unknown.
func (l *Ledger) Collateral(account crypto.Address) (*uint256.Int, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	return l.loadAmount(l.accountKey(account))
}

// TotalColl returns the collateral held by the pool.
func (l *Ledger) TotalColl() (*uint256.Int, error) {
	if l == nil || l.store == nil {
		return nil, errNilStore
	}
	return l.loadAmount(l.totalKey())
}
