package admin

import (
	"errors"
	"fmt"
	"strings"

	"ultrachain/crypto"
)

var (
	// ErrNotAdmin is returned when the caller is not the configured admin.
	ErrNotAdmin = errors.New("admin: caller is not admin")
	// ErrUnauthorizedOwner is returned when the caller is not the params owner.
	ErrUnauthorizedOwner = errors.New("admin: caller is not owner")
	// ErrParamsNotFound is returned when the contract was never initialised.
	ErrParamsNotFound = errors.New("admin: params not initialised")
	// ErrInvalidParams marks malformed params.
	ErrInvalidParams = errors.New("admin: invalid params")
)

type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Params is the contract-level configuration record.
type Params struct {
	Name  string
	Owner crypto.Address
}

type storedParams struct {
	Name  string
	Owner []byte
}

// Store keeps the admin address and the params record of one contract.
type Store struct {
	store     storage
	namespace string
}

// NewStore binds the admin store to a contract namespace.
func NewStore(store storage, namespace string) *Store {
	return &Store{store: store, namespace: namespace}
}

func (s *Store) adminKey() []byte  { return []byte(s.namespace + "/admin") }
func (s *Store) paramsKey() []byte { return []byte(s.namespace + "/params") }

// Admin returns the current admin, if one is set.
func (s *Store) Admin() (crypto.Address, bool, error) {
	var raw []byte
	ok, err := s.store.KVGet(s.adminKey(), &raw)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	addr, err := crypto.AddressFromBytes(crypto.UltraPrefix, raw)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}

// SetAdmin overwrites the admin unconditionally. A zero address clears it.
func (s *Store) SetAdmin(addr crypto.Address) error {
	if addr.IsZero() {
		return s.store.KVDelete(s.adminKey())
	}
	return s.store.KVPut(s.adminKey(), addr.Bytes())
}

// AssertAdmin fails unless caller is the configured admin.
func (s *Store) AssertAdmin(caller crypto.Address) error {
	current, ok, err := s.Admin()
	if err != nil {
		return err
	}
	if !ok || !current.Equal(caller) {
		return ErrNotAdmin
	}
	return nil
}

// UpdateAdmin lets the current admin hand over control.
func (s *Store) UpdateAdmin(caller, next crypto.Address) error {
	if err := s.AssertAdmin(caller); err != nil {
		return err
	}
	return s.SetAdmin(next)
}

// SetParams stores params, validating the record first.
func (s *Store) SetParams(p Params) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidParams)
	}
	if p.Owner.IsZero() {
		return fmt.Errorf("%w: owner required", ErrInvalidParams)
	}
	return s.store.KVPut(s.paramsKey(), &storedParams{Name: name, Owner: p.Owner.Bytes()})
}

// Params loads the params record.
func (s *Store) Params() (Params, error) {
	var stored storedParams
	ok, err := s.store.KVGet(s.paramsKey(), &stored)
	if err != nil {
		return Params{}, err
	}
	if !ok {
		return Params{}, ErrParamsNotFound
	}
	owner, err := crypto.AddressFromBytes(crypto.UltraPrefix, stored.Owner)
	if err != nil {
		return Params{}, err
	}
	return Params{Name: stored.Name, Owner: owner}, nil
}

// OnlyOwner fails unless caller is the params owner.
func (s *Store) OnlyOwner(caller crypto.Address) error {
	params, err := s.Params()
	if err != nil {
		return err
	}
	if !params.Owner.Equal(caller) {
		return ErrUnauthorizedOwner
	}
	return nil
}

// UpdateParams applies a partial update. Nil fields are left unchanged.
func (s *Store) UpdateParams(caller crypto.Address, name *string, owner *crypto.Address) (Params, error) {
	if err := s.OnlyOwner(caller); err != nil {
		return Params{}, err
	}
	params, err := s.Params()
	if err != nil {
		return Params{}, err
	}
	if name != nil {
		params.Name = *name
	}
	if owner != nil {
		params.Owner = *owner
	}
	if err := s.SetParams(params); err != nil {
		return Params{}, err
	}
	return s.Params()
}
