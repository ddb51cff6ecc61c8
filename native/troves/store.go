package troves

import (
	"encoding/hex"
	"fmt"

	"ultrachain/crypto"
)

type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemove(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Store is the owner-keyed trove table. Next to the primary records it keeps
// a multi-index from the owner address to the primary keys that carry it; the
// two are only ever mutated together through Set and Delete.
type Store struct {
	kv        storage
	namespace string
}

// NewStore binds the trove table to a state namespace.
func NewStore(kv storage, namespace string) *Store {
	return &Store{kv: kv, namespace: namespace}
}

func (s *Store) primaryKey(pk string) []byte {
	return []byte(fmt.Sprintf("%s/troves/%s", s.namespace, pk))
}

func (s *Store) ownerIndexKey(owner crypto.Address) []byte {
	return []byte(fmt.Sprintf("%s/troves__owner/%s", s.namespace, hex.EncodeToString(owner.Bytes())))
}

func troveKey(owner crypto.Address) string {
	return owner.String()
}

// Get returns a copy of the stored trove. The boolean is false for owners with
// no record, whose status is implicitly NonExistent.
func (s *Store) Get(owner crypto.Address) (Trove, bool, error) {
	if owner.IsZero() {
		return Trove{}, false, ErrInvalidOwner
	}
	var stored storedTrove
	ok, err := s.kv.KVGet(s.primaryKey(troveKey(owner)), &stored)
	if err != nil || !ok {
		return Trove{}, false, err
	}
	trove, err := fromStored(&stored)
	if err != nil {
		return Trove{}, false, err
	}
	return trove, true, nil
}

// Set upserts the trove stored under owner and refreshes the owner index.
func (s *Store) Set(owner crypto.Address, trove Trove) error {
	if owner.IsZero() {
		return ErrInvalidOwner
	}
	if trove.Owner.IsZero() {
		return ErrInvalidOwner
	}
	pk := troveKey(owner)
	previous, existed, err := s.Get(owner)
	if err != nil {
		return err
	}
	if existed && !previous.Owner.Equal(trove.Owner) {
		if err := s.kv.KVRemove(s.ownerIndexKey(previous.Owner), []byte(pk)); err != nil {
			return err
		}
	}
	if err := s.kv.KVPut(s.primaryKey(pk), toStored(trove)); err != nil {
		return err
	}
	return s.kv.KVAppend(s.ownerIndexKey(trove.Owner), []byte(pk))
}

// Update loads the current trove (nil when absent), applies fn and persists
// the result. When fn fails nothing is written and its error is returned as
// is.
func (s *Store) Update(owner crypto.Address, fn func(current *Trove) (Trove, error)) (Trove, error) {
	current, ok, err := s.Get(owner)
	if err != nil {
		return Trove{}, err
	}
	var input *Trove
	if ok {
		input = &current
	}
	next, err := fn(input)
	if err != nil {
		return Trove{}, err
	}
	if ok && !next.Owner.Equal(current.Owner) {
		return Trove{}, ErrOwnerImmutable
	}
	if err := s.Set(owner, next); err != nil {
		return Trove{}, err
	}
	return next.Clone(), nil
}

// Delete removes the primary record and its index entry.
func (s *Store) Delete(owner crypto.Address) error {
	current, ok, err := s.Get(owner)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	pk := troveKey(owner)
	if err := s.kv.KVRemove(s.ownerIndexKey(current.Owner), []byte(pk)); err != nil {
		return err
	}
	return s.kv.KVDelete(s.primaryKey(pk))
}

// KeysByOwner lists the primary keys whose trove carries owner.
func (s *Store) KeysByOwner(owner crypto.Address) ([]string, error) {
	var raw [][]byte
	if err := s.kv.KVGetList(s.ownerIndexKey(owner), &raw); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, string(k))
	}
	return keys, nil
}
