package troves

import (
	"encoding/hex"
	"fmt"

	"ultrachain/crypto"
)

func (s *Store) ownersCountKey() []byte {
	return []byte(s.namespace + "/trove_owners/count")
}

func (s *Store) ownerAtKey(index uint64) []byte {
	return []byte(fmt.Sprintf("%s/trove_owners/at/%020d", s.namespace, index))
}

func (s *Store) ownerMemberKey(owner crypto.Address) []byte {
	return []byte(fmt.Sprintf("%s/trove_owners/member/%s", s.namespace, hex.EncodeToString(owner.Bytes())))
}

// OwnersCount returns the length of the owners array.
func (s *Store) OwnersCount() (uint64, error) {
	var count uint64
	if _, err := s.kv.KVGet(s.ownersCountKey(), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// OwnerAt returns the owner registered at index.
func (s *Store) OwnerAt(index uint64) (crypto.Address, error) {
	var raw []byte
	ok, err := s.kv.KVGet(s.ownerAtKey(index), &raw)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, fmt.Errorf("%w: index %d", ErrOwnerIndexOutOfRange, index)
	}
	return crypto.AddressFromBytes(crypto.UltraPrefix, raw)
}

// OwnerIndex reports the array index recorded for owner.
func (s *Store) OwnerIndex(owner crypto.Address) (uint64, bool, error) {
	var index uint64
	ok, err := s.kv.KVGet(s.ownerMemberKey(owner), &index)
	return index, ok, err
}

// appendOwner pushes owner onto the array and returns its index.
func (s *Store) appendOwner(owner crypto.Address) (uint64, error) {
	if _, ok, err := s.OwnerIndex(owner); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrTroveOwnerExists
	}
	count, err := s.OwnersCount()
	if err != nil {
		return 0, err
	}
	if err := s.kv.KVPut(s.ownerAtKey(count), owner.Bytes()); err != nil {
		return 0, err
	}
	if err := s.kv.KVPut(s.ownerMemberKey(owner), count); err != nil {
		return 0, err
	}
	if err := s.kv.KVPut(s.ownersCountKey(), count+1); err != nil {
		return 0, err
	}
	return count, nil
}

// removeOwner drops owner from the array by moving the last entry into its
// slot, keeping the array dense.
func (s *Store) removeOwner(owner crypto.Address) error {
	index, ok, err := s.OwnerIndex(owner)
	if err != nil || !ok {
		return err
	}
	count, err := s.OwnersCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("troves: owners array empty while %s is registered", owner)
	}
	last := count - 1
	if index != last {
		moved, err := s.OwnerAt(last)
		if err != nil {
			return err
		}
		if err := s.kv.KVPut(s.ownerAtKey(index), moved.Bytes()); err != nil {
			return err
		}
		if err := s.kv.KVPut(s.ownerMemberKey(moved), index); err != nil {
			return err
		}
		trove, ok, err := s.Get(moved)
		if err != nil {
			return err
		}
		if ok {
			trove.ArrayIndex = index
			if err := s.Set(moved, trove); err != nil {
				return err
			}
		}
	}
	if err := s.kv.KVDelete(s.ownerAtKey(last)); err != nil {
		return err
	}
	if err := s.kv.KVDelete(s.ownerMemberKey(owner)); err != nil {
		return err
	}
	return s.kv.KVPut(s.ownersCountKey(), last)
}
