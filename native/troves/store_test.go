package troves

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"ultrachain/core/state"
	"ultrachain/crypto"
	kvstore "ultrachain/storage"
)

func makeAddress(b byte) crypto.Address {
	return crypto.NewAddress(crypto.UltraPrefix, bytes.Repeat([]byte{b}, crypto.AddressLength))
}

func newTestStore() (*Store, *state.Manager) {
	mgr := state.NewManager(kvstore.NewMemDB())
	return NewStore(mgr, "trove_manager"), mgr
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore()
	_, ok, err := store.Get(makeAddress(0x11))
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = store.Get(crypto.Address{})
	require.ErrorIs(t, err, ErrInvalidOwner)
}

func TestStoreSetMaintainsOwnerIndex(t *testing.T) {
	store, _ := newTestStore()
	owner := makeAddress(0x11)

	trove := NewTrove(owner)
	trove.Coll = uint256.NewInt(50)
	trove.Status = StatusActive
	require.NoError(t, store.Set(owner, trove))

	loaded, ok, err := store.Get(owner)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(50), loaded.Coll.Uint64())
	require.Equal(t, StatusActive, loaded.Status)
	require.True(t, loaded.Owner.Equal(owner))

	keys, err := store.KeysByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, []string{owner.String()}, keys)

	// Setting again must not duplicate the index entry.
	require.NoError(t, store.Set(owner, loaded))
	keys, err = store.KeysByOwner(owner)
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

func TestStoreReturnsCopies(t *testing.T) {
	store, _ := newTestStore()
	owner := makeAddress(0x12)
	trove := NewTrove(owner)
	trove.Debt = uint256.NewInt(7)
	require.NoError(t, store.Set(owner, trove))

	first, _, err := store.Get(owner)
	require.NoError(t, err)
	first.Debt.SetUint64(1000)

	second, _, err := store.Get(owner)
	require.NoError(t, err)
	require.Equal(t, uint64(7), second.Debt.Uint64())
}

func TestStoreUpdateFailureWritesNothing(t *testing.T) {
	store, _ := newTestStore()
	owner := makeAddress(0x13)
	trove := NewTrove(owner)
	trove.Coll = uint256.NewInt(10)
	require.NoError(t, store.Set(owner, trove))

	_, err := store.Update(owner, func(current *Trove) (Trove, error) {
		require.NotNil(t, current)
		return DecreaseColl(*current, uint256.NewInt(11))
	})
	require.Error(t, err)

	loaded, _, err := store.Get(owner)
	require.NoError(t, err)
	require.Equal(t, uint64(10), loaded.Coll.Uint64())
}

func TestStoreUpdateRejectsOwnerChange(t *testing.T) {
	store, _ := newTestStore()
	owner := makeAddress(0x14)
	require.NoError(t, store.Set(owner, NewTrove(owner)))

	_, err := store.Update(owner, func(current *Trove) (Trove, error) {
		next := current.Clone()
		next.Owner = makeAddress(0x15)
		return next, nil
	})
	require.ErrorIs(t, err, ErrOwnerImmutable)
}

func TestStoreDeleteClearsIndex(t *testing.T) {
	store, _ := newTestStore()
	owner := makeAddress(0x16)
	require.NoError(t, store.Set(owner, NewTrove(owner)))
	require.NoError(t, store.Delete(owner))

	_, ok, err := store.Get(owner)
	require.NoError(t, err)
	require.False(t, ok)

	keys, err := store.KeysByOwner(owner)
	require.NoError(t, err)
	require.Empty(t, keys)

	// Deleting an absent record is a no-op.
	require.NoError(t, store.Delete(owner))
}

func TestOwnersArraySwapRemove(t *testing.T) {
	store, _ := newTestStore()
	owners := []crypto.Address{makeAddress(0x21), makeAddress(0x22), makeAddress(0x23)}
	for i, owner := range owners {
		index, err := store.appendOwner(owner)
		require.NoError(t, err)
		require.Equal(t, uint64(i), index)
		trove := NewTrove(owner)
		trove.ArrayIndex = index
		require.NoError(t, store.Set(owner, trove))
	}
	_, err := store.appendOwner(owners[1])
	require.ErrorIs(t, err, ErrTroveOwnerExists)

	require.NoError(t, store.removeOwner(owners[0]))

	count, err := store.OwnersCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	first, err := store.OwnerAt(0)
	require.NoError(t, err)
	require.True(t, first.Equal(owners[2]))

	moved, _, err := store.Get(owners[2])
	require.NoError(t, err)
	require.Equal(t, uint64(0), moved.ArrayIndex)

	_, err = store.OwnerAt(2)
	require.ErrorIs(t, err, ErrOwnerIndexOutOfRange)
}
