package roles

import (
	"fmt"

	"ultrachain/crypto"
)

// Provider is the state-backed role registry. Each role maps to at most one
// address.
type Provider struct {
	store     storage
	namespace string
}

// NewProvider binds a provider to the given state namespace.
func NewProvider(store storage, namespace string) *Provider {
	return &Provider{store: store, namespace: namespace}
}

func (p *Provider) roleKey(role Role) []byte {
	return []byte(fmt.Sprintf("%s/role/%s", p.namespace, role))
}

// Instantiate records the initial role assignments. Zero addresses are skipped.
func (p *Provider) Instantiate(assignments map[Role]crypto.Address) error {
	for _, role := range All {
		addr, ok := assignments[role]
		if !ok || addr.IsZero() {
			continue
		}
		if err := p.set(role, addr); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRole reassigns role to addr. Only the holder of the Owner role may
// call it.
func (p *Provider) UpdateRole(caller crypto.Address, role Role, addr crypto.Address) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	ok, err := p.HasAnyRole(caller, []Role{Owner})
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	if addr.IsZero() {
		return p.store.KVDelete(p.roleKey(role))
	}
	return p.set(role, addr)
}

func (p *Provider) set(role Role, addr crypto.Address) error {
	return p.store.KVPut(p.roleKey(role), addr.Bytes())
}

// HasAnyRole reports whether addr currently holds at least one of roles.
func (p *Provider) HasAnyRole(addr crypto.Address, roles []Role) (bool, error) {
	if addr.IsZero() {
		return false, nil
	}
	for _, role := range roles {
		holder, ok, err := p.RoleAddress(role)
		if err != nil {
			return false, err
		}
		if ok && holder.Equal(addr) {
			return true, nil
		}
	}
	return false, nil
}

// RoleAddress returns the address holding role, if any.
func (p *Provider) RoleAddress(role Role) (crypto.Address, bool, error) {
	var raw []byte
	ok, err := p.store.KVGet(p.roleKey(role), &raw)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	addr, err := crypto.AddressFromBytes(crypto.UltraPrefix, raw)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}
