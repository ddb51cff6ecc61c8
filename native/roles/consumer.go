package roles

import (
	"fmt"

	"ultrachain/crypto"
)

// Consumer remembers which role provider a contract trusts and checks callers
// against it before privileged operations.
type Consumer struct {
	store    storage
	key      []byte
	resolver Resolver
}

// NewConsumer binds a consumer to a contract namespace. The resolver turns the
// stored provider address into a live Oracle.
func NewConsumer(store storage, namespace string, resolver Resolver) *Consumer {
	return &Consumer{
		store:    store,
		key:      []byte(fmt.Sprintf("%s/role_provider", namespace)),
		resolver: resolver,
	}
}

// SetProvider stores the role provider address.
func (c *Consumer) SetProvider(addr crypto.Address) error {
	if addr.IsZero() {
		return fmt.Errorf("roles: provider address required")
	}
	return c.store.KVPut(c.key, addr.Bytes())
}

// Provider returns the configured role provider address.
func (c *Consumer) Provider() (crypto.Address, bool, error) {
	var raw []byte
	ok, err := c.store.KVGet(c.key, &raw)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	addr, err := crypto.AddressFromBytes(crypto.UltraPrefix, raw)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}

// AssertRole fails with ErrUnauthorized unless caller holds one of required.
func (c *Consumer) AssertRole(caller crypto.Address, required ...Role) error {
	if c == nil || c.resolver == nil {
		return ErrProviderNotSet
	}
	addr, ok, err := c.Provider()
	if err != nil {
		return err
	}
	if !ok {
		return ErrProviderNotSet
	}
	oracle, err := c.resolver.Oracle(addr)
	if err != nil {
		return err
	}
	allowed, err := oracle.HasAnyRole(caller, required)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s lacks %v", ErrUnauthorized, caller, required)
	}
	return nil
}
