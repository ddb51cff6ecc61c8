package roles

import (
	"errors"
	"fmt"
	"strings"

	"ultrachain/crypto"
)

// Role names a capability granted by the role provider.
type Role string

const (
	ActivePool         Role = "active_pool"
	TroveManager       Role = "trove_manager"
	Owner              Role = "owner"
	StabilityPool      Role = "stability_pool"
	BorrowerOperations Role = "borrower_operations"
)

// All lists every known role in a stable order.
var All = []Role{ActivePool, TroveManager, Owner, StabilityPool, BorrowerOperations}

var (
	// ErrUnauthorized is returned when the caller holds none of the required roles.
	ErrUnauthorized = errors.New("roles: unauthorized")
	// ErrProviderNotSet is returned when a consumer has no role provider configured.
	ErrProviderNotSet = errors.New("roles: role provider not configured")
	// ErrUnknownRole marks a role name outside the known set.
	ErrUnknownRole = errors.New("roles: unknown role")
	// ErrProviderNotFound is returned by a resolver that cannot locate a provider.
	ErrProviderNotFound = errors.New("roles: role provider not found")
)

func (r Role) String() string { return string(r) }

// ParseRole validates a snake_case role name.
func ParseRole(value string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, role := range All {
		if role == normalized {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
}

// Oracle answers role-membership queries. Implementations live outside the
// contracts that consume them.
type Oracle interface {
	HasAnyRole(addr crypto.Address, roles []Role) (bool, error)
	RoleAddress(role Role) (crypto.Address, bool, error)
}

// Resolver locates the Oracle deployed at a contract address.
type Resolver interface {
	Oracle(addr crypto.Address) (Oracle, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(addr crypto.Address) (Oracle, error)

func (f ResolverFunc) Oracle(addr crypto.Address) (Oracle, error) { return f(addr) }

// Static resolves every address to the same oracle.
func Static(o Oracle) Resolver {
	return ResolverFunc(func(crypto.Address) (Oracle, error) {
		if o == nil {
			return nil, ErrProviderNotFound
		}
		return o, nil
	})
}

type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}
