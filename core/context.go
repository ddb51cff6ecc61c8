package core

import (
	"fmt"
	"log/slog"
	"time"

	coreerrors "ultrachain/core/errors"
	"ultrachain/core/events"
	"ultrachain/core/state"
	"ultrachain/crypto"
	nativecommon "ultrachain/native/common"
	"ultrachain/native/roles"
)

const maxCallDepth = 8

// Context carries everything a contract may touch during one invocation.
// State is a transactional view; it is committed only when the outermost
// invocation succeeds.
type Context struct {
	State  *state.Manager
	Sender crypto.Address
	Self   crypto.Address
	// Namespace prefixes every state key written by the contract.
	Namespace string
	Time      time.Time
	Pauses    nativecommon.PauseView
	Events    *events.Collector
	Logger    *slog.Logger

	rt    *Runtime
	depth int
}

// Call returns the contract deployed at addr together with a context in which
// the current contract is the sender. Both share the same state view.
func (c *Context) Call(addr crypto.Address) (Contract, *Context, error) {
	if c == nil || c.rt == nil {
		return nil, nil, fmt.Errorf("runtime: context not bound")
	}
	if c.depth >= maxCallDepth {
		return nil, nil, fmt.Errorf("runtime: call depth %d exceeded", maxCallDepth)
	}
	entry, ok := c.rt.byAddress(addr)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", coreerrors.ErrUnknownContract, addr)
	}
	sub := &Context{
		State:     c.State,
		Sender:    c.Self,
		Self:      entry.address,
		Namespace: entry.name,
		Time:      c.Time,
		Pauses:    c.Pauses,
		Events:    c.Events,
		Logger:    c.Logger.With("contract", entry.name),
		rt:        c.rt,
		depth:     c.depth + 1,
	}
	return entry.contract, sub, nil
}

// RoleResolver resolves role provider addresses to the oracle exposed by the
// contract deployed there.
func (c *Context) RoleResolver() roles.Resolver {
	return roles.ResolverFunc(func(addr crypto.Address) (roles.Oracle, error) {
		contract, sub, err := c.Call(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", roles.ErrProviderNotFound, err)
		}
		source, ok := contract.(RoleOracleSource)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not provide roles", roles.ErrProviderNotFound, addr)
		}
		return source.RoleOracle(sub), nil
	})
}
