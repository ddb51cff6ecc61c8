package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	coreerrors "ultrachain/core/errors"
	"ultrachain/core/events"
	"ultrachain/core/state"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/native/bank"
	nativecommon "ultrachain/native/common"
	"ultrachain/observability/metrics"
	"ultrachain/storage"
)

type registeredContract struct {
	name     string
	address  crypto.Address
	contract Contract
}

// Runtime hosts contracts over a single database. Invocations run to
// completion one at a time; each works on a cache overlay that is committed
// only when the contract returns without error.
type Runtime struct {
	mu        sync.RWMutex
	db        storage.Database
	contracts map[string]*registeredContract
	names     map[string]string
	pauses    nativecommon.PauseView
	logger    *slog.Logger
	metrics   *metrics.TroveMetrics
	clock     func() time.Time
	stream    eventStream
}

// NewRuntime creates a runtime persisting to db.
func NewRuntime(db storage.Database) *Runtime {
	return &Runtime{
		db:        db,
		contracts: make(map[string]*registeredContract),
		names:     make(map[string]string),
		logger:    slog.Default(),
		clock:     time.Now,
	}
}

func (r *Runtime) SetLogger(logger *slog.Logger) {
	if r == nil || logger == nil {
		return
	}
	r.logger = logger
}

func (r *Runtime) SetMetrics(m *metrics.TroveMetrics) {
	if r == nil {
		return
	}
	r.metrics = m
}

func (r *Runtime) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

func (r *Runtime) SetClock(clock func() time.Time) {
	if r == nil || clock == nil {
		return
	}
	r.clock = clock
}

// Register deploys contract under name at its deterministic address.
func (r *Runtime) Register(name string, contract Contract) (crypto.Address, error) {
	name = strings.TrimSpace(name)
	if name == "" || contract == nil {
		return crypto.Address{}, fmt.Errorf("runtime: contract name and implementation required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return crypto.Address{}, fmt.Errorf("runtime: contract %q already registered", name)
	}
	addr := crypto.ContractAddress(name)
	r.contracts[string(addr.Bytes())] = &registeredContract{name: name, address: addr, contract: contract}
	r.names[name] = string(addr.Bytes())
	return addr, nil
}

// Address returns the address of a registered contract.
func (r *Runtime) Address(name string) (crypto.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.names[strings.TrimSpace(name)]
	if !ok {
		return crypto.Address{}, false
	}
	return r.contracts[key].address, true
}

// Contracts lists registered contract names mapped to their addresses.
func (r *Runtime) Contracts() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.names))
	for name, key := range r.names {
		out[name] = r.contracts[key].address.String()
	}
	return out
}

func (r *Runtime) byAddress(addr crypto.Address) (*registeredContract, bool) {
	entry, ok := r.contracts[string(addr.Bytes())]
	return entry, ok
}

// resolve accepts either a registered name or a bech32 address.
func (r *Runtime) resolve(target string) (*registeredContract, error) {
	target = strings.TrimSpace(target)
	if key, ok := r.names[target]; ok {
		return r.contracts[key], nil
	}
	if addr, err := crypto.DecodeAddress(target); err == nil {
		if entry, ok := r.byAddress(addr); ok {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", coreerrors.ErrUnknownContract, target)
}

func (r *Runtime) newContext(db storage.Database, entry *registeredContract, sender crypto.Address) *Context {
	return &Context{
		State:     state.NewManager(db),
		Sender:    sender,
		Self:      entry.address,
		Namespace: entry.name,
		Time:      r.clock().UTC(),
		Pauses:    r.pauses,
		Events:    &events.Collector{},
		Logger:    r.logger.With("contract", entry.name),
		rt:        r,
	}
}

func instantiatedKey(name string) []byte {
	return []byte("runtime/instantiated/" + name)
}

func isInstantiated(ctx *Context) (bool, error) {
	var marker bool
	return ctx.State.KVGet(instantiatedKey(ctx.Namespace), &marker)
}

// Instantiated reports whether target has completed its one-time setup.
func (r *Runtime) Instantiated(target string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, err := r.resolve(target)
	if err != nil {
		return false, err
	}
	return isInstantiated(r.newContext(r.db, entry, crypto.Address{}))
}

type invokeFunc func(ctx *Context) (*types.Response, error)

// Instantiate runs the contract's one-time setup.
func (r *Runtime) Instantiate(target string, sender crypto.Address, msg json.RawMessage) (*types.Response, error) {
	return r.invoke(target, sender, "instantiate", func(ctx *Context) (*types.Response, error) {
		done, err := isInstantiated(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, fmt.Errorf("%w: %s", coreerrors.ErrAlreadyExists, ctx.Namespace)
		}
		entry, _ := r.byAddress(ctx.Self)
		resp, err := entry.contract.Instantiate(ctx, msg)
		if err != nil {
			return nil, err
		}
		if err := ctx.State.KVPut(instantiatedKey(ctx.Namespace), true); err != nil {
			return nil, err
		}
		return resp, nil
	}, msg)
}

// Execute applies a tagged execute message on behalf of sender.
func (r *Runtime) Execute(target string, sender crypto.Address, msg json.RawMessage) (*types.Response, error) {
	return r.invoke(target, sender, "", func(ctx *Context) (*types.Response, error) {
		entry, _ := r.byAddress(ctx.Self)
		return entry.contract.Execute(ctx, msg)
	}, msg)
}

// Sudo applies a privileged maintenance message.
func (r *Runtime) Sudo(target string, sender crypto.Address, msg json.RawMessage) (*types.Response, error) {
	return r.invoke(target, sender, "", func(ctx *Context) (*types.Response, error) {
		entry, _ := r.byAddress(ctx.Self)
		sudoer, ok := entry.contract.(Sudoer)
		if !ok {
			return nil, fmt.Errorf("%w: %s accepts no sudo messages", coreerrors.ErrUnknownMessage, entry.name)
		}
		return sudoer.Sudo(ctx, msg)
	}, msg)
}

func (r *Runtime) invoke(target string, sender crypto.Address, action string, fn invokeFunc, msg json.RawMessage) (*types.Response, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("runtime: database not configured")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	entry, err := r.resolve(target)
	if err != nil {
		return nil, err
	}
	if action == "" {
		action, _, _ = DecodeMessage(msg)
	}
	cache := storage.NewCacheDB(r.db)
	ctx := r.newContext(cache, entry, sender)
	logger := ctx.Logger.With("action", action, "sender", sender.String())

	if action != "instantiate" {
		done, err := isInstantiated(ctx)
		if err != nil {
			cache.Discard()
			return nil, err
		}
		if !done {
			cache.Discard()
			err = fmt.Errorf("%w: %s", coreerrors.ErrNotInstantiated, entry.name)
			r.observe(entry.name, action, err, start)
			return nil, err
		}
	}

	resp, err := fn(ctx)
	if err != nil {
		cache.Discard()
		logger.Warn("contract invocation failed", "error", err, "code", coreerrors.Classify(err).String())
		r.observe(entry.name, action, err, start)
		return nil, err
	}
	if resp == nil {
		resp = types.NewResponse()
	}
	for _, ev := range ctx.Events.Events() {
		resp.AddEvent(ev)
	}
	if err := r.deliver(cache, resp); err != nil {
		cache.Discard()
		r.metrics.ObserveBankFailure()
		logger.Warn("bank delivery failed", "error", err, "code", coreerrors.Classify(err).String())
		r.observe(entry.name, action, err, start)
		return nil, err
	}
	if err := cache.Commit(); err != nil {
		logger.Error("commit failed", "error", err)
		r.observe(entry.name, action, err, start)
		return nil, err
	}
	r.recordDomainMetrics(resp)
	r.publishEvents(entry.name, action, sender.String(), resp)
	r.observe(entry.name, action, nil, start)
	logger.Info("contract invocation applied", "attributes", len(resp.Attributes), "messages", len(resp.Messages))
	return resp, nil
}

// Query runs a read-only query. Any writes the contract attempts are dropped.
func (r *Runtime) Query(target string, msg json.RawMessage) (json.RawMessage, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("runtime: database not configured")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, err := r.resolve(target)
	if err != nil {
		return nil, err
	}
	cache := storage.NewCacheDB(r.db)
	defer cache.Discard()
	ctx := r.newContext(cache, entry, crypto.Address{})
	done, err := isInstantiated(ctx)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, fmt.Errorf("%w: %s", coreerrors.ErrNotInstantiated, entry.name)
	}
	result, err := entry.contract.Query(ctx, msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// deliver applies outbound bank messages against the invocation's overlay.
// Any failed send fails the whole invocation.
func (r *Runtime) deliver(cache storage.Database, resp *types.Response) error {
	if len(resp.Messages) == 0 {
		return nil
	}
	collector := &events.Collector{}
	keeper := bank.NewKeeper(state.NewManager(cache))
	keeper.SetEmitter(collector)
	for _, msg := range resp.Messages {
		if err := keeper.Send(msg); err != nil {
			return fmt.Errorf("bank send %s %s to %s: %w", msg.Amount.String(), msg.Denom, msg.To, err)
		}
	}
	for _, ev := range collector.Events() {
		resp.AddEvent(ev)
	}
	return nil
}

func (r *Runtime) recordDomainMetrics(resp *types.Response) {
	for _, ev := range resp.Events {
		switch ev.Type {
		case events.TypeTroveLiquidated:
			r.metrics.ObserveLiquidation()
		case events.TypeSurplusClaimed:
			if amount, ok := new(big.Int).SetString(ev.Attributes["amount"], 10); ok {
				r.metrics.ObserveSurplusClaimed(ev.Attributes["denom"], amount)
			}
		}
	}
}

func (r *Runtime) observe(contract, action string, err error, start time.Time) {
	r.metrics.ObserveExecution(contract, action, coreerrors.Classify(err).String(), time.Since(start))
}

// Mint credits genesis funds to addr.
func (r *Runtime) Mint(addr crypto.Address, denom string, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cache := storage.NewCacheDB(r.db)
	if err := bank.NewKeeper(state.NewManager(cache)).Mint(addr, denom, amount); err != nil {
		cache.Discard()
		return err
	}
	return cache.Commit()
}

// Balance reports addr's native balance.
func (r *Runtime) Balance(addr crypto.Address, denom string) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return bank.NewKeeper(state.NewManager(r.db)).Balance(addr, denom)
}
