package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	coreerrors "ultrachain/core/errors"
	"ultrachain/core/types"
	"ultrachain/crypto"
	"ultrachain/storage"
)

type counted struct {
	Value uint64
}

func (counted) EventType() string { return "counter.bumped" }

func (c counted) Event() *types.Event {
	return &types.Event{Type: c.EventType(), Attributes: map[string]string{"value": jsonNumber(c.Value)}}
}

func jsonNumber(v uint64) string {
	out, _ := json.Marshal(v)
	return string(out)
}

var errBoom = errors.New("counter: boom")

// counter increments a stored value; "bump_then_fail" writes and then errors.
type counter struct{}

func counterKey(ctx *Context) []byte { return []byte(ctx.Namespace + "/value") }

func (counter) load(ctx *Context) (uint64, error) {
	var v uint64
	_, err := ctx.State.KVGet(counterKey(ctx), &v)
	return v, err
}

func (c counter) Instantiate(ctx *Context, _ json.RawMessage) (*types.Response, error) {
	return types.NewResponse().AddAttribute("action", "instantiate"), ctx.State.KVPut(counterKey(ctx), uint64(0))
}

func (c counter) Execute(ctx *Context, raw json.RawMessage) (*types.Response, error) {
	name, _, err := DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	v, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	switch name {
	case "bump", "bump_then_fail":
		v++
		if err := ctx.State.KVPut(counterKey(ctx), v); err != nil {
			return nil, err
		}
		ctx.Events.Emit(counted{Value: v})
		if name == "bump_then_fail" {
			return nil, errBoom
		}
		return types.NewResponse().AddAttribute("action", name), nil
	}
	return nil, UnknownMessage(name)
}

func (c counter) Query(ctx *Context, raw json.RawMessage) (interface{}, error) {
	v, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	// Writes from queries never persist.
	if err := ctx.State.KVPut(counterKey(ctx), v+100); err != nil {
		return nil, err
	}
	return map[string]uint64{"value": v}, nil
}

func newCounterRuntime(t *testing.T) (*Runtime, crypto.Address) {
	t.Helper()
	rt := NewRuntime(storage.NewMemDB())
	if _, err := rt.Register("counter", counter{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	sender := crypto.NewAddress(crypto.UltraPrefix, bytes.Repeat([]byte{0x01}, crypto.AddressLength))
	if _, err := rt.Instantiate("counter", sender, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return rt, sender
}

func queryCounter(t *testing.T, rt *Runtime) uint64 {
	t.Helper()
	raw, err := rt.Query("counter", json.RawMessage(`"value"`))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var out map[string]uint64
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out["value"]
}

func TestRuntimeCommitsOnlyOnSuccess(t *testing.T) {
	rt, sender := newCounterRuntime(t)

	resp, err := rt.Execute("counter", sender, json.RawMessage(`"bump"`))
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Attributes["value"] != "1" {
		t.Fatalf("unexpected events %+v", resp.Events)
	}
	if _, err := rt.Execute("counter", sender, json.RawMessage(`"bump_then_fail"`)); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := queryCounter(t, rt); got != 1 {
		t.Fatalf("failed invocation leaked state: %d", got)
	}
	if got := queryCounter(t, rt); got != 1 {
		t.Fatalf("query write persisted: %d", got)
	}
}

func TestRuntimeRejectsUnknownAndDuplicate(t *testing.T) {
	rt, sender := newCounterRuntime(t)
	if _, err := rt.Instantiate("counter", sender, json.RawMessage(`{}`)); !errors.Is(err, coreerrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if _, err := rt.Execute("missing", sender, json.RawMessage(`"bump"`)); !errors.Is(err, coreerrors.ErrUnknownContract) {
		t.Fatalf("expected unknown contract, got %v", err)
	}
	if _, err := rt.Execute("counter", sender, json.RawMessage(`{"a":{},"b":{}}`)); !errors.Is(err, coreerrors.ErrInvalidMessage) {
		t.Fatalf("expected invalid message, got %v", err)
	}
	if _, err := rt.Register("counter", counter{}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	addr, ok := rt.Address("counter")
	if !ok {
		t.Fatalf("address not found")
	}
	if _, err := rt.Execute(addr.String(), sender, json.RawMessage(`"bump"`)); err != nil {
		t.Fatalf("execute by address: %v", err)
	}
}

func TestRuntimeRequiresInstantiation(t *testing.T) {
	rt := NewRuntime(storage.NewMemDB())
	if _, err := rt.Register("counter", counter{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	done, err := rt.Instantiated("counter")
	if err != nil || done {
		t.Fatalf("expected fresh contract, got %v %v", done, err)
	}
	if _, err := rt.Execute("counter", crypto.Address{}, json.RawMessage(`"bump"`)); !errors.Is(err, coreerrors.ErrNotInstantiated) {
		t.Fatalf("expected not instantiated, got %v", err)
	}
	if _, err := rt.Query("counter", json.RawMessage(`"value"`)); !errors.Is(err, coreerrors.ErrNotInstantiated) {
		t.Fatalf("expected not instantiated on query, got %v", err)
	}
}

func TestSubscribeEventsStreamsCommittedEvents(t *testing.T) {
	rt, sender := newCounterRuntime(t)
	if _, err := rt.Execute("counter", sender, json.RawMessage(`"bump"`)); err != nil {
		t.Fatalf("bump: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, stop, backlog := rt.SubscribeEvents(ctx, "")
	defer stop()
	if len(backlog) != 1 || backlog[0].Cursor != "1" || backlog[0].Contract != "counter" {
		t.Fatalf("unexpected backlog %+v", backlog)
	}

	if _, err := rt.Execute("counter", sender, json.RawMessage(`"bump_then_fail"`)); err == nil {
		t.Fatalf("expected failure")
	}
	if _, err := rt.Execute("counter", sender, json.RawMessage(`"bump"`)); err != nil {
		t.Fatalf("bump: %v", err)
	}
	update := <-updates
	if update.Sequence != 2 || update.Event.Attributes["value"] != "2" || update.Action != "bump" {
		t.Fatalf("unexpected update %+v", update)
	}

	_, stopLate, late := rt.SubscribeEvents(context.Background(), "1")
	defer stopLate()
	if len(late) != 1 || late[0].Sequence != 2 {
		t.Fatalf("cursor not honoured: %+v", late)
	}
}

func TestEventStreamPublishRacesUnsubscribe(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			default:
			}
			rt.stream.publish(EventUpdate{Contract: "counter", Event: types.Event{Type: "counter.bumped"}})
		}
	}()
	for i := 0; i < 5000; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		_, stop, _ := rt.SubscribeEvents(ctx, "")
		if i%2 == 0 {
			stop()
		}
		cancel()
	}
	close(done)
	<-finished

	updates, stop, _ := rt.SubscribeEvents(context.Background(), "")
	rt.stream.publish(EventUpdate{Contract: "counter", Event: types.Event{Type: "counter.bumped"}})
	stop()
	if _, ok := <-updates; !ok {
		t.Fatalf("update published before cancel was not delivered")
	}
	if _, ok := <-updates; ok {
		t.Fatalf("channel still open after cancel")
	}
}
