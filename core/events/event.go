package events

import "ultrachain/core/types"

// Event represents a structured state change emitted by a contract.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

type typedEvent interface {
	Event() *types.Event
}

// Collector buffers emitted events for inclusion in a response.
type Collector struct {
	events []*types.Event
}

// Emit records events that can render themselves; others are dropped.
func (c *Collector) Emit(ev Event) {
	if c == nil || ev == nil {
		return
	}
	if typed, ok := ev.(typedEvent); ok {
		c.events = append(c.events, typed.Event())
	}
}

// Events returns the buffered events in emission order.
func (c *Collector) Events() []*types.Event {
	if c == nil {
		return nil
	}
	return c.events
}
