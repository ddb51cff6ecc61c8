package core

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"ultrachain/core/types"
)

const eventHistoryLimit = 2048

// EventUpdate is one event of a committed invocation, sequenced for streaming.
type EventUpdate struct {
	Sequence  uint64
	Cursor    string
	Contract  string
	Action    string
	Sender    string
	Event     types.Event
	Timestamp int64
}

type eventStream struct {
	mu      sync.Mutex
	seq     uint64
	nextID  uint64
	subs    map[uint64]chan EventUpdate
	history []EventUpdate
}

func cloneEventUpdate(update EventUpdate) EventUpdate {
	cloned := update
	if update.Event.Attributes != nil {
		cloned.Event.Attributes = make(map[string]string, len(update.Event.Attributes))
		for k, v := range update.Event.Attributes {
			cloned.Event.Attributes[k] = v
		}
	}
	return cloned
}

func (s *eventStream) publish(update EventUpdate) {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]chan EventUpdate)
	}
	s.seq++
	update.Sequence = s.seq
	update.Cursor = strconv.FormatUint(update.Sequence, 10)
	s.history = append(s.history, cloneEventUpdate(update))
	if len(s.history) > eventHistoryLimit {
		excess := len(s.history) - eventHistoryLimit
		trimmed := make([]EventUpdate, eventHistoryLimit)
		copy(trimmed, s.history[excess:])
		s.history = trimmed
	}
	// Subscribers are closed under s.mu, so sends stay under it too. Slow
	// subscribers miss updates and resume from the backlog on reconnect.
	for _, ch := range s.subs {
		select {
		case ch <- cloneEventUpdate(update):
		default:
		}
	}
	s.mu.Unlock()
}

// SubscribeEvents registers a subscriber for events of committed invocations
// sequenced after cursor. The backlog holds retained updates the subscriber
// has not seen yet.
func (r *Runtime) SubscribeEvents(ctx context.Context, cursor string) (<-chan EventUpdate, func(), []EventUpdate) {
	s := &r.stream
	updates := make(chan EventUpdate, 32)

	var since uint64
	if trimmed := strings.TrimSpace(cursor); trimmed != "" {
		if parsed, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
			since = parsed
		}
	}

	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]chan EventUpdate)
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = updates
	history := make([]EventUpdate, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	backlog := make([]EventUpdate, 0, len(history))
	for _, entry := range history {
		if entry.Sequence > since {
			backlog = append(backlog, cloneEventUpdate(entry))
		}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
			s.mu.Unlock()
		})
	}
	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return updates, cancel, backlog
}

func (r *Runtime) publishEvents(contract, action, sender string, resp *types.Response) {
	now := r.clock().UTC().Unix()
	for _, ev := range resp.Events {
		if ev == nil {
			continue
		}
		r.stream.publish(EventUpdate{
			Contract:  contract,
			Action:    action,
			Sender:    sender,
			Event:     *ev,
			Timestamp: now,
		})
	}
}
