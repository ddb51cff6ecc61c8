package rpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"ultrachain/core"
	"ultrachain/core/types"
)

type streamingBackend struct {
	mockBackend
	cursor  string
	backlog []core.EventUpdate
	live    chan core.EventUpdate
}

func (b *streamingBackend) SubscribeEvents(ctx context.Context, cursor string) (<-chan core.EventUpdate, func(), []core.EventUpdate) {
	b.cursor = cursor
	return b.live, func() {}, b.backlog
}

func TestEventStreamDeliversBacklogAndLive(t *testing.T) {
	backend := &streamingBackend{
		backlog: []core.EventUpdate{{
			Sequence: 4, Cursor: "4", Contract: "trove_manager", Action: "liquidate",
			Event: types.Event{Type: "troves.liquidated", Attributes: map[string]string{"coll": "100"}},
		}},
		live: make(chan core.EventUpdate, 1),
	}
	backend.live <- core.EventUpdate{
		Sequence: 5, Cursor: "5", Contract: "coll_surplus_pool", Action: "claim_coll",
		Event: types.Event{Type: "surplus.claimed", Attributes: map[string]string{"amount": "100"}},
	}
	server := NewServer(backend, Config{WSOrigins: []string{"*"}})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events?cursor=3"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var got []eventPayload
	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var payload eventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, payload)
	}
	if backend.cursor != "3" {
		t.Fatalf("cursor not forwarded: %q", backend.cursor)
	}
	if got[0].Cursor != "4" || got[0].Type != "troves.liquidated" || got[1].Attributes["amount"] != "100" {
		t.Fatalf("unexpected stream %+v", got)
	}
}

func TestRateLimitedCalls(t *testing.T) {
	backend := &mockBackend{}
	server := NewServer(backend, Config{AuthToken: "secret", RateLimit: RateLimit{RequestsPerMinute: 1, Burst: 2}})
	params := ContractCallParams{Contract: "trove_manager", Sender: testAddress(0x02).String(), Msg: json.RawMessage(`{"liquidate":{}}`)}

	for i := 0; i < 2; i++ {
		if _, resp := doRPC(t, server.Handler(), "secret", "contract_execute", params); resp.Error != nil {
			t.Fatalf("call %d: %+v", i, resp.Error)
		}
	}
	rec, resp := doRPC(t, server.Handler(), "secret", "contract_execute", params)
	if rec.Code != 429 || resp.Error == nil || resp.Error.Code != codeRateLimited {
		t.Fatalf("expected rate limit, got %d %+v", rec.Code, resp.Error)
	}
	// Queries are not limited.
	if _, resp := doRPC(t, server.Handler(), "", "contract_query", ContractQueryParams{Contract: "trove_manager", Msg: json.RawMessage(`"x"`)}); resp.Error != nil {
		t.Fatalf("query limited: %+v", resp.Error)
	}
}
