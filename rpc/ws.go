package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"ultrachain/core"
)

const (
	wsWriteTimeout = 10 * time.Second
)

// EventSource streams events of committed invocations.
type EventSource interface {
	SubscribeEvents(ctx context.Context, cursor string) (<-chan core.EventUpdate, func(), []core.EventUpdate)
}

type eventPayload struct {
	Cursor     string            `json:"cursor"`
	Contract   string            `json:"contract"`
	Action     string            `json:"action"`
	Sender     string            `json:"sender,omitempty"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  int64             `json:"timestamp"`
}

func eventPayloadFrom(update core.EventUpdate) eventPayload {
	return eventPayload{
		Cursor:     update.Cursor,
		Contract:   update.Contract,
		Action:     update.Action,
		Sender:     update.Sender,
		Type:       update.Event.Type,
		Attributes: update.Event.Attributes,
		Timestamp:  update.Timestamp,
	}
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	source, ok := s.backend.(EventSource)
	if !ok {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.wsOrigins})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	// The stream is write-only; CloseRead handles pings and client closes.
	ctx := conn.CloseRead(r.Context())
	if err := streamEvents(ctx, conn, source, cursor); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func streamEvents(ctx context.Context, conn *websocket.Conn, source EventSource, cursor string) error {
	updates, cancel, backlog := source.SubscribeEvents(ctx, cursor)
	defer cancel()

	for _, update := range backlog {
		if err := writeEventUpdate(ctx, conn, update); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEventUpdate(ctx, conn, update); err != nil {
				return err
			}
		}
	}
}

func writeEventUpdate(ctx context.Context, conn *websocket.Conn, update core.EventUpdate) error {
	data, err := json.Marshal(eventPayloadFrom(update))
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
