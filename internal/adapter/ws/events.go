package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventRequestReceived  = "request.received"
	EventRequestUpdated   = "request.updated"
	EventRequestWithdrawn = "request.withdrawn"
	EventRequestResponded = "request.responded"
)

// RequestEvent is broadcast when a request is created, edited, withdrawn
// or responded to. The sender's identity is deliberately not included;
// clients fetch the record through the API, which applies disclosure.
type RequestEvent struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
}

// BroadcastEventToCompany marshals a typed event and sends it to every
// connection of the given company.
func (h *Hub) BroadcastEventToCompany(ctx context.Context, companyID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.BroadcastToCompany(ctx, companyID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
