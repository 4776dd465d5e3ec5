package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventPlanReplaced  = "plan.replaced"
	EventPlanReordered = "plan.reordered"
	EventChatMessage   = "chat.message"
)

// projectScoped is implemented by payloads that belong to one project.
type projectScoped interface {
	ScopeProjectID() int64
}

// BroadcastEvent marshals a typed event and broadcasts it. Payloads that
// expose their project are only delivered to that project's subscribers
// (and to unscoped clients).
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	var projectID int64
	if p, ok := payload.(projectScoped); ok {
		projectID = p.ScopeProjectID()
	}
	h.Broadcast(ctx, projectID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
