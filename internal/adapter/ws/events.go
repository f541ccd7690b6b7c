package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"

	EventAgentCreated = "agent.created"
	EventAgentUpdated = "agent.updated"
	EventAgentDeleted = "agent.deleted"

	EventMessageCreated        = "message.created"
	EventNotificationCreated   = "notification.created"
	EventNotificationDelivered = "notification.delivered"
	EventActivityCreated       = "activity.created"

	EventDocumentChanged   = "document.changed"
	EventPoolWorkerChanged = "pool.worker.changed"
)

// DeletedEvent is the payload of the *.deleted events.
type DeletedEvent struct {
	ID string `json:"id"`
}

// NotificationDeliveredEvent is broadcast when notifications are marked
// delivered. Count is set for bulk marks.
type NotificationDeliveredEvent struct {
	AgentID        string `json:"agent_id,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
	Count          int64  `json:"count,omitempty"`
}

// DocumentChangedEvent is broadcast on document create, update and delete.
type DocumentChangedEvent struct {
	ID     string `json:"id"`
	Action string `json:"action"` // "created", "updated" or "deleted"
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
