// Package broadcast defines the port for pushing live events to connected
// dashboards.
package broadcast

import "context"

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Nop discards every event. It serves processes without a WebSocket hub,
// such as the admin CLI.
type Nop struct{}

func (Nop) BroadcastEvent(context.Context, string, any) {}
