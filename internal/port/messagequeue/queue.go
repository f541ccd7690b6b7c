// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	// Pending messages are processed; no new messages are accepted.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Fanout delivers each message to every live subscriber instead of sharing
// it through a durable consumer. Nothing is persisted, so subscribers only
// see messages sent while they are connected.
type Fanout interface {
	Broadcast(ctx context.Context, subject string, data []byte) error
	SubscribeAll(subject string, handler Handler) (cancel func(), err error)
}

// StreamName is the JetStream stream holding every Mission Control subject.
const StreamName = "MISSIONCONTROL"

// StreamSubjects are the wildcard subjects bound to StreamName.
var StreamSubjects = []string{"tasks.>", "agents.>", "notifications.>", "pool.>"}

// Subject constants for NATS subjects used by Mission Control.
const (
	SubjectTaskCreated  = "tasks.created"
	SubjectTaskStatus   = "tasks.status"
	SubjectTaskAssigned = "tasks.assigned"
	SubjectTaskDeleted  = "tasks.deleted"

	SubjectAgentStatus    = "agents.status"
	SubjectAgentDeleted   = "agents.deleted"
	SubjectAgentHeartbeat = "agents.heartbeat" // agents → core: liveness report

	SubjectNotificationCreated = "notifications.created"

	SubjectProcessRequest = "tasks.process.request" // queued openclaw spawn
	SubjectProcessResult  = "tasks.process.result"  // spawn outcome

	SubjectPoolWorkerChanged = "pool.worker.changed"

	// SubjectBoardInvalidated sits outside the stream: it travels over core
	// NATS so every replica drops its local board copy.
	SubjectBoardInvalidated = "board.invalidated"
)
