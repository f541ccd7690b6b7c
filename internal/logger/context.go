package logger

import (
	"context"
	"log/slog"
)

// scope is the set of Mission Control identifiers carried by a context and
// copied onto every record logged with it.
type scope struct {
	requestID string
	taskID    string
	agentID   string
	workerID  string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func (s scope) into(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func (s scope) empty() bool { return s == scope{} }

// attrs returns the identifiers that are set, in a fixed order.
func (s scope) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 4)
	if s.requestID != "" {
		out = append(out, slog.String("request_id", s.requestID))
	}
	if s.taskID != "" {
		out = append(out, slog.String("task_id", s.taskID))
	}
	if s.agentID != "" {
		out = append(out, slog.String("agent_id", s.agentID))
	}
	if s.workerID != "" {
		out = append(out, slog.String("worker_id", s.workerID))
	}
	return out
}

// WithRequestID returns a context carrying the HTTP or NATS request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.requestID = id
	return s.into(ctx)
}

// RequestID returns the request ID, or "".
func RequestID(ctx context.Context) string { return scopeFrom(ctx).requestID }

// WithTaskID returns a context whose records carry task_id.
func WithTaskID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.taskID = id
	return s.into(ctx)
}

// TaskID returns the task ID, or "".
func TaskID(ctx context.Context) string { return scopeFrom(ctx).taskID }

// WithAgentID returns a context whose records carry agent_id.
func WithAgentID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.agentID = id
	return s.into(ctx)
}

// AgentID returns the agent ID, or "".
func AgentID(ctx context.Context) string { return scopeFrom(ctx).agentID }

// WithWorkerID returns a context whose records carry worker_id.
func WithWorkerID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.workerID = id
	return s.into(ctx)
}

// WorkerID returns the pool worker ID, or "".
func WorkerID(ctx context.Context) string { return scopeFrom(ctx).workerID }
