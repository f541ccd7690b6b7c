package messagequeue

import "errors"

// payload is implemented by every schema with required fields.
type payload interface {
	validate() error
}

var (
	errTaskID  = errors.New("task_id is required")
	errAgentID = errors.New("agent_id is required")
)

// TaskEventPayload is the schema for tasks.created, tasks.status,
// tasks.assigned and tasks.deleted.
type TaskEventPayload struct {
	TaskID     string  `json:"task_id"`
	Title      string  `json:"title"`
	Status     string  `json:"status,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

func (p *TaskEventPayload) validate() error {
	if p.TaskID == "" {
		return errTaskID
	}
	return nil
}

// AgentEventPayload is the schema for agents.status and agents.deleted.
type AgentEventPayload struct {
	AgentID       string  `json:"agent_id"`
	Name          string  `json:"name"`
	Status        string  `json:"status,omitempty"`
	CurrentTaskID *string `json:"current_task_id,omitempty"`
}

func (p *AgentEventPayload) validate() error {
	if p.AgentID == "" {
		return errAgentID
	}
	return nil
}

// HeartbeatPayload is the schema for agents.heartbeat.
type HeartbeatPayload struct {
	AgentID       string  `json:"agent_id"`
	CurrentModel  *string `json:"current_model,omitempty"`
	SessionKey    *string `json:"session_key,omitempty"`
	CurrentTaskID *string `json:"current_task_id,omitempty"`
}

func (p *HeartbeatPayload) validate() error {
	if p.AgentID == "" {
		return errAgentID
	}
	return nil
}

// NotificationCreatedPayload is the schema for notifications.created.
type NotificationCreatedPayload struct {
	NotificationID   string  `json:"notification_id"`
	MentionedAgentID string  `json:"mentioned_agent_id"`
	FromAgentID      *string `json:"from_agent_id,omitempty"`
	TaskID           string  `json:"task_id"`
	Content          string  `json:"content"`
}

func (p *NotificationCreatedPayload) validate() error {
	if p.NotificationID == "" || p.MentionedAgentID == "" {
		return errors.New("notification_id and mentioned_agent_id are required")
	}
	if p.TaskID == "" {
		return errTaskID
	}
	return nil
}

// ProcessRequestPayload is the schema for tasks.process.request.
type ProcessRequestPayload struct {
	TaskID      string `json:"task_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}

func (p *ProcessRequestPayload) validate() error {
	if p.TaskID == "" {
		return errTaskID
	}
	return nil
}

// ProcessResultPayload is the schema for tasks.process.result.
type ProcessResultPayload struct {
	TaskID          string `json:"task_id"`
	Status          string `json:"status"`
	RunID           string `json:"run_id,omitempty"`
	ChildSessionKey string `json:"child_session_key,omitempty"`
	Error           string `json:"error,omitempty"`
}

func (p *ProcessResultPayload) validate() error {
	if p.TaskID == "" {
		return errTaskID
	}
	if p.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// PoolWorkerPayload is the schema for pool.worker.changed.
type PoolWorkerPayload struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

func (p *PoolWorkerPayload) validate() error {
	if p.WorkerID == "" {
		return errors.New("worker_id is required")
	}
	return nil
}

// BoardInvalidatedPayload is the schema for board.invalidated. Origin names
// the replica that committed the change.
type BoardInvalidatedPayload struct {
	Origin string `json:"origin"`
}

func (p *BoardInvalidatedPayload) validate() error {
	if p.Origin == "" {
		return errors.New("origin is required")
	}
	return nil
}
