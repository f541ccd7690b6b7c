// Package activity defines the append-only audit log entries written by
// every state-changing operation.
package activity

import (
	"fmt"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

// Type tags what kind of change an activity records.
type Type string

const (
	TypeAgentCreated       Type = "agent_created"
	TypeAgentStatusChanged Type = "agent_status_changed"
	TypeAgentDeleted       Type = "agent_deleted"
	TypeTaskCreated        Type = "task_created"
	TypeTaskUpdated        Type = "task_updated"
	TypeTaskStatusChanged  Type = "task_status_changed"
	TypeTaskAssigned       Type = "task_assigned"
	TypeTaskDeleted        Type = "task_deleted"
	TypeMessageSent        Type = "message_sent"
	TypeDocumentCreated    Type = "document_created"
	TypeDocumentUpdated    Type = "document_updated"
	TypeDocumentDeleted    Type = "document_deleted"
	TypeWorkerRegistered   Type = "worker_registered"
	TypeWorkerClaimed      Type = "worker_claimed"
	TypeSystem             Type = "system"
)

// Default page sizes for activity reads.
const (
	DefaultRecentLimit = 50
	DefaultAgentLimit  = 100
	DefaultTaskLimit   = 100
)

// Activity is one immutable audit log entry.
type Activity struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	AgentID   *string   `json:"agent_id,omitempty"`
	TaskID    *string   `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WithContext is an Activity joined with agent and task projections.
type WithContext struct {
	Activity
	Agent *agent.Summary `json:"agent,omitempty"`
	Task  *task.Summary  `json:"task,omitempty"`
}

// ListFilter narrows activity listings. Empty ids mean no restriction.
type ListFilter struct {
	AgentID string
	TaskID  string
	Limit   int
}

// New builds an activity of type t. ID and CreatedAt are stamped by the
// service before the activity is persisted.
func New(t Type, message string, agentID, taskID *string) *Activity {
	return &Activity{Type: t, Message: message, AgentID: agentID, TaskID: taskID}
}

// --- Message renderers ---

func AgentCreated(a *agent.Agent) *Activity {
	return New(TypeAgentCreated, fmt.Sprintf("Agent \"%s\" created", a.DisplayName()), &a.ID, nil)
}

func AgentStatusChanged(a *agent.Agent, s agent.Status) *Activity {
	return New(TypeAgentStatusChanged, fmt.Sprintf("%s changed status to %s", a.Name, s), &a.ID, nil)
}

func AgentDeleted(a *agent.Agent) *Activity {
	return New(TypeAgentDeleted, fmt.Sprintf("Agent \"%s\" removed", a.DisplayName()), &a.ID, nil)
}

func TaskCreated(t *task.Task) *Activity {
	return New(TypeTaskCreated, fmt.Sprintf("Task \"%s\" created", t.Title), nil, &t.ID)
}

func TaskUpdated(t *task.Task) *Activity {
	return New(TypeTaskUpdated, fmt.Sprintf("Task \"%s\" updated", t.Title), nil, &t.ID)
}

func TaskStatusChanged(t *task.Task, s task.Status) *Activity {
	return New(TypeTaskStatusChanged, fmt.Sprintf("Task \"%s\" moved to %s", t.Title, s.Human()), nil, &t.ID)
}

// TaskAssigned renders the assignment; assignee nil means the task was unassigned.
func TaskAssigned(t *task.Task, assignee *agent.Agent) *Activity {
	name := "Unassigned"
	var agentID *string
	if assignee != nil {
		name = assignee.Name
		agentID = &assignee.ID
	}
	return New(TypeTaskAssigned, fmt.Sprintf("Task \"%s\" assigned to %s", t.Title, name), agentID, &t.ID)
}

// TaskDeleted carries no task reference: the task's own activities are
// removed with it.
func TaskDeleted(t *task.Task) *Activity {
	return New(TypeTaskDeleted, fmt.Sprintf("Task \"%s\" deleted", t.Title), nil, nil)
}

// MessageSent renders "<sender>: <content>"; sender nil renders as Unknown.
func MessageSent(taskID, content string, sender *agent.Agent) *Activity {
	name := "Unknown"
	var agentID *string
	if sender != nil {
		name = sender.Name
		agentID = &sender.ID
	}
	return New(TypeMessageSent, name+": "+content, agentID, &taskID)
}

func DocumentCreated(title string) *Activity {
	return New(TypeDocumentCreated, fmt.Sprintf("Document \"%s\" created", title), nil, nil)
}

func DocumentUpdated(title string) *Activity {
	return New(TypeDocumentUpdated, fmt.Sprintf("Document \"%s\" updated", title), nil, nil)
}

func DocumentDeleted(title string) *Activity {
	return New(TypeDocumentDeleted, fmt.Sprintf("Document \"%s\" deleted", title), nil, nil)
}

func WorkerRegistered(name string) *Activity {
	return New(TypeWorkerRegistered, fmt.Sprintf("Pool worker \"%s\" registered", name), nil, nil)
}

func WorkerClaimed(name, humanName string) *Activity {
	return New(TypeWorkerClaimed, fmt.Sprintf("%s claimed by %s", name, humanName), nil, nil)
}
