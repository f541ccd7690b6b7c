// Package notification defines per-agent mention notifications and the
// mention parser that produces them.
package notification

import (
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

// DefaultListLimit is the page size for ListForAgent when none is given.
const DefaultListLimit = 50

// Notification tells an agent it was mentioned on a task.
type Notification struct {
	ID               string    `json:"id"`
	MentionedAgentID string    `json:"mentioned_agent_id"`
	FromAgentID      *string   `json:"from_agent_id,omitempty"`
	TaskID           string    `json:"task_id"`
	Content          string    `json:"content"`
	Delivered        bool      `json:"delivered"`
	CreatedAt        time.Time `json:"created_at"`
}

// WithContext is a Notification joined with its sender and task projections.
type WithContext struct {
	Notification
	FromAgent *agent.Summary `json:"from_agent,omitempty"`
	Task      *task.Summary  `json:"task,omitempty"`
}

// ListFilter narrows ListForAgent.
type ListFilter struct {
	AgentID         string
	UndeliveredOnly bool
	Limit           int
}
