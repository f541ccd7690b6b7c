// Package task defines the Task domain entity and its status pipeline.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
)

// Status represents a column on the task board.
type Status string

const (
	StatusInbox      Status = "inbox"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in pipeline order.
var Statuses = []Status{StatusInbox, StatusAssigned, StatusInProgress, StatusReview, StatusDone}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Human renders the status for activity messages ("in_progress" -> "in progress").
func (s Status) Human() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Priority represents task urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// BoardPageSize caps the number of tasks returned per board column.
const BoardPageSize = 100

// DefaultListLimit caps unfiltered task listings.
const DefaultListLimit = 100

// Task represents a unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Summary is the {id, title} projection embedded in notification and activity views.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WithAssignee is a Task joined with its assignee projection.
type WithAssignee struct {
	Task
	Assignee *agent.Summary `json:"assignee,omitempty"`
}

// Board maps every status to its column of tasks.
type Board map[Status][]WithAssignee

// NewBoard returns a board with all five columns present and empty.
func NewBoard() Board {
	b := make(Board, len(Statuses))
	for _, s := range Statuses {
		b[s] = []WithAssignee{}
	}
	return b
}

// InitialStatus derives the creation status: assigned when an assignee is given.
func InitialStatus(assigneeID *string) Status {
	if assigneeID != nil && *assigneeID != "" {
		return StatusAssigned
	}
	return StatusInbox
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// Validate checks the request and fills in the default priority.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required: %w", domain.ErrValidation)
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if !ValidPriority(r.Priority) {
		return fmt.Errorf("invalid priority %q: %w", r.Priority, domain.ErrValidation)
	}
	if r.AssigneeID != nil && *r.AssigneeID == "" {
		r.AssigneeID = nil
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return nil
}

// UpdateRequest is a partial patch. Nil fields are left untouched;
// ClearDueDate removes the due date.
type UpdateRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`
	Tags         *[]string  `json:"tags,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fmt.Errorf("title must not be empty: %w", domain.ErrValidation)
	}
	if r.Priority != nil && !ValidPriority(*r.Priority) {
		return fmt.Errorf("invalid priority %q: %w", *r.Priority, domain.ErrValidation)
	}
	if r.DueDate != nil && r.ClearDueDate {
		return fmt.Errorf("due_date and clear_due_date are mutually exclusive: %w", domain.ErrValidation)
	}
	return nil
}

// ListFilter narrows task listings.
type ListFilter struct {
	Status     *Status
	AssigneeID *string
	Limit      int
}
