// Package message defines task conversation messages.
package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
)

// Type classifies a message.
type Type string

const (
	TypeText   Type = "text"
	TypeSystem Type = "system"
	TypeError  Type = "error"
)

// ValidType reports whether t is a known message type.
func ValidType(t Type) bool {
	switch t {
	case TypeText, TypeSystem, TypeError:
		return true
	}
	return false
}

// ThreadLimit caps the number of messages returned for a task.
const ThreadLimit = 1000

// Message is an immutable entry in a task's conversation.
type Message struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	SenderID  *string   `json:"sender_id,omitempty"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// WithSender is a Message joined with its sender projection.
type WithSender struct {
	Message
	Sender *agent.Summary `json:"sender,omitempty"`
}

// CreateRequest holds the fields needed to post a message on a task.
type CreateRequest struct {
	TaskID   string  `json:"task_id"`
	SenderID *string `json:"sender_id,omitempty"`
	Content  string  `json:"content"`
	Type     Type    `json:"type"`
}

// Validate checks the request and defaults the type to text.
func (r *CreateRequest) Validate() error {
	if r.TaskID == "" {
		return fmt.Errorf("task_id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required: %w", domain.ErrValidation)
	}
	if r.Type == "" {
		r.Type = TypeText
	}
	if !ValidType(r.Type) {
		return fmt.Errorf("invalid message type %q: %w", r.Type, domain.ErrValidation)
	}
	if r.SenderID != nil && *r.SenderID == "" {
		r.SenderID = nil
	}
	return nil
}
