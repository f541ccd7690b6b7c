// Package agent defines the Agent domain entity.
package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
)

// Status represents the current state of an agent.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
	StatusBusy   Status = "busy"
	StatusError  Status = "error"
)

// ValidStatus reports whether s is a known agent status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusIdle, StatusActive, StatusBusy, StatusError:
		return true
	}
	return false
}

// DefaultStaleAfter is the heartbeat age after which an agent is reported stale.
const DefaultStaleAfter = 30 * time.Minute

// Agent represents an autonomous worker that can be assigned tasks.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Emoji         string    `json:"emoji"`
	Status        Status    `json:"status"`
	Capabilities  []string  `json:"capabilities"`
	CurrentTaskID *string   `json:"current_task_id,omitempty"`
	CurrentModel  *string   `json:"current_model,omitempty"`
	SessionKey    *string   `json:"session_key,omitempty"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsStale reports whether the last heartbeat is older than staleAfter.
// Staleness is derived at read time and never stored.
func (a *Agent) IsStale(now time.Time, staleAfter time.Duration) bool {
	return now.Sub(a.LastHeartbeat) > staleAfter
}

// Summary returns the minimal projection embedded in task and notification views.
func (a *Agent) Summary() Summary {
	return Summary{ID: a.ID, Name: a.Name, Emoji: a.Emoji}
}

// DisplayName renders "<emoji> <name>" as used in activity messages.
func (a *Agent) DisplayName() string {
	return a.Emoji + " " + a.Name
}

// View is an Agent annotated with its read-time staleness.
type View struct {
	Agent
	Stale bool `json:"stale"`
}

// NewView annotates a with staleness as of now.
func NewView(a Agent, now time.Time, staleAfter time.Duration) View {
	return View{Agent: a, Stale: a.IsStale(now, staleAfter)}
}

// Summary is the {id, name, emoji} projection of an agent.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// CreateRequest holds the fields needed to register a new agent.
type CreateRequest struct {
	Name         string   `json:"name"`
	Emoji        string   `json:"emoji"`
	Capabilities []string `json:"capabilities"`
	CurrentModel *string  `json:"current_model,omitempty"`
	SessionKey   *string  `json:"session_key,omitempty"`
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Emoji) == "" {
		return fmt.Errorf("emoji is required: %w", domain.ErrValidation)
	}
	return nil
}

// StatusRequest sets an agent's status. A nil CurrentTaskID clears the
// agent's current task.
type StatusRequest struct {
	Status        Status  `json:"status"`
	CurrentTaskID *string `json:"current_task_id,omitempty"`
}

// Validate checks that a StatusRequest is well-formed.
func (r *StatusRequest) Validate() error {
	if !ValidStatus(r.Status) {
		return fmt.Errorf("invalid agent status %q: %w", r.Status, domain.ErrValidation)
	}
	return nil
}

// HeartbeatRequest is a partial update: nil fields are left unchanged.
type HeartbeatRequest struct {
	CurrentModel  *string `json:"current_model,omitempty"`
	SessionKey    *string `json:"session_key,omitempty"`
	CurrentTaskID *string `json:"current_task_id,omitempty"`
}
