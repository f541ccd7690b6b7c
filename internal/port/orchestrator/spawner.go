// Package orchestrator defines the port for handing tasks to an external
// agent-orchestration runtime.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Strob0t/MissionControl/internal/domain"
)

// SpawnRequest describes a sub-agent session to start.
type SpawnRequest struct {
	Task    string // prompt handed to the sub-agent
	Label   string
	AgentID string
	Model   string
	Cleanup string // "keep" or "delete"; empty means keep
}

// SpawnResult is the runtime's acknowledgement of a spawned session.
type SpawnResult struct {
	Status          string `json:"status"`
	RunID           string `json:"runId"`
	ChildSessionKey string `json:"childSessionKey"`
}

// Spawner starts sub-agent sessions.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) (*SpawnResult, error)
}

// TaskPrompt renders the prompt a sub-agent receives for a task.
func TaskPrompt(id, title, description string) (string, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("task title and description are required: %w", domain.ErrValidation)
	}
	return fmt.Sprintf("## Task: %s\n\n%s\n\nTask ID: %s\n\nProcess this task and report back with your findings or completed work.",
		title, description, id), nil
}

// TaskLabel is the session label for a task.
func TaskLabel(id string) string { return "task-" + id }
