// Package openclaw implements orchestrator.Spawner on top of the openclaw CLI.
package openclaw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Strob0t/MissionControl/internal/config"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/port/orchestrator"
	"github.com/Strob0t/MissionControl/internal/resilience"
)

const defaultCLI = "openclaw"

// Spawner runs `openclaw sessions_spawn` with bounded concurrency and a
// circuit breaker in front of the CLI.
type Spawner struct {
	cliPath string
	timeout time.Duration
	sem     *semaphore.Weighted
	breaker *resilience.Breaker

	// execCommand is swappable for testing.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

var _ orchestrator.Spawner = (*Spawner)(nil)

// NewSpawner creates a Spawner from the orchestrator config.
func NewSpawner(cfg config.Orchestrator, breaker *resilience.Breaker) *Spawner {
	path := cfg.CLIPath
	if path == "" {
		path = defaultCLI
	}
	return &Spawner{
		cliPath:     path,
		timeout:     cfg.Timeout,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		breaker:     breaker,
		execCommand: exec.CommandContext,
	}
}

// Spawn starts a sub-agent session. It blocks while the concurrency limit is
// reached and fails fast with resilience.ErrCircuitOpen while the CLI is
// considered down.
func (s *Spawner) Spawn(ctx context.Context, req orchestrator.SpawnRequest) (*orchestrator.SpawnResult, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, fmt.Errorf("spawn: task prompt is required: %w", domain.ErrValidation)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("spawn: wait for slot: %w", err)
	}
	defer s.sem.Release(1)

	var result *orchestrator.SpawnResult
	err := s.breaker.Execute(func() error {
		var runErr error
		result, runErr = s.run(ctx, spawnArgs(req))
		return runErr
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			slog.Warn("openclaw circuit open, spawn rejected", "label", req.Label)
		}
		return nil, err
	}
	return result, nil
}

func spawnArgs(req orchestrator.SpawnRequest) []string {
	args := []string{"sessions_spawn", "--task", req.Task}
	if req.Label != "" {
		args = append(args, "--label", req.Label)
	}
	if req.AgentID != "" {
		args = append(args, "--agent-id", req.AgentID)
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	cleanup := req.Cleanup
	if cleanup == "" {
		cleanup = "keep"
	}
	return append(args, "--cleanup", cleanup)
}

func (s *Spawner) run(ctx context.Context, args []string) (*orchestrator.SpawnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := s.execCommand(ctx, s.cliPath, args...) //nolint:gosec // CLI path comes from trusted config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("openclaw %s: timed out after %s", args[0], s.timeout)
		}
		return nil, fmt.Errorf("openclaw %s: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}

	var res orchestrator.SpawnResult
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &res); err != nil {
		return nil, fmt.Errorf("parse openclaw output: %w", err)
	}
	if res.RunID == "" {
		return nil, fmt.Errorf("parse openclaw output: missing runId")
	}
	return &res, nil
}
