package openclaw

import (
	"context"
	"errors"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/MissionControl/internal/config"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/port/orchestrator"
	"github.com/Strob0t/MissionControl/internal/resilience"
)

func newTestSpawner(maxConcurrent int, cmd func(ctx context.Context, name string, args ...string) *exec.Cmd) *Spawner {
	s := NewSpawner(config.Orchestrator{
		CLIPath:       "openclaw",
		Timeout:       5 * time.Second,
		MaxConcurrent: maxConcurrent,
	}, resilience.NewBreaker(2, time.Minute))
	s.execCommand = cmd
	return s
}

func echo(out string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "echo", out)
	}
}

func TestSpawn_CommandConstruction(t *testing.T) {
	var captured []string
	s := newTestSpawner(1, func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		return exec.CommandContext(ctx, "echo", `{"status":"accepted","runId":"r1","childSessionKey":"k1"}`)
	})

	res, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "do it", Label: "task-t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != "accepted" || res.RunID != "r1" || res.ChildSessionKey != "k1" {
		t.Errorf("unexpected result: %+v", res)
	}

	expected := []string{"openclaw", "sessions_spawn", "--task", "do it", "--label", "task-t1", "--cleanup", "keep"}
	if len(captured) != len(expected) {
		t.Fatalf("expected %d args, got %d: %v", len(expected), len(captured), captured)
	}
	for i, exp := range expected {
		if captured[i] != exp {
			t.Errorf("arg[%d]: expected %q, got %q", i, exp, captured[i])
		}
	}
}

func TestSpawn_OptionalFlags(t *testing.T) {
	args := spawnArgs(orchestrator.SpawnRequest{Task: "x", AgentID: "jarvis", Model: "opus", Cleanup: "delete"})
	expected := []string{"sessions_spawn", "--task", "x", "--agent-id", "jarvis", "--model", "opus", "--cleanup", "delete"}
	if len(args) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, args)
	}
	for i := range expected {
		if args[i] != expected[i] {
			t.Errorf("arg[%d]: expected %q, got %q", i, expected[i], args[i])
		}
	}
}

func TestSpawn_EmptyTask(t *testing.T) {
	s := newTestSpawner(1, echo("{}"))
	if _, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSpawn_UnparsableOutput(t *testing.T) {
	s := newTestSpawner(1, echo("not json"))
	if _, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "x"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSpawn_NonZeroExit(t *testing.T) {
	s := newTestSpawner(1, func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	})
	if _, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "x"}); err == nil {
		t.Fatal("expected error on non-zero exit")
	}
}

func TestSpawn_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	s := newTestSpawner(1, func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		calls.Add(1)
		return exec.CommandContext(ctx, "false")
	})

	for i := 0; i < 2; i++ {
		_, _ = s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "x"})
	}
	_, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "x"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected CLI to run 2 times, ran %d", got)
	}
}

func TestSpawn_Timeout(t *testing.T) {
	s := newTestSpawner(1, func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sleep", "5")
	})
	s.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "x"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("spawn did not honor timeout")
	}
}

func TestSpawn_WaitsForFreeSlot(t *testing.T) {
	var calls atomic.Int32
	s := newTestSpawner(2, func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		calls.Add(1)
		return exec.CommandContext(ctx, "echo", `{"status":"accepted","runId":"r"}`)
	})

	// Occupy both slots as if two spawns were in flight.
	if err := s.sem.Acquire(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Spawn(ctx, orchestrator.SpawnRequest{Task: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded while slots are full, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("CLI must not run without a free slot")
	}

	s.sem.Release(1)
	if _, err := s.Spawn(context.Background(), orchestrator.SpawnRequest{Task: "x"}); err != nil {
		t.Fatalf("expected spawn to proceed once a slot frees, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 CLI run, got %d", calls.Load())
	}
}
