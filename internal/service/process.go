package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/logger"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
	"github.com/Strob0t/MissionControl/internal/port/orchestrator"
)

// ProcessService hands tasks to the orchestration runtime. Processing never
// changes task state: the outcome is posted as a message on the task.
type ProcessService struct {
	store    database.Store
	spawner  orchestrator.Spawner
	messages *MessageService
	pub      *Publisher

	wg sync.WaitGroup
}

// NewProcessService creates a new ProcessService.
func NewProcessService(store database.Store, spawner orchestrator.Spawner, messages *MessageService, pub *Publisher) *ProcessService {
	return &ProcessService{store: store, spawner: spawner, messages: messages, pub: pub}
}

// Enqueue checks that the task can be turned into a prompt and queues it.
// With NATS the request goes to tasks.process.request; without it the task
// is processed in a background goroutine.
func (s *ProcessService) Enqueue(ctx context.Context, taskID, requestedBy string) error {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := orchestrator.TaskPrompt(t.ID, t.Title, t.Description); err != nil {
		return err
	}

	if s.pub.Queued() {
		return s.pub.Send(ctx, messagequeue.SubjectProcessRequest, messagequeue.ProcessRequestPayload{
			TaskID:      taskID,
			RequestedBy: requestedBy,
		})
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Process(bg, taskID); err != nil {
			slog.ErrorContext(bg, "task processing failed", "task_id", taskID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until in-process jobs started by Enqueue have finished.
func (s *ProcessService) Wait() { s.wg.Wait() }

// Handle consumes tasks.process.request messages.
func (s *ProcessService) Handle(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.ProcessRequestPayload
	if err := messagequeue.Decode(subject, data, &p); err != nil {
		return err
	}
	return s.Process(ctx, p.TaskID)
}

// Process spawns a sub-agent session for the task and records the outcome
// as a system message, or an error message when the spawn fails. A spawn
// failure is not returned: it is already on the task and retrying could
// start a second session.
func (s *ProcessService) Process(ctx context.Context, taskID string) error {
	ctx = logger.WithTaskID(ctx, taskID)
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "task gone before processing", "task_id", taskID)
			return nil
		}
		return err
	}
	prompt, err := orchestrator.TaskPrompt(t.ID, t.Title, t.Description)
	if err != nil {
		slog.WarnContext(ctx, "task cannot be processed", "task_id", taskID, "error", err)
		return nil
	}

	label := orchestrator.TaskLabel(t.ID)
	spanCtx, span := otel.StartSpawnSpan(ctx, t.ID, label)
	start := time.Now()
	res, spawnErr := s.spawner.Spawn(spanCtx, orchestrator.SpawnRequest{
		Task:    prompt,
		Label:   label,
		Cleanup: "keep",
	})
	s.pub.Metrics().SpawnFinished(ctx, time.Since(start).Seconds(), spawnErr)
	otel.EndSpan(span, spawnErr)

	result := messagequeue.ProcessResultPayload{TaskID: t.ID}
	req := message.CreateRequest{TaskID: t.ID}
	if spawnErr != nil {
		slog.ErrorContext(ctx, "spawn failed", "task_id", t.ID, "error", spawnErr)
		result.Status = "error"
		result.Error = spawnErr.Error()
		req.Type = message.TypeError
		req.Content = "Processing failed: " + spawnErr.Error()
	} else {
		slog.InfoContext(ctx, "sub-agent spawned", "task_id", t.ID, "run_id", res.RunID)
		result.Status = res.Status
		if result.Status == "" {
			result.Status = "spawned"
		}
		result.RunID = res.RunID
		result.ChildSessionKey = res.ChildSessionKey
		req.Type = message.TypeSystem
		req.Content = fmt.Sprintf("Sub-agent session started (run %s, session %s).", res.RunID, res.ChildSessionKey)
	}

	if _, err := s.messages.Create(ctx, req); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "task deleted during processing", "task_id", t.ID)
			return nil
		}
		return fmt.Errorf("record processing result: %w", err)
	}
	s.pub.Publish(ctx, messagequeue.SubjectProcessResult, result)
	return nil
}
