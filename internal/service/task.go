package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// TaskService runs the task state machine and serves the board.
type TaskService struct {
	store database.Store
	pub   *Publisher
	now   func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(store database.Store, pub *Publisher) *TaskService {
	return &TaskService{store: store, pub: pub, now: utcNow}
}

// List returns tasks newest first, optionally filtered by status or assignee.
func (s *TaskService) List(ctx context.Context, filter task.ListFilter) ([]task.WithAssignee, error) {
	if filter.Status != nil && !task.ValidStatus(*filter.Status) {
		return nil, fmt.Errorf("invalid task status %q: %w", *filter.Status, domain.ErrValidation)
	}
	if filter.Limit <= 0 || filter.Limit > task.DefaultListLimit {
		filter.Limit = task.DefaultListLimit
	}
	return s.store.ListTasks(ctx, filter)
}

// Get returns a task with its assignee summary.
func (s *TaskService) Get(ctx context.Context, id string) (*task.WithAssignee, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &task.WithAssignee{Task: *t}
	if t.AssigneeID != nil {
		a, err := s.store.GetAgent(ctx, *t.AssigneeID)
		if err != nil {
			return nil, err
		}
		sum := a.Summary()
		out.Assignee = &sum
	}
	return out, nil
}

// ListByStatus returns the board: all five columns, each holding up to
// task.BoardPageSize tasks, newest first. The columns load concurrently and
// the result is cached until the next mutation, unless a mutation landed
// while they were loading.
func (s *TaskService) ListByStatus(ctx context.Context) (task.Board, error) {
	if board, ok := s.pub.Board().Get(ctx); ok {
		return board, nil
	}
	gen := s.pub.Board().Generation()

	board := task.NewBoard()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, st := range task.Statuses {
		g.Go(func() error {
			col, err := s.store.ListTasks(gctx, task.ListFilter{Status: &st, Limit: task.BoardPageSize})
			if err != nil {
				return fmt.Errorf("load %s column: %w", st, err)
			}
			if col == nil {
				col = []task.WithAssignee{}
			}
			mu.Lock()
			board[st] = col
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.pub.Board().Set(ctx, gen, board)
	return board, nil
}

// Create inserts a task. Its status is assigned when an assignee is given,
// inbox otherwise.
func (s *TaskService) Create(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	ctx, span := otel.StartServiceSpan(ctx, "task", "create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	t := &task.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      task.InitialStatus(req.AssigneeID),
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		Tags:        req.Tags,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rec := &recorder{now: s.now}
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if t.AssigneeID != nil {
			if _, err := tx.GetAgent(ctx, *t.AssigneeID); err != nil {
				return err
			}
		}
		if err := tx.CreateTask(ctx, t); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.TaskCreated(t))
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task created", "task_id", t.ID, "status", t.Status)
	s.pub.Metrics().TaskCreated(ctx)
	s.pub.Broadcast(ctx, ws.EventTaskCreated, t)
	s.pub.Activities(ctx, rec.written...)
	s.pub.Publish(ctx, messagequeue.SubjectTaskCreated, taskEvent(t))
	s.pub.InvalidateBoard(ctx)
	return t, nil
}

// Update applies a partial patch and records task_updated.
func (s *TaskService) Update(ctx context.Context, id string, req task.UpdateRequest) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := &recorder{now: s.now}
	updated, err := s.mutate(ctx, id, func(tx database.Store, _ *task.Task) error {
		return tx.UpdateTask(ctx, id, req, s.now())
	}, func(t *task.Task) *activity.Activity { return activity.TaskUpdated(t) }, rec)
	if err != nil {
		return nil, err
	}

	s.taskChanged(ctx, updated, rec, "")
	return updated, nil
}

// UpdateStatus moves a task to any status.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status task.Status) (*task.Task, error) {
	ctx, span := otel.StartServiceSpan(ctx, "task", "update_status",
		attribute.String("task.id", id), attribute.String("task.status", string(status)))
	defer span.End()

	if !task.ValidStatus(status) {
		return nil, fmt.Errorf("invalid task status %q: %w", status, domain.ErrValidation)
	}

	rec := &recorder{now: s.now}
	updated, err := s.mutate(ctx, id, func(tx database.Store, _ *task.Task) error {
		return tx.SetTaskStatus(ctx, id, status, s.now())
	}, func(t *task.Task) *activity.Activity { return activity.TaskStatusChanged(t, status) }, rec)
	if err != nil {
		return nil, err
	}

	s.pub.Metrics().TaskStatusChanged(ctx, string(status))
	s.taskChanged(ctx, updated, rec, messagequeue.SubjectTaskStatus)
	return updated, nil
}

// Assign sets or clears the assignee. Assigning an inbox task moves it to
// assigned atomically. The previous assignee's current task pointer is
// cleared when it referenced this task.
func (s *TaskService) Assign(ctx context.Context, id string, assigneeID *string) (*task.Task, error) {
	ctx, span := otel.StartServiceSpan(ctx, "task", "assign", attribute.String("task.id", id))
	defer span.End()

	if assigneeID != nil && *assigneeID == "" {
		assigneeID = nil
	}

	rec := &recorder{now: s.now}
	var assignee *agent.Agent
	updated, err := s.mutate(ctx, id, func(tx database.Store, before *task.Task) error {
		if assigneeID != nil {
			a, err := tx.GetAgent(ctx, *assigneeID)
			if err != nil {
				return err
			}
			assignee = a
		}
		if err := tx.AssignTask(ctx, id, assigneeID, s.now()); err != nil {
			return err
		}
		if prev := before.AssigneeID; prev != nil && (assigneeID == nil || *prev != *assigneeID) {
			return tx.ClearAgentCurrentTask(ctx, id, prev)
		}
		return nil
	}, func(t *task.Task) *activity.Activity { return activity.TaskAssigned(t, assignee) }, rec)
	if err != nil {
		return nil, err
	}

	s.taskChanged(ctx, updated, rec, messagequeue.SubjectTaskAssigned)
	return updated, nil
}

// Remove deletes a task with its messages, notifications and activities,
// clears agents' pointers to it and records task_deleted, in one transaction.
func (s *TaskService) Remove(ctx context.Context, id string) error {
	ctx, span := otel.StartServiceSpan(ctx, "task", "remove", attribute.String("task.id", id))
	defer span.End()

	rec := &recorder{now: s.now}
	var removed *task.Task
	err := s.store.InTx(ctx, func(tx database.Store) error {
		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		removed = t
		if _, err := tx.DeleteMessagesByTask(ctx, id); err != nil {
			return err
		}
		if _, err := tx.DeleteNotificationsByTask(ctx, id); err != nil {
			return err
		}
		if _, err := tx.DeleteActivitiesByTask(ctx, id); err != nil {
			return err
		}
		if err := tx.ClearAgentCurrentTask(ctx, id, nil); err != nil {
			return err
		}
		if err := tx.DeleteTask(ctx, id); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.TaskDeleted(t))
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "task removed", "task_id", id)
	s.pub.Broadcast(ctx, ws.EventTaskDeleted, ws.DeletedEvent{ID: id})
	s.pub.Activities(ctx, rec.written...)
	s.pub.Publish(ctx, messagequeue.SubjectTaskDeleted, taskEvent(removed))
	s.pub.InvalidateBoard(ctx)
	return nil
}

// mutate loads the task, applies change, re-reads it and records the
// activity built from the updated task, all in one transaction.
func (s *TaskService) mutate(
	ctx context.Context,
	id string,
	change func(tx database.Store, before *task.Task) error,
	describe func(t *task.Task) *activity.Activity,
	rec *recorder,
) (*task.Task, error) {
	var updated *task.Task
	err := s.store.InTx(ctx, func(tx database.Store) error {
		before, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if err := change(tx, before); err != nil {
			return err
		}
		if updated, err = tx.GetTask(ctx, id); err != nil {
			return err
		}
		return rec.record(ctx, tx, describe(updated))
	})
	return updated, err
}

// taskChanged fans out a committed task update. subject may be empty.
func (s *TaskService) taskChanged(ctx context.Context, t *task.Task, rec *recorder, subject string) {
	s.pub.Broadcast(ctx, ws.EventTaskUpdated, t)
	s.pub.Activities(ctx, rec.written...)
	if subject != "" {
		s.pub.Publish(ctx, subject, taskEvent(t))
	}
	s.pub.InvalidateBoard(ctx)
}

func taskEvent(t *task.Task) messagequeue.TaskEventPayload {
	return messagequeue.TaskEventPayload{
		TaskID:     t.ID,
		Title:      t.Title,
		Status:     string(t.Status),
		AssigneeID: t.AssigneeID,
	}
}
