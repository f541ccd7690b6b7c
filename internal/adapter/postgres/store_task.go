package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.assignee_id, t.tags, t.due_date, t.created_at, t.updated_at`

func scanTask(row scannable, extra ...any) (task.Task, error) {
	var t task.Task
	dest := []any{&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssigneeID, &t.Tags, &t.DueDate, &t.CreatedAt, &t.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	t.Tags = orEmpty(t.Tags)
	return t, err
}

// --- Tasks ---

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tasks (id, title, description, status, priority, assignee_id, tags, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.AssigneeID, pgTextArray(t.Tags), t.DueDate, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get task %s", id)
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, filter task.ListFilter) ([]task.WithAssignee, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, "t.status = $"+strconv.Itoa(len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		where = append(where, "t.assignee_id = $"+strconv.Itoa(len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = task.DefaultListLimit
	}
	args = append(args, limit)

	q := `SELECT ` + taskColumns + `, a.id, a.name, a.emoji
		 FROM tasks t LEFT JOIN agents a ON a.id = t.assignee_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY t.created_at DESC, t.id DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []task.WithAssignee
	for rows.Next() {
		var aID, aName, aEmoji *string
		t, err := scanTask(rows, &aID, &aName, &aEmoji)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task.WithAssignee{Task: t, Assignee: agentSummary(aID, aName, aEmoji)})
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, id string, req task.UpdateRequest, at time.Time) error {
	var p patch
	if req.Title != nil {
		p.set("title", *req.Title)
	}
	if req.Description != nil {
		p.set("description", *req.Description)
	}
	if req.Priority != nil {
		p.set("priority", string(*req.Priority))
	}
	if req.DueDate != nil {
		p.set("due_date", *req.DueDate)
	} else if req.ClearDueDate {
		p.set("due_date", nil)
	}
	if req.Tags != nil {
		p.set("tags", pgTextArray(*req.Tags))
	}
	p.set("updated_at", at)

	q, args := p.build("tasks", id)
	tag, err := s.db.Exec(ctx, q, args...)
	return execExpectOne(tag, err, "update task %s", id)
}

func (s *Store) SetTaskStatus(ctx context.Context, id string, status task.Status, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	return execExpectOne(tag, err, "set task status %s", id)
}

func (s *Store) AssignTask(ctx context.Context, id string, assigneeID *string, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET
		   assignee_id = $2,
		   status = CASE WHEN $2::uuid IS NOT NULL AND status = 'inbox' THEN 'assigned' ELSE status END,
		   updated_at = $3
		 WHERE id = $1`, id, assigneeID, at)
	return execExpectOne(tag, err, "assign task %s", id)
}

func (s *Store) TouchTask(ctx context.Context, id string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE tasks SET updated_at = $2 WHERE id = $1`, id, at)
	return execExpectOne(tag, err, "touch task %s", id)
}

func (s *Store) UnassignAgentTasks(ctx context.Context, agentID string, at time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET assignee_id = NULL, status = 'inbox', updated_at = $2 WHERE assignee_id = $1`, agentID, at)
	if err != nil {
		return 0, fmt.Errorf("unassign tasks of agent %s: %w", agentID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete task %s", id)
}

// agentSummary builds an optional projection from LEFT JOIN columns.
func agentSummary(id, name, emoji *string) *agent.Summary {
	if id == nil {
		return nil
	}
	sum := &agent.Summary{ID: *id}
	if name != nil {
		sum.Name = *name
	}
	if emoji != nil {
		sum.Emoji = *emoji
	}
	return sum
}
