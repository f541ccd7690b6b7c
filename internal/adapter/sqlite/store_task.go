package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.assignee_id, t.tags, t.due_date, t.created_at, t.updated_at`

func scanTask(row scannable, extra ...any) (task.Task, error) {
	var t task.Task
	var tags jsonStrings
	dest := []any{&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssigneeID, &tags, &t.DueDate, &t.CreatedAt, &t.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	t.Tags = orEmpty([]string(tags))
	return t, err
}

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, status, priority, assignee_id, tags, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.AssigneeID, jsonStrings(t.Tags), t.DueDate, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id))
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
		where = append(where, "t.status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.AssigneeID != nil {
		where = append(where, "t.assignee_id = ?")
		args = append(args, *filter.AssigneeID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = task.DefaultListLimit
	}

	q := `SELECT ` + taskColumns + `, a.id, a.name, a.emoji
		 FROM tasks t LEFT JOIN agents a ON a.id = t.assignee_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY t.created_at DESC, t.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
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
		p.set("tags", jsonStrings(*req.Tags))
	}
	p.set("updated_at", at)

	q, args := p.build("tasks", id)
	res, err := s.db.ExecContext(ctx, q, args...)
	return execExpectOne(res, err, "update task %s", id)
}

func (s *Store) SetTaskStatus(ctx context.Context, id string, status task.Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, string(status), at, id)
	return execExpectOne(res, err, "set task status %s", id)
}

func (s *Store) AssignTask(ctx context.Context, id string, assigneeID *string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET
		   assignee_id = ?,
		   status = CASE WHEN ? IS NOT NULL AND status = 'inbox' THEN 'assigned' ELSE status END,
		   updated_at = ?
		 WHERE id = ?`, assigneeID, assigneeID, at, id)
	return execExpectOne(res, err, "assign task %s", id)
}

func (s *Store) TouchTask(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET updated_at = ? WHERE id = ?`, at, id)
	return execExpectOne(res, err, "touch task %s", id)
}

func (s *Store) UnassignAgentTasks(ctx context.Context, agentID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET assignee_id = NULL, status = 'inbox', updated_at = ? WHERE assignee_id = ?`, at, agentID)
	return rowsAffected(res, err, "unassign tasks of agent %s", agentID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return execExpectOne(res, err, "delete task %s", id)
}

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

func taskSummary(id, title *string) *task.Summary {
	if id == nil {
		return nil
	}
	sum := &task.Summary{ID: *id}
	if title != nil {
		sum.Title = *title
	}
	return sum
}
