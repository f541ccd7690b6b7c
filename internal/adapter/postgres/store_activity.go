package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
)

// --- Activities ---

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO activities (id, type, message, agent_id, task_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, string(a.Type), a.Message, a.AgentID, a.TaskID, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivities(ctx context.Context, filter activity.ListFilter) ([]activity.WithContext, error) {
	var (
		where []string
		args  []any
	)
	if filter.AgentID != "" {
		args = append(args, filter.AgentID)
		where = append(where, "x.agent_id = $"+strconv.Itoa(len(args)))
	}
	if filter.TaskID != "" {
		args = append(args, filter.TaskID)
		where = append(where, "x.task_id = $"+strconv.Itoa(len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = activity.DefaultRecentLimit
	}
	args = append(args, limit)

	q := `SELECT x.id, x.type, x.message, x.agent_id, x.task_id, x.created_at, a.id, a.name, a.emoji, t.id, t.title
		 FROM activities x
		 LEFT JOIN agents a ON a.id = x.agent_id
		 LEFT JOIN tasks t ON t.id = x.task_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY x.created_at DESC, x.id DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []activity.WithContext
	for rows.Next() {
		var x activity.Activity
		var aID, aName, aEmoji, tID, tTitle *string
		if err := rows.Scan(&x.ID, &x.Type, &x.Message, &x.AgentID, &x.TaskID, &x.CreatedAt,
			&aID, &aName, &aEmoji, &tID, &tTitle); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, activity.WithContext{
			Activity: x,
			Agent:    agentSummary(aID, aName, aEmoji),
			Task:     taskSummary(tID, tTitle),
		})
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) DeleteActivitiesByTask(ctx context.Context, taskID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM activities WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, fmt.Errorf("delete activities for task %s: %w", taskID, err)
	}
	return tag.RowsAffected(), nil
}
