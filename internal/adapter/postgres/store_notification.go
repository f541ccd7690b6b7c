package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MissionControl/internal/domain/notification"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

const notificationColumns = `n.id, n.mentioned_agent_id, n.from_agent_id, n.task_id, n.content, n.delivered, n.created_at`

func scanNotification(row scannable, extra ...any) (notification.Notification, error) {
	var n notification.Notification
	dest := []any{&n.ID, &n.MentionedAgentID, &n.FromAgentID, &n.TaskID, &n.Content, &n.Delivered, &n.CreatedAt}
	err := row.Scan(append(dest, extra...)...)
	return n, err
}

// --- Notifications ---

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (id, mentioned_agent_id, from_agent_id, task_id, content, delivered, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.MentionedAgentID, n.FromAgentID, n.TaskID, n.Content, n.Delivered, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := scanNotification(s.db.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get notification %s", id)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, filter notification.ListFilter) ([]notification.WithContext, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = notification.DefaultListLimit
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+notificationColumns+`, a.id, a.name, a.emoji, t.id, t.title
		 FROM notifications n
		 LEFT JOIN agents a ON a.id = n.from_agent_id
		 LEFT JOIN tasks t ON t.id = n.task_id
		 WHERE n.mentioned_agent_id = $1 AND (NOT $2 OR n.delivered = FALSE)
		 ORDER BY n.created_at DESC, n.id DESC
		 LIMIT $3`, filter.AgentID, filter.UndeliveredOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for agent %s: %w", filter.AgentID, err)
	}
	defer rows.Close()

	var out []notification.WithContext
	for rows.Next() {
		var aID, aName, aEmoji, tID, tTitle *string
		n, err := scanNotification(rows, &aID, &aName, &aEmoji, &tID, &tTitle)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, notification.WithContext{
			Notification: n,
			FromAgent:    agentSummary(aID, aName, aEmoji),
			Task:         taskSummary(tID, tTitle),
		})
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) MarkNotificationDelivered(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET delivered = TRUE WHERE id = $1`, id)
	return execExpectOne(tag, err, "mark notification %s delivered", id)
}

func (s *Store) MarkAllNotificationsDelivered(ctx context.Context, agentID string) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET delivered = TRUE WHERE mentioned_agent_id = $1 AND delivered = FALSE`, agentID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications delivered for %s: %w", agentID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountUndeliveredNotifications(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE mentioned_agent_id = $1 AND delivered = FALSE`, agentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count undelivered notifications for %s: %w", agentID, err)
	}
	return n, nil
}

func (s *Store) DeleteNotificationsByTask(ctx context.Context, taskID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, fmt.Errorf("delete notifications for task %s: %w", taskID, err)
	}
	return tag.RowsAffected(), nil
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
