package sqlite

import (
	"context"
	"fmt"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
)

// --- Messages ---

func (s *Store) CreateMessage(ctx context.Context, m *message.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, task_id, sender_id, content, type, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.TaskID, m.SenderID, m.Content, string(m.Type), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *Store) ListMessagesByTask(ctx context.Context, taskID string, limit int) ([]message.WithSender, error) {
	if limit <= 0 {
		limit = message.ThreadLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.task_id, m.sender_id, m.content, m.type, m.created_at, a.id, a.name, a.emoji
		 FROM messages m LEFT JOIN agents a ON a.id = m.sender_id
		 WHERE m.task_id = ?
		 ORDER BY m.created_at ASC, m.id ASC
		 LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var out []message.WithSender
	for rows.Next() {
		var m message.Message
		var aID, aName, aEmoji *string
		if err := rows.Scan(&m.ID, &m.TaskID, &m.SenderID, &m.Content, &m.Type, &m.CreatedAt,
			&aID, &aName, &aEmoji); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, message.WithSender{Message: m, Sender: agentSummary(aID, aName, aEmoji)})
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) DeleteMessagesByTask(ctx context.Context, taskID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE task_id = ?`, taskID)
	return rowsAffected(res, err, "delete messages for task %s", taskID)
}

// --- Notifications ---

const notificationColumns = `n.id, n.mentioned_agent_id, n.from_agent_id, n.task_id, n.content, n.delivered, n.created_at`

func scanNotification(row scannable, extra ...any) (notification.Notification, error) {
	var n notification.Notification
	dest := []any{&n.ID, &n.MentionedAgentID, &n.FromAgentID, &n.TaskID, &n.Content, &n.Delivered, &n.CreatedAt}
	err := row.Scan(append(dest, extra...)...)
	return n, err
}

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, mentioned_agent_id, from_agent_id, task_id, content, delivered, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.MentionedAgentID, n.FromAgentID, n.TaskID, n.Content, n.Delivered, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.id = ?`, id))
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
	q := `SELECT ` + notificationColumns + `, a.id, a.name, a.emoji, t.id, t.title
		 FROM notifications n
		 LEFT JOIN agents a ON a.id = n.from_agent_id
		 LEFT JOIN tasks t ON t.id = n.task_id
		 WHERE n.mentioned_agent_id = ?`
	if filter.UndeliveredOnly {
		q += ` AND n.delivered = 0`
	}
	q += ` ORDER BY n.created_at DESC, n.id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, filter.AgentID, limit)
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
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET delivered = 1 WHERE id = ?`, id)
	return execExpectOne(res, err, "mark notification %s delivered", id)
}

func (s *Store) MarkAllNotificationsDelivered(ctx context.Context, agentID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET delivered = 1 WHERE mentioned_agent_id = ? AND delivered = 0`, agentID)
	return rowsAffected(res, err, "mark all notifications delivered for %s", agentID)
}

func (s *Store) CountUndeliveredNotifications(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notifications WHERE mentioned_agent_id = ? AND delivered = 0`, agentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count undelivered notifications for %s: %w", agentID, err)
	}
	return n, nil
}

func (s *Store) DeleteNotificationsByTask(ctx context.Context, taskID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE task_id = ?`, taskID)
	return rowsAffected(res, err, "delete notifications for task %s", taskID)
}

// --- Activities ---

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, type, message, agent_id, task_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), a.Message, a.AgentID, a.TaskID, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivities(ctx context.Context, filter activity.ListFilter) ([]activity.WithContext, error) {
	q := `SELECT x.id, x.type, x.message, x.agent_id, x.task_id, x.created_at, a.id, a.name, a.emoji, t.id, t.title
		 FROM activities x
		 LEFT JOIN agents a ON a.id = x.agent_id
		 LEFT JOIN tasks t ON t.id = x.task_id
		 WHERE 1 = 1`
	var args []any
	if filter.AgentID != "" {
		q += ` AND x.agent_id = ?`
		args = append(args, filter.AgentID)
	}
	if filter.TaskID != "" {
		q += ` AND x.task_id = ?`
		args = append(args, filter.TaskID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = activity.DefaultRecentLimit
	}
	q += ` ORDER BY x.created_at DESC, x.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE task_id = ?`, taskID)
	return rowsAffected(res, err, "delete activities for task %s", taskID)
}
