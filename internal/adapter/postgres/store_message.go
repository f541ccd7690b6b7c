package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/MissionControl/internal/domain/message"
)

// --- Messages ---

func (s *Store) CreateMessage(ctx context.Context, m *message.Message) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO messages (id, task_id, sender_id, content, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
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
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.task_id, m.sender_id, m.content, m.type, m.created_at, a.id, a.name, a.emoji
		 FROM messages m LEFT JOIN agents a ON a.id = m.sender_id
		 WHERE m.task_id = $1
		 ORDER BY m.created_at ASC, m.id ASC
		 LIMIT $2`, taskID, limit)
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
	tag, err := s.db.Exec(ctx, `DELETE FROM messages WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, fmt.Errorf("delete messages for task %s: %w", taskID, err)
	}
	return tag.RowsAffected(), nil
}
