package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
	"github.com/Strob0t/MissionControl/internal/logger"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// MessageService posts task messages and fans @mentions out into
// notifications.
type MessageService struct {
	store database.Store
	pub   *Publisher
	now   func() time.Time
}

// NewMessageService creates a new MessageService.
func NewMessageService(store database.Store, pub *Publisher) *MessageService {
	return &MessageService{store: store, pub: pub, now: utcNow}
}

// Created is the result of posting a message.
type Created struct {
	Message       message.Message             `json:"message"`
	Notifications []notification.Notification `json:"notifications"`
}

// Create posts a message on a task. One notification is written per
// resolved mention, duplicates included; unknown names are dropped. The
// message, the task touch, the notifications and the message_sent activity
// commit together.
func (s *MessageService) Create(ctx context.Context, req message.CreateRequest) (*Created, error) {
	ctx, span := otel.StartServiceSpan(ctx, "message", "create", attribute.String("task.id", req.TaskID))
	defer span.End()
	ctx = logger.WithTaskID(ctx, req.TaskID)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	m := message.Message{
		ID:        uuid.NewString(),
		TaskID:    req.TaskID,
		SenderID:  req.SenderID,
		Content:   req.Content,
		Type:      req.Type,
		CreatedAt: now,
	}

	rec := &recorder{now: s.now}
	var notes []notification.Notification
	err := s.store.InTx(ctx, func(tx database.Store) error {
		notes = nil
		if _, err := tx.GetTask(ctx, m.TaskID); err != nil {
			return err
		}
		var sender *agent.Agent
		if m.SenderID != nil {
			a, err := tx.GetAgent(ctx, *m.SenderID)
			if err != nil {
				return err
			}
			sender = a
		}

		if err := tx.CreateMessage(ctx, &m); err != nil {
			return err
		}
		if err := tx.TouchTask(ctx, m.TaskID, now); err != nil {
			return err
		}

		if names := notification.ParseMentions(m.Content); len(names) > 0 {
			agents, err := tx.ListAgents(ctx)
			if err != nil {
				return err
			}
			shared := notification.Ambiguous(agents)
			for _, r := range notification.Resolve(names, agents) {
				if !r.Resolved() {
					slog.DebugContext(ctx, "unresolved mention dropped", "name", r.Name)
					continue
				}
				if slices.Contains(shared, strings.ToLower(r.Name)) {
					slog.WarnContext(ctx, "mention matches several agents, notifying the oldest",
						"name", r.Name, "agent_id", r.Agent.ID)
				}
				n := notification.Notification{
					ID:               uuid.NewString(),
					MentionedAgentID: r.Agent.ID,
					FromAgentID:      m.SenderID,
					TaskID:           m.TaskID,
					Content:          m.Content,
					CreatedAt:        now,
				}
				if err := tx.CreateNotification(ctx, &n); err != nil {
					return err
				}
				notes = append(notes, n)
			}
		}

		if m.Type == message.TypeSystem {
			return nil
		}
		return rec.record(ctx, tx, activity.MessageSent(m.TaskID, m.Content, sender))
	})
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []notification.Notification{}
	}

	slog.InfoContext(ctx, "message posted", "task_id", m.TaskID, "message_id", m.ID, "notifications", len(notes))
	s.pub.Metrics().MessageCreated(ctx, len(notes))
	s.pub.Broadcast(ctx, ws.EventMessageCreated, m)
	for i := range notes {
		s.pub.Broadcast(ctx, ws.EventNotificationCreated, notes[i])
		s.pub.Publish(ctx, messagequeue.SubjectNotificationCreated, messagequeue.NotificationCreatedPayload{
			NotificationID:   notes[i].ID,
			MentionedAgentID: notes[i].MentionedAgentID,
			FromAgentID:      notes[i].FromAgentID,
			TaskID:           notes[i].TaskID,
			Content:          notes[i].Content,
		})
	}
	s.pub.Activities(ctx, rec.written...)
	s.pub.InvalidateBoard(ctx)
	return &Created{Message: m, Notifications: notes}, nil
}

// ListByTask returns the task's thread oldest first, capped at
// message.ThreadLimit.
func (s *MessageService) ListByTask(ctx context.Context, taskID string) ([]message.WithSender, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.ListMessagesByTask(ctx, taskID, message.ThreadLimit)
}
