package service

import (
	"context"

	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
	"github.com/Strob0t/MissionControl/internal/port/database"
)

// NotificationService is the read and acknowledge side of mention
// notifications. Notifications are created by MessageService.
type NotificationService struct {
	store database.Store
	pub   *Publisher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store database.Store, pub *Publisher) *NotificationService {
	return &NotificationService{store: store, pub: pub}
}

// ListForAgent returns the agent's notifications newest first. limit <= 0
// uses notification.DefaultListLimit.
func (s *NotificationService) ListForAgent(ctx context.Context, agentID string, undeliveredOnly bool, limit int) ([]notification.WithContext, error) {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = notification.DefaultListLimit
	}
	return s.store.ListNotifications(ctx, notification.ListFilter{
		AgentID:         agentID,
		UndeliveredOnly: undeliveredOnly,
		Limit:           limit,
	})
}

// MarkDelivered flags one notification delivered. Marking an already
// delivered notification succeeds without a change.
func (s *NotificationService) MarkDelivered(ctx context.Context, id string) error {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.Delivered {
		return nil
	}
	if err := s.store.MarkNotificationDelivered(ctx, id); err != nil {
		return err
	}

	s.pub.Metrics().NotificationsMarked(ctx, 1)
	s.pub.Broadcast(ctx, ws.EventNotificationDelivered, ws.NotificationDeliveredEvent{
		AgentID:        n.MentionedAgentID,
		NotificationID: id,
	})
	return nil
}

// MarkAllDelivered flags every undelivered notification of the agent and
// returns how many changed.
func (s *NotificationService) MarkAllDelivered(ctx context.Context, agentID string) (int64, error) {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllNotificationsDelivered(ctx, agentID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.pub.Metrics().NotificationsMarked(ctx, n)
		s.pub.Broadcast(ctx, ws.EventNotificationDelivered, ws.NotificationDeliveredEvent{
			AgentID: agentID,
			Count:   n,
		})
	}
	return n, nil
}

// CountUndelivered returns the agent's unread notification count.
func (s *NotificationService) CountUndelivered(ctx context.Context, agentID string) (int, error) {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		return 0, err
	}
	return s.store.CountUndeliveredNotifications(ctx, agentID)
}
