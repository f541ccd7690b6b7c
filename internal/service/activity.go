package service

import (
	"context"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/port/database"
)

// ActivityService reads the audit log. Writes happen inside the
// transactions of the other services.
type ActivityService struct {
	store database.Store
}

// NewActivityService creates a new ActivityService.
func NewActivityService(store database.Store) *ActivityService {
	return &ActivityService{store: store}
}

// ListRecent returns the latest activities across the system.
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]activity.WithContext, error) {
	return s.store.ListActivities(ctx, activity.ListFilter{
		Limit: orDefault(limit, activity.DefaultRecentLimit),
	})
}

// ListByAgent returns the activities attributed to an agent.
func (s *ActivityService) ListByAgent(ctx context.Context, agentID string, limit int) ([]activity.WithContext, error) {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		return nil, err
	}
	return s.store.ListActivities(ctx, activity.ListFilter{
		AgentID: agentID,
		Limit:   orDefault(limit, activity.DefaultAgentLimit),
	})
}

// ListByTask returns the activities referencing a task.
func (s *ActivityService) ListByTask(ctx context.Context, taskID string, limit int) ([]activity.WithContext, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.ListActivities(ctx, activity.ListFilter{
		TaskID: taskID,
		Limit:  orDefault(limit, activity.DefaultTaskLimit),
	})
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
