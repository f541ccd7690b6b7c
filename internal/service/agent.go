package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/logger"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// AgentService manages the agent lifecycle: registration, status, heartbeats
// and removal.
type AgentService struct {
	store      database.Store
	pub        *Publisher
	staleAfter time.Duration
	now        func() time.Time
}

// NewAgentService creates a new AgentService. staleAfter <= 0 uses
// agent.DefaultStaleAfter.
func NewAgentService(store database.Store, pub *Publisher, staleAfter time.Duration) *AgentService {
	if staleAfter <= 0 {
		staleAfter = agent.DefaultStaleAfter
	}
	return &AgentService{store: store, pub: pub, staleAfter: staleAfter, now: utcNow}
}

func (s *AgentService) view(a agent.Agent) agent.View {
	return agent.NewView(a, s.now(), s.staleAfter)
}

// List returns all agents, oldest first, with their staleness.
func (s *AgentService) List(ctx context.Context) ([]agent.View, error) {
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]agent.View, len(agents))
	for i := range agents {
		views[i] = s.view(agents[i])
	}
	return views, nil
}

// Get returns an agent by ID.
func (s *AgentService) Get(ctx context.Context, id string) (*agent.View, error) {
	a, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*a)
	return &v, nil
}

// GetByName looks an agent up case-insensitively. With duplicate names the
// oldest agent wins, the same rule mention resolution uses.
func (s *AgentService) GetByName(ctx context.Context, name string) (*agent.View, error) {
	matches, err := s.store.FindAgentsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("get agent by name %q: %w", name, domain.ErrNotFound)
	}
	v := s.view(matches[0])
	return &v, nil
}

// Register creates an idle agent and records agent_created.
func (s *AgentService) Register(ctx context.Context, req agent.CreateRequest) (*agent.Agent, error) {
	ctx, span := otel.StartServiceSpan(ctx, "agent", "register")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.store.FindAgentsByName(ctx, req.Name); err == nil && len(existing) > 0 {
		slog.WarnContext(ctx, "agent name already in use, mentions resolve to the oldest agent",
			"name", req.Name, "existing_id", existing[0].ID)
	}

	now := s.now()
	a := &agent.Agent{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Emoji:         req.Emoji,
		Status:        agent.StatusIdle,
		Capabilities:  req.Capabilities,
		CurrentModel:  req.CurrentModel,
		SessionKey:    req.SessionKey,
		LastHeartbeat: now,
		CreatedAt:     now,
	}
	if a.Capabilities == nil {
		a.Capabilities = []string{}
	}

	rec := &recorder{now: s.now}
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if err := tx.CreateAgent(ctx, a); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.AgentCreated(a))
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "agent registered", "agent_id", a.ID, "name", a.Name)
	s.pub.Broadcast(ctx, ws.EventAgentCreated, s.view(*a))
	s.pub.Activities(ctx, rec.written...)
	s.pub.Publish(ctx, messagequeue.SubjectAgentStatus, agentEvent(a))
	return a, nil
}

// SetStatus sets the agent's status and current task and refreshes its
// heartbeat. An omitted current task clears it.
func (s *AgentService) SetStatus(ctx context.Context, id string, req agent.StatusRequest) (*agent.Agent, error) {
	ctx, span := otel.StartServiceSpan(ctx, "agent", "set_status", attribute.String("agent.id", id))
	defer span.End()
	ctx = logger.WithAgentID(ctx, id)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := &recorder{now: s.now}
	var updated *agent.Agent
	err := s.store.InTx(ctx, func(tx database.Store) error {
		a, err := tx.GetAgent(ctx, id)
		if err != nil {
			return err
		}
		if err := checkCurrentTask(ctx, tx, id, req.CurrentTaskID); err != nil {
			return err
		}
		if err := tx.SetAgentStatus(ctx, id, req.Status, req.CurrentTaskID, s.now()); err != nil {
			return err
		}
		if err := rec.record(ctx, tx, activity.AgentStatusChanged(a, req.Status)); err != nil {
			return err
		}
		updated, err = tx.GetAgent(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.agentChanged(ctx, updated, rec)
	return updated, nil
}

// Heartbeat refreshes last_heartbeat and the provided fields only. It writes
// no activity.
func (s *AgentService) Heartbeat(ctx context.Context, id string, req agent.HeartbeatRequest) (*agent.Agent, error) {
	ctx = logger.WithAgentID(ctx, id)
	var updated *agent.Agent
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if _, err := tx.GetAgent(ctx, id); err != nil {
			return err
		}
		if err := checkCurrentTask(ctx, tx, id, req.CurrentTaskID); err != nil {
			return err
		}
		if err := tx.RecordAgentHeartbeat(ctx, id, req, s.now()); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetAgent(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.pub.Broadcast(ctx, ws.EventAgentUpdated, s.view(*updated))
	return updated, nil
}

// Remove unassigns the agent's tasks, records agent_deleted and deletes the
// agent, all in one transaction.
func (s *AgentService) Remove(ctx context.Context, id string) error {
	ctx, span := otel.StartServiceSpan(ctx, "agent", "remove", attribute.String("agent.id", id))
	defer span.End()

	rec := &recorder{now: s.now}
	var removed *agent.Agent
	var unassigned int64
	err := s.store.InTx(ctx, func(tx database.Store) error {
		a, err := tx.GetAgent(ctx, id)
		if err != nil {
			return err
		}
		removed = a
		if unassigned, err = tx.UnassignAgentTasks(ctx, id, s.now()); err != nil {
			return err
		}
		if err := rec.record(ctx, tx, activity.AgentDeleted(a)); err != nil {
			return err
		}
		return tx.DeleteAgent(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "agent removed", "agent_id", id, "tasks_unassigned", unassigned)
	s.pub.Broadcast(ctx, ws.EventAgentDeleted, ws.DeletedEvent{ID: id})
	s.pub.Activities(ctx, rec.written...)
	s.pub.Publish(ctx, messagequeue.SubjectAgentDeleted, agentEvent(removed))
	s.pub.InvalidateBoard(ctx)
	return nil
}

// HandleHeartbeat consumes agents.heartbeat messages.
func (s *AgentService) HandleHeartbeat(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.HeartbeatPayload
	if err := messagequeue.Decode(subject, data, &p); err != nil {
		return err
	}
	_, err := s.Heartbeat(ctx, p.AgentID, agent.HeartbeatRequest{
		CurrentModel:  p.CurrentModel,
		SessionKey:    p.SessionKey,
		CurrentTaskID: p.CurrentTaskID,
	})
	return err
}

func (s *AgentService) agentChanged(ctx context.Context, a *agent.Agent, rec *recorder) {
	s.pub.Broadcast(ctx, ws.EventAgentUpdated, s.view(*a))
	s.pub.Activities(ctx, rec.written...)
	s.pub.Publish(ctx, messagequeue.SubjectAgentStatus, agentEvent(a))
	s.pub.InvalidateBoard(ctx)
}

// checkCurrentTask enforces that a reported current task exists and is
// assigned to the agent.
func checkCurrentTask(ctx context.Context, tx database.Store, agentID string, taskID *string) error {
	if taskID == nil {
		return nil
	}
	t, err := tx.GetTask(ctx, *taskID)
	if err != nil {
		return err
	}
	if t.AssigneeID == nil || *t.AssigneeID != agentID {
		return fmt.Errorf("task %s is not assigned to agent %s: %w", *taskID, agentID, domain.ErrInvalidState)
	}
	return nil
}

func agentEvent(a *agent.Agent) messagequeue.AgentEventPayload {
	return messagequeue.AgentEventPayload{
		AgentID:       a.ID,
		Name:          a.Name,
		Status:        string(a.Status),
		CurrentTaskID: a.CurrentTaskID,
	}
}
