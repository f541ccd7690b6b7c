package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
)

const agentColumns = `id, name, emoji, status, capabilities, current_task_id, current_model, session_key, last_heartbeat, created_at`

func scanAgent(row scannable) (agent.Agent, error) {
	var a agent.Agent
	err := row.Scan(&a.ID, &a.Name, &a.Emoji, &a.Status, &a.Capabilities,
		&a.CurrentTaskID, &a.CurrentModel, &a.SessionKey, &a.LastHeartbeat, &a.CreatedAt)
	a.Capabilities = orEmpty(a.Capabilities)
	return a, err
}

func (s *Store) queryAgents(ctx context.Context, query string, args ...any) ([]agent.Agent, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return orEmpty(agents), rows.Err()
}

// --- Agents ---

func (s *Store) CreateAgent(ctx context.Context, a *agent.Agent) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO agents (`+agentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Name, a.Emoji, string(a.Status), pgTextArray(a.Capabilities),
		a.CurrentTaskID, a.CurrentModel, a.SessionKey, a.LastHeartbeat, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	a, err := scanAgent(s.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return &a, nil
}

func (s *Store) ListAgents(ctx context.Context) ([]agent.Agent, error) {
	agents, err := s.queryAgents(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

func (s *Store) FindAgentsByName(ctx context.Context, name string) ([]agent.Agent, error) {
	agents, err := s.queryAgents(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE lower(name) = lower($1) ORDER BY created_at ASC, id ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("find agents by name %q: %w", name, err)
	}
	return agents, nil
}

func (s *Store) CountAgents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM agents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count agents: %w", err)
	}
	return n, nil
}

func (s *Store) SetAgentStatus(ctx context.Context, id string, status agent.Status, currentTaskID *string, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE agents SET status = $2, current_task_id = $3, last_heartbeat = $4 WHERE id = $1`,
		id, string(status), currentTaskID, at)
	return execExpectOne(tag, err, "set agent status %s", id)
}

func (s *Store) RecordAgentHeartbeat(ctx context.Context, id string, req agent.HeartbeatRequest, at time.Time) error {
	var p patch
	p.set("last_heartbeat", at)
	if req.CurrentModel != nil {
		p.set("current_model", *req.CurrentModel)
	}
	if req.SessionKey != nil {
		p.set("session_key", *req.SessionKey)
	}
	if req.CurrentTaskID != nil {
		p.set("current_task_id", *req.CurrentTaskID)
	}
	q, args := p.build("agents", id)
	tag, err := s.db.Exec(ctx, q, args...)
	return execExpectOne(tag, err, "agent heartbeat %s", id)
}

func (s *Store) ClearAgentCurrentTask(ctx context.Context, taskID string, agentID *string) error {
	var err error
	if agentID != nil {
		_, err = s.db.Exec(ctx,
			`UPDATE agents SET current_task_id = NULL WHERE current_task_id = $1 AND id = $2`, taskID, *agentID)
	} else {
		_, err = s.db.Exec(ctx, `UPDATE agents SET current_task_id = NULL WHERE current_task_id = $1`, taskID)
	}
	if err != nil {
		return fmt.Errorf("clear current task %s: %w", taskID, err)
	}
	return nil
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete agent %s", id)
}
