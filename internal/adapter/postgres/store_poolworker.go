package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
)

const poolWorkerColumns = `id, name, description, operator_name, capabilities, status, api_key_hash, api_key_prefix,
	claim_token, claimed_by, claimed_at, token_budget, tokens_contributed, tasks_completed, reputation_score,
	last_heartbeat, created_at`

func scanPoolWorker(row scannable) (poolworker.Worker, error) {
	var w poolworker.Worker
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.OperatorName, &w.Capabilities, &w.Status,
		&w.APIKeyHash, &w.APIKeyPrefix, &w.ClaimToken, &w.ClaimedBy, &w.ClaimedAt, &w.TokenBudget,
		&w.TokensContributed, &w.TasksCompleted, &w.ReputationScore, &w.LastHeartbeat, &w.CreatedAt)
	w.Capabilities = orEmpty(w.Capabilities)
	return w, err
}

// --- Pool Workers ---

func (s *Store) CreatePoolWorker(ctx context.Context, w *poolworker.Worker) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO pool_workers (`+poolWorkerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		w.ID, w.Name, w.Description, w.OperatorName, pgTextArray(w.Capabilities), string(w.Status),
		w.APIKeyHash, w.APIKeyPrefix, w.ClaimToken, w.ClaimedBy, w.ClaimedAt, w.TokenBudget,
		w.TokensContributed, w.TasksCompleted, w.ReputationScore, w.LastHeartbeat, w.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create pool worker: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create pool worker: %w", err)
	}
	return nil
}

func (s *Store) GetPoolWorker(ctx context.Context, id string) (*poolworker.Worker, error) {
	w, err := scanPoolWorker(s.db.QueryRow(ctx, `SELECT `+poolWorkerColumns+` FROM pool_workers WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get pool worker %s", id)
	}
	return &w, nil
}

func (s *Store) GetPoolWorkerByAPIKeyHash(ctx context.Context, hash string) (*poolworker.Worker, error) {
	w, err := scanPoolWorker(s.db.QueryRow(ctx,
		`SELECT `+poolWorkerColumns+` FROM pool_workers WHERE api_key_hash = $1`, hash))
	if err != nil {
		return nil, notFoundWrap(err, "get pool worker by api key")
	}
	return &w, nil
}

func (s *Store) GetPoolWorkerByClaimToken(ctx context.Context, token string) (*poolworker.Worker, error) {
	w, err := scanPoolWorker(s.db.QueryRow(ctx,
		`SELECT `+poolWorkerColumns+` FROM pool_workers WHERE claim_token = $1`, token))
	if err != nil {
		return nil, notFoundWrap(err, "get pool worker by claim token")
	}
	return &w, nil
}

func (s *Store) ListPoolWorkers(ctx context.Context) ([]poolworker.Worker, error) {
	rows, err := s.db.Query(ctx, `SELECT `+poolWorkerColumns+` FROM pool_workers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list pool workers: %w", err)
	}
	defer rows.Close()

	var workers []poolworker.Worker
	for rows.Next() {
		w, err := scanPoolWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool worker: %w", err)
		}
		workers = append(workers, w)
	}
	return orEmpty(workers), rows.Err()
}

func (s *Store) ClaimPoolWorker(ctx context.Context, id, humanName string, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE pool_workers SET status = 'available', claimed_by = $2, claimed_at = $3
		 WHERE id = $1 AND status = 'pending_claim'`, id, humanName, at)
	if err != nil {
		return fmt.Errorf("claim pool worker %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetPoolWorker(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("claim pool worker %s: already claimed: %w", id, domain.ErrInvalidState)
	}
	return nil
}

func (s *Store) SetPoolWorkerAvailability(ctx context.Context, id string, status poolworker.Status, tokenBudget *int64, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE pool_workers SET status = $2, token_budget = COALESCE($3, token_budget), last_heartbeat = $4
		 WHERE id = $1`, id, string(status), tokenBudget, at)
	return execExpectOne(tag, err, "set pool worker availability %s", id)
}

func (s *Store) RecordPoolWorkerHeartbeat(ctx context.Context, id string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE pool_workers SET last_heartbeat = $2 WHERE id = $1`, id, at)
	return execExpectOne(tag, err, "pool worker heartbeat %s", id)
}
