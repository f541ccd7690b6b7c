package sqlite

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
	var caps jsonStrings
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.OperatorName, &caps, &w.Status,
		&w.APIKeyHash, &w.APIKeyPrefix, &w.ClaimToken, &w.ClaimedBy, &w.ClaimedAt, &w.TokenBudget,
		&w.TokensContributed, &w.TasksCompleted, &w.ReputationScore, &w.LastHeartbeat, &w.CreatedAt)
	w.Capabilities = orEmpty([]string(caps))
	return w, err
}

func (s *Store) CreatePoolWorker(ctx context.Context, w *poolworker.Worker) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pool_workers (`+poolWorkerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Description, w.OperatorName, jsonStrings(w.Capabilities), string(w.Status),
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

func (s *Store) getPoolWorkerBy(ctx context.Context, col, val string) (*poolworker.Worker, error) {
	w, err := scanPoolWorker(s.db.QueryRowContext(ctx,
		`SELECT `+poolWorkerColumns+` FROM pool_workers WHERE `+col+` = ?`, val))
	if err != nil {
		return nil, notFoundWrap(err, "get pool worker by %s", col)
	}
	return &w, nil
}

func (s *Store) GetPoolWorker(ctx context.Context, id string) (*poolworker.Worker, error) {
	return s.getPoolWorkerBy(ctx, "id", id)
}

func (s *Store) GetPoolWorkerByAPIKeyHash(ctx context.Context, hash string) (*poolworker.Worker, error) {
	return s.getPoolWorkerBy(ctx, "api_key_hash", hash)
}

func (s *Store) GetPoolWorkerByClaimToken(ctx context.Context, token string) (*poolworker.Worker, error) {
	return s.getPoolWorkerBy(ctx, "claim_token", token)
}

func (s *Store) ListPoolWorkers(ctx context.Context) ([]poolworker.Worker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+poolWorkerColumns+` FROM pool_workers ORDER BY created_at DESC, id DESC`)
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE pool_workers SET status = 'available', claimed_by = ?, claimed_at = ?
		 WHERE id = ? AND status = 'pending_claim'`, humanName, at, id)
	n, err := rowsAffected(res, err, "claim pool worker %s", id)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetPoolWorker(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("claim pool worker %s: already claimed: %w", id, domain.ErrInvalidState)
	}
	return nil
}

func (s *Store) SetPoolWorkerAvailability(ctx context.Context, id string, status poolworker.Status, tokenBudget *int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pool_workers SET status = ?, token_budget = COALESCE(?, token_budget), last_heartbeat = ?
		 WHERE id = ?`, string(status), tokenBudget, at, id)
	return execExpectOne(res, err, "set pool worker availability %s", id)
}

func (s *Store) RecordPoolWorkerHeartbeat(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE pool_workers SET last_heartbeat = ? WHERE id = ?`, at, id)
	return execExpectOne(res, err, "pool worker heartbeat %s", id)
}
