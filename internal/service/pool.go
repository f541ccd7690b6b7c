package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// PoolService manages external pool workers: registration, the one-time
// human claim, API key authentication and availability reports.
type PoolService struct {
	store        database.Store
	pub          *Publisher
	claimBaseURL string
	now          func() time.Time
}

// NewPoolService creates a new PoolService. Claim URLs are built as
// claimBaseURL + "/" + token.
func NewPoolService(store database.Store, pub *Publisher, claimBaseURL string) *PoolService {
	return &PoolService{
		store:        store,
		pub:          pub,
		claimBaseURL: strings.TrimRight(claimBaseURL, "/"),
		now:          utcNow,
	}
}

// List returns all workers newest first.
func (s *PoolService) List(ctx context.Context) ([]poolworker.Worker, error) {
	return s.store.ListPoolWorkers(ctx)
}

// Get returns a worker by ID.
func (s *PoolService) Get(ctx context.Context, id string) (*poolworker.Worker, error) {
	return s.store.GetPoolWorker(ctx, id)
}

// Stats aggregates the pool.
func (s *PoolService) Stats(ctx context.Context) (poolworker.Stats, error) {
	workers, err := s.store.ListPoolWorkers(ctx)
	if err != nil {
		return poolworker.Stats{}, err
	}
	return poolworker.ComputeStats(workers), nil
}

// Register creates a pending_claim worker. The plain API key is only ever
// returned here; the store keeps its SHA-256 digest.
func (s *PoolService) Register(ctx context.Context, req poolworker.RegisterRequest) (*poolworker.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	apiKey, err := poolworker.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	claimToken, err := poolworker.GenerateClaimToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	w := &poolworker.Worker{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		OperatorName:    req.OperatorName,
		Capabilities:    req.Capabilities,
		Status:          poolworker.StatusPendingClaim,
		APIKeyHash:      poolworker.HashAPIKey(apiKey),
		APIKeyPrefix:    apiKey[:poolworker.DisplayPrefixLength],
		ClaimToken:      claimToken,
		ReputationScore: poolworker.InitialReputation,
		LastHeartbeat:   now,
		CreatedAt:       now,
	}

	rec := &recorder{now: s.now}
	err = s.store.InTx(ctx, func(tx database.Store) error {
		if err := tx.CreatePoolWorker(ctx, w); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.WorkerRegistered(w.Name))
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "pool worker registered", "worker_id", w.ID, "name", w.Name)
	s.workerChanged(ctx, w, rec)
	return &poolworker.Registration{
		Worker:   *w,
		APIKey:   apiKey,
		ClaimURL: s.claimBaseURL + "/" + claimToken,
	}, nil
}

// Claim binds a pending worker to the human who owns it. The claim token
// is single use: a second claim fails with domain.ErrInvalidState.
func (s *PoolService) Claim(ctx context.Context, req poolworker.ClaimRequest) (*poolworker.Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := &recorder{now: s.now}
	var claimed *poolworker.Worker
	err := s.store.InTx(ctx, func(tx database.Store) error {
		w, err := tx.GetPoolWorkerByClaimToken(ctx, req.ClaimToken)
		if err != nil {
			return err
		}
		if w.IsClaimed() {
			return fmt.Errorf("worker %s already claimed: %w", w.ID, domain.ErrInvalidState)
		}
		if err := tx.ClaimPoolWorker(ctx, w.ID, req.HumanName, s.now()); err != nil {
			return err
		}
		if claimed, err = tx.GetPoolWorker(ctx, w.ID); err != nil {
			return err
		}
		return rec.record(ctx, tx, activity.WorkerClaimed(w.Name, req.HumanName))
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "pool worker claimed", "worker_id", claimed.ID, "claimed_by", req.HumanName)
	s.workerChanged(ctx, claimed, rec)
	return claimed, nil
}

// Authenticate resolves a plain API key to its worker. Unknown keys fail
// with domain.ErrNotFound.
func (s *PoolService) Authenticate(ctx context.Context, apiKey string) (*poolworker.Worker, error) {
	if !strings.HasPrefix(apiKey, poolworker.APIKeyPrefix) {
		return nil, fmt.Errorf("authenticate pool worker: %w", domain.ErrNotFound)
	}
	return s.store.GetPoolWorkerByAPIKeyHash(ctx, poolworker.HashAPIKey(apiKey))
}

// UpdateAvailability sets a claimed worker's status and token budget.
func (s *PoolService) UpdateAvailability(ctx context.Context, id string, req poolworker.AvailabilityRequest) (*poolworker.Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *poolworker.Worker
	err := s.store.InTx(ctx, func(tx database.Store) error {
		if err := requireClaimed(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.SetPoolWorkerAvailability(ctx, id, req.Status, req.TokenBudget, s.now()); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetPoolWorker(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.workerChanged(ctx, updated, nil)
	return updated, nil
}

// Heartbeat refreshes a claimed worker's last_heartbeat.
func (s *PoolService) Heartbeat(ctx context.Context, id string) error {
	if err := requireClaimed(ctx, s.store, id); err != nil {
		return err
	}
	return s.store.RecordPoolWorkerHeartbeat(ctx, id, s.now())
}

func (s *PoolService) workerChanged(ctx context.Context, w *poolworker.Worker, rec *recorder) {
	s.pub.Broadcast(ctx, ws.EventPoolWorkerChanged, w)
	if rec != nil {
		s.pub.Activities(ctx, rec.written...)
	}
	s.pub.Publish(ctx, messagequeue.SubjectPoolWorkerChanged, messagequeue.PoolWorkerPayload{
		WorkerID: w.ID,
		Name:     w.Name,
		Status:   string(w.Status),
	})
}

func requireClaimed(ctx context.Context, store database.Store, id string) error {
	w, err := store.GetPoolWorker(ctx, id)
	if err != nil {
		return err
	}
	if !w.IsClaimed() {
		return fmt.Errorf("worker %s must be claimed first: %w", id, domain.ErrInvalidState)
	}
	return nil
}
