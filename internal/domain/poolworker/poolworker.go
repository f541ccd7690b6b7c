// Package poolworker defines external workers that join the agent pool
// through an API key and a one-time human claim.
package poolworker

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
)

// Token formats.
const (
	APIKeyPrefix     = "mc_"
	APIKeyLength     = 32
	ClaimTokenPrefix = "mc_claim_"
	ClaimTokenLength = 24

	// DisplayPrefixLength is how much of the plain key is kept for display.
	DisplayPrefixLength = 8

	InitialReputation = 50
)

// DefaultCapabilities is assigned when a worker registers without any.
var DefaultCapabilities = []string{"coding", "research", "analysis"}

// Status is a worker's pool state.
type Status string

const (
	StatusPendingClaim Status = "pending_claim"
	StatusAvailable    Status = "available"
	StatusBusy         Status = "busy"
	StatusOffline      Status = "offline"
)

// ValidAvailability reports whether s may be set by the worker itself.
func ValidAvailability(s Status) bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// Worker is a registered pool worker.
type Worker struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	OperatorName      string     `json:"operator_name"`
	Capabilities      []string   `json:"capabilities"`
	Status            Status     `json:"status"`
	APIKeyHash        string     `json:"-"`
	APIKeyPrefix      string     `json:"api_key_prefix"`
	ClaimToken        string     `json:"-"`
	ClaimedBy         *string    `json:"claimed_by,omitempty"`
	ClaimedAt         *time.Time `json:"claimed_at,omitempty"`
	TokenBudget       *int64     `json:"token_budget,omitempty"`
	TokensContributed int64      `json:"tokens_contributed"`
	TasksCompleted    int64      `json:"tasks_completed"`
	ReputationScore   int        `json:"reputation_score"`
	LastHeartbeat     time.Time  `json:"last_heartbeat"`
	CreatedAt         time.Time  `json:"created_at"`
}

// IsClaimed reports whether a human has claimed the worker.
func (w *Worker) IsClaimed() bool {
	return w.Status != StatusPendingClaim
}

// RegisterRequest holds the fields a worker supplies when joining the pool.
type RegisterRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	OperatorName string   `json:"operator_name"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Validate checks the request and fills in defaults.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.OperatorName) == "" {
		return fmt.Errorf("operator_name is required: %w", domain.ErrValidation)
	}
	if r.Description == "" {
		r.Description = "Pool worker agent"
	}
	if len(r.Capabilities) == 0 {
		r.Capabilities = append([]string(nil), DefaultCapabilities...)
	}
	return nil
}

// Registration is returned once at registration time. The plain API key
// is never stored and cannot be retrieved again.
type Registration struct {
	Worker   Worker `json:"worker"`
	APIKey   string `json:"api_key"`
	ClaimURL string `json:"claim_url"`
}

// ClaimRequest is submitted by the human who owns the worker.
type ClaimRequest struct {
	ClaimToken string `json:"claim_token"`
	HumanName  string `json:"human_name"`
}

// Validate checks that a ClaimRequest is well-formed.
func (r *ClaimRequest) Validate() error {
	if r.ClaimToken == "" {
		return fmt.Errorf("claim_token is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.HumanName) == "" {
		return fmt.Errorf("human_name is required: %w", domain.ErrValidation)
	}
	return nil
}

// AvailabilityRequest is sent by a claimed worker to change its status.
type AvailabilityRequest struct {
	Status      Status `json:"status"`
	TokenBudget *int64 `json:"token_budget,omitempty"`
}

// Validate checks that an AvailabilityRequest is well-formed.
func (r *AvailabilityRequest) Validate() error {
	if !ValidAvailability(r.Status) {
		return fmt.Errorf("invalid availability %q: %w", r.Status, domain.ErrValidation)
	}
	if r.TokenBudget != nil && *r.TokenBudget < 0 {
		return fmt.Errorf("token_budget must be >= 0: %w", domain.ErrValidation)
	}
	return nil
}

// Stats aggregates the pool.
type Stats struct {
	TotalWorkers           int   `json:"total_workers"`
	PendingClaim           int   `json:"pending_claim"`
	Available              int   `json:"available"`
	Busy                   int   `json:"busy"`
	Offline                int   `json:"offline"`
	TotalTokensContributed int64 `json:"total_tokens_contributed"`
	TotalTasksCompleted    int64 `json:"total_tasks_completed"`
}

// ComputeStats aggregates workers into Stats.
func ComputeStats(workers []Worker) Stats {
	st := Stats{TotalWorkers: len(workers)}
	for i := range workers {
		switch workers[i].Status {
		case StatusPendingClaim:
			st.PendingClaim++
		case StatusAvailable:
			st.Available++
		case StatusBusy:
			st.Busy++
		case StatusOffline:
			st.Offline++
		}
		st.TotalTokensContributed += workers[i].TokensContributed
		st.TotalTasksCompleted += workers[i].TasksCompleted
	}
	return st
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateAPIKey returns a new plain API key.
func GenerateAPIKey() (string, error) {
	s, err := randomString(APIKeyLength)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + s, nil
}

// GenerateClaimToken returns a new one-time claim token.
func GenerateClaimToken() (string, error) {
	s, err := randomString(ClaimTokenLength)
	if err != nil {
		return "", err
	}
	return ClaimTokenPrefix + s, nil
}

// HashAPIKey returns the hex SHA-256 digest under which a key is stored.
func HashAPIKey(plain string) string {
	h := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(h[:])
}

func randomString(n int) (string, error) {
	size := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b), nil
}
