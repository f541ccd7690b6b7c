package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/logger"
)

const headerAPIKey = "X-API-Key"

type poolWorkerCtxKey struct{}

// WorkerAuthenticator resolves a plain pool worker API key.
type WorkerAuthenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*poolworker.Worker, error)
}

// WorkerAuth returns middleware that authenticates a pool worker by its
// X-API-Key header and stores the worker in the request context. It guards
// only the /pool/me routes; the rest of the API is open.
func WorkerAuth(auth WorkerAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(headerAPIKey)
			if apiKey == "" {
				http.Error(w, `{"error":"X-API-Key header required"}`, http.StatusUnauthorized)
				return
			}

			worker, err := auth.Authenticate(r.Context(), apiKey)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					slog.ErrorContext(r.Context(), "pool worker authentication failed", "error", err)
					http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
					return
				}
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := logger.WithWorkerID(context.WithValue(r.Context(), poolWorkerCtxKey{}, worker), worker.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WorkerFromContext returns the authenticated pool worker, or nil.
func WorkerFromContext(ctx context.Context) *poolworker.Worker {
	w, _ := ctx.Value(poolWorkerCtxKey{}).(*poolworker.Worker)
	return w
}

// WithWorker stores w in ctx as if WorkerAuth had authenticated it.
func WithWorker(ctx context.Context, w *poolworker.Worker) context.Context {
	return context.WithValue(ctx, poolWorkerCtxKey{}, w)
}
