package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/logger"
	"github.com/Strob0t/MissionControl/internal/middleware"
)

type fakeAuthenticator struct {
	key    string
	worker *poolworker.Worker
	err    error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, apiKey string) (*poolworker.Worker, error) {
	if f.err != nil {
		return nil, f.err
	}
	if apiKey != f.key {
		return nil, fmt.Errorf("lookup: %w", domain.ErrNotFound)
	}
	return f.worker, nil
}

func TestWorkerAuth(t *testing.T) {
	auth := &fakeAuthenticator{key: "mc_good", worker: &poolworker.Worker{ID: "w1", Name: "scout"}}

	tests := []struct {
		name   string
		key    string
		auth   *fakeAuthenticator
		status int
	}{
		{"missing header", "", auth, http.StatusUnauthorized},
		{"unknown key", "mc_bad", auth, http.StatusUnauthorized},
		{"valid key", "mc_good", auth, http.StatusOK},
		{"store failure", "mc_good", &fakeAuthenticator{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got      *poolworker.Worker
				loggedAs string
			)
			handler := middleware.WorkerAuth(tt.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = middleware.WorkerFromContext(r.Context())
				loggedAs = logger.WorkerID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/pool/me", http.NoBody)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && (got == nil || got.ID != "w1") {
				t.Fatalf("expected worker w1 in context, got %+v", got)
			}
			if tt.status == http.StatusOK && loggedAs != "w1" {
				t.Errorf("log scope worker_id = %q, want w1", loggedAs)
			}
		})
	}
}

func TestWorkerFromContextEmpty(t *testing.T) {
	if w := middleware.WorkerFromContext(context.Background()); w != nil {
		t.Fatalf("expected nil worker, got %+v", w)
	}
}
