package http

import (
	"net/http"

	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/middleware"
)

const workerNotFound = "pool worker not found"

// ListPoolWorkers handles GET /api/v1/pool/workers
func (h *Handlers) ListPoolWorkers(w http.ResponseWriter, r *http.Request) {
	handleList(h.Pool.List)(w, r)
}

// GetPoolWorker handles GET /api/v1/pool/workers/{id}
func (h *Handlers) GetPoolWorker(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Pool.Get, workerNotFound)(w, r)
}

// RegisterPoolWorker handles POST /api/v1/pool/workers
//
// The plain API key is only ever returned in this response.
func (h *Handlers) RegisterPoolWorker(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Pool.Register, workerNotFound)(w, r)
}

// ClaimPoolWorker handles POST /api/v1/pool/claim
func (h *Handlers) ClaimPoolWorker(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[poolworker.ClaimRequest](w, r)
	if !ok {
		return
	}
	worker, err := h.Pool.Claim(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "invalid claim token")
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// PoolStats handles GET /api/v1/pool/stats
func (h *Handlers) PoolStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Pool.Stats(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PoolMe handles GET /api/v1/pool/me
func (h *Handlers) PoolMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.WorkerFromContext(r.Context()))
}

// PoolMeAvailability handles PUT /api/v1/pool/me/availability
func (h *Handlers) PoolMeAvailability(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[poolworker.AvailabilityRequest](w, r)
	if !ok {
		return
	}
	me := middleware.WorkerFromContext(r.Context())
	worker, err := h.Pool.UpdateAvailability(r.Context(), me.ID, req)
	if err != nil {
		writeDomainError(w, err, workerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// PoolMeHeartbeat handles POST /api/v1/pool/me/heartbeat
func (h *Handlers) PoolMeHeartbeat(w http.ResponseWriter, r *http.Request) {
	me := middleware.WorkerFromContext(r.Context())
	if err := h.Pool.Heartbeat(r.Context(), me.ID); err != nil {
		writeDomainError(w, err, workerNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
