package http

import (
	"net/http"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
)

const agentNotFound = "agent not found"

// ListAgents handles GET /api/v1/agents
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	handleList(h.Agents.List)(w, r)
}

// GetAgent handles GET /api/v1/agents/{id}
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Agents.Get, agentNotFound)(w, r)
}

// GetAgentByName handles GET /api/v1/agents/by-name/{name}
func (h *Handlers) GetAgentByName(w http.ResponseWriter, r *http.Request) {
	a, err := h.Agents.GetByName(r.Context(), urlParam(r, "name"))
	if err != nil {
		writeDomainError(w, err, agentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// RegisterAgent handles POST /api/v1/agents
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Agents.Register, agentNotFound)(w, r)
}

// DeleteAgent handles DELETE /api/v1/agents/{id}
func (h *Handlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Agents.Remove, agentNotFound)(w, r)
}

// SetAgentStatus handles PUT /api/v1/agents/{id}/status
func (h *Handlers) SetAgentStatus(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.Agents.SetStatus, agentNotFound)(w, r)
}

// AgentHeartbeat handles POST /api/v1/agents/{id}/heartbeat
//
// An empty body is accepted and only refreshes the heartbeat timestamp.
func (h *Handlers) AgentHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req agent.HeartbeatRequest
	if r.ContentLength != 0 {
		var ok bool
		if req, ok = readJSON[agent.HeartbeatRequest](w, r); !ok {
			return
		}
	}
	a, err := h.Agents.Heartbeat(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, agentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListAgentActivities handles GET /api/v1/agents/{id}/activities
func (h *Handlers) ListAgentActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	acts, err := h.Activities.ListByAgent(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err, agentNotFound)
		return
	}
	if acts == nil {
		acts = []activity.WithContext{}
	}
	writeJSON(w, http.StatusOK, acts)
}
