package http

import (
	"net/http"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
)

// ListAgentNotifications handles GET /api/v1/agents/{id}/notifications?undelivered=&limit=
func (h *Handlers) ListAgentNotifications(w http.ResponseWriter, r *http.Request) {
	undelivered, ok := queryBool(w, r, "undelivered")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	notes, err := h.Notifications.ListForAgent(r.Context(), urlParam(r, "id"), undelivered, limit)
	if err != nil {
		writeDomainError(w, err, agentNotFound)
		return
	}
	if notes == nil {
		notes = []notification.WithContext{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// CountAgentNotifications handles GET /api/v1/agents/{id}/notifications/count
func (h *Handlers) CountAgentNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.CountUndelivered(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, agentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"undelivered": n})
}

// DeliverAllNotifications handles POST /api/v1/agents/{id}/notifications/deliver-all
func (h *Handlers) DeliverAllNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkAllDelivered(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, agentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"delivered": n})
}

// DeliverNotification handles POST /api/v1/notifications/{id}/deliver
func (h *Handlers) DeliverNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.Notifications.MarkDelivered(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListActivities handles GET /api/v1/activities?limit=
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	acts, err := h.Activities.ListRecent(r.Context(), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if acts == nil {
		acts = []activity.WithContext{}
	}
	writeJSON(w, http.StatusOK, acts)
}
