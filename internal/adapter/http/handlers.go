package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/MissionControl/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Agents        *service.AgentService
	Tasks         *service.TaskService
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Activities    *service.ActivityService
	Documents     *service.DocumentService
	Pool          *service.PoolService
	Process       *service.ProcessService
	DB            Pinger
	Version       string
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
}

// Health reports liveness. The database is pinged so a broken store
// surfaces as 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Version: h.Version}
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
