package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/middleware"
	"github.com/Strob0t/MissionControl/internal/port/cache"
)

// RouterConfig holds the cross-cutting pieces of the HTTP stack.
type RouterConfig struct {
	CORSOrigin     string
	ServiceName    string
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	IdemCache      cache.Cache             // nil disables idempotency replay
	IdemTTL        time.Duration
	RequestTimeout time.Duration
}

// NewRouter builds the chi router with the middleware chain and all routes.
// WebSocket upgrades bypass the request timeout.
func NewRouter(cfg RouterConfig, h *Handlers, ws http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.ServiceName))
	r.Use(CORS(cfg.CORSOrigin))
	r.Use(SecurityHeaders)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler)
	}

	r.Get("/health", h.Health)
	if ws != nil {
		r.Get("/ws", ws)
	}

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		if cfg.IdemCache != nil {
			r.Use(middleware.Idempotency(cfg.IdemCache, cfg.IdemTTL))
		}
		MountRoutes(r, h)
	})

	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Agents
		r.Get("/agents", h.ListAgents)
		r.Post("/agents", h.RegisterAgent)
		r.Get("/agents/by-name/{name}", h.GetAgentByName)
		r.Get("/agents/{id}", h.GetAgent)
		r.Delete("/agents/{id}", h.DeleteAgent)
		r.Put("/agents/{id}/status", h.SetAgentStatus)
		r.Post("/agents/{id}/heartbeat", h.AgentHeartbeat)
		r.Get("/agents/{id}/activities", h.ListAgentActivities)

		// Notifications
		r.Get("/agents/{id}/notifications", h.ListAgentNotifications)
		r.Get("/agents/{id}/notifications/count", h.CountAgentNotifications)
		r.Post("/agents/{id}/notifications/deliver-all", h.DeliverAllNotifications)
		r.Post("/notifications/{id}/deliver", h.DeliverNotification)

		// Tasks
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/board", h.TaskBoard)
		r.Get("/tasks/{id}", h.GetTask)
		r.Patch("/tasks/{id}", h.UpdateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)
		r.Put("/tasks/{id}/status", h.UpdateTaskStatus)
		r.Put("/tasks/{id}/assignee", h.AssignTask)
		r.Get("/tasks/{id}/messages", h.ListTaskMessages)
		r.Post("/tasks/{id}/messages", h.PostTaskMessage)
		r.Get("/tasks/{id}/activities", h.ListTaskActivities)
		r.Post("/tasks/{id}/process", h.ProcessTask)

		// Activity feed
		r.Get("/activities", h.ListActivities)

		// Documents
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.CreateDocument)
		r.Get("/documents/{id}", h.GetDocument)
		r.Patch("/documents/{id}", h.UpdateDocument)
		r.Delete("/documents/{id}", h.DeleteDocument)

		// Worker pool
		r.Get("/pool/workers", h.ListPoolWorkers)
		r.Post("/pool/workers", h.RegisterPoolWorker)
		r.Get("/pool/workers/{id}", h.GetPoolWorker)
		r.Post("/pool/claim", h.ClaimPoolWorker)
		r.Get("/pool/stats", h.PoolStats)

		r.Route("/pool/me", func(r chi.Router) {
			r.Use(middleware.WorkerAuth(h.Pool))
			r.Get("/", h.PoolMe)
			r.Put("/availability", h.PoolMeAvailability)
			r.Post("/heartbeat", h.PoolMeHeartbeat)
		})
	})
}
