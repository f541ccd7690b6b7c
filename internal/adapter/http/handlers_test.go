package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	mchttp "github.com/Strob0t/MissionControl/internal/adapter/http"
	"github.com/Strob0t/MissionControl/internal/adapter/sqlite"
	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/document"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/middleware"
	"github.com/Strob0t/MissionControl/internal/port/orchestrator"
	"github.com/Strob0t/MissionControl/internal/service"
)

const claimBase = "http://localhost:3000/claim"

type stubSpawner struct {
	mu    sync.Mutex
	calls []orchestrator.SpawnRequest
}

func (s *stubSpawner) Spawn(_ context.Context, req orchestrator.SpawnRequest) (*orchestrator.SpawnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	return &orchestrator.SpawnResult{Status: "accepted", RunID: "run-1", ChildSessionKey: "agent:sub:1"}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	router  chi.Router
	handler *mchttp.Handlers
	spawner *stubSpawner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "mc.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	pub := service.NewPublisher(hub, nil, nil, nil)
	messages := service.NewMessageService(store, pub)
	sp := &stubSpawner{}
	process := service.NewProcessService(store, sp, messages, pub)
	t.Cleanup(process.Wait)

	h := &mchttp.Handlers{
		Agents:        service.NewAgentService(store, pub, agent.DefaultStaleAfter),
		Tasks:         service.NewTaskService(store, pub),
		Messages:      messages,
		Notifications: service.NewNotificationService(store, pub),
		Activities:    service.NewActivityService(store),
		Documents:     service.NewDocumentService(store, pub),
		Pool:          service.NewPoolService(store, pub, claimBase),
		Process:       process,
		DB:            store,
		Version:       "test",
	}
	cfg := mchttp.RouterConfig{
		CORSOrigin:  "*",
		ServiceName: "missioncontrol-test",
		RateLimiter: middleware.NewRateLimiter(1000, 1000),
	}
	return &testServer{router: mchttp.NewRouter(cfg, h, hub.HandleWS), handler: h, spawner: sp}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func (s *testServer) registerAgent(t *testing.T, name, emoji string) agent.Agent {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/agents", agent.CreateRequest{Name: name, Emoji: emoji})
	expectStatus(t, rec, http.StatusCreated)
	return decode[agent.Agent](t, rec)
}

func (s *testServer) createTask(t *testing.T, req task.CreateRequest) task.Task {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/tasks", req)
	expectStatus(t, rec, http.StatusCreated)
	return decode[task.Task](t, rec)
}

// --- Health ---

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" || body["database"] != "ok" {
		t.Errorf("unexpected health body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID to be set by middleware")
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	s := newTestServer(t)
	s.handler.DB = failingPinger{}
	rec := s.do(t, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

// --- Agents ---

func TestAgentLifecycle(t *testing.T) {
	s := newTestServer(t)
	a := s.registerAgent(t, "Jarvis", "🤖")

	rec := s.do(t, http.MethodGet, "/api/v1/agents", nil)
	expectStatus(t, rec, http.StatusOK)
	views := decode[[]agent.View](t, rec)
	if len(views) != 1 || views[0].ID != a.ID || views[0].Stale {
		t.Fatalf("unexpected agent list %+v", views)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/agents/by-name/jarvis", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodPut, "/api/v1/agents/"+a.ID+"/status", agent.StatusRequest{Status: agent.StatusBusy})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[agent.Agent](t, rec); got.Status != agent.StatusBusy {
		t.Errorf("expected busy, got %s", got.Status)
	}

	model := "opus"
	rec = s.do(t, http.MethodPost, "/api/v1/agents/"+a.ID+"/heartbeat", agent.HeartbeatRequest{CurrentModel: &model})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[agent.Agent](t, rec); got.CurrentModel == nil || *got.CurrentModel != "opus" {
		t.Errorf("heartbeat did not record model: %+v", got)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/agents/"+a.ID+"/heartbeat", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/agents/"+a.ID+"/activities", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodDelete, "/api/v1/agents/"+a.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/api/v1/agents/"+a.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestRegisterAgentValidation(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/agents", agent.CreateRequest{Emoji: "🤖"})
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[map[string]string](t, rec); body["error"] != "name is required" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

// --- Tasks ---

func TestTaskCreateAssignAndBoard(t *testing.T) {
	s := newTestServer(t)
	a := s.registerAgent(t, "Friday", "💫")

	inbox := s.createTask(t, task.CreateRequest{Title: "Unassigned", Description: "triage"})
	if inbox.Status != task.StatusInbox || inbox.Priority != task.PriorityMedium {
		t.Fatalf("unexpected defaults %+v", inbox)
	}
	assigned := s.createTask(t, task.CreateRequest{Title: "Assigned", Description: "in hand", AssigneeID: &a.ID})
	if assigned.Status != task.StatusAssigned {
		t.Fatalf("expected assigned status, got %s", assigned.Status)
	}

	rec := s.do(t, http.MethodPut, "/api/v1/tasks/"+inbox.ID+"/assignee", map[string]string{"assignee_id": a.ID})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[task.Task](t, rec); got.Status != task.StatusAssigned {
		t.Errorf("assign should move inbox to assigned, got %s", got.Status)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/tasks/"+assigned.ID+"/status", map[string]string{"status": "in_progress"})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/board", nil)
	expectStatus(t, rec, http.StatusOK)
	board := decode[map[string][]task.WithAssignee](t, rec)
	for _, st := range task.Statuses {
		if _, ok := board[string(st)]; !ok {
			t.Errorf("board missing column %s", st)
		}
	}
	if len(board["assigned"]) != 1 || len(board["in_progress"]) != 1 || len(board["inbox"]) != 0 {
		t.Errorf("unexpected board %+v", board)
	}
	if board["assigned"][0].Assignee == nil || board["assigned"][0].Assignee.Name != "Friday" {
		t.Errorf("expected assignee summary on board entry")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/tasks?status=in_progress", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]task.WithAssignee](t, rec); len(list) != 1 || list[0].ID != assigned.ID {
		t.Errorf("status filter returned %+v", list)
	}
}

func TestTaskErrors(t *testing.T) {
	s := newTestServer(t)
	tk := s.createTask(t, task.CreateRequest{Title: "x", Description: "y"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing title", http.MethodPost, "/api/v1/tasks", task.CreateRequest{}, http.StatusBadRequest},
		{"blank description", http.MethodPost, "/api/v1/tasks", map[string]string{"title": "y", "description": "  "}, http.StatusBadRequest},
		{"unknown assignee", http.MethodPost, "/api/v1/tasks", map[string]any{"title": "y", "description": "z", "assignee_id": "ghost"}, http.StatusNotFound},
		{"bad status", http.MethodPut, "/api/v1/tasks/" + tk.ID + "/status", map[string]string{"status": "blocked"}, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/api/v1/tasks?status=blocked", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/v1/tasks?limit=abc", nil, http.StatusBadRequest},
		{"get missing", http.MethodGet, "/api/v1/tasks/ghost", nil, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/v1/tasks/ghost", nil, http.StatusNotFound},
		{"patch empty title", http.MethodPatch, "/api/v1/tasks/" + tk.ID, map[string]string{"title": " "}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestTaskUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	tk := s.createTask(t, task.CreateRequest{Title: "Draft", Description: "first pass"})

	rec := s.do(t, http.MethodPatch, "/api/v1/tasks/"+tk.ID, map[string]any{"title": "Final", "tags": []string{"x"}})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[task.Task](t, rec); got.Title != "Final" || len(got.Tags) != 1 {
		t.Errorf("unexpected patched task %+v", got)
	}

	rec = s.do(t, http.MethodDelete, "/api/v1/tasks/"+tk.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = s.do(t, http.MethodGet, "/api/v1/tasks/"+tk.ID+"/messages", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

// --- Messages and notifications ---

func TestMessageMentionsCreateNotifications(t *testing.T) {
	s := newTestServer(t)
	jarvis := s.registerAgent(t, "Jarvis", "🤖")
	friday := s.registerAgent(t, "Friday", "💫")
	tk := s.createTask(t, task.CreateRequest{Title: "Research", Description: "find sources"})

	rec := s.do(t, http.MethodPost, "/api/v1/tasks/"+tk.ID+"/messages",
		map[string]any{"content": "@jarvis please look, @nobody too", "sender_id": friday.ID})
	expectStatus(t, rec, http.StatusCreated)
	created := decode[service.Created](t, rec)
	if created.Message.TaskID != tk.ID {
		t.Errorf("path task id should win, got %q", created.Message.TaskID)
	}
	if len(created.Notifications) != 1 || created.Notifications[0].MentionedAgentID != jarvis.ID {
		t.Fatalf("expected one notification for jarvis, got %+v", created.Notifications)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/"+tk.ID+"/messages", nil)
	expectStatus(t, rec, http.StatusOK)
	if msgs := decode[[]map[string]any](t, rec); len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}

	rec = s.do(t, http.MethodGet, "/api/v1/agents/"+jarvis.ID+"/notifications/count", nil)
	expectStatus(t, rec, http.StatusOK)
	if c := decode[map[string]int](t, rec); c["undelivered"] != 1 {
		t.Errorf("expected 1 undelivered, got %v", c)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/agents/"+jarvis.ID+"/notifications?undelivered=true", nil)
	expectStatus(t, rec, http.StatusOK)
	if notes := decode[[]map[string]any](t, rec); len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/"+created.Notifications[0].ID+"/deliver", nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodPost, "/api/v1/agents/"+jarvis.ID+"/notifications/deliver-all", nil)
	expectStatus(t, rec, http.StatusOK)
	if d := decode[map[string]int64](t, rec); d["delivered"] != 0 {
		t.Errorf("expected nothing left to deliver, got %v", d)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/agents/"+jarvis.ID+"/notifications?undelivered=maybe", nil)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = s.do(t, http.MethodGet, "/api/v1/agents/ghost/notifications/count", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestActivityFeed(t *testing.T) {
	s := newTestServer(t)
	a := s.registerAgent(t, "Wong", "📚")
	tk := s.createTask(t, task.CreateRequest{Title: "Catalogue", Description: "list assets", AssigneeID: &a.ID})

	rec := s.do(t, http.MethodGet, "/api/v1/activities?limit=10", nil)
	expectStatus(t, rec, http.StatusOK)
	if acts := decode[[]map[string]any](t, rec); len(acts) < 2 {
		t.Errorf("expected agent and task activities, got %d", len(acts))
	}

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/"+tk.ID+"/activities", nil)
	expectStatus(t, rec, http.StatusOK)
	if acts := decode[[]map[string]any](t, rec); len(acts) != 1 {
		t.Errorf("expected 1 task activity, got %d", len(acts))
	}
}

// --- Processing ---

func TestProcessTaskRunsInlineWithoutQueue(t *testing.T) {
	s := newTestServer(t)
	tk := s.createTask(t, task.CreateRequest{Title: "Summarize", Description: "the logs"})

	rec := s.do(t, http.MethodPost, "/api/v1/tasks/"+tk.ID+"/process", nil)
	expectStatus(t, rec, http.StatusAccepted)
	s.handler.Process.Wait()

	s.spawner.mu.Lock()
	calls := len(s.spawner.calls)
	s.spawner.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 spawn, got %d", calls)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/"+tk.ID+"/messages", nil)
	expectStatus(t, rec, http.StatusOK)
	if msgs := decode[[]map[string]any](t, rec); len(msgs) != 1 || msgs[0]["type"] != "system" {
		t.Errorf("expected one system message, got %v", msgs)
	}
}

func TestProcessTaskRequiresDescription(t *testing.T) {
	s := newTestServer(t)
	tk := s.createTask(t, task.CreateRequest{Title: "No body", Description: "cleared below"})
	rec := s.do(t, http.MethodPatch, "/api/v1/tasks/"+tk.ID, map[string]string{"description": ""})
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(t, http.MethodPost, "/api/v1/tasks/"+tk.ID+"/process", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

// --- Documents ---

func TestDocumentCRUD(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/documents", document.CreateRequest{
		Title: "Runbook", Content: "restart it", Type: document.Type("note"), Tags: []string{"ops"},
	})
	expectStatus(t, rec, http.StatusCreated)
	doc := decode[document.Document](t, rec)

	rec = s.do(t, http.MethodGet, "/api/v1/documents?tag=ops", nil)
	expectStatus(t, rec, http.StatusOK)
	if docs := decode[[]document.Document](t, rec); len(docs) != 1 {
		t.Errorf("expected tag filter to match, got %d", len(docs))
	}
	rec = s.do(t, http.MethodGet, "/api/v1/documents?type=bogus", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodPatch, "/api/v1/documents/"+doc.ID, map[string]string{"title": "Runbook v2"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[document.Document](t, rec); got.Title != "Runbook v2" {
		t.Errorf("title not updated: %+v", got)
	}

	rec = s.do(t, http.MethodDelete, "/api/v1/documents/"+doc.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = s.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

// --- Worker pool ---

func TestPoolRegisterClaimAndSelfService(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/pool/workers", poolworker.RegisterRequest{Name: "night-owl", OperatorName: "sam"})
	expectStatus(t, rec, http.StatusCreated)
	reg := decode[poolworker.Registration](t, rec)
	if !strings.HasPrefix(reg.APIKey, "mc_") || !strings.HasPrefix(reg.ClaimURL, claimBase+"/") {
		t.Fatalf("unexpected registration %+v", reg)
	}
	token := strings.TrimPrefix(reg.ClaimURL, claimBase+"/")

	// Unclaimed workers cannot change availability.
	rec = s.do(t, http.MethodPut, "/api/v1/pool/me/availability", map[string]string{"status": "available"}, "X-API-Key", reg.APIKey)
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodPost, "/api/v1/pool/claim", poolworker.ClaimRequest{ClaimToken: token, HumanName: "Sam"})
	expectStatus(t, rec, http.StatusOK)
	if w := decode[poolworker.Worker](t, rec); w.Status != poolworker.StatusAvailable {
		t.Errorf("claimed worker should be available, got %s", w.Status)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/pool/claim", poolworker.ClaimRequest{ClaimToken: token, HumanName: "Eve"})
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodGet, "/api/v1/pool/me", nil, "X-API-Key", reg.APIKey)
	expectStatus(t, rec, http.StatusOK)
	if w := decode[poolworker.Worker](t, rec); w.ID != reg.Worker.ID {
		t.Errorf("pool/me returned %s, want %s", w.ID, reg.Worker.ID)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/pool/me/availability", map[string]any{"status": "busy", "token_budget": 5000}, "X-API-Key", reg.APIKey)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodPost, "/api/v1/pool/me/heartbeat", nil, "X-API-Key", reg.APIKey)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/api/v1/pool/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decode[poolworker.Stats](t, rec); st.TotalWorkers != 1 || st.Busy != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestPoolMeRequiresAPIKey(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/pool/me", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
	rec = s.do(t, http.MethodGet, "/api/v1/pool/me", nil, "X-API-Key", "mc_nope")
	expectStatus(t, rec, http.StatusUnauthorized)
}

// --- Idempotency ---

func TestIdempotentReplay(t *testing.T) {
	s := newTestServer(t)
	cfg := mchttp.RouterConfig{
		CORSOrigin:     "*",
		ServiceName:    "missioncontrol-test",
		IdemCache:      newMemCache(),
		IdemTTL:        time.Minute,
		RequestTimeout: 5 * time.Second,
	}
	router := mchttp.NewRouter(cfg, s.handler, nil)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(`{"title":"once","description":"only one"}`))
		req.Header.Set("Idempotency-Key", "abc-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}
	first, second := post(), post()
	expectStatus(t, first, http.StatusCreated)
	expectStatus(t, second, http.StatusCreated)
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replayed response")
	}

	rec := s.do(t, http.MethodGet, "/api/v1/tasks", nil)
	if list := decode[[]task.WithAssignee](t, rec); len(list) != 1 {
		t.Errorf("expected a single task after replay, got %d", len(list))
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
