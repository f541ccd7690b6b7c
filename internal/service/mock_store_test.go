package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/document"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is an in-memory database.Store. Slices keep insertion order,
// which doubles as creation order. InTx serializes transactions and
// restores a snapshot when fn fails.
type mockStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	agents        []agent.Agent
	tasks         []task.Task
	messages      []message.Message
	notifications []notification.Notification
	activities    []activity.Activity
	documents     []document.Document
	workers       []poolworker.Worker

	// fail makes the named method return the error.
	fail map[string]error
}

type snapshot struct {
	agents        []agent.Agent
	tasks         []task.Task
	messages      []message.Message
	notifications []notification.Notification
	activities    []activity.Activity
	documents     []document.Document
	workers       []poolworker.Worker
}

func (m *mockStore) InTx(_ context.Context, fn func(tx database.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := snapshot{
		agents:        slices.Clone(m.agents),
		tasks:         slices.Clone(m.tasks),
		messages:      slices.Clone(m.messages),
		notifications: slices.Clone(m.notifications),
		activities:    slices.Clone(m.activities),
		documents:     slices.Clone(m.documents),
		workers:       slices.Clone(m.workers),
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.agents, m.tasks, m.messages = snap.agents, snap.tasks, snap.messages
		m.notifications, m.activities = snap.notifications, snap.activities
		m.documents, m.workers = snap.documents, snap.workers
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockStore) Ping(context.Context) error { return m.failure("Ping") }

func (m *mockStore) failure(method string) error {
	if m.fail == nil {
		return nil
	}
	return m.fail[method]
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

// --- Agents ---

func (m *mockStore) CreateAgent(_ context.Context, a *agent.Agent) error {
	if err := m.failure("CreateAgent"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = append(m.agents, *a)
	return nil
}

func (m *mockStore) agentIdx(id string) int {
	return slices.IndexFunc(m.agents, func(a agent.Agent) bool { return a.ID == id })
}

func (m *mockStore) GetAgent(_ context.Context, id string) (*agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.agentIdx(id)
	if i < 0 {
		return nil, notFound("agent", id)
	}
	a := m.agents[i]
	return &a, nil
}

func (m *mockStore) ListAgents(context.Context) ([]agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.agents), nil
}

func (m *mockStore) FindAgentsByName(_ context.Context, name string) ([]agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []agent.Agent
	for _, a := range m.agents {
		if strings.EqualFold(a.Name, name) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) CountAgents(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents), nil
}

func (m *mockStore) SetAgentStatus(_ context.Context, id string, status agent.Status, currentTaskID *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.agentIdx(id)
	if i < 0 {
		return notFound("agent", id)
	}
	m.agents[i].Status = status
	m.agents[i].CurrentTaskID = currentTaskID
	m.agents[i].LastHeartbeat = at
	return nil
}

func (m *mockStore) RecordAgentHeartbeat(_ context.Context, id string, req agent.HeartbeatRequest, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.agentIdx(id)
	if i < 0 {
		return notFound("agent", id)
	}
	a := &m.agents[i]
	a.LastHeartbeat = at
	if req.CurrentModel != nil {
		a.CurrentModel = req.CurrentModel
	}
	if req.SessionKey != nil {
		a.SessionKey = req.SessionKey
	}
	if req.CurrentTaskID != nil {
		a.CurrentTaskID = req.CurrentTaskID
	}
	return nil
}

func (m *mockStore) ClearAgentCurrentTask(_ context.Context, taskID string, agentID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		a := &m.agents[i]
		if a.CurrentTaskID == nil || *a.CurrentTaskID != taskID {
			continue
		}
		if agentID != nil && a.ID != *agentID {
			continue
		}
		a.CurrentTaskID = nil
	}
	return nil
}

func (m *mockStore) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.agentIdx(id)
	if i < 0 {
		return notFound("agent", id)
	}
	m.agents = slices.Delete(m.agents, i, i+1)
	return nil
}

// --- Tasks ---

func (m *mockStore) CreateTask(_ context.Context, t *task.Task) error {
	if err := m.failure("CreateTask"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *mockStore) taskIdx(id string) int {
	return slices.IndexFunc(m.tasks, func(t task.Task) bool { return t.ID == id })
}

func (m *mockStore) GetTask(_ context.Context, id string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIdx(id)
	if i < 0 {
		return nil, notFound("task", id)
	}
	t := m.tasks[i]
	return &t, nil
}

func (m *mockStore) ListTasks(_ context.Context, filter task.ListFilter) ([]task.WithAssignee, error) {
	if err := m.failure("ListTasks"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []task.WithAssignee{}
	for i := len(m.tasks) - 1; i >= 0; i-- {
		t := m.tasks[i]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		wa := task.WithAssignee{Task: t}
		if t.AssigneeID != nil {
			if j := m.agentIdx(*t.AssigneeID); j >= 0 {
				sum := m.agents[j].Summary()
				wa.Assignee = &sum
			}
		}
		out = append(out, wa)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) UpdateTask(_ context.Context, id string, req task.UpdateRequest, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIdx(id)
	if i < 0 {
		return notFound("task", id)
	}
	t := &m.tasks[i]
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.ClearDueDate {
		t.DueDate = nil
	}
	if req.Tags != nil {
		t.Tags = *req.Tags
	}
	t.UpdatedAt = at
	return nil
}

func (m *mockStore) SetTaskStatus(_ context.Context, id string, status task.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIdx(id)
	if i < 0 {
		return notFound("task", id)
	}
	m.tasks[i].Status = status
	m.tasks[i].UpdatedAt = at
	return nil
}

func (m *mockStore) AssignTask(_ context.Context, id string, assigneeID *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIdx(id)
	if i < 0 {
		return notFound("task", id)
	}
	t := &m.tasks[i]
	// Same rule as the stores' UPDATE ... CASE.
	if assigneeID != nil && t.Status == task.StatusInbox {
		t.Status = task.StatusAssigned
	}
	t.AssigneeID = assigneeID
	t.UpdatedAt = at
	return nil
}

func (m *mockStore) TouchTask(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIdx(id)
	if i < 0 {
		return notFound("task", id)
	}
	m.tasks[i].UpdatedAt = at
	return nil
}

func (m *mockStore) UnassignAgentTasks(_ context.Context, agentID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.tasks {
		t := &m.tasks[i]
		if t.AssigneeID != nil && *t.AssigneeID == agentID {
			t.AssigneeID = nil
			t.Status = task.StatusInbox
			t.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIdx(id)
	if i < 0 {
		return notFound("task", id)
	}
	m.tasks = slices.Delete(m.tasks, i, i+1)
	return nil
}

// --- Messages ---

func (m *mockStore) CreateMessage(_ context.Context, msg *message.Message) error {
	if err := m.failure("CreateMessage"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockStore) ListMessagesByTask(_ context.Context, taskID string, limit int) ([]message.WithSender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []message.WithSender{}
	for _, msg := range m.messages {
		if msg.TaskID != taskID {
			continue
		}
		ws := message.WithSender{Message: msg}
		if msg.SenderID != nil {
			if j := m.agentIdx(*msg.SenderID); j >= 0 {
				sum := m.agents[j].Summary()
				ws.Sender = &sum
			}
		}
		out = append(out, ws)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) DeleteMessagesByTask(_ context.Context, taskID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.messages)
	m.messages = slices.DeleteFunc(m.messages, func(msg message.Message) bool { return msg.TaskID == taskID })
	return int64(before - len(m.messages)), nil
}

// --- Notifications ---

func (m *mockStore) CreateNotification(_ context.Context, n *notification.Notification) error {
	if err := m.failure("CreateNotification"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockStore) GetNotification(_ context.Context, id string) (*notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, notFound("notification", id)
}

func (m *mockStore) ListNotifications(_ context.Context, filter notification.ListFilter) ([]notification.WithContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []notification.WithContext{}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if filter.AgentID != "" && n.MentionedAgentID != filter.AgentID {
			continue
		}
		if filter.UndeliveredOnly && n.Delivered {
			continue
		}
		out = append(out, notification.WithContext{Notification: n})
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) MarkNotificationDelivered(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].Delivered = true
			return nil
		}
	}
	return notFound("notification", id)
}

func (m *mockStore) MarkAllNotificationsDelivered(_ context.Context, agentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.notifications {
		if m.notifications[i].MentionedAgentID == agentID && !m.notifications[i].Delivered {
			m.notifications[i].Delivered = true
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CountUndeliveredNotifications(_ context.Context, agentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, x := range m.notifications {
		if x.MentionedAgentID == agentID && !x.Delivered {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) DeleteNotificationsByTask(_ context.Context, taskID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.notifications)
	m.notifications = slices.DeleteFunc(m.notifications, func(n notification.Notification) bool { return n.TaskID == taskID })
	return int64(before - len(m.notifications)), nil
}

// --- Activities ---

func (m *mockStore) CreateActivity(_ context.Context, a *activity.Activity) error {
	if err := m.failure("CreateActivity"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, *a)
	return nil
}

func (m *mockStore) ListActivities(_ context.Context, filter activity.ListFilter) ([]activity.WithContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []activity.WithContext{}
	for i := len(m.activities) - 1; i >= 0; i-- {
		a := m.activities[i]
		if filter.AgentID != "" && (a.AgentID == nil || *a.AgentID != filter.AgentID) {
			continue
		}
		if filter.TaskID != "" && (a.TaskID == nil || *a.TaskID != filter.TaskID) {
			continue
		}
		out = append(out, activity.WithContext{Activity: a})
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) DeleteActivitiesByTask(_ context.Context, taskID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.activities)
	m.activities = slices.DeleteFunc(m.activities, func(a activity.Activity) bool {
		return a.TaskID != nil && *a.TaskID == taskID
	})
	return int64(before - len(m.activities)), nil
}

// activitiesOf returns the recorded activity types, oldest first.
func (m *mockStore) activitiesOf(t activity.Type) []activity.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []activity.Activity
	for _, a := range m.activities {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// --- Documents ---

func (m *mockStore) CreateDocument(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, *d)
	return nil
}

func (m *mockStore) docIdx(id string) int {
	return slices.IndexFunc(m.documents, func(d document.Document) bool { return d.ID == id })
}

func (m *mockStore) GetDocument(_ context.Context, id string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.docIdx(id)
	if i < 0 {
		return nil, notFound("document", id)
	}
	d := m.documents[i]
	return &d, nil
}

func (m *mockStore) ListDocuments(_ context.Context, filter document.ListFilter) ([]document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []document.Document{}
	for i := len(m.documents) - 1; i >= 0; i-- {
		d := m.documents[i]
		if filter.Type != nil && d.Type != *filter.Type {
			continue
		}
		if filter.Tag != "" && !d.HasTag(filter.Tag) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockStore) UpdateDocument(_ context.Context, id string, req document.UpdateRequest, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.docIdx(id)
	if i < 0 {
		return notFound("document", id)
	}
	d := &m.documents[i]
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Content != nil {
		d.Content = *req.Content
	}
	if req.Type != nil {
		d.Type = *req.Type
	}
	if req.Tags != nil {
		d.Tags = *req.Tags
	}
	d.UpdatedAt = at
	return nil
}

func (m *mockStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.docIdx(id)
	if i < 0 {
		return notFound("document", id)
	}
	m.documents = slices.Delete(m.documents, i, i+1)
	return nil
}

// --- Pool workers ---

func (m *mockStore) CreatePoolWorker(_ context.Context, w *poolworker.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, *w)
	return nil
}

func (m *mockStore) findWorker(match func(w poolworker.Worker) bool, what string) (*poolworker.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.workers, match)
	if i < 0 {
		return nil, notFound("pool worker", what)
	}
	w := m.workers[i]
	return &w, nil
}

func (m *mockStore) GetPoolWorker(_ context.Context, id string) (*poolworker.Worker, error) {
	return m.findWorker(func(w poolworker.Worker) bool { return w.ID == id }, id)
}

func (m *mockStore) GetPoolWorkerByAPIKeyHash(_ context.Context, hash string) (*poolworker.Worker, error) {
	return m.findWorker(func(w poolworker.Worker) bool { return w.APIKeyHash == hash }, "by api key")
}

func (m *mockStore) GetPoolWorkerByClaimToken(_ context.Context, token string) (*poolworker.Worker, error) {
	return m.findWorker(func(w poolworker.Worker) bool { return w.ClaimToken == token }, "by claim token")
}

func (m *mockStore) ListPoolWorkers(context.Context) ([]poolworker.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.workers)
	slices.Reverse(out)
	return out, nil
}

func (m *mockStore) updateWorker(id string, fn func(w *poolworker.Worker) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.workers, func(w poolworker.Worker) bool { return w.ID == id })
	if i < 0 {
		return notFound("pool worker", id)
	}
	return fn(&m.workers[i])
}

func (m *mockStore) ClaimPoolWorker(_ context.Context, id, humanName string, at time.Time) error {
	return m.updateWorker(id, func(w *poolworker.Worker) error {
		if w.Status != poolworker.StatusPendingClaim {
			return fmt.Errorf("claim pool worker %s: already claimed: %w", id, domain.ErrInvalidState)
		}
		w.Status = poolworker.StatusAvailable
		w.ClaimedBy = &humanName
		w.ClaimedAt = &at
		return nil
	})
}

func (m *mockStore) SetPoolWorkerAvailability(_ context.Context, id string, status poolworker.Status, tokenBudget *int64, at time.Time) error {
	return m.updateWorker(id, func(w *poolworker.Worker) error {
		w.Status = status
		if tokenBudget != nil {
			w.TokenBudget = tokenBudget
		}
		w.LastHeartbeat = at
		return nil
	})
}

func (m *mockStore) RecordPoolWorkerHeartbeat(_ context.Context, id string, at time.Time) error {
	return m.updateWorker(id, func(w *poolworker.Worker) error {
		w.LastHeartbeat = at
		return nil
	})
}

// --- Publisher doubles ---

type mockEvent struct {
	eventType string
	payload   any
}

// mockBroadcaster records broadcast events.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []mockEvent
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, mockEvent{eventType: eventType, payload: payload})
}

func (b *mockBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

type publishedMsg struct {
	subject string
	data    []byte
}

// mockQueue implements messagequeue.Queue for testing.
type mockQueue struct {
	mu         sync.Mutex
	published  []publishedMsg
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, publishedMsg{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.published))
	for i, p := range q.published {
		out[i] = p.subject
	}
	return out
}

// fixture wires every service over one mockStore.
type fixture struct {
	store  *mockStore
	hub    *mockBroadcaster
	queue  *mockQueue
	pub    *Publisher
	agents *AgentService
	tasks  *TaskService
	msgs   *MessageService
	notes  *NotificationService
	acts   *ActivityService
}

func newFixture() *fixture {
	f := &fixture{store: &mockStore{}, hub: &mockBroadcaster{}, queue: &mockQueue{}}
	f.pub = NewPublisher(f.hub, f.queue, nil, nil)
	f.agents = NewAgentService(f.store, f.pub, 0)
	f.tasks = NewTaskService(f.store, f.pub)
	f.msgs = NewMessageService(f.store, f.pub)
	f.notes = NewNotificationService(f.store, f.pub)
	f.acts = NewActivityService(f.store)
	return f
}
