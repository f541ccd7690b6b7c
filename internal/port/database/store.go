// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/document"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/domain/notification"
	"github.com/Strob0t/MissionControl/internal/domain/poolworker"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

// Store is the port interface for database operations.
//
// Lookups of a missing id return an error wrapping domain.ErrNotFound.
// Patch methods only touch the columns they name, so concurrent patches on
// different fields do not overwrite each other.
type Store interface {
	// InTx runs fn inside a single transaction. fn receives a Store bound to
	// that transaction; returning an error rolls everything back. Calling
	// InTx on a transaction-bound Store reuses the open transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	// Agents
	CreateAgent(ctx context.Context, a *agent.Agent) error
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	// ListAgents returns all agents, oldest first.
	ListAgents(ctx context.Context) ([]agent.Agent, error)
	// FindAgentsByName matches name case-insensitively, oldest first.
	FindAgentsByName(ctx context.Context, name string) ([]agent.Agent, error)
	CountAgents(ctx context.Context) (int, error)
	SetAgentStatus(ctx context.Context, id string, status agent.Status, currentTaskID *string, at time.Time) error
	RecordAgentHeartbeat(ctx context.Context, id string, req agent.HeartbeatRequest, at time.Time) error
	// ClearAgentCurrentTask clears current_task_id on every agent pointing
	// at taskID, optionally restricted to one agent.
	ClearAgentCurrentTask(ctx context.Context, taskID string, agentID *string) error
	DeleteAgent(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, t *task.Task) error
	GetTask(ctx context.Context, id string) (*task.Task, error)
	// ListTasks returns tasks joined with their assignee, newest first.
	ListTasks(ctx context.Context, filter task.ListFilter) ([]task.WithAssignee, error)
	UpdateTask(ctx context.Context, id string, req task.UpdateRequest, at time.Time) error
	SetTaskStatus(ctx context.Context, id string, status task.Status, at time.Time) error
	// AssignTask sets or clears the assignee. Setting an assignee on an
	// inbox task moves it to assigned in the same statement.
	AssignTask(ctx context.Context, id string, assigneeID *string, at time.Time) error
	TouchTask(ctx context.Context, id string, at time.Time) error
	// UnassignAgentTasks resets every task of agentID to inbox with no
	// assignee and returns how many were reset.
	UnassignAgentTasks(ctx context.Context, agentID string, at time.Time) (int64, error)
	DeleteTask(ctx context.Context, id string) error

	// Messages
	CreateMessage(ctx context.Context, m *message.Message) error
	// ListMessagesByTask returns messages oldest first with their sender.
	ListMessagesByTask(ctx context.Context, taskID string, limit int) ([]message.WithSender, error)
	DeleteMessagesByTask(ctx context.Context, taskID string) (int64, error)

	// Notifications
	CreateNotification(ctx context.Context, n *notification.Notification) error
	GetNotification(ctx context.Context, id string) (*notification.Notification, error)
	// ListNotifications returns notifications newest first with sender and task.
	ListNotifications(ctx context.Context, filter notification.ListFilter) ([]notification.WithContext, error)
	MarkNotificationDelivered(ctx context.Context, id string) error
	MarkAllNotificationsDelivered(ctx context.Context, agentID string) (int64, error)
	CountUndeliveredNotifications(ctx context.Context, agentID string) (int, error)
	DeleteNotificationsByTask(ctx context.Context, taskID string) (int64, error)

	// Activities
	CreateActivity(ctx context.Context, a *activity.Activity) error
	// ListActivities returns activities newest first with agent and task.
	ListActivities(ctx context.Context, filter activity.ListFilter) ([]activity.WithContext, error)
	DeleteActivitiesByTask(ctx context.Context, taskID string) (int64, error)

	// Documents
	CreateDocument(ctx context.Context, d *document.Document) error
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	ListDocuments(ctx context.Context, filter document.ListFilter) ([]document.Document, error)
	UpdateDocument(ctx context.Context, id string, req document.UpdateRequest, at time.Time) error
	DeleteDocument(ctx context.Context, id string) error

	// Pool workers
	CreatePoolWorker(ctx context.Context, w *poolworker.Worker) error
	GetPoolWorker(ctx context.Context, id string) (*poolworker.Worker, error)
	GetPoolWorkerByAPIKeyHash(ctx context.Context, hash string) (*poolworker.Worker, error)
	GetPoolWorkerByClaimToken(ctx context.Context, token string) (*poolworker.Worker, error)
	ListPoolWorkers(ctx context.Context) ([]poolworker.Worker, error)
	// ClaimPoolWorker moves a pending_claim worker to available. It fails
	// with domain.ErrInvalidState when the worker was already claimed.
	ClaimPoolWorker(ctx context.Context, id, humanName string, at time.Time) error
	SetPoolWorkerAvailability(ctx context.Context, id string, status poolworker.Status, tokenBudget *int64, at time.Time) error
	RecordPoolWorkerHeartbeat(ctx context.Context, id string, at time.Time) error
}
