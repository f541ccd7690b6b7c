package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "missioncontrol"

// Metrics holds all Mission Control metric instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	TasksCreated           metric.Int64Counter
	TaskStatusChanges      metric.Int64Counter
	MessagesCreated        metric.Int64Counter
	NotificationsCreated   metric.Int64Counter
	NotificationsDelivered metric.Int64Counter
	Spawns                 metric.Int64Counter
	SpawnFailures          metric.Int64Counter
	SpawnDuration          metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments on the given provider.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksCreated, err = meter.Int64Counter("missioncontrol.tasks.created",
		metric.WithDescription("Number of tasks created"))
	if err != nil {
		return nil, err
	}

	m.TaskStatusChanges, err = meter.Int64Counter("missioncontrol.tasks.status_changes",
		metric.WithDescription("Number of task status changes"))
	if err != nil {
		return nil, err
	}

	m.MessagesCreated, err = meter.Int64Counter("missioncontrol.messages.created",
		metric.WithDescription("Number of task messages posted"))
	if err != nil {
		return nil, err
	}

	m.NotificationsCreated, err = meter.Int64Counter("missioncontrol.notifications.created",
		metric.WithDescription("Number of mention notifications created"))
	if err != nil {
		return nil, err
	}

	m.NotificationsDelivered, err = meter.Int64Counter("missioncontrol.notifications.delivered",
		metric.WithDescription("Number of notifications marked delivered"))
	if err != nil {
		return nil, err
	}

	m.Spawns, err = meter.Int64Counter("missioncontrol.orchestrator.spawns",
		metric.WithDescription("Number of openclaw sessions spawned"))
	if err != nil {
		return nil, err
	}

	m.SpawnFailures, err = meter.Int64Counter("missioncontrol.orchestrator.spawn_failures",
		metric.WithDescription("Number of failed openclaw spawns"))
	if err != nil {
		return nil, err
	}

	m.SpawnDuration, err = meter.Float64Histogram("missioncontrol.orchestrator.spawn.duration_seconds",
		metric.WithDescription("Spawn duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) TaskCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.TasksCreated.Add(ctx, 1)
}

func (m *Metrics) TaskStatusChanged(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.TaskStatusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// MessageCreated records one message and the notifications it fanned out.
func (m *Metrics) MessageCreated(ctx context.Context, notifications int) {
	if m == nil {
		return
	}
	m.MessagesCreated.Add(ctx, 1)
	if notifications > 0 {
		m.NotificationsCreated.Add(ctx, int64(notifications))
	}
}

func (m *Metrics) NotificationsMarked(ctx context.Context, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.NotificationsDelivered.Add(ctx, n)
}

// SpawnFinished records a spawn attempt and its duration.
func (m *Metrics) SpawnFinished(ctx context.Context, seconds float64, err error) {
	if m == nil {
		return
	}
	m.Spawns.Add(ctx, 1)
	m.SpawnDuration.Record(ctx, seconds)
	if err != nil {
		m.SpawnFailures.Add(ctx, 1)
	}
}
