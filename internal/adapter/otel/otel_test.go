package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Strob0t/MissionControl/internal/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.TaskCreated(ctx)
	m.TaskStatusChanged(ctx, "done")
	m.MessageCreated(ctx, 2)
	m.NotificationsMarked(ctx, 3)
	m.SpawnFinished(ctx, 1.5, errors.New("boom"))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: unexpected data type %T", name, md.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetricsFrom(mp)
	if err != nil {
		t.Fatalf("NewMetricsFrom: %v", err)
	}

	ctx := context.Background()
	m.TaskCreated(ctx)
	m.TaskCreated(ctx)
	m.TaskStatusChanged(ctx, "review")
	m.MessageCreated(ctx, 3)
	m.MessageCreated(ctx, 0)
	m.NotificationsMarked(ctx, 2)
	m.NotificationsMarked(ctx, 0)
	m.SpawnFinished(ctx, 0.2, nil)
	m.SpawnFinished(ctx, 0.4, errors.New("exit status 1"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	tests := map[string]int64{
		"missioncontrol.tasks.created":               2,
		"missioncontrol.tasks.status_changes":        1,
		"missioncontrol.messages.created":            2,
		"missioncontrol.notifications.created":       3,
		"missioncontrol.notifications.delivered":     2,
		"missioncontrol.orchestrator.spawns":         2,
		"missioncontrol.orchestrator.spawn_failures": 1,
	}
	for name, want := range tests {
		if got := sumOf(t, rm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := HTTPMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for _, path := range []string{"/health", "/api/v1/tasks"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rec.Code != http.StatusTeapot {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, http.StatusTeapot)
		}
	}
}
