package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "missioncontrol"

// StartServiceSpan starts a span for a service operation, e.g.
// ("task", "assign", attribute.String("task.id", id)).
func StartServiceSpan(ctx context.Context, service, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, service+"."+op, trace.WithAttributes(attrs...))
}

// StartSpawnSpan starts a span for an openclaw spawn.
func StartSpawnSpan(ctx context.Context, taskID, label string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "orchestrator.spawn",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("spawn.label", label),
		),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
