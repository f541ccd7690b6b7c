// Package service contains the Mission Control application services.
//
// Every mutating method validates its input, runs its writes (including the
// activity row) in one store transaction, and only after commit fans out the
// side effects through a Publisher. Side effects are best effort: failures
// are logged and never fail the call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/port/broadcast"
	"github.com/Strob0t/MissionControl/internal/port/database"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// Publisher fans committed changes out to WebSocket clients, NATS and the
// board cache, and records metrics.
type Publisher struct {
	hub     broadcast.Broadcaster
	queue   messagequeue.Queue  // nil when NATS is disabled
	fanout  messagequeue.Fanout // set when queue can reach every replica
	board   *BoardCache         // nil disables caching
	metrics *otel.Metrics       // nil records nothing

	// origin tags board invalidations sent by this replica.
	origin string
}

// NewPublisher creates a Publisher. queue, board and metrics may be nil.
// When queue also implements messagequeue.Fanout, board invalidations are
// announced to the other replicas.
func NewPublisher(hub broadcast.Broadcaster, queue messagequeue.Queue, board *BoardCache, metrics *otel.Metrics) *Publisher {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	p := &Publisher{hub: hub, queue: queue, board: board, metrics: metrics, origin: uuid.NewString()}
	if f, ok := queue.(messagequeue.Fanout); ok {
		p.fanout = f
	}
	return p
}

// Board returns the board cache, which may be nil.
func (p *Publisher) Board() *BoardCache { return p.board }

// Metrics returns the metric instruments, which may be nil.
func (p *Publisher) Metrics() *otel.Metrics { return p.metrics }

// Broadcast pushes an event to dashboards.
func (p *Publisher) Broadcast(ctx context.Context, eventType string, payload any) {
	p.hub.BroadcastEvent(ctx, eventType, payload)
}

// Activities broadcasts each committed activity as activity.created.
func (p *Publisher) Activities(ctx context.Context, acts ...*activity.Activity) {
	for _, a := range acts {
		p.hub.BroadcastEvent(ctx, ws.EventActivityCreated, a)
	}
}

// Queued reports whether a message queue is attached.
func (p *Publisher) Queued() bool { return p.queue != nil }

// Send encodes payload against the subject's schema and publishes it.
func (p *Publisher) Send(ctx context.Context, subject string, payload any) error {
	if p.queue == nil {
		return fmt.Errorf("publish %s: no message queue configured", subject)
	}
	data, err := messagequeue.Marshal(subject, payload)
	if err != nil {
		return err
	}
	return p.queue.Publish(ctx, subject, data)
}

// Publish is Send for best-effort events: it is a no-op without a queue and
// only logs failures.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) {
	if p.queue == nil {
		return
	}
	if err := p.Send(ctx, subject, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "subject", subject, "error", err)
	}
}

// InvalidateBoard drops the cached board projection here and, over the
// fan-out subject, on every other replica.
func (p *Publisher) InvalidateBoard(ctx context.Context) {
	p.board.Invalidate(ctx)
	if p.board == nil || p.fanout == nil {
		return
	}
	data, err := messagequeue.Marshal(messagequeue.SubjectBoardInvalidated,
		messagequeue.BoardInvalidatedPayload{Origin: p.origin})
	if err != nil {
		slog.ErrorContext(ctx, "encode board invalidation", "error", err)
		return
	}
	if err := p.fanout.Broadcast(ctx, messagequeue.SubjectBoardInvalidated, data); err != nil {
		slog.WarnContext(ctx, "board invalidation not announced", "error", err)
	}
}

// HandleBoardInvalidated consumes board.invalidated from other replicas.
// The replica's own announcements are ignored.
func (p *Publisher) HandleBoardInvalidated(ctx context.Context, subject string, data []byte) error {
	var msg messagequeue.BoardInvalidatedPayload
	if err := messagequeue.Decode(subject, data, &msg); err != nil {
		return err
	}
	if msg.Origin == p.origin {
		return nil
	}
	p.board.Invalidate(ctx)
	return nil
}

// recorder stamps and writes activities inside a transaction and remembers
// them for broadcasting after commit.
type recorder struct {
	now     func() time.Time
	written []*activity.Activity
}

func (r *recorder) record(ctx context.Context, tx database.Store, a *activity.Activity) error {
	a.ID = uuid.NewString()
	a.CreatedAt = r.now()
	if err := tx.CreateActivity(ctx, a); err != nil {
		return err
	}
	r.written = append(r.written, a)
	return nil
}

// utcNow is the default clock of every service.
func utcNow() time.Time { return time.Now().UTC() }
