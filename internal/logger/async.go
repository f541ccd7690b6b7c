package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes and stops a handler.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// queued is a record waiting for a worker, with the scope it was logged
// under so the inner handler sees the same identifiers.
type queued struct {
	rec   slog.Record
	scope scope
	inner slog.Handler
}

// asyncCore is shared by an AsyncHandler and every handler derived from it
// with WithAttrs or WithGroup.
type asyncCore struct {
	ch      chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64

	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool
	once   sync.Once
}

// AsyncHandler hands records to a pool of workers through a bounded queue
// so request paths never block on log output. When the queue is full the
// record is dropped and counted; Close reports the total once.
type AsyncHandler struct {
	inner slog.Handler
	core  *asyncCore
}

// NewAsyncHandler starts workers draining a queue of chanSize records.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	c := &asyncCore{ch: make(chan queued, chanSize)}
	for range workers {
		c.wg.Add(1)
		go c.drain()
	}
	return &AsyncHandler{inner: inner, core: c}
}

func (c *asyncCore) drain() {
	defer c.wg.Done()
	for q := range c.ch {
		_ = q.inner.Handle(q.scope.into(context.Background()), q.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle queues the record. A full queue, or a closed handler, drops it.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.core.mu.RLock()
	defer h.core.mu.RUnlock()
	if h.core.closed {
		h.core.dropped.Add(1)
		return nil
	}
	select {
	case h.core.ch <- queued{rec: rec.Clone(), scope: scopeFrom(ctx), inner: h.inner}:
	default:
		h.core.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), core: h.core}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), core: h.core}
}

// DroppedCount returns how many records were dropped.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.dropped.Load()
}

// Close stops accepting records, waits for the queue to drain and, if any
// record was lost, writes one warning with the count. It is safe to call
// more than once.
func (h *AsyncHandler) Close() {
	h.core.once.Do(func() {
		h.core.mu.Lock()
		h.core.closed = true
		close(h.core.ch)
		h.core.mu.Unlock()
		h.core.wg.Wait()

		if n := h.core.dropped.Load(); n > 0 {
			rec := slog.NewRecord(time.Now(), slog.LevelWarn, "log records dropped", 0)
			rec.AddAttrs(slog.Int64("dropped", n))
			_ = h.inner.Handle(context.Background(), rec)
		}
	})
}
