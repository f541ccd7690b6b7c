package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/port/cache"
)

const boardKey = "board.by_status"

// BoardCache holds the ListByStatus projection. It is a read-through copy
// with a short TTL and explicit invalidation, never a source of truth. A nil
// *BoardCache disables caching.
//
// Every invalidation bumps a generation. A board loaded under an older
// generation is never stored, so a read that overlaps a commit cannot
// reinstate the pre-commit board.
type BoardCache struct {
	c   cache.Cache
	ttl time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewBoardCache wraps c; entries expire after ttl.
func NewBoardCache(c cache.Cache, ttl time.Duration) *BoardCache {
	return &BoardCache{c: c, ttl: ttl}
}

// Get returns the cached board. Lookup errors count as a miss.
func (b *BoardCache) Get(ctx context.Context) (task.Board, bool) {
	if b == nil {
		return nil, false
	}
	var board task.Board
	ok, err := cache.GetJSON(ctx, b.c, boardKey, &board)
	if err != nil {
		slog.WarnContext(ctx, "board cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	// Columns missing from a stale encoding are restored empty.
	full := task.NewBoard()
	for s, col := range board {
		if col != nil {
			full[s] = col
		}
	}
	return full, true
}

// Generation returns the current invalidation count. Read it before
// loading the board and pass it to Set.
func (b *BoardCache) Generation() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Set stores board if no invalidation happened since gen was read.
func (b *BoardCache) Set(ctx context.Context, gen uint64, board task.Board) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		slog.DebugContext(ctx, "board changed while loading, not cached", "loaded_gen", gen, "gen", b.gen)
		return
	}
	if err := cache.SetJSON(ctx, b.c, boardKey, board, b.ttl); err != nil {
		slog.WarnContext(ctx, "board cache write failed", "error", err)
	}
}

// Invalidate drops the cached board and starts a new generation.
func (b *BoardCache) Invalidate(ctx context.Context) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	if err := b.c.Delete(ctx, boardKey); err != nil {
		slog.WarnContext(ctx, "board cache invalidation failed", "error", err)
	}
}
