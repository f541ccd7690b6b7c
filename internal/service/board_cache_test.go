package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/MissionControl/internal/domain/task"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
)

// memCache is a minimal in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func TestBoardCacheNilIsDisabled(t *testing.T) {
	var b *BoardCache
	ctx := context.Background()
	b.Set(ctx, b.Generation(), task.NewBoard())
	b.Invalidate(ctx)
	if _, ok := b.Get(ctx); ok {
		t.Fatal("nil cache should always miss")
	}
}

func TestBoardCacheRestoresMissingColumns(t *testing.T) {
	c := newMemCache()
	b := NewBoardCache(c, time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, boardKey, []byte(`{"done":[{"id":"t1","title":"x","status":"done"}]}`), 0)

	board, ok := b.Get(ctx)
	if !ok {
		t.Fatal("expected hit")
	}
	if len(board) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(board))
	}
	if len(board[task.StatusDone]) != 1 || board[task.StatusInbox] == nil {
		t.Fatalf("unexpected board: %+v", board)
	}
}

func TestBoardCacheCorruptEntryIsMiss(t *testing.T) {
	c := newMemCache()
	b := NewBoardCache(c, time.Minute)
	ctx := context.Background()
	_ = c.Set(ctx, boardKey, []byte(`not json`), 0)

	if _, ok := b.Get(ctx); ok {
		t.Fatal("corrupt entry should be a miss")
	}
}

func TestBoardCacheSkipsBoardFromOlderGeneration(t *testing.T) {
	c := newMemCache()
	b := NewBoardCache(c, time.Minute)
	ctx := context.Background()

	loadedAt := b.Generation()
	b.Invalidate(ctx)
	b.Set(ctx, loadedAt, task.NewBoard())
	if _, ok := b.Get(ctx); ok {
		t.Fatal("board loaded before the invalidation must not be cached")
	}

	b.Set(ctx, b.Generation(), task.NewBoard())
	if _, ok := b.Get(ctx); !ok {
		t.Fatal("board of the current generation should be cached")
	}
}

// gatedStore holds the first inbox column load until resume is closed.
type gatedStore struct {
	*mockStore
	once   sync.Once
	loaded chan struct{}
	resume chan struct{}
}

func (g *gatedStore) ListTasks(ctx context.Context, filter task.ListFilter) ([]task.WithAssignee, error) {
	col, err := g.mockStore.ListTasks(ctx, filter)
	if filter.Status != nil && *filter.Status == task.StatusInbox {
		g.once.Do(func() {
			close(g.loaded)
			<-g.resume
		})
	}
	return col, err
}

func TestBoardReadOverlappingStatusChangeIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	pub := NewPublisher(nil, nil, NewBoardCache(newMemCache(), time.Minute), nil)
	writer := NewTaskService(store, pub)

	tk, err := writer.Create(ctx, task.CreateRequest{Title: "Ship release", Description: "tag and push"})
	if err != nil {
		t.Fatal(err)
	}

	gated := &gatedStore{mockStore: store, loaded: make(chan struct{}), resume: make(chan struct{})}
	reader := NewTaskService(gated, pub)

	done := make(chan error, 1)
	go func() {
		_, err := reader.ListByStatus(ctx)
		done <- err
	}()

	<-gated.loaded
	if _, err := writer.UpdateStatus(ctx, tk.ID, task.StatusDone); err != nil {
		t.Fatal(err)
	}
	close(gated.resume)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	board, err := writer.ListByStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(board[task.StatusInbox]) != 0 || len(board[task.StatusDone]) != 1 {
		t.Fatalf("after status change: inbox=%d done=%d, want inbox=0 done=1",
			len(board[task.StatusInbox]), len(board[task.StatusDone]))
	}
}

// fanoutQueue is a mockQueue that also records fan-out broadcasts.
type fanoutQueue struct {
	mockQueue
	mu         sync.Mutex
	broadcasts []publishedMsg
}

func (q *fanoutQueue) Broadcast(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.broadcasts = append(q.broadcasts, publishedMsg{subject, data})
	return nil
}

func (q *fanoutQueue) SubscribeAll(string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func TestBoardInvalidationReachesOtherReplicas(t *testing.T) {
	ctx := context.Background()

	q := &fanoutQueue{}
	local := NewPublisher(nil, q, NewBoardCache(newMemCache(), time.Minute), nil)
	local.InvalidateBoard(ctx)

	if len(q.broadcasts) != 1 || q.broadcasts[0].subject != messagequeue.SubjectBoardInvalidated {
		t.Fatalf("expected one board.invalidated broadcast, got %+v", q.broadcasts)
	}
	data := q.broadcasts[0].data

	remoteCache := NewBoardCache(newMemCache(), time.Minute)
	remote := NewPublisher(nil, &fanoutQueue{}, remoteCache, nil)
	remoteCache.Set(ctx, remoteCache.Generation(), task.NewBoard())
	if err := remote.HandleBoardInvalidated(ctx, messagequeue.SubjectBoardInvalidated, data); err != nil {
		t.Fatal(err)
	}
	if _, ok := remoteCache.Get(ctx); ok {
		t.Error("remote replica kept its board after invalidation")
	}

	// The sender ignores its own announcement.
	local.Board().Set(ctx, local.Board().Generation(), task.NewBoard())
	if err := local.HandleBoardInvalidated(ctx, messagequeue.SubjectBoardInvalidated, data); err != nil {
		t.Fatal(err)
	}
	if _, ok := local.Board().Get(ctx); !ok {
		t.Error("own announcement should not drop the board again")
	}

	if err := remote.HandleBoardInvalidated(ctx, messagequeue.SubjectBoardInvalidated, []byte(`{}`)); err == nil {
		t.Error("expected schema error for missing origin")
	}
}

func TestBoardInvalidationWithoutFanoutStaysLocal(t *testing.T) {
	q := &mockQueue{}
	pub := NewPublisher(nil, q, NewBoardCache(newMemCache(), time.Minute), nil)
	pub.InvalidateBoard(context.Background())
	for _, s := range q.subjects() {
		if s == messagequeue.SubjectBoardInvalidated {
			t.Fatal("board.invalidated must not go through the durable queue")
		}
	}
}
