package locator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/infra/logger"
	"github.com/Spok95/pharmacy-indent/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	items []catalog.Item
	calls atomic.Int32
	// gate, when set, blocks List until closed
	gate chan struct{}
	err  error
}

func (f *fakeStore) List(ctx context.Context) ([]catalog.Item, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	f.calls.Add(1)
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]catalog.Item(nil), f.items...), nil
}

func (f *fakeStore) set(items ...catalog.Item) {
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

func change(t *testing.T, op realtime.Op, v any) realtime.Change {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return realtime.Change{Table: realtime.TableItems, Op: op, Record: raw}
}

func TestSession_StartLoads(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "Paracetamol", "A1")}}
	s := NewSession(store, logger.Discard(), 10, 10*time.Millisecond)
	hub := realtime.NewHub(logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, hub))

	st := s.State()
	assert.True(t, st.Loaded)
	assert.Len(t, st.Items, 1)
}

func TestSession_PatchesFromChanges(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "Paracetamol", "A1"), item(2, "Amoxicillin", "A1")}}
	s := NewSession(store, logger.Discard(), 10, 10*time.Millisecond)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, hub))

	hub.Publish(change(t, realtime.OpInsert, item(3, "Cetirizine", "B1")))
	hub.Publish(change(t, realtime.OpDelete, map[string]any{"id": 2}))

	require.Eventually(t, func() bool {
		st := s.State()
		_, added := st.Items[3]
		_, gone := st.Items[2]
		return added && !gone
	}, time.Second, 5*time.Millisecond)

	// patches never hit the store
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestSession_ResyncBurstReloadsOnce(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "a", "A1")}}
	s := NewSession(store, logger.Discard(), 10, 30*time.Millisecond)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, hub))

	store.set(item(1, "a", "A1"), item(2, "b", "A1"))
	for i := 0; i < 5; i++ {
		hub.Resync()
	}

	require.Eventually(t, func() bool { return len(s.State().Items) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestSession_UndecodableChangeFallsBackToReload(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "a", "A1")}}
	s := NewSession(store, logger.Discard(), 10, 10*time.Millisecond)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, hub))

	store.set(item(1, "a", "A1"), item(5, "e", "A1"))
	hub.Publish(realtime.Change{Table: realtime.TableItems, Op: realtime.OpUpdate})

	require.Eventually(t, func() bool { return len(s.State().Items) == 2 }, time.Second, 5*time.Millisecond)
}

func TestSession_LoadAfterTeardownIsAbandoned(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "a", "A1")}}
	s := NewSession(store, logger.Discard(), 10, time.Hour)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx, hub))

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.items = nil
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	require.Eventually(t, func() bool { return store.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	close(gate)

	assert.ErrorIs(t, <-done, ErrAbandoned)
	assert.Len(t, s.State().Items, 1)
}

func TestSession_StaleLoadLosesToNewer(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(store, logger.Discard(), 10, time.Hour)

	gate := make(chan struct{})
	store.gate = gate
	store.items = []catalog.Item{item(1, "old", "A1")}

	first := make(chan error, 1)
	go func() { first <- s.Load(context.Background()) }()
	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	store.gate = nil
	store.items = []catalog.Item{item(1, "new", "A1")}
	store.mu.Unlock()
	require.NoError(t, s.Load(context.Background()))

	close(gate)
	assert.ErrorIs(t, <-first, ErrAbandoned)
	assert.Equal(t, "new", s.State().Items[1].Name)
}

func TestSession_LoadError(t *testing.T) {
	boom := errors.New("boom")
	s := NewSession(&fakeStore{err: boom}, logger.Discard(), 10, time.Hour)
	assert.ErrorIs(t, s.Load(context.Background()), boom)
	assert.False(t, s.State().Loaded)
}

func TestSession_QueryDoesNotTouchSharedState(t *testing.T) {
	s := NewSession(&fakeStore{items: []catalog.Item{item(1, "Paracetamol", "A1"), item(2, "Amoxicillin", "A2")}}, logger.Discard(), 10, time.Hour)
	require.NoError(t, s.Load(context.Background()))

	v := s.Query("amox", "", 0, 0, ViewList)
	require.Len(t, v.Items, 1)
	assert.Equal(t, ViewList, v.Mode)
	assert.Equal(t, 10, v.PageSize)

	st := s.State()
	assert.Empty(t, st.Query)
	assert.Equal(t, ViewGrid, st.Mode)
}

func TestSession_PatchDuringLoadSurvivesReload(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "old", "A1"), item(2, "gone", "A1")}}
	s := NewSession(store, logger.Discard(), 10, time.Hour)
	hub := realtime.NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, hub))

	// the list read below was taken before the changes were committed
	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	require.Eventually(t, func() bool { return store.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(change(t, realtime.OpUpdate, item(1, "new", "A1")))
	hub.Publish(change(t, realtime.OpDelete, map[string]any{"id": 2}))
	require.Eventually(t, func() bool {
		st := s.State()
		_, has2 := st.Items[2]
		return st.Items[1].Name == "new" && !has2
	}, time.Second, 5*time.Millisecond)

	close(gate)
	require.NoError(t, <-done)

	st := s.State()
	assert.Equal(t, "new", st.Items[1].Name)
	assert.NotContains(t, st.Items, int64(2))
}

func TestSession_PatchesNotReplayedByLaterLoad(t *testing.T) {
	store := &fakeStore{items: []catalog.Item{item(1, "a", "A1")}}
	s := NewSession(store, logger.Discard(), 10, time.Hour)
	require.NoError(t, s.Load(context.Background()))

	s.Dispatch(ItemUpserted{Item: item(9, "local", "A1")})
	require.NoError(t, s.Load(context.Background()))

	// the patch happened between loads, so the fresh list wins
	assert.NotContains(t, s.State().Items, int64(9))
}

func TestChangeEvent(t *testing.T) {
	e, ok := ChangeEvent(realtime.Change{Op: realtime.OpInsert, Record: json.RawMessage(`{"id":4,"name":"Salbutamol"}`)})
	require.True(t, ok)
	assert.Equal(t, int64(4), e.(ItemUpserted).Item.ID)

	e, ok = ChangeEvent(realtime.Change{Op: realtime.OpDelete, Record: json.RawMessage(`{"id":4}`)})
	require.True(t, ok)
	assert.Equal(t, ItemDeleted{ID: 4}, e)

	for _, c := range []realtime.Change{
		{Op: realtime.OpResync},
		{Op: realtime.OpUpdate},
		{Op: realtime.OpUpdate, Record: json.RawMessage(`{"name":"no id"}`)},
		{Op: realtime.OpDelete, Record: json.RawMessage(`{}`)},
	} {
		_, ok := ChangeEvent(c)
		assert.False(t, ok, c.Op)
	}
}
