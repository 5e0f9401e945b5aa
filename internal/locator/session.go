package locator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/debounce"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/realtime"
)

// ErrAbandoned is returned by Load when its result arrived after the
// session ended or a newer load had already started.
var ErrAbandoned = errors.New("locator: load abandoned")

type Store interface {
	List(ctx context.Context) ([]catalog.Item, error)
}

// Session owns the live catalogue State for one process. Changes arrive as
// realtime patches; full reloads happen only on a resync and are debounced.
type Session struct {
	store Store
	log   *slog.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	life  context.Context
	// item patches seen while a load is in flight; replayed over its result
	loading int
	patches []Event

	reload *debounce.Debouncer
}

func NewSession(store Store, log *slog.Logger, pageSize int, reloadDelay time.Duration) *Session {
	s := &Session{
		store: store,
		log:   log,
		state: NewState(pageSize),
		life:  context.Background(),
	}
	s.reload = debounce.New(reloadDelay, func() {
		ctx, cancel := context.WithTimeout(s.lifetime(), 30*time.Second)
		defer cancel()
		if err := s.Load(ctx); err != nil && !errors.Is(err, ErrAbandoned) && !errors.Is(err, context.Canceled) {
			s.log.Error("catalogue reload failed", "err", err)
		}
	})
	return s
}

func (s *Session) lifetime() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.life
}

// Start loads the catalogue and follows item changes from hub until ctx is
// done. Nothing is applied to the State after that.
func (s *Session) Start(ctx context.Context, hub *realtime.Hub) error {
	s.mu.Lock()
	s.life = ctx
	s.mu.Unlock()

	changes := hub.Subscribe(ctx, realtime.TableItems)
	go func() {
		for c := range changes {
			s.apply(c)
		}
		s.reload.Stop()
	}()
	return s.Load(ctx)
}

// Load fetches the full list and replaces the cache. Only the most recently
// started load may apply its result. Item patches that arrive while the list
// is being fetched are applied again on top of it.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	life := s.life
	s.loading++
	from := len(s.patches)
	s.mu.Unlock()

	items, err := s.store.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	replay := s.patches[from:]
	s.loading--
	if s.loading == 0 {
		s.patches = nil
	}

	if err != nil {
		return err
	}
	if ctx.Err() != nil || life.Err() != nil || gen != s.gen {
		return ErrAbandoned
	}
	s.state = Reduce(s.state, Loaded{Items: items})
	for _, e := range replay {
		s.state = Reduce(s.state, e)
	}
	s.log.Debug("catalogue loaded", "items", len(items), "replayed", len(replay))
	return nil
}

func (s *Session) apply(c realtime.Change) {
	e, ok := ChangeEvent(c)
	if !ok {
		s.log.Debug("item change needs a reload", "op", c.Op)
		s.reload.Call()
		return
	}
	s.Dispatch(e)
}

// ChangeEvent maps an inventory_items change to the event it stands for.
// ok is false for a resync or a row image that cannot be used; only a full
// reload honours those.
func ChangeEvent(c realtime.Change) (Event, bool) {
	switch c.Op {
	case realtime.OpInsert, realtime.OpUpdate:
		var it catalog.Item
		if err := c.Decode(&it); err != nil || it.ID == 0 {
			return nil, false
		}
		return ItemUpserted{Item: it}, true
	case realtime.OpDelete:
		id, err := c.RowID()
		if err != nil {
			return nil, false
		}
		return ItemDeleted{ID: id}, true
	}
	return nil, false
}

// Dispatch runs e through Reduce and returns the new State, unless the
// session has already ended.
func (s *Session) Dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.life.Err() != nil {
		return s.state
	}
	if s.loading > 0 {
		switch e.(type) {
		case ItemUpserted, ItemDeleted:
			s.patches = append(s.patches, e)
		}
	}
	s.state = Reduce(s.state, e)
	return s.state
}

// State returns a snapshot. Callers may Reduce it further without touching
// the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Query renders a view for one caller's filters on top of the shared cache.
func (s *Session) Query(q, section string, page, pageSize int, mode ViewMode) View {
	st := s.State()
	st = Reduce(st, QueryChanged{Query: q})
	st = Reduce(st, SectionChanged{Section: section})
	st = Reduce(st, PageSizeChanged{Size: pageSize})
	st = Reduce(st, PageChanged{Page: page})
	if mode != "" {
		st = Reduce(st, ViewModeChanged{Mode: mode})
	}
	return st.View()
}
