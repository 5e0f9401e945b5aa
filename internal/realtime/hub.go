package realtime

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBuffer = 64

type subscription struct {
	ch chan Change
	// missed is set when a change was dropped on a full buffer; the next
	// delivery slot is used for a resync instead.
	missed bool
}

// Hub fans changes out to subscribers keyed by table name.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
	log  *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{subs: map[string]map[*subscription]struct{}{}, log: log}
}

// Subscribe returns a stream of changes for table. The stream is closed
// once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, table string) <-chan Change {
	s := &subscription{ch: make(chan Change, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[table] == nil {
		h.subs[table] = map[*subscription]struct{}{}
	}
	h.subs[table][s] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[table], s)
		close(s.ch)
		h.mu.Unlock()
	}()
	return s.ch
}

// Publish delivers c to every subscriber of c.Table without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[c.Table] {
		h.deliver(s, c)
	}
}

// Resync asks every subscriber of every table to reload.
func (h *Hub) Resync() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for table, subs := range h.subs {
		for s := range subs {
			h.deliver(s, Change{Table: table, Op: OpResync})
		}
	}
}

func (h *Hub) deliver(s *subscription, c Change) {
	if s.missed {
		select {
		case s.ch <- Change{Table: c.Table, Op: OpResync}:
			s.missed = false
		default:
		}
		// the resync supersedes c
		return
	}
	select {
	case s.ch <- c:
	default:
		s.missed = true
		h.log.Warn("realtime subscriber lagging, change dropped", "table", c.Table, "op", c.Op)
	}
}

// Subscribers reports how many live subscriptions table has.
func (h *Hub) Subscribers(table string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[table])
}
