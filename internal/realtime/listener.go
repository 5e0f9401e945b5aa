package realtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/infra/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reconnectDelay = 3 * time.Second

// Listener holds one pooled connection on LISTEN and feeds the hub.
type Listener struct {
	pool *pgxpool.Pool
	hub  *Hub
	log  *slog.Logger
}

func NewListener(pool *pgxpool.Pool, hub *Hub, log *slog.Logger) *Listener {
	return &Listener{pool: pool, hub: hub, log: log}
}

// Run blocks until ctx is done. After a lost connection it reconnects and
// asks subscribers to resync, since notifications sent in between are gone.
func (l *Listener) Run(ctx context.Context) error {
	first := true
	for {
		err := l.listen(ctx, !first)
		if ctx.Err() != nil {
			return nil
		}
		first = false
		l.log.Error("realtime listener lost connection", "err", err, "retry_in", reconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context, resync bool) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	l.log.Info("realtime listener started", "channel", Channel)
	if resync {
		l.hub.Resync()
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n == nil {
			return errors.New("realtime: empty notification")
		}
		c, err := ParseChange(n.Payload)
		if err != nil {
			l.log.Warn("realtime bad payload", "err", err)
			continue
		}
		metrics.RealtimeChanges.WithLabelValues(c.Table, string(c.Op)).Inc()
		l.hub.Publish(c)
	}
}
