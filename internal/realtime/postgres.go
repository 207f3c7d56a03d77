package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the NOTIFY channel changes travel on.
const DefaultChannel = "planner_changes"

// PGFeed carries changes between processes over Postgres LISTEN/NOTIFY.
// Publish sends a NOTIFY; Listen receives them and fans out through a local
// Hub, so a process sees its own writes the same way it sees everyone else's.
type PGFeed struct {
	pool    *pgxpool.Pool
	channel string
	hub     *Hub
	logger  *logrus.Logger
}

func NewPGFeed(pool *pgxpool.Pool, channel string, logger *logrus.Logger) *PGFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PGFeed{pool: pool, channel: channel, hub: NewHub(logger), logger: logger}
}

func (f *PGFeed) Subscribe(table string, filter Filter, handler Handler) Unsubscribe {
	return f.hub.Subscribe(table, filter, handler)
}

func (f *PGFeed) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if _, err := f.pool.Exec(ctx, "SELECT pg_notify($1, $2)", f.channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", f.channel, err)
	}
	return nil
}

// Listen holds a connection on the channel until ctx is done, reconnecting
// after failures.
func (f *PGFeed) Listen(ctx context.Context) error {
	for {
		err := f.listenOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.WithError(err).Warn("Change feed connection lost, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *PGFeed) listenOnce(ctx context.Context) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+quoteIdent(f.channel)); err != nil {
		return err
	}
	f.logger.WithField("channel", f.channel).Info("Listening for changes")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var change Change
		if err := json.Unmarshal([]byte(n.Payload), &change); err != nil {
			f.logger.WithError(err).Warn("Dropping malformed change notification")
			continue
		}
		f.hub.dispatch(change)
	}
}

func quoteIdent(s string) string {
	out := []byte{'"'}
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}
