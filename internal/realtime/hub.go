package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type subscription struct {
	id      uuid.UUID
	table   string
	filter  Filter
	handler Handler
}

// Hub is an in-process Feed. Publish delivers synchronously, in subscription
// order, so changes published sequentially by one writer arrive in order.
type Hub struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{logger: logger}
}

// Subscribe registers a handler for changes on table that pass filter.
func (h *Hub) Subscribe(table string, filter Filter, handler Handler) Unsubscribe {
	sub := subscription{id: uuid.New(), table: table, filter: filter, handler: handler}

	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"subscription": sub.id.String(),
		"table":        table,
		"filter":       filter.Column,
	}).Debug("Subscribed to changes")

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(sub.id) })
	}
}

// Publish fans the change out to matching subscribers.
func (h *Hub) Publish(_ context.Context, change Change) error {
	h.dispatch(change)
	return nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) dispatch(change Change) {
	h.mu.RLock()
	matched := make([]Handler, 0, len(h.subs))
	for _, s := range h.subs {
		if s.table == change.Table && s.filter.Matches(change) {
			matched = append(matched, s.handler)
		}
	}
	h.mu.RUnlock()

	for _, handler := range matched {
		handler(change)
	}
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			h.logger.WithField("subscription", id.String()).Debug("Unsubscribed from changes")
			return
		}
	}
}
