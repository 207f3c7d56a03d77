// Package realtime delivers row-change notifications from the record store
// to subscribers, filtered by table and column value.
package realtime

import (
	"context"
	"time"
)

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one row change. Columns carries the filterable column
// values of the row (for deletes, the values it had).
type Change struct {
	Table   string            `json:"table"`
	Op      Op                `json:"op"`
	RowID   uint              `json:"row_id"`
	Columns map[string]string `json:"columns,omitempty"`
	At      time.Time         `json:"at"`
}

// Column returns a column value of the changed row.
func (c Change) Column(name string) string {
	return c.Columns[name]
}

// Filter restricts a subscription to rows whose Column equals Value.
// The zero Filter matches every row.
type Filter struct {
	Column string
	Value  string
}

// Eq builds a column equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// Matches reports whether the change passes the filter.
func (f Filter) Matches(c Change) bool {
	if f.Column == "" {
		return true
	}
	v, ok := c.Columns[f.Column]
	return ok && v == f.Value
}

// Handler receives changes.
type Handler func(Change)

// Unsubscribe detaches a handler. Calling it more than once is harmless.
type Unsubscribe func()

// Feed is the subscribe-to-changes primitive of the record store.
type Feed interface {
	Subscribe(table string, filter Filter, handler Handler) Unsubscribe
	Publish(ctx context.Context, change Change) error
}
