package realtime

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietHub() *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHub(logger)
}

func TestHubDeliversMatchingChanges(t *testing.T) {
	hub := quietHub()
	ctx := context.Background()

	var got []uint
	unsub := hub.Subscribe("edit_locks", Eq("month", "2026-10"), func(c Change) {
		got = append(got, c.RowID)
	})
	defer unsub()

	hub.Publish(ctx, Change{Table: "edit_locks", Op: OpInsert, RowID: 1, Columns: map[string]string{"month": "2026-10"}})
	hub.Publish(ctx, Change{Table: "edit_locks", Op: OpInsert, RowID: 2, Columns: map[string]string{"month": "2026-11"}})
	hub.Publish(ctx, Change{Table: "allocations", Op: OpInsert, RowID: 3, Columns: map[string]string{"month": "2026-10"}})
	hub.Publish(ctx, Change{Table: "edit_locks", Op: OpDelete, RowID: 4, Columns: map[string]string{"month": "2026-10"}})

	if len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Fatalf("expected rows [1 4] in order, got %v", got)
	}
}

func TestHubEmptyFilterMatchesTable(t *testing.T) {
	hub := quietHub()
	count := 0
	unsub := hub.Subscribe("absences", Filter{}, func(Change) { count++ })
	defer unsub()

	hub.Publish(context.Background(), Change{Table: "absences", Op: OpUpdate, RowID: 9})
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := quietHub()
	first := hub.Subscribe("employees", Filter{}, func(Change) {})
	second := hub.Subscribe("employees", Filter{}, func(Change) {})
	if hub.Subscribers() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", hub.Subscribers())
	}

	first()
	first()
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", hub.Subscribers())
	}
	second()
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}

func TestHandlerMayUnsubscribeDuringDispatch(t *testing.T) {
	hub := quietHub()
	calls := 0
	var unsub Unsubscribe
	unsub = hub.Subscribe("projects", Filter{}, func(Change) {
		calls++
		unsub()
	})

	hub.Publish(context.Background(), Change{Table: "projects", RowID: 1})
	hub.Publish(context.Background(), Change{Table: "projects", RowID: 2})
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestFilterMissingColumn(t *testing.T) {
	if Eq("month", "2026-10").Matches(Change{Columns: map[string]string{}}) {
		t.Fatal("expected filter on a missing column to fail")
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`planner"changes`); got != `"planner""changes"` {
		t.Fatalf("expected doubled quote, got %s", got)
	}
}
