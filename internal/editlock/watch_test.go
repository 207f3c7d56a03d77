package editlock

import (
	"context"
	"testing"
	"time"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

func TestEventFromChange(t *testing.T) {
	expires := time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC)
	lock := &models.EditLock{ID: 3, ProjectID: 7, Month: "2026-10", EmployeeID: 2, ExpiresAt: expires}
	ev, err := EventFromChange(realtime.Change{Table: Table, Op: realtime.OpInsert, RowID: 3, Columns: Columns(lock)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ProjectID != 7 || ev.EmployeeID != 2 || ev.Month != "2026-10" || !ev.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected event %+v", ev)
	}

	if _, err := EventFromChange(realtime.Change{Columns: map[string]string{ColumnProjectID: "x"}}); err == nil {
		t.Fatal("expected error for malformed project id")
	}
}

func TestWatchFiltersByMonth(t *testing.T) {
	hub := realtime.NewHub(quietLogger())
	c := NewCoordinator(newFakeStore(), WithFeed(hub), WithLogger(quietLogger()))

	var got []Event
	unsub := c.Watch("2026-10", func(ev Event) { got = append(got, ev) })

	expires := time.Now().Add(time.Minute)
	october := &models.EditLock{ProjectID: 1, Month: "2026-10", EmployeeID: 1, ExpiresAt: expires}
	november := &models.EditLock{ProjectID: 1, Month: "2026-11", EmployeeID: 1, ExpiresAt: expires}
	ctx := context.Background()
	hub.Publish(ctx, realtime.Change{Table: Table, Op: realtime.OpInsert, RowID: 1, Columns: Columns(october)})
	hub.Publish(ctx, realtime.Change{Table: Table, Op: realtime.OpInsert, RowID: 2, Columns: Columns(november)})

	if len(got) != 1 || got[0].Month != "2026-10" {
		t.Fatalf("expected one October event, got %+v", got)
	}

	unsub()
	hub.Publish(ctx, realtime.Change{Table: Table, Op: realtime.OpDelete, RowID: 1, Columns: Columns(october)})
	if len(got) != 1 {
		t.Fatalf("expected no events after unsubscribe, got %d", len(got))
	}
}

func TestWatchWithoutFeed(t *testing.T) {
	c := NewCoordinator(newFakeStore(), WithLogger(quietLogger()))
	unsub := c.Watch("2026-10", func(Event) {})
	unsub()
}

func TestBadges(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	names := map[uint]string{1: "Alice", 2: "Bob"}
	b := NewBadges(func(id uint) string { return names[id] }, clock.Now)

	b.Seed([]models.EditLock{{ProjectID: 7, Month: "2026-10", EmployeeID: 1, ExpiresAt: now.Add(5 * time.Minute)}})
	if got := b.Label(7, 2); got != "being edited by Alice" {
		t.Fatalf("expected Alice badge for Bob, got %q", got)
	}
	if got := b.Label(7, 1); got != "" {
		t.Fatalf("expected no badge for the holder, got %q", got)
	}

	// Deleting someone else's row does not clear the current holder.
	b.Apply(Event{Op: realtime.OpDelete, ProjectID: 7, EmployeeID: 2})
	if _, ok := b.Holder(7); !ok {
		t.Fatal("expected Alice to still hold project 7")
	}

	b.Apply(Event{Op: realtime.OpDelete, ProjectID: 7, EmployeeID: 1})
	if got := b.Label(7, 2); got != "" {
		t.Fatalf("expected no badge after release, got %q", got)
	}

	b.Apply(Event{Op: realtime.OpInsert, ProjectID: 8, EmployeeID: 2, ExpiresAt: now.Add(time.Minute)})
	if got := b.Label(8, 1); got != "being edited by Bob" {
		t.Fatalf("expected Bob badge, got %q", got)
	}
	clock.Advance(2 * time.Minute)
	if got := b.Label(8, 1); got != "" {
		t.Fatalf("expected expired badge to disappear, got %q", got)
	}
}
