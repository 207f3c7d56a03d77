package service

import (
	"context"
	"errors"
	"testing"
)

func TestAssignUpsertsSlot(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAllocationService(env.store.Allocations, env.logger)
	ctx := context.Background()
	emp := env.employee(t, "Alice")

	first, err := svc.Assign(ctx, emp.ID, 3, "2026-10-05", 12.345)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if first.HoursAssigned != 12.35 {
		t.Fatalf("expected hours rounded to 12.35, got %v", first.HoursAssigned)
	}
	second, err := svc.Assign(ctx, emp.ID, 3, "2026-10-05", 20)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same allocation to be updated, got ids %d and %d", first.ID, second.ID)
	}

	// The first bucket of October starts on Thursday the 1st.
	if _, err := svc.Assign(ctx, emp.ID, 3, "2026-10-01", 4); err != nil {
		t.Fatalf("assign clipped first week: %v", err)
	}
	month, err := svc.ProjectMonth(ctx, 3, "2026-10")
	if err != nil {
		t.Fatalf("project month: %v", err)
	}
	if len(month) != 2 {
		t.Fatalf("expected two allocations in October, got %d", len(month))
	}

	if load := env.ws.Engine().LoadForMonth(emp.ID, 2026, 10); load.Hours != 24 {
		t.Fatalf("expected 24 committed hours in October, got %v", load.Hours)
	}
}

func TestAssignRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAllocationService(env.store.Allocations, env.logger)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, 1, 3, "2026-10-06", 8); !errors.Is(err, ErrInvalidAllocation) {
		t.Fatalf("expected a Tuesday key to be rejected, got %v", err)
	}
	if _, err := svc.Assign(ctx, 1, 3, "2026-10-05", -1); !errors.Is(err, ErrInvalidAllocation) {
		t.Fatalf("expected negative hours to be rejected, got %v", err)
	}
}

func TestCompleteUsesActualHours(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAllocationService(env.store.Allocations, env.logger)
	ctx := context.Background()
	emp := env.employee(t, "Bob")

	alloc, err := svc.Assign(ctx, emp.ID, 3, "2026-10-12", 20)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.Complete(ctx, alloc.ID, 26); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if load := env.ws.Engine().LoadForWeek(emp.ID, "2026-10-12", nil); load.Hours != 26 {
		t.Fatalf("expected actual hours to count, got %v", load.Hours)
	}
	if _, err := svc.Complete(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.Remove(ctx, alloc.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if load := env.ws.Engine().LoadForWeek(emp.ID, "2026-10-12", nil); load.Status != "empty" {
		t.Fatalf("expected empty week after removal, got %s", load.Status)
	}
}

func TestEmployeeAllocations(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAllocationService(env.store.Allocations, env.logger)
	ctx := context.Background()
	alice := env.employee(t, "Alice")
	bob := env.employee(t, "Bob")

	svc.Assign(ctx, alice.ID, 1, "2026-10-19", 8)
	svc.Assign(ctx, alice.ID, 2, "2026-10-05", 4)
	svc.Assign(ctx, bob.ID, 1, "2026-10-19", 16)

	got, err := svc.EmployeeAllocations(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].WeekStart != "2026-10-05" || got[1].WeekStart != "2026-10-19" {
		t.Fatalf("expected alice's two allocations by week, got %+v", got)
	}
}
