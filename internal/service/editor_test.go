package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"workload-planner/internal/editlock"
	"workload-planner/internal/models"
)

func TestEditorCommitsBufferedHours(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	planner := env.employee(t, "Alice")
	dev := env.employee(t, "Bob")

	editor, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", planner.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	defer editor.Close()

	if keys := editor.WeekKeys(); len(keys) != 5 || keys[0] != "2026-10-01" {
		t.Fatalf("unexpected week keys %v", keys)
	}
	if err := editor.SetHours(dev.ID, "2026-10-06", 8); !errors.Is(err, ErrInvalidAllocation) {
		t.Fatalf("expected a non-bucket key to be rejected, got %v", err)
	}

	editor.SetHours(dev.ID, "2026-10-05", 10)
	editor.SetHours(dev.ID, "2026-10-05", 16)
	editor.SetHours(dev.ID, "2026-10-12", 30)
	if editor.Pending() != 2 {
		t.Fatalf("expected two buffered edits, got %d", editor.Pending())
	}

	if err := editor.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if editor.Pending() != 0 {
		t.Fatalf("expected nothing pending after commit, got %d", editor.Pending())
	}
	stored, err := env.store.Allocations.FindSlot(ctx, dev.ID, 3, "2026-10-05")
	if err != nil || stored == nil || stored.HoursAssigned != 16 {
		t.Fatalf("expected 16 stored hours, got %+v %v", stored, err)
	}

	editor.SetHours(dev.ID, "2026-10-05", 12)
	if err := editor.Commit(ctx); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	slots, _ := env.store.Allocations.ListByProjectAndWeeks(ctx, 3, []string{"2026-10-05"})
	if len(slots) != 1 || slots[0].HoursAssigned != 12 {
		t.Fatalf("expected the slot to be updated in place, got %+v", slots)
	}
}

func TestEditorAutosaves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	planner := env.employee(t, "Alice")

	editor, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", planner.ID, 10*time.Millisecond, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	defer editor.Close()

	editor.SetHours(planner.ID, "2026-10-19", 6)
	eventually(t, func() bool {
		_, ok := env.ws.FindAllocation(planner.ID, 3, "2026-10-19")
		return ok
	}, "expected autosave to write the allocation")
}

func TestSecondEditorIsRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.employee(t, "Alice")
	bob := env.employee(t, "Bob")

	first, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", alice.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}

	_, err = OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", bob.ID, time.Hour, env.logger)
	holder, held := editlock.IsHeld(err)
	if !held || holder.EmployeeID != alice.ID {
		t.Fatalf("expected the lock to be held by alice, got %v", err)
	}

	// Another month of the same project is free.
	other, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-11", bob.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("open november editor: %v", err)
	}
	other.Close()

	first.Close()
	eventually(t, func() bool {
		h, _ := env.locks.Holder(ctx, 3, "2026-10")
		return h == nil
	}, "expected close to release the lock")

	second, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", bob.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("expected bob to edit after release, got %v", err)
	}
	second.Close()
}

func TestEditorStopsWhenLockIsLost(t *testing.T) {
	env := newTestEnv(t, editlock.WithRenewInterval(5*time.Millisecond))
	ctx := context.Background()
	alice := env.employee(t, "Alice")
	bob := env.employee(t, "Bob")

	editor, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", alice.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	defer editor.Close()

	now := time.Now().UTC()
	takeover := &models.EditLock{ProjectID: 3, Month: "2026-10", EmployeeID: bob.ID, LockedAt: now, ExpiresAt: now.Add(time.Minute)}
	if err := env.store.Locks.Upsert(ctx, takeover); err != nil {
		t.Fatalf("takeover: %v", err)
	}

	eventually(t, func() bool {
		return errors.Is(editor.SetHours(alice.ID, "2026-10-05", 1), ErrNotEditing)
	}, "expected edits to be refused once the lock is lost")
}

func TestCloseDropsUnsavedEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.employee(t, "Alice")

	editor, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", alice.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	editor.SetHours(alice.ID, "2026-10-05", 8)
	editor.Close()
	editor.Close()

	if err := editor.SetHours(alice.ID, "2026-10-05", 8); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected a closed editor to refuse edits, got %v", err)
	}
	if _, ok := env.ws.FindAllocation(alice.ID, 3, "2026-10-05"); ok {
		t.Fatal("expected unsaved edits to be dropped")
	}
}

func TestFailedSaveKeepsEditsForRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.employee(t, "Alice")

	editor, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", alice.ID, time.Hour, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	defer editor.Close()

	block := "CREATE TRIGGER block_allocations BEFORE INSERT ON allocations BEGIN SELECT RAISE(ABORT, 'writes blocked'); END"
	if err := env.store.DB().Exec(block).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	editor.SetHours(alice.ID, "2026-10-05", 8)
	if err := editor.Commit(ctx); err == nil {
		t.Fatal("expected the blocked write to fail")
	}
	if editor.Pending() != 1 {
		t.Fatalf("expected the failed edit to stay buffered, got %d pending", editor.Pending())
	}
	if _, ok := env.ws.FindAllocation(alice.ID, 3, "2026-10-05"); ok {
		t.Fatal("expected the workspace to roll back the failed write")
	}

	if err := env.store.DB().Exec("DROP TRIGGER block_allocations").Error; err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	if err := editor.Commit(ctx); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	stored, err := env.store.Allocations.FindSlot(ctx, alice.ID, 3, "2026-10-05")
	if err != nil || stored == nil || stored.HoursAssigned != 8 {
		t.Fatalf("expected the retry to store 8 hours, got %+v %v", stored, err)
	}
}

func TestFailedAutosaveIsReported(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.employee(t, "Alice")

	editor, err := OpenEditor(ctx, env.ws, env.locks, 3, "2026-10", alice.ID, 5*time.Millisecond, env.logger)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	defer editor.Close()

	reported := make(chan error, 1)
	editor.OnSaveError(func(err error) {
		select {
		case reported <- err:
		default:
		}
	})
	block := "CREATE TRIGGER block_allocations BEFORE INSERT ON allocations BEGIN SELECT RAISE(ABORT, 'writes blocked'); END"
	if err := env.store.DB().Exec(block).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	editor.SetHours(alice.ID, "2026-10-12", 4)
	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("expected the autosave failure to be reported")
	}
	if editor.Pending() != 1 {
		t.Fatalf("expected the edit to stay buffered, got %d pending", editor.Pending())
	}
}
