package workspace

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/models"
)

// Mutate applies a change to the snapshot, writes it, and either reconciles
// with the stored row or undoes the local change when the write fails.
// There is no retry.
func (w *Workspace) Mutate(ctx context.Context, apply, undo func(), write func(context.Context) error, reconcile func(context.Context) error) error {
	w.mu.Lock()
	apply()
	w.mu.Unlock()

	if err := write(ctx); err != nil {
		w.mu.Lock()
		undo()
		w.mu.Unlock()
		return err
	}
	if reconcile == nil {
		return nil
	}
	if err := reconcile(ctx); err != nil {
		w.logger.WithError(err).Warn("Failed to reconcile after write")
	}
	return nil
}

// SaveAllocation writes an allocation optimistically. New rows have no id
// until the store assigns one, so they only appear after the write.
func (w *Workspace) SaveAllocation(ctx context.Context, allocation *models.Allocation) error {
	id := allocation.ID
	var prev models.Allocation
	var had bool

	err := w.Mutate(ctx,
		func() {
			if id == 0 {
				return
			}
			prev, had = w.allocations[id]
			w.allocations[id] = *allocation
		},
		func() {
			if id == 0 {
				return
			}
			if had {
				w.allocations[id] = prev
			} else {
				delete(w.allocations, id)
			}
		},
		func(ctx context.Context) error {
			return w.source.SaveAllocation(ctx, allocation)
		},
		func(ctx context.Context) error {
			return reload(w, allocation.ID, false, w.source.GetAllocation, func() map[uint]models.Allocation { return w.allocations })
		},
	)
	if err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"id":          id,
			"employee_id": allocation.EmployeeID,
			"week_start":  allocation.WeekStart,
		}).Error("Allocation save rolled back")
		return fmt.Errorf("save allocation: %w", err)
	}
	return nil
}

// DeleteAllocation removes an allocation optimistically.
func (w *Workspace) DeleteAllocation(ctx context.Context, id uint) error {
	var prev models.Allocation
	var had bool

	err := w.Mutate(ctx,
		func() {
			prev, had = w.allocations[id]
			delete(w.allocations, id)
		},
		func() {
			if had {
				w.allocations[id] = prev
			}
		},
		func(ctx context.Context) error {
			return w.source.DeleteAllocation(ctx, id)
		},
		nil,
	)
	if err != nil {
		w.logger.WithError(err).WithField("id", id).Error("Allocation delete rolled back")
		return fmt.Errorf("delete allocation: %w", err)
	}
	return nil
}
