package workspace

import (
	"context"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// handleChange re-reads the changed row so the snapshot reflects the stored
// value, not whatever the notification carried.
func (w *Workspace) handleChange(change realtime.Change) {
	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return
	}

	if err := w.apply(change); err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"table": change.Table,
			"op":    change.Op,
			"id":    change.RowID,
		}).Warn("Failed to apply change")
		return
	}

	w.mu.RLock()
	listeners := make([]realtime.Handler, 0, len(w.listeners))
	for _, l := range w.listeners {
		listeners = append(listeners, l.fn)
	}
	w.mu.RUnlock()
	for _, fn := range listeners {
		fn(change)
	}
}

func (w *Workspace) apply(change realtime.Change) error {
	id := change.RowID
	deleted := change.Op == realtime.OpDelete

	switch change.Table {
	case TableEmployees:
		return reload(w, id, deleted, w.source.GetEmployee, func() map[uint]models.Employee { return w.employees })
	case TableAllocations:
		return reload(w, id, deleted, w.source.GetAllocation, func() map[uint]models.Allocation { return w.allocations })
	case TableAbsences:
		return reload(w, id, deleted, w.source.GetAbsence, func() map[uint]models.Absence { return w.absences })
	case TableTeamEvents:
		return reload(w, id, deleted, w.source.GetTeamEvent, func() map[uint]models.TeamEvent { return w.events })
	}
	return nil
}

// reload refreshes one row. table is called under the write lock because
// Refresh swaps the maps.
func reload[T any](w *Workspace, id uint, deleted bool, get func(context.Context, uint) (*T, error), table func() map[uint]T) error {
	var row *T
	if !deleted {
		var err error
		if row, err = get(w.ctx, id); err != nil {
			return err
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if row == nil {
		delete(table(), id)
		return nil
	}
	table()[id] = *row
	return nil
}
