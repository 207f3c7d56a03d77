package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workload-planner/internal/autosave"
	"workload-planner/internal/capacity"
	"workload-planner/internal/editlock"
	"workload-planner/internal/models"
	"workload-planner/internal/workspace"
)

type slot struct {
	employeeID uint
	weekKey    string
}

// Editor is one planner's session on a project month: it holds the edit
// lock, buffers hour changes and autosaves them after a quiet period.
type Editor struct {
	ID         uuid.UUID
	ProjectID  uint
	Month      string
	EmployeeID uint

	ws     *workspace.Workspace
	lease  *editlock.Lease
	saver  *autosave.Debouncer
	keys   []string
	cancel context.CancelFunc
	logger *logrus.Logger

	mu     sync.Mutex
	edits  map[slot]float64
	closed bool
}

// OpenEditor acquires the lock on (projectID, month) for employeeID. When
// someone else holds it the *editlock.HeldError is returned unchanged.
func OpenEditor(ctx context.Context, ws *workspace.Workspace, locks *editlock.Coordinator, projectID uint, month string, employeeID uint, delay time.Duration, logger *logrus.Logger) (*Editor, error) {
	year, m, err := capacity.ParseMonthKey(month)
	if err != nil {
		return nil, err
	}
	lease, err := locks.Acquire(ctx, projectID, month, employeeID)
	if err != nil {
		return nil, err
	}

	keepCtx, cancel := context.WithCancel(context.Background())
	lease.KeepAlive(keepCtx)

	e := &Editor{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Month:      month,
		EmployeeID: employeeID,
		ws:         ws,
		lease:      lease,
		saver:      autosave.New(delay, logger),
		keys:       capacity.MonthKeys(year, m),
		cancel:     cancel,
		logger:     logger,
		edits:      make(map[slot]float64),
	}
	logger.WithFields(logrus.Fields{
		"editor":      e.ID.String(),
		"project_id":  projectID,
		"month":       month,
		"employee_id": employeeID,
		"degraded":    lease.Degraded(),
	}).Info("Editor opened")
	return e, nil
}

// Degraded reports that editing proceeds without a recorded lock.
func (e *Editor) Degraded() bool {
	return e.lease.Degraded()
}

// WeekKeys lists the week buckets this editor may write.
func (e *Editor) WeekKeys() []string {
	return slices.Clone(e.keys)
}

// SetHours buffers the planned hours of an employee for one week bucket of
// the month and arms the autosave.
func (e *Editor) SetHours(employeeID uint, weekKey string, hours float64) error {
	if hours < 0 || !slices.Contains(e.keys, weekKey) {
		return ErrInvalidAllocation
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.lease.Lost() {
		return ErrNotEditing
	}
	e.edits[slot{employeeID: employeeID, weekKey: weekKey}] = capacity.Round2(hours)
	e.saver.Schedule(e.save)
	return nil
}

// Pending reports the number of buffered edits.
func (e *Editor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.edits)
}

// Commit saves buffered edits now, including edits kept back by an earlier
// failed save.
func (e *Editor) Commit(ctx context.Context) error {
	return e.saver.Run(ctx, e.save)
}

// OnSaveError sets a callback for autosaves that fail. The failed edits stay
// buffered until the next Commit or autosave.
func (e *Editor) OnSaveError(fn func(error)) {
	e.saver.OnError(fn)
}

func (e *Editor) save(ctx context.Context) error {
	e.mu.Lock()
	if len(e.edits) == 0 {
		e.mu.Unlock()
		return nil
	}
	if e.lease.Lost() {
		e.mu.Unlock()
		return ErrNotEditing
	}
	edits := e.edits
	e.edits = make(map[slot]float64)
	e.mu.Unlock()

	var errs []error
	failed := make(map[slot]float64)
	for s, hours := range edits {
		allocation, ok := e.ws.FindAllocation(s.employeeID, e.ProjectID, s.weekKey)
		if ok {
			allocation.HoursAssigned = hours
		} else {
			allocation = models.Allocation{
				EmployeeID:    s.employeeID,
				ProjectID:     e.ProjectID,
				WeekStart:     s.weekKey,
				HoursAssigned: hours,
				Status:        models.AllocationPlanned,
			}
		}
		if err := e.ws.SaveAllocation(ctx, &allocation); err != nil {
			errs = append(errs, fmt.Errorf("employee %d week %s: %w", s.employeeID, s.weekKey, err))
			failed[s] = hours
		}
	}
	if len(errs) > 0 {
		e.restore(failed)
		return errors.Join(errs...)
	}
	e.logger.WithFields(logrus.Fields{
		"editor": e.ID.String(),
		"saved":  len(edits),
	}).Debug("Editor saved")
	return nil
}

// restore puts failed edits back unless a newer value was buffered meanwhile.
func (e *Editor) restore(failed map[slot]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for s, hours := range failed {
		if _, newer := e.edits[s]; !newer {
			e.edits[s] = hours
		}
	}
}

// Close drops unsaved edits and releases the lock without waiting.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.edits = make(map[slot]float64)
	e.mu.Unlock()

	e.saver.Cancel()
	e.cancel()
	e.lease.Close()
	e.logger.WithField("editor", e.ID.String()).Info("Editor closed")
}
