package editlock

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// Change column names published for lock rows.
const (
	ColumnProjectID  = "project_id"
	ColumnMonth      = "month"
	ColumnEmployeeID = "employee_id"
	ColumnExpiresAt  = "expires_at"
)

// Event is a lock row change as seen by watchers.
type Event struct {
	Op         realtime.Op
	ProjectID  uint
	Month      string
	EmployeeID uint
	ExpiresAt  time.Time
}

// EventFromChange decodes a lock row change.
func EventFromChange(c realtime.Change) (Event, error) {
	ev := Event{Op: c.Op, Month: c.Column(ColumnMonth)}
	project, err := strconv.ParseUint(c.Column(ColumnProjectID), 10, 64)
	if err != nil {
		return ev, fmt.Errorf("parse project id: %w", err)
	}
	ev.ProjectID = uint(project)
	if raw := c.Column(ColumnEmployeeID); raw != "" {
		emp, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return ev, fmt.Errorf("parse employee id: %w", err)
		}
		ev.EmployeeID = uint(emp)
	}
	if raw := c.Column(ColumnExpiresAt); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return ev, fmt.Errorf("parse expiry: %w", err)
		}
		ev.ExpiresAt = at
	}
	return ev, nil
}

// Columns encodes a lock row for change publishing.
func Columns(lock *models.EditLock) map[string]string {
	return map[string]string{
		ColumnProjectID:  strconv.FormatUint(uint64(lock.ProjectID), 10),
		ColumnMonth:      lock.Month,
		ColumnEmployeeID: strconv.FormatUint(uint64(lock.EmployeeID), 10),
		ColumnExpiresAt:  lock.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
}

// Watch calls handler for every lock change in month. Without a feed it
// returns a no-op unsubscribe.
func (c *Coordinator) Watch(month string, handler func(Event)) realtime.Unsubscribe {
	if c.feed == nil {
		return func() {}
	}
	return c.feed.Subscribe(Table, realtime.Eq(ColumnMonth, month), func(change realtime.Change) {
		ev, err := EventFromChange(change)
		if err != nil {
			c.logger.WithError(err).WithField("row_id", change.RowID).Warn("Ignoring malformed lock change")
			return
		}
		handler(ev)
	})
}

type badge struct {
	employeeID uint
	expiresAt  time.Time
}

// Badges tracks who is editing which project of a month, for
// "being edited by" labels.
type Badges struct {
	mu      sync.RWMutex
	holders map[uint]badge
	names   func(employeeID uint) string
	clock   func() time.Time
}

// NewBadges builds a tracker. names resolves an employee id to a display
// name.
func NewBadges(names func(employeeID uint) string, clock func() time.Time) *Badges {
	if clock == nil {
		clock = time.Now
	}
	return &Badges{holders: make(map[uint]badge), names: names, clock: clock}
}

// Seed replaces the tracked holders with a list of live locks.
func (b *Badges) Seed(locks []models.EditLock) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.holders = make(map[uint]badge, len(locks))
	for _, l := range locks {
		b.holders[l.ProjectID] = badge{employeeID: l.EmployeeID, expiresAt: l.ExpiresAt}
	}
}

// Apply folds a lock change in.
func (b *Badges) Apply(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev.Op == realtime.OpDelete {
		if cur, ok := b.holders[ev.ProjectID]; ok && cur.employeeID == ev.EmployeeID {
			delete(b.holders, ev.ProjectID)
		}
		return
	}
	b.holders[ev.ProjectID] = badge{employeeID: ev.EmployeeID, expiresAt: ev.ExpiresAt}
}

// Holder returns the employee holding a live lock on the project.
func (b *Badges) Holder(projectID uint) (uint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cur, ok := b.holders[projectID]
	if !ok || !cur.expiresAt.After(b.clock()) {
		return 0, false
	}
	return cur.employeeID, true
}

// Label is the badge shown to viewer for the project, or "" when nobody
// else is editing it.
func (b *Badges) Label(projectID, viewer uint) string {
	holder, ok := b.Holder(projectID)
	if !ok || holder == viewer {
		return ""
	}
	name := fmt.Sprintf("employee %d", holder)
	if b.names != nil {
		if n := b.names(holder); n != "" {
			name = n
		}
	}
	return "being edited by " + name
}
