// Package workspace holds a planning session's view of the record store.
// A Workspace is opened per session, kept current by change notifications
// and closed when the session ends; there is no process-wide state.
package workspace

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// Tables the workspace mirrors.
const (
	TableEmployees   = "employees"
	TableAllocations = "allocations"
	TableAbsences    = "absences"
	TableTeamEvents  = "team_events"
)

// Source is the record store as the workspace sees it. Get methods return
// (nil, nil) for missing rows.
type Source interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ListAllocations(ctx context.Context) ([]models.Allocation, error)
	ListAbsences(ctx context.Context) ([]models.Absence, error)
	ListTeamEvents(ctx context.Context) ([]models.TeamEvent, error)

	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	GetAllocation(ctx context.Context, id uint) (*models.Allocation, error)
	GetAbsence(ctx context.Context, id uint) (*models.Absence, error)
	GetTeamEvent(ctx context.Context, id uint) (*models.TeamEvent, error)

	SaveAllocation(ctx context.Context, allocation *models.Allocation) error
	DeleteAllocation(ctx context.Context, id uint) error
}

type listener struct {
	id uuid.UUID
	fn realtime.Handler
}

// Workspace is an in-memory snapshot of employees, allocations, absences and
// team events.
type Workspace struct {
	source Source
	feed   realtime.Feed
	logger *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	employees   map[uint]models.Employee
	allocations map[uint]models.Allocation
	absences    map[uint]models.Absence
	events      map[uint]models.TeamEvent
	listeners   []listener
	unsubs      []realtime.Unsubscribe
	closed      bool
}

// Open loads a snapshot and subscribes to changes. feed may be nil for a
// static snapshot.
func Open(ctx context.Context, source Source, feed realtime.Feed, logger *logrus.Logger) (*Workspace, error) {
	if logger == nil {
		logger = logrus.New()
	}
	wctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		source:      source,
		feed:        feed,
		logger:      logger,
		ctx:         wctx,
		cancel:      cancel,
		employees:   make(map[uint]models.Employee),
		allocations: make(map[uint]models.Allocation),
		absences:    make(map[uint]models.Absence),
		events:      make(map[uint]models.TeamEvent),
	}
	if err := w.Refresh(ctx); err != nil {
		cancel()
		return nil, err
	}
	if feed != nil {
		for _, table := range []string{TableEmployees, TableAllocations, TableAbsences, TableTeamEvents} {
			w.unsubs = append(w.unsubs, feed.Subscribe(table, realtime.Filter{}, w.handleChange))
		}
	}
	logger.WithFields(logrus.Fields{
		"employees":   len(w.employees),
		"allocations": len(w.allocations),
		"absences":    len(w.absences),
		"events":      len(w.events),
	}).Info("Workspace opened")
	return w, nil
}

// Refresh reloads every table in parallel and swaps the snapshot in one step.
func (w *Workspace) Refresh(ctx context.Context) error {
	var (
		employees   []models.Employee
		allocations []models.Allocation
		absences    []models.Absence
		events      []models.TeamEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		employees, err = w.source.ListEmployees(gctx)
		return wrap("load employees", err)
	})
	g.Go(func() (err error) {
		allocations, err = w.source.ListAllocations(gctx)
		return wrap("load allocations", err)
	})
	g.Go(func() (err error) {
		absences, err = w.source.ListAbsences(gctx)
		return wrap("load absences", err)
	})
	g.Go(func() (err error) {
		events, err = w.source.ListTeamEvents(gctx)
		return wrap("load team events", err)
	})
	if err := g.Wait(); err != nil {
		w.logger.WithError(err).Error("Failed to refresh workspace")
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.employees = indexBy(employees, func(e models.Employee) uint { return e.ID })
	w.allocations = indexBy(allocations, func(a models.Allocation) uint { return a.ID })
	w.absences = indexBy(absences, func(a models.Absence) uint { return a.ID })
	w.events = indexBy(events, func(e models.TeamEvent) uint { return e.ID })
	return nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func indexBy[T any](items []T, key func(T) uint) map[uint]T {
	out := make(map[uint]T, len(items))
	for _, it := range items {
		out[key(it)] = it
	}
	return out
}

func sortedValues[T any](m map[uint]T) []T {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Dataset copies the current snapshot.
func (w *Workspace) Dataset() capacity.Dataset {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return capacity.Dataset{
		Employees:   sortedValues(w.employees),
		Allocations: sortedValues(w.allocations),
		Absences:    sortedValues(w.absences),
		Events:      sortedValues(w.events),
	}
}

// Engine builds a capacity engine over the current snapshot.
func (w *Workspace) Engine() *capacity.Engine {
	return capacity.NewEngine(w.Dataset())
}

// Employees lists the snapshot's employees by name.
func (w *Workspace) Employees() []models.Employee {
	w.mu.RLock()
	out := sortedValues(w.employees)
	w.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b models.Employee) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func (w *Workspace) Employee(id uint) (models.Employee, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.employees[id]
	return e, ok
}

func (w *Workspace) Allocation(id uint) (models.Allocation, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.allocations[id]
	return a, ok
}

// FindAllocation looks up the allocation of one (employee, project, week).
func (w *Workspace) FindAllocation(employeeID, projectID uint, weekStart string) (models.Allocation, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, a := range w.allocations {
		if a.EmployeeID == employeeID && a.ProjectID == projectID && a.WeekStart == weekStart {
			return a, true
		}
	}
	return models.Allocation{}, false
}

// OnChange registers fn to run after each applied change notification.
func (w *Workspace) OnChange(fn realtime.Handler) realtime.Unsubscribe {
	id := uuid.New()
	w.mu.Lock()
	w.listeners = append(w.listeners, listener{id: id, fn: fn})
	w.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.listeners = slices.DeleteFunc(w.listeners, func(l listener) bool { return l.id == id })
		})
	}
}

// Close drops every subscription. The snapshot stays readable.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsubs := w.unsubs
	w.unsubs = nil
	w.listeners = nil
	w.mu.Unlock()

	w.cancel()
	for _, unsub := range unsubs {
		unsub()
	}
	w.logger.Debug("Workspace closed")
}
