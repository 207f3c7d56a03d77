package workspace

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

type fakeSource struct {
	mu          sync.Mutex
	employees   map[uint]models.Employee
	allocations map[uint]models.Allocation
	absences    map[uint]models.Absence
	events      map[uint]models.TeamEvent
	nextID      uint
	saveErr     error
	listErr     error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		employees:   map[uint]models.Employee{},
		allocations: map[uint]models.Allocation{},
		absences:    map[uint]models.Absence{},
		events:      map[uint]models.TeamEvent{},
		nextID:      100,
	}
}

func values[T any](m map[uint]T) []T {
	return sortedValues(m)
}

func lookup[T any](m map[uint]T, id uint) *T {
	v, ok := m[id]
	if !ok {
		return nil
	}
	return &v
}

func (s *fakeSource) ListEmployees(context.Context) ([]models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.employees), s.listErr
}

func (s *fakeSource) ListAllocations(context.Context) ([]models.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.allocations), nil
}

func (s *fakeSource) ListAbsences(context.Context) ([]models.Absence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.absences), nil
}

func (s *fakeSource) ListTeamEvents(context.Context) ([]models.TeamEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.events), nil
}

func (s *fakeSource) GetEmployee(_ context.Context, id uint) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookup(s.employees, id), nil
}

func (s *fakeSource) GetAllocation(_ context.Context, id uint) (*models.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookup(s.allocations, id), nil
}

func (s *fakeSource) GetAbsence(_ context.Context, id uint) (*models.Absence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookup(s.absences, id), nil
}

func (s *fakeSource) GetTeamEvent(_ context.Context, id uint) (*models.TeamEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookup(s.events, id), nil
}

func (s *fakeSource) SaveAllocation(_ context.Context, a *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if a.ID == 0 {
		s.nextID++
		a.ID = s.nextID
	}
	s.allocations[a.ID] = *a
	return nil
}

func (s *fakeSource) DeleteAllocation(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	delete(s.allocations, id)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seededSource() *fakeSource {
	s := newFakeSource()
	s.employees[1] = models.Employee{ID: 1, Name: "Bob", Schedule: models.StandardWeek(), DefaultWeeklyCapacity: 40, Active: true}
	s.employees[2] = models.Employee{ID: 2, Name: "Alice", Schedule: models.StandardWeek(), DefaultWeeklyCapacity: 40, Active: true}
	s.allocations[10] = models.Allocation{ID: 10, EmployeeID: 1, ProjectID: 5, WeekStart: "2026-10-12", HoursAssigned: 20, Status: models.AllocationPlanned}
	return s
}

func openTestWorkspace(t *testing.T, source Source, feed realtime.Feed) *Workspace {
	t.Helper()
	w, err := Open(context.Background(), source, feed, quietLogger())
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestOpenLoadsSnapshot(t *testing.T) {
	w := openTestWorkspace(t, seededSource(), nil)

	employees := w.Employees()
	if len(employees) != 2 || employees[0].Name != "Alice" {
		t.Fatalf("expected employees sorted by name, got %+v", employees)
	}
	load := w.Engine().LoadForWeek(1, "2026-10-12", nil)
	if load.Hours != 20 || load.Capacity != 40 || load.Status != capacity.StatusHealthy {
		t.Fatalf("unexpected load %+v", load)
	}
}

func TestOpenFailsWhenSourceFails(t *testing.T) {
	source := seededSource()
	source.listErr = errors.New("disk gone")
	if _, err := Open(context.Background(), source, nil, quietLogger()); err == nil {
		t.Fatal("expected open to fail")
	}
}

func TestChangeNotificationRereadsRow(t *testing.T) {
	source := seededSource()
	hub := realtime.NewHub(quietLogger())
	w := openTestWorkspace(t, source, hub)

	var seen []realtime.Op
	w.OnChange(func(c realtime.Change) { seen = append(seen, c.Op) })

	source.mu.Lock()
	a := source.allocations[10]
	a.HoursAssigned = 36
	source.allocations[10] = a
	source.mu.Unlock()

	// The notification carries no hours; the workspace must read them.
	hub.Publish(context.Background(), realtime.Change{Table: TableAllocations, Op: realtime.OpUpdate, RowID: 10})
	got, ok := w.Allocation(10)
	if !ok || got.HoursAssigned != 36 {
		t.Fatalf("expected re-read hours 36, got %+v", got)
	}

	source.mu.Lock()
	source.absences[3] = models.Absence{ID: 3, EmployeeID: 1, Type: models.AbsenceTypeVacation,
		StartDate: capacityDate(t, "2026-10-12"), EndDate: capacityDate(t, "2026-10-12")}
	source.mu.Unlock()
	hub.Publish(context.Background(), realtime.Change{Table: TableAbsences, Op: realtime.OpInsert, RowID: 3})
	if load := w.Engine().LoadForWeek(1, "2026-10-12", nil); load.Capacity != 32 {
		t.Fatalf("expected absence to reduce capacity to 32, got %v", load.Capacity)
	}

	hub.Publish(context.Background(), realtime.Change{Table: TableAllocations, Op: realtime.OpDelete, RowID: 10})
	if _, ok := w.Allocation(10); ok {
		t.Fatal("expected deleted allocation to leave the snapshot")
	}

	if len(seen) != 3 {
		t.Fatalf("expected three listener calls, got %v", seen)
	}
}

func TestSaveAllocationRollsBack(t *testing.T) {
	source := seededSource()
	source.saveErr = errors.New("constraint failed")
	w := openTestWorkspace(t, source, nil)

	edit := models.Allocation{ID: 10, EmployeeID: 1, ProjectID: 5, WeekStart: "2026-10-12", HoursAssigned: 99, Status: models.AllocationPlanned}
	err := w.SaveAllocation(context.Background(), &edit)
	if !errors.Is(err, source.saveErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	got, _ := w.Allocation(10)
	if got.HoursAssigned != 20 {
		t.Fatalf("expected rollback to 20 hours, got %v", got.HoursAssigned)
	}
}

func TestSaveAllocationAddsNewRow(t *testing.T) {
	source := seededSource()
	w := openTestWorkspace(t, source, nil)

	alloc := models.Allocation{EmployeeID: 2, ProjectID: 5, WeekStart: "2026-10-19", HoursAssigned: 8, Status: models.AllocationPlanned}
	if err := w.SaveAllocation(context.Background(), &alloc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if alloc.ID == 0 {
		t.Fatal("expected the store to assign an id")
	}
	found, ok := w.FindAllocation(2, 5, "2026-10-19")
	if !ok || found.ID != alloc.ID {
		t.Fatalf("expected new allocation in the snapshot, got %+v", found)
	}
}

func TestDeleteAllocationRollsBack(t *testing.T) {
	source := seededSource()
	w := openTestWorkspace(t, source, nil)

	source.saveErr = errors.New("locked")
	if err := w.DeleteAllocation(context.Background(), 10); err == nil {
		t.Fatal("expected delete to fail")
	}
	if _, ok := w.Allocation(10); !ok {
		t.Fatal("expected allocation restored after failed delete")
	}

	source.saveErr = nil
	if err := w.DeleteAllocation(context.Background(), 10); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := w.Allocation(10); ok {
		t.Fatal("expected allocation removed")
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	source := seededSource()
	hub := realtime.NewHub(quietLogger())
	w, err := Open(context.Background(), source, hub, quietLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if hub.Subscribers() != 4 {
		t.Fatalf("expected four table subscriptions, got %d", hub.Subscribers())
	}
	w.Close()
	w.Close()
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscriptions after close, got %d", hub.Subscribers())
	}

	hub.Publish(context.Background(), realtime.Change{Table: TableAllocations, Op: realtime.OpDelete, RowID: 10})
	if _, ok := w.Allocation(10); !ok {
		t.Fatal("expected a closed workspace to ignore changes")
	}
}

func capacityDate(t *testing.T, key string) time.Time {
	t.Helper()
	parsed, err := capacity.ParseDateKey(key)
	if err != nil {
		t.Fatalf("parse %s: %v", key, err)
	}
	return parsed
}
