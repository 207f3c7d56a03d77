package repository

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// recorder collects every change published on a table.
type recorder struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (r *recorder) record(c realtime.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) ops() []realtime.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.Op, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Op)
	}
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestStore(t *testing.T) (*Store, *realtime.Hub) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	logger := quietLogger()
	hub := realtime.NewHub(logger)
	store, err := NewStore(db, hub, logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, hub
}

func watchTable(hub *realtime.Hub, table string) *recorder {
	rec := &recorder{}
	hub.Subscribe(table, realtime.Filter{}, rec.record)
	return rec
}

func createEmployee(t *testing.T, store *Store, name string) *models.Employee {
	t.Helper()
	emp := &models.Employee{Name: name, Schedule: models.StandardWeek(), Active: true}
	if err := store.Employees.Create(context.Background(), emp); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return emp
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
