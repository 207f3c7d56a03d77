package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/editlock"
	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
	"workload-planner/internal/repository"
	"workload-planner/internal/workspace"
)

type testEnv struct {
	store  *repository.Store
	hub    *realtime.Hub
	ws     *workspace.Workspace
	locks  *editlock.Coordinator
	logger *logrus.Logger
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T, lockOpts ...editlock.Option) *testEnv {
	t.Helper()
	db, err := repository.Open(":memory:")
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
	store, err := repository.NewStore(db, hub, logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ws, err := workspace.Open(context.Background(), store, hub, logger)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(ws.Close)

	opts := append([]editlock.Option{editlock.WithFeed(hub), editlock.WithLogger(logger)}, lockOpts...)
	return &testEnv{
		store:  store,
		hub:    hub,
		ws:     ws,
		locks:  editlock.NewCoordinator(store.Locks, opts...),
		logger: logger,
	}
}

func (env *testEnv) employee(t *testing.T, name string) *models.Employee {
	t.Helper()
	emp := &models.Employee{Name: name, Schedule: models.StandardWeek(), Active: true}
	if err := env.store.Employees.Create(context.Background(), emp); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return emp
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
