package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
	"workload-planner/internal/workspace"
)

// Store groups the repositories of one database.
type Store struct {
	Employees   EmployeeRepository
	Projects    ProjectRepository
	Allocations AllocationRepository
	Absences    AbsenceRepository
	TeamEvents  TeamEventRepository
	Locks       *GormEditLockRepository

	db *gorm.DB
}

var _ workspace.Source = (*Store)(nil)

// NewStore migrates the schema and builds every repository. Each repository
// publishes its writes on feed.
func NewStore(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*Store, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	employees, err := NewGormEmployeeRepository(db, feed, logger)
	if err != nil {
		return nil, err
	}
	projects, err := NewGormProjectRepository(db, feed, logger)
	if err != nil {
		return nil, err
	}
	allocations, err := NewGormAllocationRepository(db, feed, logger)
	if err != nil {
		return nil, err
	}
	absences, err := NewGormAbsenceRepository(db, feed, logger)
	if err != nil {
		return nil, err
	}
	events, err := NewGormTeamEventRepository(db, feed, logger)
	if err != nil {
		return nil, err
	}
	locks, err := NewGormEditLockRepository(db, feed, logger)
	if err != nil {
		return nil, err
	}
	return &Store{
		Employees:   employees,
		Projects:    projects,
		Allocations: allocations,
		Absences:    absences,
		TeamEvents:  events,
		Locks:       locks,
		db:          db,
	}, nil
}

// DB exposes the underlying connection, mainly for shutdown.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return s.Employees.List(ctx)
}

func (s *Store) ListAllocations(ctx context.Context) ([]models.Allocation, error) {
	return s.Allocations.List(ctx)
}

func (s *Store) ListAbsences(ctx context.Context) ([]models.Absence, error) {
	return s.Absences.List(ctx)
}

func (s *Store) ListTeamEvents(ctx context.Context) ([]models.TeamEvent, error) {
	return s.TeamEvents.List(ctx)
}

func (s *Store) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	return s.Employees.GetByID(ctx, id)
}

func (s *Store) GetAllocation(ctx context.Context, id uint) (*models.Allocation, error) {
	return s.Allocations.GetByID(ctx, id)
}

func (s *Store) GetAbsence(ctx context.Context, id uint) (*models.Absence, error) {
	return s.Absences.GetByID(ctx, id)
}

func (s *Store) GetTeamEvent(ctx context.Context, id uint) (*models.TeamEvent, error) {
	return s.TeamEvents.GetByID(ctx, id)
}

// SaveAllocation creates the allocation when it has no id yet.
func (s *Store) SaveAllocation(ctx context.Context, allocation *models.Allocation) error {
	if allocation.ID == 0 {
		return s.Allocations.Create(ctx, allocation)
	}
	return s.Allocations.Update(ctx, allocation)
}

func (s *Store) DeleteAllocation(ctx context.Context, id uint) error {
	return s.Allocations.Delete(ctx, id)
}
