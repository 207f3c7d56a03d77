package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/repository"
)

type AllocationService struct {
	repo   repository.AllocationRepository
	logger *logrus.Logger
}

func NewAllocationService(repo repository.AllocationRepository, logger *logrus.Logger) *AllocationService {
	return &AllocationService{repo: repo, logger: logger}
}

// Assign sets the planned hours of an employee on a project for one week
// bucket, creating the allocation if needed.
func (s *AllocationService) Assign(ctx context.Context, employeeID, projectID uint, weekKey string, hours float64) (*models.Allocation, error) {
	if !capacity.IsStorageKey(weekKey) || hours < 0 {
		return nil, ErrInvalidAllocation
	}
	hours = capacity.Round2(hours)

	existing, err := s.repo.FindSlot(ctx, employeeID, projectID, weekKey)
	if err != nil {
		return nil, fmt.Errorf("find allocation: %w", err)
	}
	if existing != nil {
		existing.HoursAssigned = hours
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update allocation: %w", err)
		}
		return existing, nil
	}

	allocation := &models.Allocation{
		EmployeeID:    employeeID,
		ProjectID:     projectID,
		WeekStart:     weekKey,
		HoursAssigned: hours,
		Status:        models.AllocationPlanned,
	}
	if err := s.repo.Create(ctx, allocation); err != nil {
		return nil, fmt.Errorf("create allocation: %w", err)
	}
	return allocation, nil
}

// Complete records the actual hours; from then on they count instead of the
// planned ones.
func (s *AllocationService) Complete(ctx context.Context, id uint, actual float64) (*models.Allocation, error) {
	if actual < 0 {
		return nil, ErrInvalidAllocation
	}
	allocation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load allocation: %w", err)
	}
	if allocation == nil {
		return nil, ErrNotFound
	}
	allocation.HoursActual = capacity.Round2(actual)
	allocation.Status = models.AllocationCompleted
	if err := s.repo.Update(ctx, allocation); err != nil {
		return nil, fmt.Errorf("complete allocation: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"id":     id,
		"actual": allocation.HoursActual,
	}).Info("Allocation completed")
	return allocation, nil
}

// EmployeeAllocations lists an employee's allocations by week.
func (s *AllocationService) EmployeeAllocations(ctx context.Context, employeeID uint) ([]models.Allocation, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *AllocationService) Remove(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	return nil
}

// ProjectMonth lists a project's allocations in every week bucket of month
// (YYYY-MM).
func (s *AllocationService) ProjectMonth(ctx context.Context, projectID uint, month string) ([]models.Allocation, error) {
	year, m, err := capacity.ParseMonthKey(month)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByProjectAndWeeks(ctx, projectID, capacity.MonthKeys(year, m))
}
