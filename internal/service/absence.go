package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/capacity"
	"workload-planner/internal/models"
	"workload-planner/internal/repository"
)

type AbsenceService struct {
	absenceRepo  repository.AbsenceRepository
	employeeRepo repository.EmployeeRepository
	logger       *logrus.Logger
}

func NewAbsenceService(absenceRepo repository.AbsenceRepository, employeeRepo repository.EmployeeRepository, logger *logrus.Logger) *AbsenceService {
	return &AbsenceService{
		absenceRepo:  absenceRepo,
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

// AddAbsence records an absence. hours is 0 for full days, otherwise the
// hours missed on each day of the range. Overlapping an existing absence of
// the same employee is rejected so the reducer never counts a day twice.
func (s *AbsenceService) AddAbsence(ctx context.Context, employeeID uint, start, end time.Time, absenceType string, hours float64, notes string) (*models.Absence, error) {
	absence := &models.Absence{
		EmployeeID: employeeID,
		StartDate:  capacity.Day(start),
		EndDate:    capacity.Day(end),
		Type:       absenceType,
		Hours:      capacity.Round2(hours),
		Notes:      notes,
	}
	if !absence.IsValid() {
		return nil, ErrInvalidAbsence
	}

	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if employee == nil {
		return nil, ErrNotFound
	}

	conflict, err := s.absenceRepo.CheckPeriodConflict(ctx, employeeID, absence.StartDate, absence.EndDate)
	if err != nil {
		return nil, fmt.Errorf("check absence conflicts: %w", err)
	}
	if conflict {
		return nil, ErrAbsenceOverlap
	}

	if err := s.absenceRepo.Create(ctx, absence); err != nil {
		return nil, fmt.Errorf("create absence: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"id":          absence.ID,
		"employee_id": employeeID,
		"type":        absenceType,
		"start":       capacity.DateKey(absence.StartDate),
		"end":         capacity.DateKey(absence.EndDate),
	}).Info("Absence added")
	return absence, nil
}

func (s *AbsenceService) EmployeeAbsences(ctx context.Context, employeeID uint) ([]models.Absence, error) {
	return s.absenceRepo.GetByEmployeeID(ctx, employeeID)
}

// CurrentAbsence returns the absence covering date, or nil.
func (s *AbsenceService) CurrentAbsence(ctx context.Context, employeeID uint, date time.Time) (*models.Absence, error) {
	return s.absenceRepo.GetCurrentAbsence(ctx, employeeID, capacity.Day(date))
}

// DeleteAbsence removes one of the employee's absences. Someone else's
// absence is reported as not found.
func (s *AbsenceService) DeleteAbsence(ctx context.Context, employeeID, id uint) error {
	absence, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load absence: %w", err)
	}
	if absence == nil || absence.EmployeeID != employeeID {
		return ErrNotFound
	}
	if err := s.absenceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"id":          id,
		"employee_id": employeeID,
	}).Info("Absence deleted")
	return nil
}
