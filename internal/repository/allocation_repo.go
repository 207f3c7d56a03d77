package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

type AllocationRepository interface {
	Create(ctx context.Context, allocation *models.Allocation) error
	Update(ctx context.Context, allocation *models.Allocation) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Allocation, error)
	List(ctx context.Context) ([]models.Allocation, error)
	ListByEmployee(ctx context.Context, employeeID uint) ([]models.Allocation, error)
	ListByProjectAndWeeks(ctx context.Context, projectID uint, weekKeys []string) ([]models.Allocation, error)
	FindSlot(ctx context.Context, employeeID, projectID uint, weekStart string) (*models.Allocation, error)
}

type GormAllocationRepository struct {
	db     *gorm.DB
	events changePublisher
	logger *logrus.Logger
}

func NewGormAllocationRepository(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*GormAllocationRepository, error) {
	if err := db.AutoMigrate(&models.Allocation{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate allocations table")
		return nil, err
	}
	logger.Info("Allocation repository initialized")
	return &GormAllocationRepository{
		db:     db,
		events: changePublisher{feed: feed, table: "allocations", logger: logger},
		logger: logger,
	}, nil
}

func allocationColumns(a *models.Allocation) map[string]string {
	return map[string]string{
		"employee_id": idString(a.EmployeeID),
		"project_id":  idString(a.ProjectID),
		"week_start":  a.WeekStart,
	}
}

func (r *GormAllocationRepository) Create(ctx context.Context, allocation *models.Allocation) error {
	if allocation.Status == "" {
		allocation.Status = models.AllocationPlanned
	}
	if !allocation.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"employee_id": allocation.EmployeeID,
			"week_start":  allocation.WeekStart,
		}).Warn("Invalid allocation data")
		return errors.New("invalid allocation data")
	}
	if err := r.db.WithContext(ctx).Create(allocation).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create allocation")
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"id":          allocation.ID,
		"employee_id": allocation.EmployeeID,
		"project_id":  allocation.ProjectID,
		"week_start":  allocation.WeekStart,
		"hours":       allocation.HoursAssigned,
	}).Info("Allocation created")
	r.events.publish(ctx, realtime.OpInsert, allocation.ID, allocationColumns(allocation))
	return nil
}

func (r *GormAllocationRepository) Update(ctx context.Context, allocation *models.Allocation) error {
	if !allocation.IsValid() {
		return errors.New("invalid allocation data")
	}
	result := r.db.WithContext(ctx).Save(allocation)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update allocation")
		return result.Error
	}
	r.logger.WithFields(logrus.Fields{
		"id":    allocation.ID,
		"hours": allocation.HoursAssigned,
	}).Info("Allocation updated")
	r.events.publish(ctx, realtime.OpUpdate, allocation.ID, allocationColumns(allocation))
	return nil
}

func (r *GormAllocationRepository) Delete(ctx context.Context, id uint) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := r.db.WithContext(ctx).Delete(&models.Allocation{}, id).Error; err != nil {
		r.logger.WithError(err).Error("Failed to delete allocation")
		return err
	}
	r.logger.WithField("id", id).Info("Allocation deleted")
	r.events.publish(ctx, realtime.OpDelete, id, allocationColumns(existing))
	return nil
}

func (r *GormAllocationRepository) GetByID(ctx context.Context, id uint) (*models.Allocation, error) {
	var allocation models.Allocation
	err := r.db.WithContext(ctx).First(&allocation, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Allocation not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *GormAllocationRepository) List(ctx context.Context) ([]models.Allocation, error) {
	var allocations []models.Allocation
	err := r.db.WithContext(ctx).Order("week_start ASC, id ASC").Find(&allocations).Error
	return allocations, err
}

func (r *GormAllocationRepository) ListByEmployee(ctx context.Context, employeeID uint) ([]models.Allocation, error) {
	var allocations []models.Allocation
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("week_start ASC").
		Find(&allocations).Error
	return allocations, err
}

func (r *GormAllocationRepository) ListByProjectAndWeeks(ctx context.Context, projectID uint, weekKeys []string) ([]models.Allocation, error) {
	var allocations []models.Allocation
	if len(weekKeys) == 0 {
		return allocations, nil
	}
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND week_start IN ?", projectID, weekKeys).
		Order("week_start ASC, employee_id ASC").
		Find(&allocations).Error
	return allocations, err
}

// FindSlot returns the allocation of an employee to a project for one week
// bucket, or nil.
func (r *GormAllocationRepository) FindSlot(ctx context.Context, employeeID, projectID uint, weekStart string) (*models.Allocation, error) {
	var allocation models.Allocation
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND project_id = ? AND week_start = ?", employeeID, projectID, weekStart).
		First(&allocation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &allocation, nil
}
