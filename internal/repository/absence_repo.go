package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

type AbsenceRepository interface {
	Create(ctx context.Context, absence *models.Absence) error
	GetByID(ctx context.Context, id uint) (*models.Absence, error)
	GetByEmployeeID(ctx context.Context, employeeID uint) ([]models.Absence, error)
	GetCurrentAbsence(ctx context.Context, employeeID uint, date time.Time) (*models.Absence, error)
	CheckPeriodConflict(ctx context.Context, employeeID uint, startDate, endDate time.Time) (bool, error)
	List(ctx context.Context) ([]models.Absence, error)
	Delete(ctx context.Context, id uint) error
}

type GormAbsenceRepository struct {
	db     *gorm.DB
	events changePublisher
	logger *logrus.Logger
}

func NewGormAbsenceRepository(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*GormAbsenceRepository, error) {
	if err := db.AutoMigrate(&models.Absence{}); err != nil {
		return nil, err
	}
	return &GormAbsenceRepository{
		db:     db,
		events: changePublisher{feed: feed, table: "absences", logger: logger},
		logger: logger,
	}, nil
}

func absenceColumns(a *models.Absence) map[string]string {
	return map[string]string{"employee_id": idString(a.EmployeeID)}
}

func (r *GormAbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	if err := r.db.WithContext(ctx).Create(absence).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create absence")
		return err
	}
	r.events.publish(ctx, realtime.OpInsert, absence.ID, absenceColumns(absence))
	return nil
}

func (r *GormAbsenceRepository) GetByID(ctx context.Context, id uint) (*models.Absence, error) {
	var absence models.Absence
	err := r.db.WithContext(ctx).First(&absence, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &absence, nil
}

func (r *GormAbsenceRepository) GetByEmployeeID(ctx context.Context, employeeID uint) ([]models.Absence, error) {
	var absences []models.Absence
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&absences).Error
	return absences, err
}

func (r *GormAbsenceRepository) GetCurrentAbsence(ctx context.Context, employeeID uint, date time.Time) (*models.Absence, error) {
	var absence models.Absence
	err := r.db.WithContext(ctx).Where("employee_id = ? AND start_date <= ? AND end_date >= ?",
		employeeID, date, date).
		First(&absence).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &absence, nil
}

// CheckPeriodConflict reports whether any absence of the employee intersects
// [startDate, endDate].
func (r *GormAbsenceRepository) CheckPeriodConflict(ctx context.Context, employeeID uint, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Absence{}).
		Where("employee_id = ? AND start_date <= ? AND end_date >= ?", employeeID, endDate, startDate).
		Count(&count).Error
	return count > 0, err
}

func (r *GormAbsenceRepository) List(ctx context.Context) ([]models.Absence, error) {
	var absences []models.Absence
	err := r.db.WithContext(ctx).Order("start_date ASC").Find(&absences).Error
	return absences, err
}

func (r *GormAbsenceRepository) Delete(ctx context.Context, id uint) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := r.db.WithContext(ctx).Delete(&models.Absence{}, id).Error; err != nil {
		return err
	}
	r.logger.WithField("id", id).Info("Absence deleted")
	r.events.publish(ctx, realtime.OpDelete, id, absenceColumns(existing))
	return nil
}
