package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
}

type GormEmployeeRepository struct {
	db     *gorm.DB
	events changePublisher
	logger *logrus.Logger
}

func NewGormEmployeeRepository(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*GormEmployeeRepository, error) {
	if err := db.AutoMigrate(&models.Employee{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate employees table")
		return nil, err
	}
	return &GormEmployeeRepository{
		db:     db,
		events: changePublisher{feed: feed, table: "employees", logger: logger},
		logger: logger,
	}, nil
}

func (r *GormEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if !employee.IsValid() {
		return errors.New("invalid employee data")
	}
	if err := r.db.WithContext(ctx).Create(employee).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create employee")
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"id":   employee.ID,
		"name": employee.Name,
	}).Info("Employee created")
	r.events.publish(ctx, realtime.OpInsert, employee.ID, nil)
	return nil
}

func (r *GormEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	if !employee.IsValid() {
		return errors.New("invalid employee data")
	}
	result := r.db.WithContext(ctx).Save(employee)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update employee")
		return result.Error
	}
	r.events.publish(ctx, realtime.OpUpdate, employee.ID, nil)
	return nil
}

func (r *GormEmployeeRepository) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).First(&employee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Employee not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *GormEmployeeRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *GormEmployeeRepository) List(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := r.db.WithContext(ctx).Order("name ASC").Find(&employees).Error
	return employees, err
}
