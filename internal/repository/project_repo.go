package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
}

type GormProjectRepository struct {
	db     *gorm.DB
	events changePublisher
	logger *logrus.Logger
}

func NewGormProjectRepository(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*GormProjectRepository, error) {
	if err := db.AutoMigrate(&models.Project{}); err != nil {
		return nil, err
	}
	return &GormProjectRepository{
		db:     db,
		events: changePublisher{feed: feed, table: "projects", logger: logger},
		logger: logger,
	}, nil
}

func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.Name == "" {
		return errors.New("project name is required")
	}
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return err
	}
	r.events.publish(ctx, realtime.OpInsert, project.ID, nil)
	return nil
}

func (r *GormProjectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Order("name ASC").Find(&projects).Error
	return projects, err
}
