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

type TeamEventRepository interface {
	Create(ctx context.Context, event *models.TeamEvent) error
	BulkCreate(ctx context.Context, events []models.TeamEvent) error
	GetByID(ctx context.Context, id uint) (*models.TeamEvent, error)
	List(ctx context.Context) ([]models.TeamEvent, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]models.TeamEvent, error)
	Delete(ctx context.Context, id uint) error
	ReplaceKind(ctx context.Context, kind string, events []models.TeamEvent) (int64, error)
}

type GormTeamEventRepository struct {
	db     *gorm.DB
	events changePublisher
	logger *logrus.Logger
}

func NewGormTeamEventRepository(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*GormTeamEventRepository, error) {
	if err := db.AutoMigrate(&models.TeamEvent{}); err != nil {
		return nil, err
	}
	return &GormTeamEventRepository{
		db:     db,
		events: changePublisher{feed: feed, table: "team_events", logger: logger},
		logger: logger,
	}, nil
}

func eventColumns(e *models.TeamEvent) map[string]string {
	return map[string]string{"date": e.Date.Format("2006-01-02")}
}

func (r *GormTeamEventRepository) Create(ctx context.Context, event *models.TeamEvent) error {
	if !event.IsValid() {
		return errors.New("invalid team event data")
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return err
	}
	r.events.publish(ctx, realtime.OpInsert, event.ID, eventColumns(event))
	return nil
}

func (r *GormTeamEventRepository) BulkCreate(ctx context.Context, events []models.TeamEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&events).Error; err != nil {
		return err
	}
	for i := range events {
		r.events.publish(ctx, realtime.OpInsert, events[i].ID, eventColumns(&events[i]))
	}
	return nil
}

func (r *GormTeamEventRepository) GetByID(ctx context.Context, id uint) (*models.TeamEvent, error) {
	var event models.TeamEvent
	err := r.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *GormTeamEventRepository) List(ctx context.Context) ([]models.TeamEvent, error) {
	var events []models.TeamEvent
	err := r.db.WithContext(ctx).Order("date ASC").Find(&events).Error
	return events, err
}

func (r *GormTeamEventRepository) ListInRange(ctx context.Context, start, end time.Time) ([]models.TeamEvent, error) {
	var events []models.TeamEvent
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC").
		Find(&events).Error
	return events, err
}

func (r *GormTeamEventRepository) Delete(ctx context.Context, id uint) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := r.db.WithContext(ctx).Delete(&models.TeamEvent{}, id).Error; err != nil {
		return err
	}
	r.events.publish(ctx, realtime.OpDelete, id, eventColumns(existing))
	return nil
}

// ReplaceKind deletes every event of a kind and creates events in one
// transaction. Changes are published only once it commits, so a failed
// replacement leaves the old events in place.
func (r *GormTeamEventRepository) ReplaceKind(ctx context.Context, kind string, events []models.TeamEvent) (int64, error) {
	for i := range events {
		if !events[i].IsValid() {
			return 0, errors.New("invalid team event data")
		}
	}

	var removed []models.TeamEvent
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ?", kind).Find(&removed).Error; err != nil {
			return err
		}
		result := tx.Where("kind = ?", kind).Delete(&models.TeamEvent{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		if len(events) == 0 {
			return nil
		}
		return tx.Create(&events).Error
	})
	if err != nil {
		r.logger.WithError(err).WithField("kind", kind).Error("Failed to replace team events")
		return 0, err
	}

	for i := range removed {
		r.events.publish(ctx, realtime.OpDelete, removed[i].ID, eventColumns(&removed[i]))
	}
	for i := range events {
		r.events.publish(ctx, realtime.OpInsert, events[i].ID, eventColumns(&events[i]))
	}
	r.logger.WithFields(logrus.Fields{
		"kind":    kind,
		"deleted": deleted,
		"created": len(events),
	}).Info("Team events replaced")
	return deleted, nil
}
