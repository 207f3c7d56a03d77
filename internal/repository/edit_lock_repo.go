package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workload-planner/internal/editlock"
	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// GormEditLockRepository is the edit-lock Store.
type GormEditLockRepository struct {
	db     *gorm.DB
	events changePublisher
	logger *logrus.Logger
}

var _ editlock.Store = (*GormEditLockRepository)(nil)

func NewGormEditLockRepository(db *gorm.DB, feed realtime.Feed, logger *logrus.Logger) (*GormEditLockRepository, error) {
	if err := db.AutoMigrate(&models.EditLock{}); err != nil {
		return nil, err
	}
	return &GormEditLockRepository{
		db:     db,
		events: changePublisher{feed: feed, table: editlock.Table, logger: logger},
		logger: logger,
	}, nil
}

func (r *GormEditLockRepository) Get(ctx context.Context, projectID uint, month string) (*models.EditLock, error) {
	var lock models.EditLock
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND month = ?", projectID, month).
		First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// Upsert writes the lock keyed on (project_id, month), replacing any other
// holder's row.
func (r *GormEditLockRepository) Upsert(ctx context.Context, lock *models.EditLock) error {
	lock.LockedAt = lock.LockedAt.UTC()
	lock.ExpiresAt = lock.ExpiresAt.UTC()

	existing, err := r.Get(ctx, lock.ProjectID, lock.Month)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"employee_id", "locked_at", "expires_at"}),
	}).Create(lock).Error
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"project_id": lock.ProjectID,
			"month":      lock.Month,
		}).Error("Failed to upsert edit lock")
		return err
	}

	// On conflict some drivers leave the primary key unset; read it back.
	stored, err := r.Get(ctx, lock.ProjectID, lock.Month)
	if err != nil {
		return err
	}
	if stored != nil {
		lock.ID = stored.ID
	}

	op := realtime.OpInsert
	if existing != nil {
		op = realtime.OpUpdate
	}
	r.events.publish(ctx, op, lock.ID, editlock.Columns(lock))
	return nil
}

// Renew moves the expiry of a row held by employeeID. It reports false when
// no such row exists.
func (r *GormEditLockRepository) Renew(ctx context.Context, projectID uint, month string, employeeID uint, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.EditLock{}).
		Where("project_id = ? AND month = ? AND employee_id = ?", projectID, month, employeeID).
		Update("expires_at", expiresAt.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	lock, err := r.Get(ctx, projectID, month)
	if err != nil {
		return true, err
	}
	if lock != nil {
		r.events.publish(ctx, realtime.OpUpdate, lock.ID, editlock.Columns(lock))
	}
	return true, nil
}

// Release deletes a row held by employeeID.
func (r *GormEditLockRepository) Release(ctx context.Context, projectID uint, month string, employeeID uint) (bool, error) {
	lock, err := r.Get(ctx, projectID, month)
	if err != nil {
		return false, err
	}
	if lock == nil || lock.EmployeeID != employeeID {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Where("id = ? AND employee_id = ?", lock.ID, employeeID).
		Delete(&models.EditLock{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.events.publish(ctx, realtime.OpDelete, lock.ID, editlock.Columns(lock))
	return true, nil
}

// PruneExpired deletes every lock whose expiry is not after now.
func (r *GormEditLockRepository) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	var expired []models.EditLock
	if err := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Find(&expired).Error; err != nil {
		return 0, err
	}
	var pruned int64
	for i := range expired {
		lock := &expired[i]
		res := r.db.WithContext(ctx).
			Where("id = ? AND expires_at <= ?", lock.ID, now.UTC()).
			Delete(&models.EditLock{})
		if res.Error != nil {
			return pruned, res.Error
		}
		if res.RowsAffected > 0 {
			pruned++
			r.events.publish(ctx, realtime.OpDelete, lock.ID, editlock.Columns(lock))
		}
	}
	return pruned, nil
}

// ListLive lists unexpired locks of a month, or of every month when month
// is empty.
func (r *GormEditLockRepository) ListLive(ctx context.Context, month string, now time.Time) ([]models.EditLock, error) {
	q := r.db.WithContext(ctx).Where("expires_at > ?", now.UTC())
	if month != "" {
		q = q.Where("month = ?", month)
	}
	var locks []models.EditLock
	err := q.Order("project_id ASC").Find(&locks).Error
	return locks, err
}
