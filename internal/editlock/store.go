// Package editlock implements advisory, time-boxed edit locks over a
// (project, month) key. Locks are a courtesy signal between planners: the
// store does not stop a non-holder from writing allocations.
package editlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workload-planner/internal/models"
)

// Table is the record stream locks live in.
const Table = "edit_locks"

const (
	DefaultTTL           = 5 * time.Minute
	DefaultRenewInterval = 2 * time.Minute
)

// Store is the persistence the coordinator needs. Upsert must be keyed on
// (project, month) only, so a competing holder's row is replaced rather than
// duplicated; Renew and Release must additionally match the employee.
type Store interface {
	Get(ctx context.Context, projectID uint, month string) (*models.EditLock, error)
	Upsert(ctx context.Context, lock *models.EditLock) error
	Renew(ctx context.Context, projectID uint, month string, employeeID uint, expiresAt time.Time) (bool, error)
	Release(ctx context.Context, projectID uint, month string, employeeID uint) (bool, error)
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
	ListLive(ctx context.Context, month string, now time.Time) ([]models.EditLock, error)
}

var (
	// ErrNotHeld is returned when renewing or releasing a lock the caller
	// does not hold.
	ErrNotHeld = errors.New("edit lock not held")
	// ErrLockLost is returned by a lease whose row was taken over or removed.
	ErrLockLost = errors.New("edit lock lost")
)

// HeldError reports that someone else holds a live lock.
type HeldError struct {
	Lock models.EditLock
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("project %d (%s) is being edited by employee %d until %s",
		e.Lock.ProjectID, e.Lock.Month, e.Lock.EmployeeID, e.Lock.ExpiresAt.Format(time.RFC3339))
}

// IsHeld extracts the holder from a contention error.
func IsHeld(err error) (*models.EditLock, bool) {
	var held *HeldError
	if errors.As(err, &held) {
		return &held.Lock, true
	}
	return nil, false
}
