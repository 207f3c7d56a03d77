package editlock

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"workload-planner/internal/models"
	"workload-planner/internal/realtime"
)

// Coordinator hands out edit locks. Acquisition is check-then-act: a race
// between two planners can let both believe they hold the lock for a moment;
// the later upsert wins the row and the loser's next renewal reports it lost.
type Coordinator struct {
	store      Store
	feed       realtime.Feed
	ttl        time.Duration
	renewEvery time.Duration
	clock      func() time.Time
	logger     *logrus.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithRenewInterval(every time.Duration) Option {
	return func(c *Coordinator) {
		if every > 0 {
			c.renewEvery = every
		}
	}
}

// WithClock allows tests to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFeed enables Watch.
func WithFeed(feed realtime.Feed) Option {
	return func(c *Coordinator) {
		c.feed = feed
	}
}

func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      store,
		ttl:        DefaultTTL,
		renewEvery: DefaultRenewInterval,
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// TTL is how long a lock lives without renewal.
func (c *Coordinator) TTL() time.Duration {
	return c.ttl
}

func (c *Coordinator) now() time.Time {
	return c.clock().UTC()
}

// Acquire takes the lock on (projectID, month) for employeeID. Expired rows
// are pruned first so locks left by crashed sessions heal themselves. When
// another employee holds a live lock a *HeldError is returned. When the
// store cannot be reached the coordinator fails open: the returned lease is
// Degraded and editing may proceed without a lock.
func (c *Coordinator) Acquire(ctx context.Context, projectID uint, month string, employeeID uint) (*Lease, error) {
	lock, err := c.acquire(ctx, projectID, month, employeeID)
	if err != nil {
		if _, held := IsHeld(err); held {
			return nil, err
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"project_id":  projectID,
			"month":       month,
			"employee_id": employeeID,
		}).Warn("Edit lock unavailable, editing without a lock")
		return newLease(c, projectID, month, employeeID, time.Time{}, true), nil
	}
	return newLease(c, projectID, month, employeeID, lock.ExpiresAt, false), nil
}

func (c *Coordinator) acquire(ctx context.Context, projectID uint, month string, employeeID uint) (*models.EditLock, error) {
	now := c.now()
	if pruned, err := c.store.PruneExpired(ctx, now); err != nil {
		c.logger.WithError(err).Warn("Failed to prune expired edit locks")
	} else if pruned > 0 {
		c.logger.WithField("pruned", pruned).Debug("Pruned expired edit locks")
	}

	current, err := c.store.Get(ctx, projectID, month)
	if err != nil {
		return nil, err
	}
	if current.IsLive(now) && !current.HeldBy(employeeID) {
		c.logger.WithFields(logrus.Fields{
			"project_id": projectID,
			"month":      month,
			"holder":     current.EmployeeID,
			"requester":  employeeID,
		}).Info("Edit lock held by someone else")
		return nil, &HeldError{Lock: *current}
	}

	lock := &models.EditLock{
		ProjectID:  projectID,
		Month:      month,
		EmployeeID: employeeID,
		LockedAt:   now,
		ExpiresAt:  now.Add(c.ttl),
	}
	if current.IsLive(now) {
		lock.LockedAt = current.LockedAt
	}
	if err := c.store.Upsert(ctx, lock); err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"project_id":  projectID,
		"month":       month,
		"employee_id": employeeID,
		"expires_at":  lock.ExpiresAt.Format(time.RFC3339),
	}).Info("Edit lock acquired")
	return lock, nil
}

// Renew pushes the expiry of a lock the employee holds. It updates only a
// row held by employeeID, so it can never take over someone else's lock.
func (c *Coordinator) Renew(ctx context.Context, projectID uint, month string, employeeID uint) (time.Time, error) {
	expiresAt := c.now().Add(c.ttl)
	ok, err := c.store.Renew(ctx, projectID, month, employeeID, expiresAt)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ErrNotHeld
	}
	c.logger.WithFields(logrus.Fields{
		"project_id":  projectID,
		"month":       month,
		"employee_id": employeeID,
	}).Debug("Edit lock renewed")
	return expiresAt, nil
}

// Release deletes the employee's lock on (projectID, month).
func (c *Coordinator) Release(ctx context.Context, projectID uint, month string, employeeID uint) error {
	ok, err := c.store.Release(ctx, projectID, month, employeeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotHeld
	}
	c.logger.WithFields(logrus.Fields{
		"project_id":  projectID,
		"month":       month,
		"employee_id": employeeID,
	}).Info("Edit lock released")
	return nil
}

// Holder returns the live lock on (projectID, month), or nil.
func (c *Coordinator) Holder(ctx context.Context, projectID uint, month string) (*models.EditLock, error) {
	lock, err := c.store.Get(ctx, projectID, month)
	if err != nil {
		return nil, err
	}
	if !lock.IsLive(c.now()) {
		return nil, nil
	}
	return lock, nil
}

// LiveLocks lists the live locks of a month.
func (c *Coordinator) LiveLocks(ctx context.Context, month string) ([]models.EditLock, error) {
	return c.store.ListLive(ctx, month, c.now())
}
