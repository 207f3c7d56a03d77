package editlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const releaseTimeout = 5 * time.Second

// Lease is a held (or, when Degraded, assumed) edit lock. KeepAlive renews
// it in the background until Release or Close.
type Lease struct {
	ProjectID  uint
	Month      string
	EmployeeID uint

	c *Coordinator

	mu        sync.Mutex
	expiresAt time.Time
	degraded  bool
	lost      bool
	released  bool
	stop      context.CancelFunc
	done      chan struct{}
	lostCh    chan struct{}
}

func newLease(c *Coordinator, projectID uint, month string, employeeID uint, expiresAt time.Time, degraded bool) *Lease {
	return &Lease{
		ProjectID:  projectID,
		Month:      month,
		EmployeeID: employeeID,
		c:          c,
		expiresAt:  expiresAt,
		degraded:   degraded,
		lostCh:     make(chan struct{}),
	}
}

// Degraded reports that the lock could not be recorded and editing goes on
// without one.
func (l *Lease) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}

// Lost reports that someone else took the lock over or it was removed.
func (l *Lease) Lost() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lost
}

// LostC is closed when the lease is lost.
func (l *Lease) LostC() <-chan struct{} {
	return l.lostCh
}

func (l *Lease) ExpiresAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expiresAt
}

func (l *Lease) fields() logrus.Fields {
	return logrus.Fields{
		"project_id":  l.ProjectID,
		"month":       l.Month,
		"employee_id": l.EmployeeID,
	}
}

// Renew extends the lease once. A degraded lease retries acquisition
// instead, since it has no row to extend.
func (l *Lease) Renew(ctx context.Context) error {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return ErrNotHeld
	}
	if l.lost {
		l.mu.Unlock()
		return ErrLockLost
	}
	degraded := l.degraded
	l.mu.Unlock()

	if degraded {
		lock, err := l.c.acquire(ctx, l.ProjectID, l.Month, l.EmployeeID)
		if err != nil {
			if _, held := IsHeld(err); held {
				l.markLost()
				return ErrLockLost
			}
			return err
		}
		l.mu.Lock()
		l.degraded = false
		l.expiresAt = lock.ExpiresAt
		l.mu.Unlock()
		return nil
	}

	expiresAt, err := l.c.Renew(ctx, l.ProjectID, l.Month, l.EmployeeID)
	if errors.Is(err, ErrNotHeld) {
		l.markLost()
		return ErrLockLost
	}
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.expiresAt = expiresAt
	l.mu.Unlock()
	return nil
}

func (l *Lease) markLost() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lost {
		return
	}
	l.lost = true
	close(l.lostCh)
	l.c.logger.WithFields(l.fields()).Warn("Edit lock lost")
}

// KeepAlive starts renewing the lease every renew interval. It stops on its
// own when the lease is lost, released, or ctx is done. Calling it twice
// has no extra effect.
func (l *Lease) KeepAlive(ctx context.Context) {
	l.mu.Lock()
	if l.stop != nil || l.released || l.lost {
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.stop = cancel
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.c.renewEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.lostCh:
				return
			case <-ticker.C:
				err := l.Renew(ctx)
				switch {
				case err == nil:
				case errors.Is(err, ErrLockLost), errors.Is(err, ErrNotHeld):
					return
				default:
					l.c.logger.WithError(err).WithFields(l.fields()).Warn("Failed to renew edit lock")
				}
			}
		}
	}()
}

func (l *Lease) stopKeepAlive() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.mu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
}

// Release stops renewal and deletes the lock row. Releasing a lost or
// degraded lease only stops renewal.
func (l *Lease) Release(ctx context.Context) error {
	l.stopKeepAlive()

	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return nil
	}
	l.released = true
	skip := l.lost || l.degraded
	l.mu.Unlock()

	if skip {
		return nil
	}
	err := l.c.Release(ctx, l.ProjectID, l.Month, l.EmployeeID)
	if errors.Is(err, ErrNotHeld) {
		return nil
	}
	return err
}

// Close releases the lease in the background, for teardown paths that
// cannot wait on the store.
func (l *Lease) Close() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := l.Release(ctx); err != nil {
			l.c.logger.WithError(err).WithFields(l.fields()).Warn("Failed to release edit lock")
		}
	}()
}
