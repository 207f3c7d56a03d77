// Package autosave debounces edits into a single deferred save.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDelay is the quiet period after the last edit before saving.
const DefaultDelay = 800 * time.Millisecond

// SaveFunc persists the pending edit.
type SaveFunc func(ctx context.Context) error

// Debouncer keeps at most one pending save. A new Schedule replaces the
// pending one and restarts the quiet period.
type Debouncer struct {
	delay  time.Duration
	logger *logrus.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending SaveFunc
	seq     uint64
	onError func(error)
	saving  sync.Mutex
}

func New(delay time.Duration, logger *logrus.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Debouncer{delay: delay, logger: logger}
}

// Schedule arms save to run after the quiet period.
func (d *Debouncer) Schedule(save SaveFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = save
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	save := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if err := d.run(context.Background(), save); err != nil {
		d.logger.WithError(err).Error("Autosave failed")
		d.mu.Lock()
		report := d.onError
		d.mu.Unlock()
		if report != nil {
			report(err)
		}
	}
}

// OnError sets a callback for saves that fail after the quiet period. Run
// returns its error to the caller instead.
func (d *Debouncer) OnError(fn func(error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = fn
}

// Cancel drops the pending save.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.seq++
}

// Pending reports whether a save is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Run drops the pending save and runs save now, after any save in flight.
func (d *Debouncer) Run(ctx context.Context, save SaveFunc) error {
	d.Cancel()
	return d.run(ctx, save)
}

// run serializes saves so a timer firing during Run cannot interleave.
func (d *Debouncer) run(ctx context.Context, save SaveFunc) error {
	d.saving.Lock()
	defer d.saving.Unlock()
	return save(ctx)
}
