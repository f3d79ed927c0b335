package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQuietWindow is how long the debouncer waits for mutations to stop.
const DefaultQuietWindow = 500 * time.Millisecond

// Debouncer keeps at most one pending action. Scheduling a new action
// supersedes the pending one and restarts the quiet window.
type Debouncer struct {
	ctx    context.Context
	clock  clockwork.Clock
	window time.Duration

	mu         sync.Mutex
	timer      clockwork.Timer
	pending    func(context.Context)
	generation uint64
}

// NewDebouncer runs fired actions with ctx.
func NewDebouncer(ctx context.Context, window time.Duration, clock clockwork.Clock) *Debouncer {
	return &Debouncer{ctx: ctx, clock: clock, window: window}
}

func (d *Debouncer) Schedule(action func(context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.pending = action

	if d.timer != nil {
		d.timer.Stop()
	}

	generation := d.generation
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(generation) })
}

func (d *Debouncer) fire(generation uint64) {
	d.mu.Lock()

	// A newer Schedule, Flush or Cancel already took over.
	if generation != d.generation || d.pending == nil {
		d.mu.Unlock()

		return
	}

	action := d.take()
	d.mu.Unlock()

	action(d.ctx)
}

// take must be called with mu held.
func (d *Debouncer) take() func(context.Context) {
	action := d.pending
	d.pending = nil
	d.generation++

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	return action
}

// Flush runs the pending action now on the caller's goroutine and reports
// whether there was one.
func (d *Debouncer) Flush(ctx context.Context) bool {
	d.mu.Lock()

	if d.pending == nil {
		d.mu.Unlock()

		return false
	}

	action := d.take()
	d.mu.Unlock()

	action(ctx)

	return true
}

// Cancel drops the pending action and reports whether there was one.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return false
	}

	d.take()

	return true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending != nil
}
