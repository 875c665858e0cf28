package wizard

import (
	"sync"
	"time"
)

// DefaultEditDebounce is the quiet period after which a burst of
// keystrokes settles into one manual-edit log entry.
const DefaultEditDebounce = 500 * time.Millisecond

// Debouncer collapses a stream of values into a single flush call once
// the stream has been quiet for the full window. Every Ping restarts
// the timer; only the most recent value is flushed. Stop cancels any
// pending flush and makes further Pings no-ops, so a torn-down session
// can never fire a late timer.
type Debouncer struct {
	window time.Duration
	flush  func(value string, at time.Time)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	value   string
	stopped bool
}

func NewDebouncer(window time.Duration, flush func(value string, at time.Time)) *Debouncer {
	if window <= 0 {
		window = DefaultEditDebounce
	}
	return &Debouncer{window: window, flush: flush}
}

// Ping records the latest value and restarts the quiet-period timer.
func (d *Debouncer) Ping(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.value = value
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire runs when a quiet period elapses. Each armed timer carries the
// generation it was armed under; a fire that lost the race with a
// concurrent Ping (its timer expired just as the new one was armed) is
// stale and must not flush the new value before its own quiet period.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || d.timer == nil || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	value := d.value
	d.mu.Unlock()

	d.flush(value, time.Now())
}

// Flush fires a pending value immediately instead of waiting out the
// window. No-op when nothing is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.timer = nil
	value := d.value
	d.mu.Unlock()

	d.flush(value, time.Now())
}

// Stop cancels any pending flush permanently.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
