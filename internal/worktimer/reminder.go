package worktimer

import (
	"sort"
	"time"

	"github.com/sadopc/jobtimer/internal/clock"
)

// DefaultThresholds are the reminder points used when none are
// configured: one hour, then two.
var DefaultThresholds = []time.Duration{60 * time.Minute, 120 * time.Minute}

// ReminderScheduler ticks while a timer runs and decides which
// thresholds have been crossed. Each threshold fires at most once per
// timer; Reset starts a fresh timer's tracking.
//
// It is not safe for concurrent use. Machine calls it with its own lock
// held.
type ReminderScheduler struct {
	clock      clock.Clock
	interval   time.Duration
	thresholds []time.Duration
	fired      map[time.Duration]bool

	ticker *clock.Ticker
	stop   chan struct{}
}

// NewReminderScheduler returns a scheduler ticking every interval
// (1s when interval <= 0).
func NewReminderScheduler(c clock.Clock, interval time.Duration, thresholds []time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	r := &ReminderScheduler{
		clock:    c,
		interval: interval,
		fired:    make(map[time.Duration]bool),
	}
	r.SetThresholds(thresholds)
	return r
}

// SetThresholds replaces the thresholds. Non-positive values are
// dropped. Flags of thresholds that remain are kept.
func (r *ReminderScheduler) SetThresholds(thresholds []time.Duration) {
	seen := make(map[time.Duration]bool)
	var cleaned []time.Duration
	for _, th := range thresholds {
		if th <= 0 || seen[th] {
			continue
		}
		seen[th] = true
		cleaned = append(cleaned, th)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i] < cleaned[j] })
	r.thresholds = cleaned

	for th := range r.fired {
		if !seen[th] {
			delete(r.fired, th)
		}
	}
}

// Thresholds returns a copy of the configured thresholds, ascending.
func (r *ReminderScheduler) Thresholds() []time.Duration {
	return append([]time.Duration(nil), r.thresholds...)
}

// Reset forgets every fired threshold.
func (r *ReminderScheduler) Reset() {
	r.fired = make(map[time.Duration]bool)
}

// MarkElapsed flags every threshold already reached at elapsed as fired
// without reporting it.
func (r *ReminderScheduler) MarkElapsed(elapsed time.Duration) {
	for _, th := range r.thresholds {
		if elapsed >= th {
			r.fired[th] = true
		}
	}
}

// Due flags and returns the thresholds newly reached at elapsed.
func (r *ReminderScheduler) Due(elapsed time.Duration) []time.Duration {
	var due []time.Duration
	for _, th := range r.thresholds {
		if elapsed >= th && !r.fired[th] {
			r.fired[th] = true
			due = append(due, th)
		}
	}
	return due
}

// Ticking reports whether the tick loop is live.
func (r *ReminderScheduler) Ticking() bool { return r.ticker != nil }

// start launches the tick loop, replacing any previous one. onTick runs
// on the loop goroutine.
func (r *ReminderScheduler) start(onTick func()) {
	r.cancel()

	ticker := r.clock.NewTicker(r.interval)
	stop := make(chan struct{})
	r.ticker = ticker
	r.stop = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				onTick()
			}
		}
	}()
}

// cancel stops the tick loop. Calling it when nothing is ticking is a
// no-op.
func (r *ReminderScheduler) cancel() {
	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.ticker = nil
	r.stop = nil
}
