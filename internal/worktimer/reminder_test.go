package worktimer

import (
	"testing"
	"time"

	"github.com/sadopc/jobtimer/internal/clock"
)

func newTestScheduler(thresholds ...time.Duration) *ReminderScheduler {
	return NewReminderScheduler(clock.Fake(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)), time.Second, thresholds)
}

func TestReminderFiresOnce(t *testing.T) {
	r := newTestScheduler(time.Minute)

	if due := r.Due(59 * time.Second); len(due) != 0 {
		t.Fatalf("fired early: %v", due)
	}
	due := r.Due(60 * time.Second)
	if len(due) != 1 || due[0] != time.Minute {
		t.Fatalf("Due(60s) = %v, want [1m]", due)
	}
	for _, s := range []time.Duration{61, 62, 120, 3600} {
		if due := r.Due(s * time.Second); len(due) != 0 {
			t.Fatalf("Due(%ds) fired again: %v", s, due)
		}
	}
}

func TestReminderResetFiresAgain(t *testing.T) {
	r := newTestScheduler(time.Minute)
	r.Due(time.Minute)
	r.Reset()
	if due := r.Due(time.Minute); len(due) != 1 {
		t.Fatalf("after Reset, Due(1m) = %v, want one threshold", due)
	}
}

func TestReminderThresholdsIndependent(t *testing.T) {
	r := newTestScheduler(2*time.Minute, time.Minute)

	due := r.Due(90 * time.Second)
	if len(due) != 1 || due[0] != time.Minute {
		t.Fatalf("Due(90s) = %v", due)
	}
	due = r.Due(2 * time.Minute)
	if len(due) != 1 || due[0] != 2*time.Minute {
		t.Fatalf("Due(2m) = %v", due)
	}

	r.Reset()
	due = r.Due(3 * time.Minute)
	if len(due) != 2 || due[0] != time.Minute || due[1] != 2*time.Minute {
		t.Fatalf("both thresholds should fire in one tick, got %v", due)
	}
}

func TestReminderMarkElapsed(t *testing.T) {
	r := newTestScheduler(time.Minute, 2*time.Minute)
	r.MarkElapsed(90 * time.Second)

	if due := r.Due(100 * time.Second); len(due) != 0 {
		t.Fatalf("marked threshold fired: %v", due)
	}
	if due := r.Due(2 * time.Minute); len(due) != 1 {
		t.Fatalf("unmarked threshold should still fire, got %v", due)
	}
}

func TestReminderSetThresholdsCleans(t *testing.T) {
	r := newTestScheduler()
	r.SetThresholds([]time.Duration{3 * time.Minute, 0, time.Minute, -time.Minute, time.Minute})

	got := r.Thresholds()
	if len(got) != 2 || got[0] != time.Minute || got[1] != 3*time.Minute {
		t.Fatalf("Thresholds = %v, want [1m 3m]", got)
	}
}

func TestReminderSetThresholdsKeepsFlags(t *testing.T) {
	r := newTestScheduler(time.Minute)
	r.Due(time.Minute)
	r.SetThresholds([]time.Duration{time.Minute, 5 * time.Minute})

	if due := r.Due(2 * time.Minute); len(due) != 0 {
		t.Fatalf("kept threshold fired again: %v", due)
	}
}

func TestReminderNoThresholds(t *testing.T) {
	r := newTestScheduler()
	if due := r.Due(10 * time.Hour); len(due) != 0 {
		t.Fatalf("Due with no thresholds = %v", due)
	}
}

func TestReminderCancelIdempotent(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	r := NewReminderScheduler(fake, time.Second, nil)

	r.cancel()
	r.start(func() {})
	if !r.Ticking() || fake.ActiveTickers() != 1 {
		t.Fatal("start should register one ticker")
	}
	r.start(func() {})
	if fake.ActiveTickers() != 1 {
		t.Fatalf("restart leaked a ticker: %d live", fake.ActiveTickers())
	}
	r.cancel()
	r.cancel()
	if r.Ticking() || fake.ActiveTickers() != 0 {
		t.Fatalf("cancel left %d tickers", fake.ActiveTickers())
	}
}
