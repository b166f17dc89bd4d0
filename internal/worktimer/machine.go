package worktimer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/jobtimer/internal/clock"
)

// DefaultAutoStopNote is the note used when a logout stops the timer and
// no note was configured.
const DefaultAutoStopNote = "Timer stopped automatically on logout"

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("timer machine closed")

// Config wires a Machine. Store and Submitter are required.
type Config struct {
	Store     *TimerStore
	Submitter Submitter
	Clock     clock.Clock
	Logger    *slog.Logger
	Identity  Identity

	// Thresholds for reminders. Nil means DefaultThresholds; an empty
	// non-nil slice disables reminders.
	Thresholds   []time.Duration
	TickInterval time.Duration

	// DefaultNote is used when a manual stop carries no notes.
	DefaultNote string
	// AutoStopNote is used when an automatic stop carries no notes.
	// Empty means DefaultAutoStopNote.
	AutoStopNote string
}

// Machine owns the single active timer. Start, Stop, Recover and the
// reminder tick are serialized by one lock; the Submitter is called
// outside it.
type Machine struct {
	mu sync.Mutex

	store     *TimerStore
	submitter Submitter
	clock     clock.Clock
	logger    *slog.Logger
	identity  Identity

	defaultNote  string
	autoStopNote string

	active *ActiveTimer
	// generation changes on every transition so ticks scheduled for an
	// earlier timer are ignored.
	generation  uint64
	reminders   *ReminderScheduler
	subscribers []chan Event
	closed      bool
}

// New returns an Idle machine. Call Recover once before use.
func New(cfg Config) *Machine {
	if cfg.Store == nil {
		panic("worktimer.New: Store is required")
	}
	if cfg.Submitter == nil {
		panic("worktimer.New: Submitter is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Thresholds == nil {
		cfg.Thresholds = DefaultThresholds
	}
	if cfg.AutoStopNote == "" {
		cfg.AutoStopNote = DefaultAutoStopNote
	}

	return &Machine{
		store:        cfg.Store,
		submitter:    cfg.Submitter,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		identity:     cfg.Identity,
		defaultNote:  cfg.DefaultNote,
		autoStopNote: cfg.AutoStopNote,
		reminders:    NewReminderScheduler(cfg.Clock, cfg.TickInterval, cfg.Thresholds),
	}
}

// Identity returns the session identity the machine logs time for.
func (m *Machine) Identity() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Recover rebuilds in-memory state from the durable slot. A recovered
// timer enters Running directly: no invariant check, and when the same
// timer is already in memory nothing changes. Reports whether a timer
// is running afterwards.
func (m *Machine) Recover() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	t, ok := m.store.Load()
	if !ok {
		if m.active != nil {
			m.logger.Info("durable timer missing, dropping in-memory timer", "work_item", m.active.WorkItemID)
			m.reminders.cancel()
			m.active = nil
			m.generation++
		}
		return false
	}

	if m.active != nil && sameTimer(*m.active, t) {
		return true
	}

	now := m.clock.Now()
	m.reminders.Reset()
	m.reminders.MarkElapsed(t.Elapsed(now))
	m.adoptLocked(t)

	m.logger.Info("timer recovered", "work_item", t.WorkItemID, "started_at", t.StartedAt)
	m.emitLocked(Event{
		Type:           EventRecovered,
		Timer:          t,
		ElapsedSeconds: seconds(t.Elapsed(now)),
		At:             now,
	})
	return true
}

// Start begins timing a work item. While a timer runs it returns an
// *AlreadyRunningError and changes nothing. The timer is persisted
// before the machine reports Running; a persistence failure leaves the
// machine Idle.
func (m *Machine) Start(workItemID, label, parentContextID string) (ActiveTimer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ActiveTimer{}, ErrClosed
	}
	if m.active != nil {
		return ActiveTimer{}, &AlreadyRunningError{Current: *m.active}
	}
	if strings.TrimSpace(workItemID) == "" {
		return ActiveTimer{}, errors.New("start timer: work item id is required")
	}

	t := ActiveTimer{
		WorkItemID:      workItemID,
		WorkItemLabel:   label,
		ParentContextID: parentContextID,
		StartedAt:       m.clock.Now().UTC(),
	}
	if err := m.store.Save(t); err != nil {
		return ActiveTimer{}, fmt.Errorf("start timer: %w", err)
	}

	m.reminders.Reset()
	m.adoptLocked(t)

	m.logger.Info("timer started", "work_item", t.WorkItemID, "parent", t.ParentContextID)
	m.emitLocked(Event{Type: EventStarted, Timer: t, At: t.StartedAt})
	return t, nil
}

// Stop ends the running timer and submits its time log. The durable
// slot is cleared and the machine is Idle before submission starts, and
// stays that way whatever the Submitter returns; a failure is logged and
// emitted as EventSubmitFailed. Stop waits for the submission. On an
// Idle machine it only clears the durable slot and returns nil.
func (m *Machine) Stop(ctx context.Context, opts StopOptions) *TimeLogRecord {
	m.mu.Lock()
	if m.active == nil {
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("clear durable timer while idle", "error", err)
		}
		m.mu.Unlock()
		return nil
	}

	t := *m.active
	end := m.clock.Now().UTC()
	record := TimeLogRecord{
		WorkItemID:      t.WorkItemID,
		LoggerID:        m.identity.UserID,
		StartTime:       t.StartedAt,
		EndTime:         end,
		DurationMinutes: DurationMinutes(end.Sub(t.StartedAt)),
		Notes:           m.notesLocked(opts),
		ManualEntry:     false,
		ParentContextID: t.ParentContextID,
		WorkItemLabel:   t.WorkItemLabel,
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("clear durable timer", "error", err)
	}
	m.active = nil
	m.generation++
	m.reminders.cancel()

	m.logger.Info("timer stopped",
		"work_item", record.WorkItemID,
		"duration_minutes", record.DurationMinutes,
		"auto", opts.AutoStopped,
	)
	stopped := record
	m.emitLocked(Event{Type: EventStopped, Timer: t, Record: &stopped, At: end})
	m.mu.Unlock()

	result := record
	if err := m.submitter.Submit(ctx, record); err != nil {
		subErr := &SubmissionError{Record: record, Err: err}
		m.logger.Error("time log submission failed",
			"work_item", record.WorkItemID,
			"start", record.StartTime,
			"duration_minutes", record.DurationMinutes,
			"error", err,
		)
		m.emit(Event{Type: EventSubmitFailed, Timer: t, Record: &result, Err: subErr, At: m.clock.Now()})
		return &result
	}

	m.emit(Event{Type: EventSubmitted, Timer: t, Record: &result, At: m.clock.Now()})
	return &result
}

// OnLogout is the hook the session layer calls before tearing a session
// down. A running timer is stopped with AutoStopped set and the call
// waits for the submission.
func (m *Machine) OnLogout(ctx context.Context) *TimeLogRecord {
	return m.Stop(ctx, StopOptions{AutoStopped: true})
}

// Snapshot returns the current state and elapsed seconds.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		State:          StateRunning,
		Timer:          *m.active,
		ElapsedSeconds: seconds(m.active.Elapsed(m.clock.Now())),
	}
}

// Subscribe registers an observer. Sends never block: a full channel
// misses the event. Channels are closed by Close.
func (m *Machine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// SetThresholds replaces the reminder thresholds.
func (m *Machine) SetThresholds(thresholds []time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders.SetThresholds(thresholds)
}

// Thresholds returns the reminder thresholds in effect.
func (m *Machine) Thresholds() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reminders.Thresholds()
}

// SetNotes replaces the default notes. An empty autoStop keeps
// DefaultAutoStopNote.
func (m *Machine) SetNotes(defaultNote, autoStop string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultNote = defaultNote
	if autoStop == "" {
		autoStop = DefaultAutoStopNote
	}
	m.autoStopNote = autoStop
}

// Ticking reports whether the reminder tick is live.
func (m *Machine) Ticking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reminders.Ticking()
}

// Close tears the machine down: the tick is cancelled and subscriber
// channels are closed. A running timer stays in the durable slot and is
// picked up by the next Recover. Close is idempotent.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.reminders.cancel()
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
}

func (m *Machine) adoptLocked(t ActiveTimer) {
	m.active = &t
	m.generation++
	generation := m.generation
	m.reminders.start(func() { m.tick(generation) })
}

func (m *Machine) tick(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || generation != m.generation {
		return
	}

	now := m.clock.Now()
	t := *m.active
	elapsed := t.Elapsed(now)
	m.emitLocked(Event{Type: EventTick, Timer: t, ElapsedSeconds: seconds(elapsed), At: now})

	for _, threshold := range m.reminders.Due(elapsed) {
		m.logger.Info("reminder threshold reached", "work_item", t.WorkItemID, "threshold", threshold)
		m.emitLocked(Event{
			Type:           EventReminder,
			Timer:          t,
			ElapsedSeconds: seconds(elapsed),
			Threshold:      threshold,
			At:             now,
		})
	}
}

func (m *Machine) notesLocked(opts StopOptions) string {
	if notes := strings.TrimSpace(opts.Notes); notes != "" {
		return notes
	}
	if opts.AutoStopped {
		return m.autoStopNote
	}
	return m.defaultNote
}

func (m *Machine) emit(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(event)
}

func (m *Machine) emitLocked(event Event) {
	if m.closed {
		return
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func sameTimer(a, b ActiveTimer) bool {
	return a.WorkItemID == b.WorkItemID &&
		a.ParentContextID == b.ParentContextID &&
		a.StartedAt.Equal(b.StartedAt)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
