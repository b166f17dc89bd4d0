package worktimer

import "time"

// EventType identifies a Machine event.
type EventType string

const (
	EventStarted      EventType = "started"
	EventRecovered    EventType = "recovered"
	EventTick         EventType = "tick"
	EventReminder     EventType = "reminder"
	EventStopped      EventType = "stopped"
	EventSubmitted    EventType = "submitted"
	EventSubmitFailed EventType = "submit_failed"
)

// Event is delivered to subscribers. Fields not relevant to Type are
// zero.
type Event struct {
	Type           EventType
	Timer          ActiveTimer
	ElapsedSeconds int64
	// Threshold is set on EventReminder.
	Threshold time.Duration
	// Record is set on EventStopped, EventSubmitted and EventSubmitFailed.
	Record *TimeLogRecord
	// Err is a *SubmissionError on EventSubmitFailed.
	Err error
	At  time.Time
}
