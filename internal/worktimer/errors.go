package worktimer

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is matched by *AlreadyRunningError via errors.Is.
var ErrAlreadyRunning = errors.New("a timer is already running")

// AlreadyRunningError is returned by Start while a timer is running.
// Current is the timer that must be stopped first.
type AlreadyRunningError struct {
	Current ActiveTimer
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("timer already running for %q: stop the current timer first", e.Current.WorkItemLabel)
}

func (e *AlreadyRunningError) Is(target error) bool { return target == ErrAlreadyRunning }

// RecoveryCorruptionError describes a durable record that could not be
// decoded. It is logged and swallowed by TimerStore.Load.
type RecoveryCorruptionError struct {
	Raw string
	Err error
}

func (e *RecoveryCorruptionError) Error() string {
	return fmt.Sprintf("corrupt active timer record: %v", e.Err)
}

func (e *RecoveryCorruptionError) Unwrap() error { return e.Err }

// SubmissionError wraps a Submitter failure. It is logged and emitted as
// EventSubmitFailed, never returned from Stop.
type SubmissionError struct {
	Record TimeLogRecord
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit time log for %s: %v", e.Record.WorkItemID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
