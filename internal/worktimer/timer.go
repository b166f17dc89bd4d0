package worktimer

import (
	"context"
	"time"
)

// ActiveTimer is the single in-flight time-tracking session.
// StartedAt never changes once set.
type ActiveTimer struct {
	WorkItemID      string    `json:"workItemId"`
	WorkItemLabel   string    `json:"workItemLabel"`
	ParentContextID string    `json:"parentContextId"`
	StartedAt       time.Time `json:"startedAt"`
}

// Elapsed returns how long the timer has been running at now.
func (t ActiveTimer) Elapsed(now time.Time) time.Duration {
	d := now.Sub(t.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// TimeLogRecord is what a stopped timer hands to the Submitter.
// ParentContextID and WorkItemLabel are not part of the wire body; they
// route the request and label the local journal.
type TimeLogRecord struct {
	WorkItemID      string    `json:"work_item_id"`
	LoggerID        string    `json:"logger_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int64     `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
	ManualEntry     bool      `json:"manual_entry"`

	ParentContextID string `json:"-"`
	WorkItemLabel   string `json:"-"`
}

// Submitter sends a completed time-log record to the backend of record.
type Submitter interface {
	Submit(ctx context.Context, record TimeLogRecord) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, record TimeLogRecord) error

func (f SubmitterFunc) Submit(ctx context.Context, record TimeLogRecord) error {
	return f(ctx, record)
}

// State is Idle or Running.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	State          State
	Timer          ActiveTimer // zero when Idle
	ElapsedSeconds int64
}

func (s Snapshot) Running() bool { return s.State == StateRunning }

// StopOptions control a stop. Notes empty means the default note for
// the kind of stop is used.
type StopOptions struct {
	Notes       string
	AutoStopped bool
}

// Role is the session role supplied by the auth subsystem.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

// CanTrackTime reports whether timer surfaces are shown for this role.
// The backend is the authority; this is display gating only.
func (r Role) CanTrackTime() bool { return r == RoleFreelancer }

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleFreelancer:
		return true
	}
	return false
}

// Identity is the signed-in user.
type Identity struct {
	UserID string
	Role   Role
}
