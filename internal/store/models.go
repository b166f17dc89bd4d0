package store

import "time"

// Project is a parent context: the remote project a work item belongs
// to. Code is the identifier the backend knows it by.
type Project struct {
	ID        int64
	Code      string
	Name      string
	Color     string
	Client    string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkItem is a job card of a project. Code is the backend identifier.
type WorkItem struct {
	ID        int64
	ProjectID int64
	Code      string
	Title     string
	Tags      string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Journal statuses.
const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
	StatusLocal     = "local"
)

// TimeLog is one journal row: a time log the timer produced and what
// happened when it was submitted.
type TimeLog struct {
	ID              int64
	WorkItemID      string
	WorkItemLabel   string
	ParentContextID string
	LoggerID        string
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int64
	Notes           string
	ManualEntry     bool
	Status          string
	Error           string
	RecordedAt      time.Time
}

type Setting struct {
	Key   string
	Value string
}

// LogFilter is used to filter journal rows in queries.
type LogFilter struct {
	ParentContextID string
	WorkItemID      string
	Status          string
	From            *time.Time
	To              *time.Time
	Limit           int
}

// DailyMinutes is logged time per project per day.
type DailyMinutes struct {
	Date            string
	ParentContextID string
	ProjectName     string
	ProjectColor    string
	Minutes         int64
	LogCount        int
}
