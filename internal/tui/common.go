package tui

import (
	"fmt"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewCatalog
	viewHistory
	viewSettings
)

var viewNames = []string{"Dashboard", "Job Cards", "History", "Settings"}

// --- Messages ---

// timerEventMsg carries one event from the timer machine.
type timerEventMsg worktimer.Event

// startRequestMsg asks the dashboard to start a timer for a job card.
type startRequestMsg struct {
	workItemID      string
	label           string
	parentContextID string
}

type timerStartedMsg struct {
	timer worktimer.ActiveTimer
}

type timerStoppedMsg struct {
	record *worktimer.TimeLogRecord
}

type logoutDoneMsg struct {
	record *worktimer.TimeLogRecord
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// jobCard is a work item with the project it belongs to.
type jobCard struct {
	project store.Project
	item    store.WorkItem
}

func (c jobCard) label() string {
	return c.item.Title
}

// --- Helpers ---

// formatMinutes renders minutes as "1h 05m", or "45m" under an hour.
func formatMinutes(mins int64) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

func formatHours(mins int64) string {
	return fmt.Sprintf("%.1fh", float64(mins)/60)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
