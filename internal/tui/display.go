package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/worktimer"
)

// timerDisplay renders the running timer. It shows nothing when the
// machine is idle or when the session may not track time.
type timerDisplay struct {
	identity worktimer.Identity
	snapshot worktimer.Snapshot
	reminder bool
}

func (d timerDisplay) visible() bool {
	return d.identity.Role.CanTrackTime() && d.snapshot.Running()
}

func (d timerDisplay) clock() string {
	return worktimer.FormatElapsed(time.Duration(d.snapshot.ElapsedSeconds) * time.Second)
}

// view renders the large timer panel.
func (d timerDisplay) view(w int) string {
	if !d.visible() {
		return ""
	}

	style := clockRunningStyle
	indicator := runningStyle.Render("●  RUNNING")
	if d.reminder {
		style = clockReminderStyle
		indicator = warningStyle.Render("●  STILL RUNNING")
	}

	t := d.snapshot.Timer
	label := highlightStyle.Render(t.WorkItemLabel)
	if t.WorkItemLabel == "" {
		label = highlightStyle.Render(t.WorkItemID)
	}
	if t.ParentContextID != "" {
		label += mutedStyle.Render(" · " + t.ParentContextID)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		style.Width(w-6).Render(d.clock()),
		indicator,
		label,
		hintStyle.Render("x: stop and log time"),
	)
	return activePanelStyle.Width(w).Render(content)
}

// indicator renders the one-line footer form.
func (d timerDisplay) indicator() string {
	if !d.visible() {
		return ""
	}
	label := truncate(d.snapshot.Timer.WorkItemLabel, 20)
	if d.reminder {
		return warningStyle.Render(" ● " + d.clock() + " " + label)
	}
	return runningStyle.Render(" ● " + d.clock() + " " + label)
}
