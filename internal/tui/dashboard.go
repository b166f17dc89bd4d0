package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

type dashboardModel struct {
	store   *store.Store
	machine *worktimer.Machine
	width   int
	height  int

	display timerDisplay

	todayMinutes int64
	todaySummary []store.DailyMinutes
	recentLogs   []store.TimeLog
	cards        []jobCard

	// Job card picker state
	picking      bool
	pickerCursor int

	formActive bool
	form       *huh.Form
	formType   string // "notes", "reminder", "already_running"

	// Form field pointers (survive value copies)
	formNotes *string
	formKeep  *bool

	reminderThreshold time.Duration
}

func newDashboardModel(s *store.Store, m *worktimer.Machine) dashboardModel {
	notes, keep := "", true
	d := dashboardModel{
		store:     s,
		machine:   m,
		formNotes: &notes,
		formKeep:  &keep,
	}
	d.display.identity = m.Identity()
	d.display.snapshot = m.Snapshot()
	return d
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) canTrack() bool { return d.display.identity.Role.CanTrackTime() }
func (d dashboardModel) isRunning() bool {
	return d.display.snapshot.Running()
}

type dashboardDataMsg struct {
	todayMinutes int64
	todaySummary []store.DailyMinutes
	recentLogs   []store.TimeLog
	cards        []jobCard
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		now := time.Now().UTC()
		total, _ := d.store.GetMinutesOn(now)

		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		summary, _ := d.store.GetDailyMinutes(dayStart, dayStart.Add(24*time.Hour))

		logs, _ := d.store.ListTimeLogs(store.LogFilter{Limit: 5})

		var cards []jobCard
		projects, _ := d.store.ListProjects(false)
		for _, p := range projects {
			items, _ := d.store.ListWorkItems(p.ID, false)
			for _, item := range items {
				cards = append(cards, jobCard{project: p, item: item})
			}
		}

		return dashboardDataMsg{
			todayMinutes: total,
			todaySummary: summary,
			recentLogs:   logs,
			cards:        cards,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			return d.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.todayMinutes = msg.todayMinutes
		d.todaySummary = msg.todaySummary
		d.recentLogs = msg.recentLogs
		d.cards = msg.cards
		if d.pickerCursor >= len(d.cards) {
			d.pickerCursor = max(0, len(d.cards)-1)
		}
		return d, nil

	case timerEventMsg:
		return d.handleEvent(worktimer.Event(msg))

	case startRequestMsg:
		return d.startTimer(msg.workItemID, msg.label, msg.parentContextID)

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if !d.canTrack() {
				return d, statusCmd("Time tracking is available to freelancers only", true)
			}
			if len(d.cards) == 0 {
				return d, statusCmd("No job cards yet. Press 2 to add one.", true)
			}
			if len(d.cards) == 1 {
				c := d.cards[0]
				return d.startTimer(c.item.Code, c.label(), c.project.Code)
			}
			d.picking = true
			return d, nil

		case key.Matches(msg, keys.Stop):
			if !d.isRunning() {
				return d, statusCmd("No timer running", false)
			}
			return d.showNotesForm()
		}
	}

	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}
	return d, nil
}

func (d dashboardModel) handleEvent(ev worktimer.Event) (dashboardModel, tea.Cmd) {
	d.display.snapshot = d.machine.Snapshot()

	switch ev.Type {
	case worktimer.EventStarted, worktimer.EventRecovered:
		d.display.reminder = false
	case worktimer.EventStopped:
		d.display.reminder = false
		if d.formActive && d.formType == "reminder" {
			d.formActive = false
			d.form = nil
		}
	case worktimer.EventReminder:
		d.display.reminder = true
		if !d.formActive && d.isRunning() {
			return d.showReminderForm(ev)
		}
	case worktimer.EventSubmitted, worktimer.EventSubmitFailed:
		return d, d.loadData()
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.cards)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor < len(d.cards) {
			c := d.cards[d.pickerCursor]
			return d.startTimer(c.item.Code, c.label(), c.project.Code)
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(workItemID, label, parentContextID string) (dashboardModel, tea.Cmd) {
	if !d.canTrack() {
		return d, statusCmd("Time tracking is available to freelancers only", true)
	}
	t, err := d.machine.Start(workItemID, label, parentContextID)
	if err != nil {
		var running *worktimer.AlreadyRunningError
		if errors.As(err, &running) {
			return d.showAlreadyRunning(running.Current)
		}
		return d, statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	d.display.snapshot = d.machine.Snapshot()
	return d, func() tea.Msg { return timerStartedMsg{timer: t} }
}

func (d dashboardModel) stopCmd(notes string) tea.Cmd {
	m := d.machine
	return func() tea.Msg {
		record := m.Stop(context.Background(), worktimer.StopOptions{Notes: notes})
		return timerStoppedMsg{record: record}
	}
}

func (d dashboardModel) showNotesForm() (dashboardModel, tea.Cmd) {
	*d.formNotes = ""
	d.formType = "notes"

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Notes (optional)").
				Description("What did you work on? Leave empty to use the default note.").
				CharLimit(500).
				Value(d.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) showReminderForm(ev worktimer.Event) (dashboardModel, tea.Cmd) {
	*d.formKeep = true
	d.formType = "reminder"
	d.reminderThreshold = ev.Threshold

	label := ev.Timer.WorkItemLabel
	if label == "" {
		label = ev.Timer.WorkItemID
	}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Still working on %s?", label)).
				Description(fmt.Sprintf("The timer has been running for %s.", formatMinutes(int64(ev.Threshold/time.Minute)))).
				Affirmative("Keep going").
				Negative("Stop now").
				Value(d.formKeep),
		),
	).WithShowHelp(true)

	d.formActive = true
	return d, d.form.Init()
}

// showAlreadyRunning blocks on a note until the user dismisses it.
func (d dashboardModel) showAlreadyRunning(current worktimer.ActiveTimer) (dashboardModel, tea.Cmd) {
	d.formType = "already_running"

	label := current.WorkItemLabel
	if label == "" {
		label = current.WorkItemID
	}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Stop the current timer first").
				Description(fmt.Sprintf("%s has been running since %s.\nPress x to stop it, then start the new job card.",
					label, current.StartedAt.Local().Format("15:04"))).
				Next(true).
				NextLabel("OK"),
		),
	).WithShowHelp(true)

	d.formActive = true
	return d, d.form.Init()
}

// reminderNote is the note of a stop confirmed from a reminder.
func (d dashboardModel) reminderNote() string {
	template, _ := d.store.GetSetting(store.SettingReminderNote)
	return worktimer.ReminderNote(template, d.reminderThreshold)
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		switch d.formType {
		case "notes":
			return d, d.stopCmd(strings.TrimSpace(*d.formNotes))
		case "reminder":
			if !*d.formKeep {
				return d, d.stopCmd(d.reminderNote())
			}
		}
		return d, nil
	}

	return d, cmd
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		text := "Stop Timer"
		switch d.formType {
		case "reminder":
			text = "Reminder"
		case "already_running":
			text = "Timer Already Running"
		}
		title := dialogTitle(d.formType, text)
		return lipgloss.JoinVertical(lipgloss.Left,
			d.renderTimerPanel(contentWidth),
			activePanelStyle.Width(contentWidth).Render(
				lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()),
			),
		)
	}

	timerPanel := d.renderTimerPanel(contentWidth)
	summaryPanel := d.renderSummaryPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderCardPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.display.visible() {
		return d.display.view(w)
	}

	if !d.canTrack() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			mutedStyle.Render("Time tracking is available to freelancers only"),
			mutedStyle.Render(fmt.Sprintf("Signed in as %s (%s)", d.display.identity.UserID, d.display.identity.Role)),
		)
		return panelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		clockIdleStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start tracking"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatMinutes(d.todayMinutes))
	header := fmt.Sprintf("%s  %s", title, total)

	if len(d.todaySummary) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("Nothing logged today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, s := range d.todaySummary {
		rows = append(rows, fmt.Sprintf("  %s %-20s %8s  (%d logs)",
			projectDot(s.ProjectColor),
			truncate(s.ProjectName, 20),
			formatMinutes(s.Minutes),
			s.LogCount,
		))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Time Logs")
	if len(d.recentLogs) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No time logged yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, l := range d.recentLogs {
		label := l.WorkItemLabel
		if label == "" {
			label = l.WorkItemID
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-20s %8s",
			statusIcon(l.Status),
			l.StartTime.Local().Format("Jan 02 15:04"),
			truncate(label, 20),
			formatMinutes(l.DurationMinutes),
		))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderCardPicker(w int) string {
	title := titleStyle.Render("Select Job Card")

	var rows []string
	rows = append(rows, title)
	for i, c := range d.cards {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, projectDot(c.project.Color), c.item.Title))+
			mutedStyle.Render(" · "+c.project.Name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: start  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}
