package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/export"
	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	machine *worktimer.Machine
	events  <-chan worktimer.Event
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	loggingOut    bool

	dashboard dashboardModel
	catalog   catalogModel
	history   historyModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp builds the root model. It subscribes to m once; the
// subscription ends when m is closed.
func NewApp(s *store.Store, m *worktimer.Machine) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		machine:    m,
		events:     m.Subscribe(64),
		activeView: viewDashboard,
		dashboard:  newDashboardModel(s, m),
		catalog:    newCatalogModel(s, m.Identity()),
		history:    newHistoryModel(s),
		settings:   newSettingsModel(s, m),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		waitForEvent(a.events),
	)
}

// waitForEvent reads the next machine event. A closed channel ends the
// loop.
func waitForEvent(ch <-chan worktimer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return timerEventMsg(ev)
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.catalog.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.loggingOut {
			return a, nil
		}

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a.logout()
		case key.Matches(msg, keys.Quit):
			// The timer keeps running and is recovered on the next launch.
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewCatalog
			return a, a.catalog.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			if a.activeView == viewHistory {
				// History uses tab to switch chart modes.
				break
			}
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case timerEventMsg:
		return a.handleEvent(msg)

	case startRequestMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if a.dashboard.isRunning() {
			a.activeView = viewDashboard
		}
		return a, cmd

	case logoutDoneMsg:
		return a, tea.Quit

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case timerStoppedMsg:
		if msg.record == nil {
			a.setStatus("No timer running", false)
		}
		return a, tea.Batch(a.dashboard.loadData(), a.history.refresh())

	case timerStartedMsg:
		label := msg.timer.WorkItemLabel
		if label == "" {
			label = msg.timer.WorkItemID
		}
		a.setStatus("Timer started: "+label, false)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusError = isError
}

// handleEvent routes a machine event to the dashboard whatever view is
// active and re-arms the subscription.
func (a App) handleEvent(msg timerEventMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForEvent(a.events)}

	ev := worktimer.Event(msg)
	switch ev.Type {
	case worktimer.EventReminder:
		if a.dashboard.canTrack() && !a.loggingOut {
			a.activeView = viewDashboard
			a.exportPicking = false
		}
	case worktimer.EventRecovered:
		a.setStatus("Resumed timer: "+ev.Timer.WorkItemLabel, false)
	case worktimer.EventSubmitted:
		if ev.Record != nil {
			a.setStatus(fmt.Sprintf("Logged %s on %s", formatMinutes(ev.Record.DurationMinutes), recordLabel(ev.Record)), false)
		}
	case worktimer.EventSubmitFailed:
		a.setStatus(fmt.Sprintf("Time log not submitted: %v", ev.Err), true)
	}

	var cmd tea.Cmd
	a.dashboard, cmd = a.dashboard.update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// logout stops a running timer and waits for its submission before the
// program exits.
func (a App) logout() (tea.Model, tea.Cmd) {
	a.loggingOut = true
	a.setStatus("Logging out...", false)
	m := a.machine
	return a, func() tea.Msg {
		record := m.OnLogout(context.Background())
		return logoutDoneMsg{record: record}
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewCatalog:
		a.catalog, cmd = a.catalog.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive || a.dashboard.picking
	case viewCatalog:
		return a.catalog.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewCatalog:
		return a.catalog.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewCatalog:
		content = a.catalog.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := brandStyle.Render("jobtimer")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)
	right := a.dashboard.display.indicator() + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Time Logs")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	s := a.store
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		path, err := writeExport(s, home, format, time.Now())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

// writeExport writes the whole journal to dir as CSV (format 0) or
// JSON and returns the file path.
func writeExport(s *store.Store, dir string, format int, now time.Time) (string, error) {
	logs, err := s.ListTimeLogs(store.LogFilter{})
	if err != nil {
		return "", err
	}

	// Projects by code; logs of unknown projects export with the code.
	projects := make(map[string]*store.Project)
	looked := make(map[string]bool)
	for _, l := range logs {
		code := l.ParentContextID
		if code == "" || looked[code] {
			continue
		}
		looked[code] = true
		if p, err := s.GetProjectByCode(code); err == nil {
			projects[code] = p
		}
	}

	dateStr := now.Format("2006-01-02")
	if format == 0 {
		path := filepath.Join(dir, fmt.Sprintf("jobtimer-export-%s.csv", dateStr))
		if err := export.ToCSV(logs, projects, path); err != nil {
			return "", fmt.Errorf("csv: %w", err)
		}
		return path, nil
	}
	path := filepath.Join(dir, fmt.Sprintf("jobtimer-export-%s.json", dateStr))
	if err := export.ToJSON(logs, projects, path); err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return path, nil
}

func recordLabel(r *worktimer.TimeLogRecord) string {
	if r.WorkItemLabel != "" {
		return r.WorkItemLabel
	}
	return r.WorkItemID
}
