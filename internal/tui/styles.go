package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/store"
)

// Palette, named by what the color marks on screen.
var (
	colorBrand    = lipgloss.Color("#6C63FF")
	colorRunning  = lipgloss.Color("#2ECC71")
	colorReminder = lipgloss.Color("#F39C12")
	colorFailed   = lipgloss.Color("#E74C3C")
	colorLocal    = lipgloss.Color("#2EC4B6")
	colorText     = lipgloss.Color("#C0CAF5")
	colorDim      = lipgloss.Color("#666666")
	colorBorder   = lipgloss.Color("#414868")
	colorValue    = lipgloss.Color("#7AA2F7")
)

// Chrome
var (
	brandStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBrand)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorBrand).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 2)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	// The timer panel while a clock is ticking.
	activePanelStyle = panelStyle.BorderForeground(colorBrand)
)

// Timer clock, one style per timer state.
var (
	clockIdleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorBrand).Align(lipgloss.Center)
	clockRunningStyle  = clockIdleStyle.Foreground(colorRunning)
	clockReminderStyle = clockIdleStyle.Foreground(colorReminder)
)

// Text
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	hintStyle      = lipgloss.NewStyle().Foreground(colorDim)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorDim)
	highlightStyle = lipgloss.NewStyle().Foreground(colorValue)
	runningStyle   = lipgloss.NewStyle().Foreground(colorRunning)
	warningStyle   = lipgloss.NewStyle().Foreground(colorReminder)
	errorStyle     = lipgloss.NewStyle().Foreground(colorFailed)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorText)
)

// Dialog titles by dashboard form type.
var dialogTitles = map[string]lipgloss.Style{
	"notes":           titleStyle,
	"reminder":        warningStyle.Bold(true),
	"already_running": errorStyle.Bold(true),
}

func dialogTitle(formType, text string) string {
	style, ok := dialogTitles[formType]
	if !ok {
		style = titleStyle
	}
	return style.Render(text)
}

// Journal row markers by submission status.
var journalMarks = map[string]string{
	store.StatusSubmitted: lipgloss.NewStyle().Foreground(colorRunning).Render("✓"),
	store.StatusFailed:    lipgloss.NewStyle().Foreground(colorFailed).Render("✗"),
	store.StatusLocal:     lipgloss.NewStyle().Foreground(colorLocal).Render("◦"),
}

func statusIcon(status string) string {
	if m, ok := journalMarks[status]; ok {
		return m
	}
	return journalMarks[store.StatusLocal]
}

// projectDot renders the project's color swatch.
func projectDot(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
