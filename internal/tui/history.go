package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/store"
)

type historyMode int

const (
	historyDaily historyMode = iota
	historyWeekly
)

// historyModel charts logged minutes per day and lists the journal.
type historyModel struct {
	store  *store.Store
	width  int
	height int

	mode    historyMode
	minutes []store.DailyMinutes
	logs    []store.TimeLog
	counts  map[string]int
	offset  int // weeks or 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newHistoryModel(s *store.Store) historyModel {
	return historyModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	minutes []store.DailyMinutes
	logs    []store.TimeLog
	counts  map[string]int
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := h.dateRange()
		minutes, _ := h.store.GetDailyMinutes(from, to)
		logs, _ := h.store.ListTimeLogs(store.LogFilter{From: &from, To: &to, Limit: 8})
		counts, _ := h.store.CountByStatus()
		return historyDataMsg{minutes: minutes, logs: logs, counts: counts}
	}
}

func (h historyModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch h.mode {
	case historyWeekly:
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*h.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-7*h.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.minutes = msg.minutes
		h.logs = msg.logs
		h.counts = msg.counts
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Tab):
			if h.mode == historyDaily {
				h.mode = historyWeekly
			} else {
				h.mode = historyDaily
			}
			h.offset = 0
			return h, h.refresh()
		}
	}
	return h, nil
}

func (h *historyModel) buildChart() {
	chartWidth := max(h.width-8, 20)
	chartHeight := 10
	if h.height > 36 {
		chartHeight = 14
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	from, to := h.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		var values []barchart.BarValue
		for _, m := range h.minutes {
			if m.Date != dateStr {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  m.ProjectName,
				Value: float64(m.Minutes) / 60,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(m.ProjectColor)),
			})
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorBorder)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) totalMinutes() int64 {
	var total int64
	for _, m := range h.minutes {
		total += m.Minutes
	}
	return total
}

func (h historyModel) view() string {
	w := h.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if h.mode == historyDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))
	total := highlightStyle.Render(formatHours(h.totalMinutes()))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", modeTabs, "  ", dateLabel, "  ", total,
	)

	nav := mutedStyle.Render("  ←/→: navigate  tab: switch mode  e: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			h.chart.View(), "",
			h.renderLegend(), "",
			h.renderSummaryTable(w), "",
			h.renderJournal(w), "",
			nav,
		),
	)
}

func (h historyModel) renderSummaryTable(w int) string {
	if len(h.minutes) == 0 {
		return mutedStyle.Render("  No time logged in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %6s", "Date", "Project", "Logged", "Logs")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 52))))

	for _, m := range h.minutes {
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %6d",
			m.Date, projectDot(m.ProjectColor), truncate(m.ProjectName, 18), formatMinutes(m.Minutes), m.LogCount,
		))
	}

	return strings.Join(rows, "\n")
}

// renderJournal lists recent time logs with their submission outcome.
func (h historyModel) renderJournal(w int) string {
	title := titleStyle.Render("Journal")
	counts := mutedStyle.Render(fmt.Sprintf("  %d submitted  %d failed  %d local",
		h.counts[store.StatusSubmitted], h.counts[store.StatusFailed], h.counts[store.StatusLocal]))

	if len(h.logs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title+counts, mutedStyle.Render("  No entries"))
	}

	rows := []string{title + counts}
	for _, l := range h.logs {
		label := l.WorkItemLabel
		if label == "" {
			label = l.WorkItemID
		}
		row := fmt.Sprintf("  %s %s  %-20s %8s  %s",
			statusIcon(l.Status),
			l.StartTime.Local().Format("Jan 02 15:04"),
			truncate(label, 20),
			formatMinutes(l.DurationMinutes),
			mutedStyle.Render(truncate(l.Notes, max(w-56, 8))),
		)
		rows = append(rows, row)
		if l.Status == store.StatusFailed && l.Error != "" {
			rows = append(rows, errorStyle.Render("      "+truncate(l.Error, max(w-10, 10))))
		}
	}
	return strings.Join(rows, "\n")
}

func (h historyModel) renderLegend() string {
	seen := make(map[string]bool)
	var items []string
	for _, m := range h.minutes {
		if seen[m.ParentContextID] {
			continue
		}
		seen[m.ParentContextID] = true
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(m.ProjectColor)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, m.ProjectName))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
