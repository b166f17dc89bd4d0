package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/config"
	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

var settingLabels = map[string]string{
	store.SettingReminderMinutes: "Reminders (minutes)",
	store.SettingStopNote:        "Default stop note",
	store.SettingLogoutNote:      "Logout note",
	store.SettingReminderNote:    "Reminder stop note",
}

type settingsModel struct {
	store   *store.Store
	machine *worktimer.Machine
	width   int
	height  int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	reminders    *string
	stopNote     *string
	logoutNote   *string
	reminderNote *string
}

func newSettingsModel(s *store.Store, m *worktimer.Machine) settingsModel {
	r, sn, ln, rn := "", "", "", ""
	return settingsModel{
		store:        s,
		machine:      m,
		reminders:    &r,
		stopNote:     &sn,
		logoutNote:   &ln,
		reminderNote: &rn,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.reminders = config.FormatMinutes(s.machine.Thresholds())
	*s.stopNote = s.getVal(store.SettingStopNote, "")
	*s.logoutNote = s.getVal(store.SettingLogoutNote, worktimer.DefaultAutoStopNote)
	*s.reminderNote = s.getVal(store.SettingReminderNote, worktimer.DefaultReminderNote)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reminders (minutes)").
				Description("Comma separated, e.g. 60,120. Empty disables reminders.").
				Validate(func(v string) error {
					_, err := config.ParseMinutes(v)
					return err
				}).
				Value(s.reminders),
			huh.NewInput().
				Title("Reminder stop note").
				Description("Used when a reminder is answered with Stop now; %s is the reminder time").
				Value(s.reminderNote),
		).Title("Reminders"),
		huh.NewGroup(
			huh.NewInput().
				Title("Default stop note").
				Description("Used when a timer is stopped without notes").
				Value(s.stopNote),
			huh.NewInput().
				Title("Logout note").
				Description("Used when logging out stops the timer").
				Value(s.logoutNote),
		).Title("Notes"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.save(); err != nil {
			return s, tea.Batch(s.refresh(), statusCmd(fmt.Sprintf("Error: %v", err), true))
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved", false))
	}

	return s, cmd
}

// save writes the form values and applies them to the running machine.
func (s settingsModel) save() error {
	thresholds, err := config.ParseMinutes(*s.reminders)
	if err != nil {
		return err
	}
	stopNote := strings.TrimSpace(*s.stopNote)
	logoutNote := strings.TrimSpace(*s.logoutNote)
	reminderNote := strings.TrimSpace(*s.reminderNote)

	values := []struct{ key, value string }{
		{store.SettingReminderMinutes, config.FormatMinutes(thresholds)},
		{store.SettingStopNote, stopNote},
		{store.SettingLogoutNote, logoutNote},
		{store.SettingReminderNote, reminderNote},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	s.machine.SetThresholds(thresholds)
	s.machine.SetNotes(stopNote, logoutNote)
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	id := s.machine.Identity()
	rows = append(rows, fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(24).Render("Signed in as"),
		highlightStyle.Render(fmt.Sprintf("%s (%s)", id.UserID, id.Role)),
	))
	rows = append(rows, fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(24).Render("Active reminders"),
		highlightStyle.Render(formatThresholds(s.machine.Thresholds())),
	))
	rows = append(rows, "")

	for _, setting := range s.settings {
		name, ok := settingLabels[setting.Key]
		if !ok {
			name = setting.Key
		}
		label := lipgloss.NewStyle().Width(24).Render(name)
		value := setting.Value
		if value == "" {
			value = mutedStyle.Render("(none)")
		} else {
			value = highlightStyle.Render(value)
		}
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatThresholds(ds []time.Duration) string {
	if len(ds) == 0 {
		return "off"
	}
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, formatMinutes(int64(d/time.Minute)))
	}
	return strings.Join(parts, ", ")
}
