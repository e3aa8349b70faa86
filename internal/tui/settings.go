package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeblocks/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	defaultGoal *string
	reportDays  *string
}

func newSettingsModel(s *store.Store) settingsModel {
	dg, rd := "", ""
	return settingsModel{
		store:       s,
		defaultGoal: &dg,
		reportDays:  &rd,
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
	st := s.store
	return func() tea.Msg {
		settings, err := st.GetAllSettings()
		if err != nil {
			return errorStatus(err)
		}
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
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.defaultGoal = strconv.Itoa(s.store.GetSettingInt("default_goal_minute", 0))
	*s.reportDays = strconv.Itoa(reportDays(s.store))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default daily goal (min)").
				Description("Applied to each new day. 0 means no goal").
				Value(s.defaultGoal).
				Validate(intInRange(0, 24*60)),
			huh.NewInput().
				Title("Report window (days)").
				Value(s.reportDays).
				Validate(intInRange(1, maxReportDays)),
		).Title("General"),
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
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg { return errorStatus(err) }
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: "Settings saved"} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	if err := s.store.SetSetting("default_goal_minute", strings.TrimSpace(*s.defaultGoal)); err != nil {
		return err
	}
	return s.store.SetSetting("report_days", strings.TrimSpace(*s.reportDays))
}

func intInRange(lo, hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabels[setting.Key])
		if settingLabels[setting.Key] == "" {
			label = lipgloss.NewStyle().Width(24).Render(setting.Key)
		}
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

var settingLabels = map[string]string{
	"default_goal_minute": "Default daily goal",
	"report_days":         "Report window",
}

func formatSettingValue(k, v string) string {
	n, err := strconv.Atoi(v)
	if err != nil {
		return v
	}
	switch k {
	case "default_goal_minute":
		if n <= 0 {
			return "none"
		}
		return fmt.Sprintf("%d min", n)
	case "report_days":
		return fmt.Sprintf("%d days", n)
	}
	return v
}
