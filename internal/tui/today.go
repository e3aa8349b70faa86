package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

// todayModel shows one day at a time. Only today accepts new blocks; other
// dates are read-only.
type todayModel struct {
	tracker *tracker.Tracker
	lang    timefmt.Locale
	width   int
	height  int

	date   string
	day    *store.Day
	blocks []store.TimeBlock
	cursor int
	timer  lapTimerModel

	formActive bool
	form       *huh.Form
	formType   string // "new", "day_memo", "goal", "delete"

	// Form field pointers (survive value copies)
	formText    *string
	formConfirm *bool
}

func newTodayModel(tr *tracker.Tracker, lang timefmt.Locale) todayModel {
	text, confirm := "", false
	return todayModel{
		tracker:     tr,
		lang:        lang,
		date:        tr.Today(),
		timer:       newLapTimerModel(tr),
		formText:    &text,
		formConfirm: &confirm,
	}
}

func (d todayModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d todayModel) isRunning() bool { return d.timer.running() }

func (d todayModel) elapsed() time.Duration { return d.timer.blockElapsed() }

func (d todayModel) viewingToday() bool { return d.date == d.tracker.Today() }

type todayDataMsg struct {
	date   string
	day    *store.Day
	blocks []store.TimeBlock
}

// loadData reads the selected date. Selecting today creates its Day.
func (d todayModel) loadData() tea.Cmd {
	tr, date := d.tracker, d.date
	return func() tea.Msg {
		ts, err := tr.ParseDate(date)
		if err != nil {
			return errorStatus(err)
		}
		day, err := tr.EnsureToday(ts)
		if err != nil {
			return errorStatus(err)
		}
		blocks, err := tr.Blocks(day)
		if err != nil {
			return errorStatus(err)
		}
		return todayDataMsg{date: date, day: day, blocks: blocks}
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	// Data and ticks apply even while a form is open.
	switch msg := msg.(type) {
	case todayDataMsg:
		if msg.date != d.date {
			return d, nil
		}
		d.day = msg.day
		d.blocks = msg.blocks
		if d.cursor >= len(d.blocks) {
			d.cursor = max(0, len(d.blocks)-1)
		}
		if err := d.timer.load(d.day); err != nil {
			return d, func() tea.Msg { return errorStatus(err) }
		}
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil
	}

	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Left):
			return d.shiftDate(-1)
		case key.Matches(msg, keys.Right):
			return d.shiftDate(1)
		case key.Matches(msg, keys.Today):
			d.date = d.tracker.Today()
			d.cursor = 0
			return d, d.loadData()
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.blocks)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if b, ok := d.selected(); ok {
				return d, func() tea.Msg { return openDetailMsg{block: b} }
			}
		case key.Matches(msg, keys.New):
			return d.showNewBlockForm()
		case key.Matches(msg, keys.Lap):
			return d.lap()
		case key.Matches(msg, keys.End):
			return d.end()
		case key.Matches(msg, keys.Delete):
			return d.showDeleteForm()
		case key.Matches(msg, keys.Memo):
			return d.showDayMemoForm()
		case key.Matches(msg, keys.Goal):
			return d.showGoalForm()
		}
	}
	return d, nil
}

func (d todayModel) shiftDate(days int) (todayModel, tea.Cmd) {
	ts, err := d.tracker.ParseDate(d.date)
	if err != nil {
		return d, func() tea.Msg { return errorStatus(err) }
	}
	d.date = d.tracker.DateKey(ts.AddDate(0, 0, days))
	d.cursor = 0
	d.day, d.blocks = nil, nil
	return d, d.loadData()
}

func (d todayModel) selected() (store.TimeBlock, bool) {
	if d.cursor < 0 || d.cursor >= len(d.blocks) {
		return store.TimeBlock{}, false
	}
	return d.blocks[d.cursor], true
}

func (d todayModel) lap() (todayModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	if err := d.timer.nextLap(); err != nil {
		return d, func() tea.Msg { return errorStatus(err) }
	}
	name := d.timer.lap.Name
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return statusMsg{text: "Lap: " + name} },
	)
}

func (d todayModel) end() (todayModel, tea.Cmd) {
	ended, err := d.timer.end()
	if err != nil {
		return d, func() tea.Msg { return errorStatus(err) }
	}
	if ended == nil {
		return d, nil
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return statusMsg{text: "Ended " + ended.Name} },
	)
}

func (d todayModel) showNewBlockForm() (todayModel, tea.Cmd) {
	if !d.viewingToday() || d.day == nil {
		return d, func() tea.Msg {
			return statusMsg{text: "Blocks can only be started today. Press t to jump to today.", isError: true}
		}
	}
	if d.timer.running() {
		return d, func() tea.Msg {
			return statusMsg{text: "End the running block first (x).", isError: true}
		}
	}
	*d.formText = ""
	d.formType = "new"
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Block name").Value(d.formText).Validate(requireName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) showDeleteForm() (todayModel, tea.Cmd) {
	b, ok := d.selected()
	if !ok {
		return d, nil
	}
	*d.formConfirm = false
	d.formType = "delete"
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q and all of its laps?", b.Name)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(d.formConfirm),
		),
	).WithShowHelp(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) showDayMemoForm() (todayModel, tea.Cmd) {
	if d.day == nil {
		return d, nil
	}
	*d.formText = d.day.Memo
	d.formType = "day_memo"
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Memo for " + d.day.Date).Value(d.formText),
		),
	).WithShowHelp(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) showGoalForm() (todayModel, tea.Cmd) {
	if d.day == nil {
		return d, nil
	}
	*d.formText = ""
	if d.day.GoalMinute != nil {
		*d.formText = strconv.Itoa(*d.day.GoalMinute)
	}
	d.formType = "goal"
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal (minutes)").
				Description("Leave empty to clear").
				Value(d.formText).
				Validate(validateMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) updateForm(msg tea.Msg) (todayModel, tea.Cmd) {
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
		return d.submitForm()
	}
	return d, cmd
}

func (d todayModel) submitForm() (todayModel, tea.Cmd) {
	d.formActive = false
	d.form = nil

	var err error
	switch d.formType {
	case "new":
		err = d.timer.start(d.day, *d.formText)
	case "delete":
		if b, ok := d.selected(); ok && *d.formConfirm {
			_, err = d.tracker.DeleteBlock(&b)
		}
	case "day_memo":
		err = d.tracker.SetDayMemo(d.day, *d.formText)
	case "goal":
		var minutes *int
		minutes, err = parseGoal(*d.formText)
		if err == nil {
			err = d.tracker.SetGoal(d.day, minutes)
		}
	}
	if err != nil {
		return d, func() tea.Msg { return errorStatus(err) }
	}
	return d, d.loadData()
}

func requireName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func validateMinutes(s string) error {
	_, err := parseGoal(s)
	return err
}

// parseGoal reads a goal in minutes; empty input clears the goal.
func parseGoal(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return nil, errors.New("enter a positive number of minutes")
	}
	return &n, nil
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		title := titleStyle.Render(formTitles[d.formType])
		return panelStyle.Width(contentWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderDayPanel(contentWidth),
		d.renderBlocksPanel(contentWidth),
	)
}

var formTitles = map[string]string{
	"new":      "New Block",
	"delete":   "Delete Block",
	"day_memo": "Day Memo",
	"goal":     "Daily Goal",
}

func (d todayModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(d.timer.blockElapsed()))
		indicator := successStyle.Render("●  " + d.timer.block.Name)
		lapLine := mutedStyle.Render("no lap")
		if d.timer.lap != nil {
			lapLine = highlightStyle.Render(d.timer.lap.Name) + "  " +
				mutedStyle.Render(timefmt.Span(d.timer.lapElapsed(), d.lang, true))
		}
		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, lapLine)
		return activePanelStyle.Width(w).Render(content)
	}

	hint := "Press n to start a block"
	if !d.viewingToday() {
		hint = "Read-only day. Press t to jump to today"
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  IDLE"),
		mutedStyle.Render(hint),
	)
	return panelStyle.Width(w).Render(content)
}

func (d todayModel) renderDayPanel(w int) string {
	ts, _ := d.tracker.ParseDate(d.date)
	title := titleStyle.Render(timefmt.DayTitle(ts, d.lang)) + mutedStyle.Render("  "+d.date)
	if d.viewingToday() {
		title += "  " + accentStyle.Render("today")
	}

	if d.day == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No record for this day"),
		))
	}

	now := d.tracker.Now()
	var total time.Duration
	for i := range d.blocks {
		total += tracker.Elapsed(&d.blocks[i], now)
	}
	line := "Total " + highlightStyle.Render(timefmt.Span(total, d.lang, false))
	if d.day.GoalMinute != nil {
		goal := time.Duration(*d.day.GoalMinute) * time.Minute
		pct := int(100 * total / goal)
		style := goalPendingStyle
		if total >= goal {
			style = goalMetStyle
		}
		line += "  goal " + timefmt.Span(goal, d.lang, false) + " " + style.Render(fmt.Sprintf("(%d%%)", pct))
	}

	rows := []string{title, line}
	if d.day.Memo != "" {
		rows = append(rows, mutedStyle.Render(d.day.Memo))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d todayModel) renderBlocksPanel(w int) string {
	title := titleStyle.Render("Blocks")
	if len(d.blocks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No blocks"),
		))
	}

	now := d.tracker.Now()
	loc := d.tracker.Location()
	rows := []string{title}
	for i, b := range d.blocks {
		cursor := "  "
		style := normalItemStyle
		if i == d.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := blockDotStyle(b.Name).Render("●")
		end := "now"
		if b.EndTime != nil {
			end = timefmt.Clock(b.EndTime.In(loc), d.lang)
		}
		span := timefmt.Span(tracker.Elapsed(&b, now), d.lang, false)
		row := fmt.Sprintf("%s%s %s  %s - %s  %s",
			cursor, dot, style.Render(fmt.Sprintf("%-20s", b.Name)),
			timefmt.Clock(b.StartTime.In(loc), d.lang), end, span)
		rows = append(rows, row)
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: laps  n: new  space: lap  x: end  d: delete  m: memo  g: goal  ←/→: day"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
