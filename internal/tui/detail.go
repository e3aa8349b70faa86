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
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

// detailModel shows one root block and its laps. Row 0 is the block
// itself; rows 1.. are laps.
type detailModel struct {
	tracker *tracker.Tracker
	lang    timefmt.Locale
	width   int
	height  int

	block  *store.TimeBlock
	laps   []store.TimeBlock
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "rename", "memo"
	formTarget store.TimeBlock

	formText *string
}

func newDetailModel(tr *tracker.Tracker, lang timefmt.Locale) detailModel {
	text := ""
	return detailModel{tracker: tr, lang: lang, formText: &text}
}

func (m *detailModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type detailDataMsg struct {
	id    int64
	block *store.TimeBlock
	laps  []store.TimeBlock
}

func (m detailModel) open(b store.TimeBlock) (detailModel, tea.Cmd) {
	m.block = &b
	m.laps = nil
	m.cursor = 0
	m.formActive = false
	return m, m.refresh()
}

func (m detailModel) refresh() tea.Cmd {
	if m.block == nil {
		return nil
	}
	tr, id := m.tracker, m.block.ID
	return func() tea.Msg {
		b, err := tr.Block(id)
		if errors.Is(err, tracker.ErrNotFound) {
			return detailDataMsg{id: id}
		}
		if err != nil {
			return errorStatus(err)
		}
		laps, err := tr.Laps(b)
		if err != nil {
			return errorStatus(err)
		}
		return detailDataMsg{id: id, block: b, laps: laps}
	}
}

func (m detailModel) update(msg tea.Msg) (detailModel, tea.Cmd) {
	if msg, ok := msg.(detailDataMsg); ok {
		if m.block == nil || msg.id != m.block.ID {
			return m, nil
		}
		m.block = msg.block
		m.laps = msg.laps
		if m.cursor > len(m.laps) {
			m.cursor = len(m.laps)
		}
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.block == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.laps) {
				m.cursor++
			}
		case key.Matches(msg, keys.Lap):
			if tracker.IsRunning(m.block) {
				if _, err := m.tracker.Lap(m.block); err != nil {
					return m, func() tea.Msg { return errorStatus(err) }
				}
				return m, m.refresh()
			}
		case key.Matches(msg, keys.End):
			if tracker.IsRunning(m.block) {
				if err := m.tracker.EndBlock(m.block); err != nil {
					return m, func() tea.Msg { return errorStatus(err) }
				}
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Rename):
			return m.showForm("rename")
		case key.Matches(msg, keys.Memo):
			return m.showForm("memo")
		}
	}
	return m, nil
}

func (m detailModel) selected() store.TimeBlock {
	if m.cursor == 0 || m.cursor > len(m.laps) {
		return *m.block
	}
	return m.laps[m.cursor-1]
}

func (m detailModel) showForm(kind string) (detailModel, tea.Cmd) {
	m.formTarget = m.selected()
	m.formType = kind

	var field huh.Field
	switch kind {
	case "rename":
		*m.formText = m.formTarget.Name
		field = huh.NewInput().Title("Name").Value(m.formText).Validate(requireName)
	default:
		*m.formText = m.formTarget.Memo
		field = huh.NewText().Title("Memo for " + m.formTarget.Name).Value(m.formText)
	}
	m.form = huh.NewForm(huh.NewGroup(field)).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m detailModel) updateForm(msg tea.Msg) (detailModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submitForm()
	}
	return m, cmd
}

func (m detailModel) submitForm() (detailModel, tea.Cmd) {
	m.formActive = false
	m.form = nil

	var err error
	switch m.formType {
	case "rename":
		err = m.tracker.Rename(&m.formTarget, *m.formText)
	case "memo":
		err = m.tracker.SetMemo(&m.formTarget, *m.formText)
	}
	if err != nil {
		return m, func() tea.Msg { return errorStatus(err) }
	}
	return m, m.refresh()
}

func (m detailModel) view() string {
	w := m.width - 4

	if m.block == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Detail"),
			mutedStyle.Render("Select a block in Today and press enter"),
		))
	}

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Rename")
		if m.formType == "memo" {
			title = titleStyle.Render("Memo")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	now := m.tracker.Now()
	b := m.block

	dot := blockDotStyle(b.Name).Render("●")
	state := mutedStyle.Render("ended")
	if tracker.IsRunning(b) {
		state = successStyle.Render("running")
	}
	header := fmt.Sprintf("%s %s  %s  %s",
		dot, titleStyle.Render(b.Name), state,
		highlightStyle.Render(timefmt.Span(tracker.Elapsed(b, now), m.lang, true)))

	var rows []string
	rows = append(rows, m.row(0, header))
	rows = append(rows, mutedStyle.Render("    "+m.timeRange(b)))
	if b.Memo != "" {
		rows = append(rows, mutedStyle.Render("    "+b.Memo))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-4s %-16s %-20s %10s", "#", "Lap", "Time", "Duration")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 54)))))

	for i, l := range m.laps {
		line := fmt.Sprintf("%-16s %-20s %10s",
			l.Name, m.timeRange(&l), timefmt.Span(tracker.Elapsed(&l, now), m.lang, true))
		if tracker.IsRunning(&l) {
			line = runningLapStyle.Render(line)
		}
		rows = append(rows, m.row(i+1, lapIndexStyle.Render(strconv.Itoa(i+1))+" "+line))
		if l.Memo != "" {
			rows = append(rows, lapMemoStyle.Render(l.Memo))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  r: rename  m: memo  space: lap  x: end  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m detailModel) row(i int, s string) string {
	if i == m.cursor {
		return selectedItemStyle.Render("> ") + s
	}
	return "  " + s
}

func (m detailModel) timeRange(b *store.TimeBlock) string {
	loc := m.tracker.Location()
	end := "now"
	if b.EndTime != nil {
		end = timefmt.Clock(b.EndTime.In(loc), m.lang)
	}
	return timefmt.Clock(b.StartTime.In(loc), m.lang) + " - " + end
}
