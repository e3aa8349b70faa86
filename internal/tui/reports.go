package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

const (
	defaultReportDays = 7
	maxReportDays     = 31
)

type reportsModel struct {
	tracker *tracker.Tracker
	store   *store.Store
	lang    timefmt.Locale
	width   int
	height  int

	days      int
	offset    int // windows back from today (0 = current)
	summaries []tracker.DaySummary

	chart barchart.Model
}

func newReportsModel(tr *tracker.Tracker, s *store.Store, lang timefmt.Locale) reportsModel {
	return reportsModel{
		tracker: tr,
		store:   s,
		lang:    lang,
		days:    defaultReportDays,
		chart:   barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days      int
	offset    int
	summaries []tracker.DaySummary
}

// reportDays reads the window length setting, clamped to [1, maxReportDays].
func reportDays(s *store.Store) int {
	n := s.GetSettingInt("report_days", defaultReportDays)
	return max(1, min(n, maxReportDays))
}

func (r reportsModel) refresh() tea.Cmd {
	tr, s, offset := r.tracker, r.store, r.offset
	return func() tea.Msg {
		days := reportDays(s)
		from, to := windowRange(tr, days, offset)
		summaries, err := tr.Summaries(tr.DateKey(from), tr.DateKey(to))
		if err != nil {
			return errorStatus(err)
		}
		return reportsDataMsg{days: days, offset: offset, summaries: summaries}
	}
}

// windowRange returns the first and last day of the window, both inclusive.
func windowRange(tr *tracker.Tracker, days, offset int) (time.Time, time.Time) {
	today, _ := tr.ParseDate(tr.Today())
	end := today.AddDate(0, 0, -days*offset)
	return end.AddDate(0, 0, 1-days), end
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	return windowRange(r.tracker, r.days, r.offset)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.offset != r.offset {
			return r, nil
		}
		r.days = msg.days
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Today):
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]tracker.DaySummary, len(r.summaries))
	for _, s := range r.summaries {
		byDate[s.Date] = s
	}

	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		var values []barchart.BarValue
		for _, b := range byDate[r.tracker.DateKey(d)].Blocks {
			values = append(values, barchart.BarValue{
				Name:  b.Name,
				Value: b.Total.Hours(),
				Style: blockDotStyle(b.Name),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// blockTotal is one line of the summary table.
type blockTotal struct {
	name  string
	total time.Duration
	count int
}

// totals merges the window's per-day summaries by block name, longest first.
func (r reportsModel) totals() ([]blockTotal, time.Duration) {
	index := make(map[string]int)
	var out []blockTotal
	var sum time.Duration
	for _, ds := range r.summaries {
		sum += ds.Total
		for _, b := range ds.Blocks {
			i, ok := index[b.Name]
			if !ok {
				i = len(out)
				index[b.Name] = i
				out = append(out, blockTotal{name: b.Name})
			}
			out[i].total += b.Total
			out[i].count += b.Count
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].total > out[j].total })
	return out, sum
}

// goalsMet counts the days in the window that reached their goal.
func (r reportsModel) goalsMet() (met, withGoal int) {
	for _, ds := range r.summaries {
		if ds.GoalMinute == nil {
			continue
		}
		withGoal++
		if ds.Total >= time.Duration(*ds.GoalMinute)*time.Minute {
			met++
		}
	}
	return met, withGoal
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s",
		timefmt.DayTitle(from, r.lang), timefmt.DayTitle(to, r.lang)))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: previous/next window  t: current window")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	totals, sum := r.totals()
	if len(totals) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %12s %8s", "Block", "Duration", "Blocks")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 44)))))

	for _, t := range totals {
		dot := blockDotStyle(t.name).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-20s %12s %8d",
			dot, t.name, timefmt.Span(t.total, r.lang, false), t.count))
	}

	footer := fmt.Sprintf("  %-22s %12s", "Total", highlightStyle.Render(timefmt.Span(sum, r.lang, false)))
	if met, withGoal := r.goalsMet(); withGoal > 0 {
		footer += mutedStyle.Render(fmt.Sprintf("   goal met %d/%d days", met, withGoal))
	}
	rows = append(rows, footer)

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	totals, _ := r.totals()
	var items []string
	for _, t := range totals {
		dot := blockDotStyle(t.name).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, t.name))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
