package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestTracker(t *testing.T) (*tracker.Tracker, *store.Store, *testClock) {
	t.Helper()
	s := newTestStore(t)
	clock := &testClock{now: t0}
	tr := tracker.New(s, tracker.Options{Clock: clock, Location: time.UTC})
	return tr, s, clock
}

func ensureToday(t *testing.T, tr *tracker.Tracker) *store.Day {
	t.Helper()
	day, err := tr.EnsureToday(tr.Now())
	if err != nil || day == nil {
		t.Fatalf("ensure today: %v", err)
	}
	return day
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// loadedToday returns a today model that has applied its first load.
func loadedToday(t *testing.T, tr *tracker.Tracker) todayModel {
	t.Helper()
	m := newTodayModel(tr, timefmt.English)
	m.setSize(120, 40)
	return applyToday(t, m, m.loadData())
}

func applyToday(t *testing.T, m todayModel, cmd tea.Cmd) todayModel {
	t.Helper()
	msg := cmd()
	if st, ok := msg.(statusMsg); ok && st.isError {
		t.Fatalf("load failed: %s", st.text)
	}
	m, _ = m.update(msg)
	return m
}

// ============================================================
// Lap timer
// ============================================================

func TestLapTimerStartLapEnd(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	day := ensureToday(t, tr)

	tm := newLapTimerModel(tr)
	if tm.running() {
		t.Fatal("timer should start idle")
	}

	if err := tm.start(day, "Chess"); err != nil {
		t.Fatal(err)
	}
	if !tm.running() || tm.block.Name != "Chess" {
		t.Fatalf("block not running: %+v", tm.block)
	}
	if tm.lap == nil || tm.lap.Name != "1번째 판" {
		t.Fatalf("first lap = %+v", tm.lap)
	}

	clock.advance(10 * time.Minute)
	if err := tm.nextLap(); err != nil {
		t.Fatal(err)
	}
	if tm.lap.Name != "2번째 판" {
		t.Fatalf("second lap = %q", tm.lap.Name)
	}

	clock.advance(5 * time.Minute)
	tm.tick()
	if got := tm.blockElapsed(); got != 15*time.Minute {
		t.Fatalf("block elapsed = %v", got)
	}
	if got := tm.lapElapsed(); got != 5*time.Minute {
		t.Fatalf("lap elapsed = %v", got)
	}

	ended, err := tm.end()
	if err != nil {
		t.Fatal(err)
	}
	if ended == nil || ended.Name != "Chess" {
		t.Fatalf("ended = %+v", ended)
	}
	if tm.running() {
		t.Fatal("timer should be idle after end")
	}
	if tm.blockElapsed() != 0 || tm.lapElapsed() != 0 {
		t.Fatal("idle timer should report zero")
	}
}

func TestLapTimerIdleOperations(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tm := newLapTimerModel(tr)

	if err := tm.nextLap(); err != nil {
		t.Fatal(err)
	}
	ended, err := tm.end()
	if err != nil {
		t.Fatal(err)
	}
	if ended != nil {
		t.Fatal("end on idle timer should return nil")
	}
}

func TestLapTimerLoadPicksUpRunningBlock(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	day := ensureToday(t, tr)
	b, err := tr.StartBlock(day, "Reading")
	if err != nil {
		t.Fatal(err)
	}
	clock.advance(time.Minute)
	if _, err := tr.Lap(b); err != nil {
		t.Fatal(err)
	}

	tm := newLapTimerModel(tr)
	if err := tm.load(day); err != nil {
		t.Fatal(err)
	}
	if !tm.running() || tm.block.ID != b.ID {
		t.Fatal("load should pick up the running block")
	}
	if tm.lap == nil || tm.lap.Name != "2번째 판" {
		t.Fatalf("current lap = %+v", tm.lap)
	}
}

func TestLapTimerLoadIgnoresOtherDays(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	day := ensureToday(t, tr)
	if _, err := tr.StartBlock(day, "Late"); err != nil {
		t.Fatal(err)
	}
	clock.advance(24 * time.Hour)

	tm := newLapTimerModel(tr)
	if err := tm.load(day); err != nil {
		t.Fatal(err)
	}
	if tm.running() {
		t.Fatal("yesterday's block should not drive the timer")
	}
	if err := tm.load(nil); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute + 5*time.Second, "00:01:05"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
		{-time.Minute, "00:00:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestBlockColorStable(t *testing.T) {
	if blockColor("Chess") != blockColor("Chess") {
		t.Fatal("color should be stable per name")
	}
	found := false
	for _, c := range blockColors {
		if c == blockColor("Reading") {
			found = true
		}
	}
	if !found {
		t.Fatal("color should come from the palette")
	}
}

func TestParseGoal(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		isNil   bool
		wantErr bool
	}{
		{"", 0, true, false},
		{"  ", 0, true, false},
		{"90", 90, false, false},
		{" 45 ", 45, false, false},
		{"0", 0, false, true},
		{"-5", 0, false, true},
		{"abc", 0, false, true},
	}
	for _, tt := range tests {
		got, err := parseGoal(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseGoal(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGoal(%q): %v", tt.in, err)
			continue
		}
		if tt.isNil != (got == nil) {
			t.Errorf("parseGoal(%q) = %v", tt.in, got)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("parseGoal(%q) = %d, want %d", tt.in, *got, tt.want)
		}
	}
}

func TestRequireName(t *testing.T) {
	if requireName("  ") == nil {
		t.Fatal("blank name should fail")
	}
	if requireName("Chess") != nil {
		t.Fatal("name should pass")
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	if viewNames[viewToday] != "Today" || viewNames[viewSettings] != "Settings" {
		t.Fatal("view names out of order")
	}
}

// ============================================================
// Today view
// ============================================================

func TestTodayInitCreatesToday(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	m := loadedToday(t, tr)

	if m.day == nil || m.day.Date != "2026-10-16" {
		t.Fatalf("day = %+v", m.day)
	}
	if !m.viewingToday() {
		t.Fatal("should be viewing today")
	}
	if len(m.blocks) != 0 {
		t.Fatal("new day should have no blocks")
	}
}

func TestTodayStartLapEndThroughKeys(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	m := loadedToday(t, tr)

	*m.formText = "Chess"
	m.formType = "new"
	m, cmd := m.submitForm()
	m = applyToday(t, m, cmd)
	if !m.isRunning() {
		t.Fatal("block should be running")
	}
	if len(m.blocks) != 1 || m.blocks[0].Name != "Chess" {
		t.Fatalf("blocks = %+v", m.blocks)
	}

	clock.advance(3 * time.Minute)
	m, _ = m.update(tea.KeyMsg{Type: tea.KeySpace})
	if m.timer.lap == nil || m.timer.lap.Name != "2번째 판" {
		t.Fatalf("lap = %+v", m.timer.lap)
	}

	clock.advance(2 * time.Minute)
	m, _ = m.update(tickMsg(clock.now))
	if got := m.elapsed(); got != 5*time.Minute {
		t.Fatalf("elapsed = %v", got)
	}

	m, _ = m.update(keyRune('x'))
	if m.isRunning() {
		t.Fatal("block should have ended")
	}
	b, err := tr.Block(m.blocks[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if tracker.IsRunning(b) {
		t.Fatal("stored block should be closed")
	}
}

func TestTodayNewBlockBlockedWhileRunning(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	day := ensureToday(t, tr)
	if _, err := tr.StartBlock(day, "Chess"); err != nil {
		t.Fatal(err)
	}
	m := loadedToday(t, tr)

	m, cmd := m.update(keyRune('n'))
	if m.formActive {
		t.Fatal("form should not open while a block runs")
	}
	if st, ok := cmd().(statusMsg); !ok || !st.isError {
		t.Fatal("expected an error status")
	}
}

func TestTodayNewBlockOpensForm(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	m := loadedToday(t, tr)

	m, _ = m.update(keyRune('n'))
	if !m.formActive || m.form == nil || m.formType != "new" {
		t.Fatal("new block form should be active")
	}
	if !strings.Contains(m.view(), "New Block") {
		t.Fatal("form view should show its title")
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestTodayBrowsePastDayIsReadOnly(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	m := loadedToday(t, tr)

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.date != "2026-10-15" {
		t.Fatalf("date = %q", m.date)
	}
	m = applyToday(t, m, cmd)
	if m.day != nil {
		t.Fatal("browsing should not create past days")
	}
	if d, _ := tr.DayByKey("2026-10-15"); d != nil {
		t.Fatal("no day should be stored for yesterday")
	}
	if !strings.Contains(m.view(), "No record for this day") {
		t.Fatal("view should report the missing day")
	}

	m, cmd = m.update(keyRune('n'))
	if m.formActive {
		t.Fatal("cannot start blocks on a past day")
	}
	if st, ok := cmd().(statusMsg); !ok || !st.isError {
		t.Fatal("expected an error status")
	}

	m, cmd = m.update(keyRune('t'))
	m = applyToday(t, m, cmd)
	if !m.viewingToday() || m.day == nil {
		t.Fatal("t should jump back to today")
	}
}

func TestTodayStaleLoadIgnored(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	m := loadedToday(t, tr)

	m, _ = m.update(todayDataMsg{date: "2026-10-01", blocks: []store.TimeBlock{{Name: "x"}}})
	if m.day == nil || len(m.blocks) != 0 {
		t.Fatal("a load for another date should be ignored")
	}
}

func TestTodayEnterOpensDetail(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	m := loadedToday(t, tr)

	_, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should open the detail view")
	}
	msg, ok := cmd().(openDetailMsg)
	if !ok || msg.block.ID != b.ID {
		t.Fatalf("unexpected message %#v", msg)
	}
}

func TestTodayGoalMemoDelete(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	day := ensureToday(t, tr)
	if _, err := tr.StartBlock(day, "Chess"); err != nil {
		t.Fatal(err)
	}
	m := loadedToday(t, tr)

	m.formType = "goal"
	*m.formText = "90"
	m, cmd := m.submitForm()
	m = applyToday(t, m, cmd)
	if m.day.GoalMinute == nil || *m.day.GoalMinute != 90 {
		t.Fatalf("goal = %v", m.day.GoalMinute)
	}

	m.formType = "goal"
	*m.formText = ""
	m, cmd = m.submitForm()
	m = applyToday(t, m, cmd)
	if m.day.GoalMinute != nil {
		t.Fatal("empty goal should clear it")
	}

	m.formType = "day_memo"
	*m.formText = "slow start"
	m, cmd = m.submitForm()
	m = applyToday(t, m, cmd)
	if m.day.Memo != "slow start" {
		t.Fatalf("memo = %q", m.day.Memo)
	}

	m.formType = "delete"
	*m.formConfirm = false
	m, cmd = m.submitForm()
	m = applyToday(t, m, cmd)
	if len(m.blocks) != 1 {
		t.Fatal("unconfirmed delete should keep the block")
	}

	m.formType = "delete"
	*m.formConfirm = true
	m, cmd = m.submitForm()
	m = applyToday(t, m, cmd)
	if len(m.blocks) != 0 {
		t.Fatal("confirmed delete should remove the block")
	}
	if m.isRunning() {
		t.Fatal("deleted block should no longer run")
	}
}

func TestTodayViewListsBlocks(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	clock.advance(30 * time.Minute)
	if err := tr.EndBlock(b); err != nil {
		t.Fatal(err)
	}
	goal := 60
	if err := tr.SetGoal(day, &goal); err != nil {
		t.Fatal(err)
	}
	m := loadedToday(t, tr)

	out := m.view()
	for _, want := range []string{"Oct 16", "Chess", "9:00 AM - 9:30 AM", "30m", "(50%)", "IDLE"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTodayTooSmall(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	m := loadedToday(t, tr)
	m.setSize(10, 10)
	if m.view() != "Terminal too small" {
		t.Fatal("narrow terminal should be reported")
	}
}

// ============================================================
// Detail view
// ============================================================

func openDetail(t *testing.T, tr *tracker.Tracker, b *store.TimeBlock) detailModel {
	t.Helper()
	m := newDetailModel(tr, timefmt.English)
	m.setSize(120, 40)
	m, cmd := m.open(*b)
	m, _ = m.update(cmd())
	return m
}

func TestDetailShowsLaps(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	clock.advance(10 * time.Minute)
	tr.Lap(b)

	m := openDetail(t, tr, b)
	if len(m.laps) != 2 {
		t.Fatalf("laps = %d", len(m.laps))
	}
	out := m.view()
	for _, want := range []string{"Chess", "running", "1번째 판", "2번째 판"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDetailLapAndEnd(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	m := openDetail(t, tr, b)

	clock.advance(time.Minute)
	m, cmd := m.update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.update(cmd())
	if len(m.laps) != 2 {
		t.Fatalf("laps = %d", len(m.laps))
	}

	m, cmd = m.update(keyRune('x'))
	m, _ = m.update(cmd())
	if tracker.IsRunning(m.block) {
		t.Fatal("block should be ended")
	}
	if !strings.Contains(m.view(), "ended") {
		t.Fatal("view should show the ended state")
	}

	// Keys that need a running block do nothing now.
	_, cmd = m.update(tea.KeyMsg{Type: tea.KeySpace})
	if cmd != nil {
		t.Fatal("lap on an ended block should be ignored")
	}
}

func TestDetailRenameLapAndMemoBlock(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	m := openDetail(t, tr, b)

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.update(keyRune('r'))
	if !m.formActive || m.formTarget.ID == b.ID {
		t.Fatal("rename form should target the lap")
	}
	if *m.formText != "1번째 판" {
		t.Fatalf("form should be prefilled, got %q", *m.formText)
	}
	*m.formText = "1번째 결승"
	m, cmd := m.submitForm()
	m, _ = m.update(cmd())
	if m.laps[0].Name != "1번째 결승" {
		t.Fatalf("lap name = %q", m.laps[0].Name)
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.update(keyRune('m'))
	if m.formTarget.ID != b.ID {
		t.Fatal("memo form should target the block")
	}
	*m.formText = "good game"
	m, cmd = m.submitForm()
	m, _ = m.update(cmd())
	if m.block.Memo != "good game" {
		t.Fatalf("memo = %q", m.block.Memo)
	}
}

func TestDetailBlockDeleted(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	m := openDetail(t, tr, b)

	if _, err := tr.DeleteBlock(b); err != nil {
		t.Fatal(err)
	}
	msg := m.refresh()()
	if _, ok := msg.(detailDataMsg); !ok {
		t.Fatalf("expected detail data for a deleted block, got %T", msg)
	}
	m, _ = m.update(msg)
	if m.block != nil {
		t.Fatal("deleted block should clear the view")
	}
	if !strings.Contains(m.view(), "Select a block") {
		t.Fatal("empty detail should show a hint")
	}
}

func TestDetailEmpty(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	m := newDetailModel(tr, timefmt.English)
	if m.refresh() != nil {
		t.Fatal("refresh without a block should be a no-op")
	}
	if _, cmd := m.update(keyRune('r')); cmd != nil {
		t.Fatal("keys without a block should be ignored")
	}
}

// ============================================================
// Reports view
// ============================================================

func TestWindowRange(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	from, to := windowRange(tr, 7, 0)
	if tr.DateKey(from) != "2026-10-10" || tr.DateKey(to) != "2026-10-16" {
		t.Fatalf("current window = %s..%s", tr.DateKey(from), tr.DateKey(to))
	}
	from, to = windowRange(tr, 7, 1)
	if tr.DateKey(from) != "2026-10-03" || tr.DateKey(to) != "2026-10-09" {
		t.Fatalf("previous window = %s..%s", tr.DateKey(from), tr.DateKey(to))
	}
	from, to = windowRange(tr, 1, 0)
	if !from.Equal(to) {
		t.Fatal("one-day window should start and end on the same day")
	}
}

func TestReportDaysClamped(t *testing.T) {
	s := newTestStore(t)
	if got := reportDays(s); got != 7 {
		t.Fatalf("default = %d", got)
	}
	s.SetSetting("report_days", "100")
	if got := reportDays(s); got != maxReportDays {
		t.Fatalf("clamped high = %d", got)
	}
	s.SetSetting("report_days", "0")
	if got := reportDays(s); got != 1 {
		t.Fatalf("clamped low = %d", got)
	}
}

func TestReportsTotals(t *testing.T) {
	tr, s, clock := newTestTracker(t)
	day := ensureToday(t, tr)
	goal := 30
	tr.SetGoal(day, &goal)

	b, _ := tr.StartBlock(day, "Reading")
	clock.advance(10 * time.Minute)
	tr.EndBlock(b)
	b, _ = tr.StartBlock(day, "Chess")
	clock.advance(20 * time.Minute)
	tr.EndBlock(b)
	b, _ = tr.StartBlock(day, "Chess")
	clock.advance(25 * time.Minute)

	r := newReportsModel(tr, s, timefmt.English)
	r.setSize(120, 40)
	r, _ = r.update(r.refresh()())

	totals, sum := r.totals()
	if sum != 55*time.Minute {
		t.Fatalf("sum = %v", sum)
	}
	if len(totals) != 2 || totals[0].name != "Chess" || totals[0].count != 2 || totals[0].total != 45*time.Minute {
		t.Fatalf("totals = %+v", totals)
	}
	if met, withGoal := r.goalsMet(); met != 1 || withGoal != 1 {
		t.Fatalf("goals met = %d/%d", met, withGoal)
	}

	out := r.view()
	for _, want := range []string{"Reports", "Chess", "Reading", "45m", "goal met 1/1 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReportsNavigation(t *testing.T) {
	tr, s, _ := newTestTracker(t)
	r := newReportsModel(tr, s, timefmt.English)

	r, _ = r.update(tea.KeyMsg{Type: tea.KeyLeft})
	if r.offset != 1 {
		t.Fatalf("offset = %d", r.offset)
	}
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyRight})
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyRight})
	if r.offset != 0 {
		t.Fatalf("offset should not go below 0, got %d", r.offset)
	}

	r.offset = 3
	stale := reportsDataMsg{days: 7, offset: 0, summaries: []tracker.DaySummary{{Date: "2026-10-16"}}}
	r, _ = r.update(stale)
	if len(r.summaries) != 0 {
		t.Fatal("results for another window should be ignored")
	}
	r, _ = r.update(keyRune('t'))
	if r.offset != 0 {
		t.Fatal("t should return to the current window")
	}
}

func TestReportsEmpty(t *testing.T) {
	tr, s, _ := newTestTracker(t)
	r := newReportsModel(tr, s, timefmt.English)
	r.setSize(120, 40)
	r, _ = r.update(r.refresh()())
	if !strings.Contains(r.view(), "No data for this period") {
		t.Fatal("empty window should say so")
	}
}

// ============================================================
// Settings view
// ============================================================

func TestIntInRange(t *testing.T) {
	v := intInRange(1, 31)
	for _, ok := range []string{"1", "31", " 7 "} {
		if err := v(ok); err != nil {
			t.Errorf("%q: %v", ok, err)
		}
	}
	for _, bad := range []string{"0", "32", "x", ""} {
		if v(bad) == nil {
			t.Errorf("%q should fail", bad)
		}
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct{ key, value, want string }{
		{"default_goal_minute", "0", "none"},
		{"default_goal_minute", "120", "120 min"},
		{"report_days", "7", "7 days"},
		{"unknown", "42", "42"},
		{"report_days", "abc", "abc"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.value); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestSettingsSave(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	m.setSize(120, 40)

	m, _ = m.update(keyRune('n'))
	if !m.formActive {
		t.Fatal("form should open")
	}
	if *m.defaultGoal != "0" || *m.reportDays != "7" {
		t.Fatalf("form should be prefilled, got %q %q", *m.defaultGoal, *m.reportDays)
	}

	*m.defaultGoal = "120"
	*m.reportDays = " 14 "
	if err := m.saveSettings(); err != nil {
		t.Fatal(err)
	}
	if got := s.GetSettingInt("default_goal_minute", 0); got != 120 {
		t.Fatalf("default goal = %d", got)
	}
	if got := reportDays(s); got != 14 {
		t.Fatalf("report days = %d", got)
	}

	m.formActive = false
	m, _ = m.update(m.refresh()())
	out := m.view()
	for _, want := range []string{"Default daily goal", "120 min", "14 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDefaultGoalAppliesToNewDay(t *testing.T) {
	tr, s, _ := newTestTracker(t)
	s.SetSetting("default_goal_minute", "45")
	m := loadedToday(t, tr)
	if m.day.GoalMinute == nil || *m.day.GoalMinute != 45 {
		t.Fatalf("goal = %v", m.day.GoalMinute)
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) (App, *tracker.Tracker, *testClock) {
	t.Helper()
	tr, s, clock := newTestTracker(t)
	app := NewApp(tr, s, timefmt.English)
	app.exportDir = t.TempDir()
	t.Cleanup(app.unsubscribe)
	return app, tr, clock
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func TestNewApp(t *testing.T) {
	app, _, _ := newTestApp(t)

	if app.activeView != viewToday {
		t.Fatal("default view should be today")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("overlays should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	app, _, _ := newTestApp(t)
	if out := app.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppViewStates(t *testing.T) {
	app, _, _ := newTestApp(t)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})

	for v := range viewNames {
		app.activeView = viewState(v)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabCycles(t *testing.T) {
	app, _, _ := newTestApp(t)
	for i := 1; i <= len(viewNames); i++ {
		app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyTab})
		if want := viewState(i % len(viewNames)); app.activeView != want {
			t.Fatalf("after %d tabs view = %d, want %d", i, app.activeView, want)
		}
	}
	app, _ = update(t, app, keyRune('3'))
	if app.activeView != viewReports {
		t.Fatal("3 should open reports")
	}
}

func TestAppHeaderAndFooter(t *testing.T) {
	app, tr, clock := newTestApp(t)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 160, Height: 40})

	header := app.renderHeader()
	for _, want := range append([]string{"timeblocks"}, viewNames...) {
		if !strings.Contains(header, want) {
			t.Fatalf("header missing %q", want)
		}
	}

	day := ensureToday(t, tr)
	tr.StartBlock(day, "Chess")
	clock.advance(90 * time.Second)
	app, _ = update(t, app, app.today.loadData()())
	if !strings.Contains(app.renderFooter(), "Chess 00:01:30") {
		t.Fatal("footer should show the running block")
	}

	app, _ = update(t, app, statusMsg{text: "boom", isError: true})
	if !app.statusError || !strings.Contains(app.renderFooter(), "boom") {
		t.Fatal("footer should contain the status message")
	}
}

func TestAppReceivesTrackerEvents(t *testing.T) {
	app, tr, _ := newTestApp(t)
	day := ensureToday(t, tr)
	if _, err := tr.StartBlock(day, "Chess"); err != nil {
		t.Fatal(err)
	}

	// Day creation and block start were both published.
	msg := waitForEvent(app.events)()
	ev, ok := msg.(trackerEventMsg)
	if !ok || ev.Kind != tracker.EventDayCreated {
		t.Fatalf("first event = %#v", msg)
	}
	ev = waitForEvent(app.events)().(trackerEventMsg)
	if ev.Kind != tracker.EventBlockStarted {
		t.Fatalf("second event = %v", ev.Kind)
	}

	_, cmd := update(t, app, ev)
	if cmd == nil {
		t.Fatal("an event should re-arm the listener and reload")
	}
}

func TestAppQuitEndsSubscription(t *testing.T) {
	app, _, _ := newTestApp(t)
	_, cmd := update(t, app, keyRune('q'))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if msg := waitForEvent(app.events)(); msg != nil {
		t.Fatalf("closed subscription should yield nil, got %#v", msg)
	}
}

func TestAppOpenDetailAndBack(t *testing.T) {
	app, tr, _ := newTestApp(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")

	app, cmd := update(t, app, openDetailMsg{block: *b})
	if app.activeView != viewDetail {
		t.Fatal("detail view should be active")
	}
	app, _ = update(t, app, cmd())
	if len(app.detail.laps) != 1 {
		t.Fatalf("detail laps = %d", len(app.detail.laps))
	}

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.activeView != viewToday {
		t.Fatal("esc should return to today")
	}
}

func TestAppExport(t *testing.T) {
	app, tr, clock := newTestApp(t)
	day := ensureToday(t, tr)
	b, _ := tr.StartBlock(day, "Chess")
	clock.advance(time.Hour)
	tr.EndBlock(b)

	for i, ext := range []string{"csv", "json"} {
		msg := app.doExport(i)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("%s export failed: %#v", ext, msg)
		}
		want := filepath.Join(app.exportDir, "timeblocks-export-2026-10-16."+ext)
		if done.path != want {
			t.Fatalf("path = %q, want %q", done.path, want)
		}
		data, err := os.ReadFile(done.path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Chess") {
			t.Fatalf("%s export missing block", ext)
		}
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _, _ := newTestApp(t)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})

	app, _ = update(t, app, keyRune('e'))
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	if !strings.Contains(app.View(), "Export Format") {
		t.Fatal("picker should render")
	}
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppFormCapturesKeys(t *testing.T) {
	app, _, _ := newTestApp(t)
	app, _ = update(t, app, app.today.loadData()())

	app, _ = update(t, app, keyRune('n'))
	if !app.isFormActive() {
		t.Fatal("new block form should be active")
	}
	app, _ = update(t, app, keyRune('q'))
	if app.activeView != viewToday || !app.isFormActive() {
		t.Fatal("typing into a form should not trigger global keys")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
		{"lapIndex", func() string { return lapIndexStyle.Render("1") }},
		{"runningLap", func() string { return runningLapStyle.Render("test") }},
		{"lapMemo", func() string { return lapMemoStyle.Render("test") }},
		{"goalMet", func() string { return goalMetStyle.Render("test") }},
		{"goalPending", func() string { return goalPendingStyle.Render("test") }},
		{"blockDot", func() string { return blockDotStyle("Chess").Render("●") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
