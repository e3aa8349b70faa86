// Package tracker holds the rules for days, time blocks and laps. All
// mutations go through a Tracker, which persists them in a Repository and
// reads the current time from an injected Clock.
package tracker

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/sadopc/timeblocks/internal/store"
)

// Repository is the persistence the tracker needs. *store.Store implements it.
type Repository interface {
	EnsureDay(date string, goal *int) (*store.Day, bool, error)
	GetDayByDate(date string) (*store.Day, error)
	GetDay(id int64) (*store.Day, error)
	ListDays(from, to string) ([]store.Day, error)
	UpdateDayMemo(id int64, memo string) error
	UpdateDayGoal(id int64, goal *int) error

	InsertRootBlock(dayID int64, name, lapName string, start time.Time) (*store.TimeBlock, error)
	CloseBlock(blockID, lapID int64, end time.Time) error
	AppendLap(parentID, closeID int64, name string, at time.Time) (*store.TimeBlock, error)
	DeleteBlockTree(id int64) (int64, error)
	GetBlock(id int64) (*store.TimeBlock, error)
	ListRootBlocks(dayID int64) ([]store.TimeBlock, error)
	ListSubBlocks(parentID int64) ([]store.TimeBlock, error)
	UpdateBlockName(id int64, name string) error
	UpdateBlockMemo(id int64, memo string) error

	GetSettingInt(key string, fallback int) int
}

// Clock supplies the current instant to a Tracker.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Options configure a Tracker. Zero values select the defaults.
type Options struct {
	Clock    Clock
	Location *time.Location
	Namer    Namer
	Logger   hclog.Logger
}

// Tracker owns every mutation of days and blocks. Calls are serialised and
// each successful change is published to subscribers.
type Tracker struct {
	repo  Repository
	clock Clock
	loc   *time.Location
	namer Namer
	log   hclog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// New returns a Tracker over repo, filling unset options with defaults.
func New(repo Repository, opts Options) *Tracker {
	t := &Tracker{
		repo:  repo,
		clock: opts.Clock,
		loc:   opts.Location,
		namer: opts.Namer,
		log:   opts.Logger,
		subs:  make(map[chan Event]struct{}),
	}
	if t.clock == nil {
		t.clock = SystemClock{}
	}
	if t.loc == nil {
		t.loc = time.Local
	}
	if t.namer.re == nil {
		t.namer = NewNamer(t.namer.Suffix, t.namer.DefaultLabel)
	}
	if t.log == nil {
		t.log = hclog.NewNullLogger()
	}
	return t
}

func (t *Tracker) Now() time.Time { return t.clock.Now() }

func (t *Tracker) Location() *time.Location { return t.loc }

func (t *Tracker) Namer() Namer { return t.namer }

// DateKey is the Day key of the local calendar date containing ts.
func (t *Tracker) DateKey(ts time.Time) string {
	return ts.In(t.loc).Format(store.DateLayout)
}

// Today is the key of the current local calendar date.
func (t *Tracker) Today() string {
	return t.DateKey(t.clock.Now())
}

// ParseDate parses a YYYY-MM-DD key as local midnight.
func (t *Tracker) ParseDate(key string) (time.Time, error) {
	return time.ParseInLocation(store.DateLayout, key, t.loc)
}

func (t *Tracker) IsToday(day *store.Day) bool {
	return day != nil && day.Date == t.Today()
}

// EnsureToday returns the Day for date. A missing Day is created only when
// date falls on today; for any other date the result is nil.
func (t *Tracker) EnsureToday(date time.Time) (*store.Day, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := t.DateKey(date)
	if key != t.Today() {
		day, err := t.repo.GetDayByDate(key)
		if err != nil {
			return nil, t.storeErr("get day", err)
		}
		return day, nil
	}

	var goal *int
	if g := t.repo.GetSettingInt("default_goal_minute", 0); g > 0 {
		goal = &g
	}
	day, created, err := t.repo.EnsureDay(key, goal)
	if err != nil {
		return nil, t.storeErr("ensure day", err)
	}
	if created {
		t.log.Debug("day created", "date", key)
		t.publish(Event{Kind: EventDayCreated, DayID: day.ID, At: t.clock.Now()})
	}
	return day, nil
}

// StartBlock opens a new root block on day together with its first lap.
func (t *Tracker) StartBlock(day *store.Day, name string) (*store.TimeBlock, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if day == nil {
		return nil, ErrNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.IsToday(day) {
		return nil, ErrNotToday
	}
	now := t.clock.Now()
	b, err := t.repo.InsertRootBlock(day.ID, name, t.namer.First(), now)
	if err != nil {
		return nil, t.storeErr("start block", err)
	}
	t.log.Debug("block started", "id", b.ID, "name", name)
	t.publish(Event{Kind: EventBlockStarted, DayID: day.ID, BlockID: b.ID, At: now})
	return b, nil
}

// EndBlock closes a running root block and its current lap at the same
// instant. Closing is one-way.
func (t *Tracker) EndBlock(block *store.TimeBlock) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, laps, err := t.openRoot(block)
	if err != nil {
		return err
	}
	last := laps[len(laps)-1]
	now := notBefore(t.clock.Now(), last.StartTime)
	if err := t.repo.CloseBlock(b.ID, last.ID, now); err != nil {
		if errors.Is(err, store.ErrNotOpen) {
			return ErrAlreadyClosed
		}
		return t.storeErr("end block", err)
	}
	t.log.Debug("block ended", "id", b.ID, "laps", len(laps))
	t.publish(Event{Kind: EventBlockEnded, DayID: *b.DayID, BlockID: b.ID, At: now})
	return nil
}

// Lap closes the current lap of a running root block and appends the next
// one, named after the previous lap.
func (t *Tracker) Lap(block *store.TimeBlock) (*store.TimeBlock, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, laps, err := t.openRoot(block)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(laps))
	for i, l := range laps {
		names[i] = l.Name
	}
	last := laps[len(laps)-1]
	now := notBefore(t.clock.Now(), last.StartTime)
	lap, err := t.repo.AppendLap(b.ID, last.ID, t.namer.Next(names), now)
	if err != nil {
		if errors.Is(err, store.ErrNotOpen) {
			return nil, ErrAlreadyClosed
		}
		return nil, t.storeErr("lap", err)
	}
	t.log.Debug("lapped", "block", b.ID, "lap", lap.ID, "name", lap.Name)
	t.publish(Event{Kind: EventLapped, DayID: *b.DayID, BlockID: b.ID, At: now})
	return lap, nil
}

// DeleteBlock removes a root block and all of its laps, returning the
// number of removed records. Deleting a block that no longer exists removes
// nothing and is not an error.
func (t *Tracker) DeleteBlock(block *store.TimeBlock) (int64, error) {
	if block == nil {
		return 0, ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := t.repo.GetBlock(block.ID)
	if err != nil {
		return 0, t.storeErr("get block", err)
	}
	if b == nil {
		return 0, nil
	}
	if !b.IsRoot() {
		return 0, ErrNotRoot
	}
	n, err := t.repo.DeleteBlockTree(b.ID)
	if err != nil {
		return 0, t.storeErr("delete block", err)
	}
	t.log.Debug("block deleted", "id", b.ID, "removed", n)
	t.publish(Event{Kind: EventBlockDeleted, DayID: *b.DayID, BlockID: b.ID, At: t.clock.Now()})
	return n, nil
}

// Rename changes the display name of a block or lap, open or closed.
func (t *Tracker) Rename(block *store.TimeBlock, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if block == nil {
		return ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.repo.UpdateBlockName(block.ID, name); err != nil {
		return t.notFoundOr("rename block", err)
	}
	t.publish(Event{Kind: EventBlockUpdated, BlockID: block.ID, At: t.clock.Now()})
	return nil
}

func (t *Tracker) SetMemo(block *store.TimeBlock, memo string) error {
	if block == nil {
		return ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.repo.UpdateBlockMemo(block.ID, memo); err != nil {
		return t.notFoundOr("set block memo", err)
	}
	t.publish(Event{Kind: EventBlockUpdated, BlockID: block.ID, At: t.clock.Now()})
	return nil
}

func (t *Tracker) SetDayMemo(day *store.Day, memo string) error {
	if day == nil {
		return ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.repo.UpdateDayMemo(day.ID, memo); err != nil {
		return t.notFoundOr("set day memo", err)
	}
	t.publish(Event{Kind: EventDayUpdated, DayID: day.ID, At: t.clock.Now()})
	return nil
}

// SetGoal sets the day's target in minutes; nil clears it.
func (t *Tracker) SetGoal(day *store.Day, minutes *int) error {
	if minutes != nil && *minutes <= 0 {
		return ErrInvalidGoal
	}
	if day == nil {
		return ErrNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.repo.UpdateDayGoal(day.ID, minutes); err != nil {
		return t.notFoundOr("set goal", err)
	}
	t.publish(Event{Kind: EventDayUpdated, DayID: day.ID, At: t.clock.Now()})
	return nil
}

// openRoot reloads block and checks that it is an open root block with laps.
func (t *Tracker) openRoot(block *store.TimeBlock) (*store.TimeBlock, []store.TimeBlock, error) {
	if block == nil {
		return nil, nil, ErrNotFound
	}
	b, err := t.repo.GetBlock(block.ID)
	if err != nil {
		return nil, nil, t.storeErr("get block", err)
	}
	if b == nil {
		return nil, nil, ErrNotFound
	}
	if !b.IsRoot() {
		return nil, nil, ErrNotRoot
	}
	if b.EndTime != nil {
		return nil, nil, ErrAlreadyClosed
	}
	laps, err := t.repo.ListSubBlocks(b.ID)
	if err != nil {
		return nil, nil, t.storeErr("list laps", err)
	}
	if len(laps) == 0 {
		t.log.Error("open block without laps", "id", b.ID)
		return nil, nil, ErrNoSubBlocks
	}
	return b, laps, nil
}

func (t *Tracker) storeErr(op string, err error) error {
	t.log.Error("store operation failed", "op", op, "error", err)
	return &StoreError{Op: op, Err: err}
}

func (t *Tracker) notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return t.storeErr(op, err)
}

// notBefore keeps a close time from preceding the lap it closes when the
// clock steps backwards.
func notBefore(now, start time.Time) time.Time {
	if now.Before(start) {
		return start
	}
	return now
}
