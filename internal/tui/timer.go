package tui

import (
	"time"

	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/tracker"
)

// lapTimerModel follows the running block of today and its current lap.
// Elapsed times are computed from the tracker clock on every tick.
type lapTimerModel struct {
	tracker *tracker.Tracker

	block *store.TimeBlock
	lap   *store.TimeBlock
	now   time.Time
}

func newLapTimerModel(tr *tracker.Tracker) lapTimerModel {
	return lapTimerModel{tracker: tr, now: tr.Now()}
}

// load picks up the running block of day, if any.
func (t *lapTimerModel) load(day *store.Day) error {
	t.now = t.tracker.Now()
	t.block, t.lap = nil, nil
	if !t.tracker.IsToday(day) {
		return nil
	}
	b, err := t.tracker.RunningBlock(day)
	if err != nil || b == nil {
		return err
	}
	lap, err := t.tracker.CurrentLap(b)
	if err != nil {
		return err
	}
	t.block, t.lap = b, lap
	return nil
}

func (t *lapTimerModel) start(day *store.Day, name string) error {
	b, err := t.tracker.StartBlock(day, name)
	if err != nil {
		return err
	}
	t.block = b
	t.lap, err = t.tracker.CurrentLap(b)
	t.now = t.tracker.Now()
	return err
}

func (t *lapTimerModel) nextLap() error {
	if t.block == nil {
		return nil
	}
	lap, err := t.tracker.Lap(t.block)
	if err != nil {
		return err
	}
	t.lap = lap
	t.now = t.tracker.Now()
	return nil
}

func (t *lapTimerModel) end() (*store.TimeBlock, error) {
	if t.block == nil {
		return nil, nil
	}
	ended := t.block
	if err := t.tracker.EndBlock(ended); err != nil {
		return nil, err
	}
	t.block, t.lap = nil, nil
	return ended, nil
}

func (t *lapTimerModel) tick() {
	t.now = t.tracker.Now()
}

func (t lapTimerModel) running() bool {
	return t.block != nil
}

func (t lapTimerModel) blockElapsed() time.Duration {
	if t.block == nil {
		return 0
	}
	return tracker.Elapsed(t.block, t.now)
}

func (t lapTimerModel) lapElapsed() time.Duration {
	if t.lap == nil {
		return 0
	}
	return tracker.Elapsed(t.lap, t.now)
}
