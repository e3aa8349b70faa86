package tracker

import (
	"time"

	"github.com/sadopc/timeblocks/internal/store"
)

func IsRunning(b *store.TimeBlock) bool {
	return b != nil && b.EndTime == nil
}

// Duration is the half-open range a block covers as observed at asOf. A
// running block extends to asOf. end is never before start.
func Duration(b *store.TimeBlock, asOf time.Time) (start, end time.Time) {
	start = b.StartTime
	end = asOf
	if b.EndTime != nil {
		end = *b.EndTime
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}

func Elapsed(b *store.TimeBlock, asOf time.Time) time.Duration {
	start, end := Duration(b, asOf)
	return end.Sub(start)
}

// BlockTree is a root block with its laps in start order.
type BlockTree struct {
	Block store.TimeBlock
	Laps  []store.TimeBlock
}

type DayLog struct {
	Day    store.Day
	Blocks []BlockTree
}

// BlockSummary totals the root blocks of one day that share a name.
type BlockSummary struct {
	Name    string
	Total   time.Duration
	Count   int
	Running bool
}

type DaySummary struct {
	Date       string
	GoalMinute *int
	Total      time.Duration
	Blocks     []BlockSummary
}

// Day returns the stored Day for the date containing ts, or nil. It never
// creates one.
func (t *Tracker) Day(ts time.Time) (*store.Day, error) {
	return t.DayByKey(t.DateKey(ts))
}

func (t *Tracker) DayByKey(key string) (*store.Day, error) {
	day, err := t.repo.GetDayByDate(key)
	if err != nil {
		return nil, t.storeErr("get day", err)
	}
	return day, nil
}

func (t *Tracker) Block(id int64) (*store.TimeBlock, error) {
	b, err := t.repo.GetBlock(id)
	if err != nil {
		return nil, t.storeErr("get block", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

// Blocks returns the root blocks of day in start order.
func (t *Tracker) Blocks(day *store.Day) ([]store.TimeBlock, error) {
	if day == nil {
		return nil, nil
	}
	blocks, err := t.repo.ListRootBlocks(day.ID)
	if err != nil {
		return nil, t.storeErr("list blocks", err)
	}
	return blocks, nil
}

// Laps returns the sub-blocks of block in start order.
func (t *Tracker) Laps(block *store.TimeBlock) ([]store.TimeBlock, error) {
	laps, err := t.repo.ListSubBlocks(block.ID)
	if err != nil {
		return nil, t.storeErr("list laps", err)
	}
	return laps, nil
}

// RunningBlock returns the day's last root block if it is still open.
func (t *Tracker) RunningBlock(day *store.Day) (*store.TimeBlock, error) {
	blocks, err := t.Blocks(day)
	if err != nil || len(blocks) == 0 {
		return nil, err
	}
	last := blocks[len(blocks)-1]
	if !IsRunning(&last) {
		return nil, nil
	}
	return &last, nil
}

// CurrentLap returns the open lap of block, or nil when the block is closed.
func (t *Tracker) CurrentLap(block *store.TimeBlock) (*store.TimeBlock, error) {
	laps, err := t.Laps(block)
	if err != nil || len(laps) == 0 {
		return nil, err
	}
	last := laps[len(laps)-1]
	if !IsRunning(&last) {
		return nil, nil
	}
	return &last, nil
}

// Logs loads every day in [from, to] with its block trees.
func (t *Tracker) Logs(from, to string) ([]DayLog, error) {
	days, err := t.repo.ListDays(from, to)
	if err != nil {
		return nil, t.storeErr("list days", err)
	}
	logs := make([]DayLog, 0, len(days))
	for _, d := range days {
		blocks, err := t.Blocks(&d)
		if err != nil {
			return nil, err
		}
		dl := DayLog{Day: d}
		for _, b := range blocks {
			laps, err := t.Laps(&b)
			if err != nil {
				return nil, err
			}
			dl.Blocks = append(dl.Blocks, BlockTree{Block: b, Laps: laps})
		}
		logs = append(logs, dl)
	}
	return logs, nil
}

// Summaries totals each day in [from, to] per block name. Running blocks
// count up to now.
func (t *Tracker) Summaries(from, to string) ([]DaySummary, error) {
	days, err := t.repo.ListDays(from, to)
	if err != nil {
		return nil, t.storeErr("list days", err)
	}
	now := t.clock.Now()

	var out []DaySummary
	for _, d := range days {
		blocks, err := t.Blocks(&d)
		if err != nil {
			return nil, err
		}
		ds := DaySummary{Date: d.Date, GoalMinute: d.GoalMinute}
		index := make(map[string]int)
		for _, b := range blocks {
			el := Elapsed(&b, now)
			ds.Total += el
			i, ok := index[b.Name]
			if !ok {
				i = len(ds.Blocks)
				index[b.Name] = i
				ds.Blocks = append(ds.Blocks, BlockSummary{Name: b.Name})
			}
			ds.Blocks[i].Total += el
			ds.Blocks[i].Count++
			if IsRunning(&b) {
				ds.Blocks[i].Running = true
			}
		}
		out = append(out, ds)
	}
	return out, nil
}
