package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/tracker"
)

// Snapshot is a range of days as seen at AsOf. Running blocks count up to
// AsOf and are written without an end time.
type Snapshot struct {
	Days     []tracker.DayLog
	AsOf     time.Time
	Location *time.Location
}

var csvHeader = []string{"Date", "Kind", "UID", "Parent UID", "Name", "Start", "End", "Duration (s)", "Duration", "Memo"}

func ToCSV(snap Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(snap, f); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes one row per block followed by one row per lap of that
// block.
func WriteCSV(snap Snapshot, out io.Writer) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, d := range snap.Days {
		for _, tree := range d.Blocks {
			if err := w.Write(snap.row(d.Day.Date, "block", "", tree.Block)); err != nil {
				return err
			}
			for _, lap := range tree.Laps {
				if err := w.Write(snap.row(d.Day.Date, "lap", tree.Block.UID, lap)); err != nil {
					return err
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}

func (s Snapshot) row(date, kind, parent string, b store.TimeBlock) []string {
	secs := int64(tracker.Elapsed(&b, s.AsOf) / time.Second)
	return []string{
		date,
		kind,
		b.UID,
		parent,
		b.Name,
		s.format(b.StartTime),
		s.formatEnd(b.EndTime),
		strconv.FormatInt(secs, 10),
		formatDuration(secs),
		b.Memo,
	}
}

func (s Snapshot) format(t time.Time) string {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(time.RFC3339)
}

func (s Snapshot) formatEnd(t *time.Time) string {
	if t == nil {
		return ""
	}
	return s.format(*t)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	sec := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
