package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/tracker"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Days       []jsonDay `json:"days"`
}

type jsonDay struct {
	UID          string      `json:"uid"`
	Date         string      `json:"date"`
	Memo         string      `json:"memo,omitempty"`
	GoalMinute   *int        `json:"goal_minute,omitempty"`
	TotalSeconds int64       `json:"total_seconds"`
	Blocks       []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	UID         string      `json:"uid"`
	Name        string      `json:"name"`
	StartTime   string      `json:"start_time"`
	EndTime     string      `json:"end_time,omitempty"`
	DurationSec int64       `json:"duration_seconds"`
	Duration    string      `json:"duration"`
	Memo        string      `json:"memo,omitempty"`
	Laps        []jsonBlock `json:"laps,omitempty"`
}

func ToJSON(snap Snapshot, path string) error {
	data, err := marshalJSON(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func WriteJSON(snap Snapshot, w io.Writer) error {
	data, err := marshalJSON(snap)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshalJSON(snap Snapshot) ([]byte, error) {
	export := jsonExport{
		ExportedAt: snap.AsOf.UTC().Format(time.RFC3339),
		Count:      len(snap.Days),
	}

	for _, d := range snap.Days {
		day := jsonDay{
			UID:        d.Day.UID,
			Date:       d.Day.Date,
			Memo:       d.Day.Memo,
			GoalMinute: d.Day.GoalMinute,
			Blocks:     []jsonBlock{},
		}
		for _, tree := range d.Blocks {
			b := snap.jsonBlock(tree.Block)
			day.TotalSeconds += b.DurationSec
			for _, lap := range tree.Laps {
				b.Laps = append(b.Laps, snap.jsonBlock(lap))
			}
			day.Blocks = append(day.Blocks, b)
		}
		export.Days = append(export.Days, day)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(data, '\n'), nil
}

func (s Snapshot) jsonBlock(b store.TimeBlock) jsonBlock {
	secs := int64(tracker.Elapsed(&b, s.AsOf) / time.Second)
	return jsonBlock{
		UID:         b.UID,
		Name:        b.Name,
		StartTime:   s.format(b.StartTime),
		EndTime:     s.formatEnd(b.EndTime),
		DurationSec: secs,
		Duration:    formatDuration(secs),
		Memo:        b.Memo,
	}
}
