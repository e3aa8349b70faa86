package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

func newTodayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's blocks, creating today's record if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				day, err := a.tracker.EnsureToday(a.tracker.Now())
				if err != nil {
					return err
				}
				return a.printDay(cmd.OutOrStdout(), day)
			})
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show [--date YYYY-MM-DD]",
		Short: "Show the blocks of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				key := date
				if key == "" {
					key = a.tracker.Today()
				}
				if _, err := a.tracker.ParseDate(key); err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", key)
				}
				day, err := a.tracker.DayByKey(key)
				if err != nil {
					return err
				}
				if day == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "no record for %s\n", key)
					return nil
				}
				return a.printDay(cmd.OutOrStdout(), day)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (default today)")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running block and its current lap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				w := cmd.OutOrStdout()
				b, err := a.targetBlock(nil)
				if errors.Is(err, errNoRunningBlock) {
					fmt.Fprintln(w, "idle")
					return nil
				}
				if err != nil {
					return err
				}
				now := a.tracker.Now()
				fmt.Fprintf(w, "#%d %s running for %s (started %s)\n",
					b.ID, b.Name, a.span(b, false), timefmt.Since(b.StartTime, now, a.lang))
				lap, err := a.tracker.CurrentLap(b)
				if err != nil {
					return err
				}
				if lap != nil {
					fmt.Fprintf(w, "  lap #%d %s %s\n", lap.ID, lap.Name, a.span(lap, true))
				}
				return nil
			})
		},
	}
}

func (a *app) printDay(w io.Writer, day *store.Day) error {
	blocks, err := a.tracker.Blocks(day)
	if err != nil {
		return err
	}
	now := a.tracker.Now()

	var total time.Duration
	for i := range blocks {
		total += tracker.Elapsed(&blocks[i], now)
	}

	date, err := a.tracker.ParseDate(day.Date)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("%s (%s)  total %s", day.Date, timefmt.DayTitle(date, a.lang), timefmt.Span(total, a.lang, false))
	if day.GoalMinute != nil {
		header += " / goal " + timefmt.Span(time.Duration(*day.GoalMinute)*time.Minute, a.lang, false)
	}
	fmt.Fprintln(w, header)
	if day.Memo != "" {
		fmt.Fprintf(w, "memo: %s\n", day.Memo)
	}
	if len(blocks) == 0 {
		fmt.Fprintln(w, "no blocks")
		return nil
	}

	for i := range blocks {
		b := &blocks[i]
		fmt.Fprintf(w, "#%-4d %-20s %s  %s\n", b.ID, b.Name, a.timeRange(b), a.span(b, false))
		if b.Memo != "" {
			fmt.Fprintf(w, "      memo: %s\n", b.Memo)
		}
		laps, err := a.tracker.Laps(b)
		if err != nil {
			return err
		}
		for j := range laps {
			l := &laps[j]
			fmt.Fprintf(w, "      #%-4d %-14s %s  %s\n", l.ID, l.Name, a.timeRange(l), a.span(l, true))
		}
	}
	return nil
}

func (a *app) timeRange(b *store.TimeBlock) string {
	end := "now"
	if b.EndTime != nil {
		end = a.clock(*b.EndTime)
	}
	return a.clock(b.StartTime) + " - " + end
}
