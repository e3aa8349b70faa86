package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
)

var errNoRunningBlock = errors.New("no block is running today")

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name...>",
		Short: "Start a new time block today",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				day, err := a.tracker.EnsureToday(a.tracker.Now())
				if err != nil {
					return err
				}
				running, err := a.tracker.RunningBlock(day)
				if err != nil {
					return err
				}
				if running != nil {
					return fmt.Errorf("#%d %s is still running; end it first", running.ID, running.Name)
				}
				b, err := a.tracker.StartBlock(day, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "started #%d %s at %s\n", b.ID, b.Name, a.clock(b.StartTime))
				return nil
			})
		},
	}
}

func newLapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lap [id]",
		Short: "Close the current lap and start the next one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				b, err := a.targetBlock(args)
				if err != nil {
					return err
				}
				lap, err := a.tracker.Lap(b)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s: lap #%d %s at %s\n", b.ID, b.Name, lap.ID, lap.Name, a.clock(lap.StartTime))
				return nil
			})
		},
	}
}

func newEndCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "end [id]",
		Short: "End a running time block",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				b, err := a.targetBlock(args)
				if err != nil {
					return err
				}
				if err := a.tracker.EndBlock(b); err != nil {
					return err
				}
				ended, err := a.tracker.Block(b.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ended #%d %s after %s\n", ended.ID, ended.Name, a.span(ended, false))
				return nil
			})
		},
	}
}

func newRenameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name...>",
		Short: "Rename a block or lap",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				b, err := a.blockArg(args[0])
				if err != nil {
					return err
				}
				name := strings.Join(args[1:], " ")
				if err := a.tracker.Rename(b, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renamed #%d to %s\n", b.ID, name)
				return nil
			})
		},
	}
}

func newMemoCmd(opts *rootOptions) *cobra.Command {
	var dayMemo bool
	cmd := &cobra.Command{
		Use:   "memo <id> <text...>",
		Short: "Set the memo of a block or lap, or of today with --day",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if dayMemo {
					day, err := a.tracker.EnsureToday(a.tracker.Now())
					if err != nil {
						return err
					}
					if err := a.tracker.SetDayMemo(day, strings.Join(args, " ")); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "memo saved for %s\n", day.Date)
					return nil
				}
				if len(args) < 2 {
					return errors.New("memo needs a block id and the memo text")
				}
				b, err := a.blockArg(args[0])
				if err != nil {
					return err
				}
				if err := a.tracker.SetMemo(b, strings.Join(args[1:], " ")); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "memo saved for #%d\n", b.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dayMemo, "day", false, "set today's memo instead of a block's")
	return cmd
}

func newGoalCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goal <minutes|none>",
		Short: "Set or clear today's goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var minutes *int
			if args[0] != "none" {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid goal %q: want minutes or none", args[0])
				}
				minutes = &n
			}
			return withApp(opts, func(a *app) error {
				day, err := a.tracker.EnsureToday(a.tracker.Now())
				if err != nil {
					return err
				}
				if err := a.tracker.SetGoal(day, minutes); err != nil {
					return err
				}
				if minutes == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "goal cleared for %s\n", day.Date)
					return nil
				}
				goal := timefmt.Span(time.Duration(*minutes)*time.Minute, a.lang, false)
				fmt.Fprintf(cmd.OutOrStdout(), "goal for %s set to %s\n", day.Date, goal)
				return nil
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a block and all of its laps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				b, err := a.blockArg(args[0])
				if err != nil {
					return err
				}
				n, err := a.tracker.DeleteBlock(b)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d %s (%d records)\n", b.ID, b.Name, n)
				return nil
			})
		},
	}
}

func (a *app) blockArg(s string) (*store.TimeBlock, error) {
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	b, err := a.tracker.Block(id)
	if err != nil {
		return nil, fmt.Errorf("block #%d: %w", id, err)
	}
	return b, nil
}

// targetBlock resolves an optional id argument, defaulting to today's
// running block.
func (a *app) targetBlock(args []string) (*store.TimeBlock, error) {
	if len(args) == 1 {
		return a.blockArg(args[0])
	}
	day, err := a.tracker.Day(a.tracker.Now())
	if err != nil {
		return nil, err
	}
	b, err := a.tracker.RunningBlock(day)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errNoRunningBlock
	}
	return b, nil
}

func (a *app) clock(t time.Time) string {
	return timefmt.Clock(t.In(a.tracker.Location()), a.lang)
}

func (a *app) span(b *store.TimeBlock, withSeconds bool) string {
	start, end := tracker.Duration(b, a.tracker.Now())
	return timefmt.Duration(start, end, a.lang, withSeconds)
}
