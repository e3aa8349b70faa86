// Package cli wires configuration, logging, the store and the tracker into
// the timeblocks command line.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/sadopc/timeblocks/internal/config"
	"github.com/sadopc/timeblocks/internal/logging"
	"github.com/sadopc/timeblocks/internal/store"
	"github.com/sadopc/timeblocks/internal/timefmt"
	"github.com/sadopc/timeblocks/internal/tracker"
	"github.com/sadopc/timeblocks/internal/tui"
)

type rootOptions struct {
	configPath string
	dbPath     string
	clock      tracker.Clock
}

// NewRootCmd returns the timeblocks command. Without a subcommand it starts
// the terminal UI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{clock: tracker.SystemClock{}})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "timeblocks",
		Short:         "Track your day in time blocks and laps",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <config dir>/timeblocks/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path, overrides db_path from the config")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newTodayCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newLapCmd(opts))
	root.AddCommand(newEndCmd(opts))
	root.AddCommand(newRenameCmd(opts))
	root.AddCommand(newMemoCmd(opts))
	root.AddCommand(newGoalCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

type app struct {
	cfg     config.Config
	lang    timefmt.Locale
	log     hclog.Logger
	store   *store.Store
	tracker *tracker.Tracker
	logFile io.Closer
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "error", err)
		logFile.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database opened", "path", cfg.DBPath)

	tr := tracker.New(s, tracker.Options{
		Clock:    opts.clock,
		Location: loc,
		Namer:    cfg.Namer(),
		Logger:   logger.Named("tracker"),
	})
	return &app{
		cfg:     cfg,
		lang:    cfg.Language(),
		log:     logger,
		store:   s,
		tracker: tr,
		logFile: logFile,
	}, nil
}

func (a *app) Close() error {
	err := a.store.Close()
	a.logFile.Close()
	return err
}

// withApp runs fn with a loaded app and closes it afterwards.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := fn(a); err != nil {
		a.log.Debug("command failed", "error", err)
		return err
	}
	return nil
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}
}

func runTUI(opts *rootOptions) error {
	return withApp(opts, func(a *app) error {
		m := tui.NewApp(a.tracker, a.store, a.lang)
		p := tea.NewProgram(m, tea.WithAltScreen())
		_, err := p.Run()
		return err
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid block id %q", s)
	}
	return id, nil
}
