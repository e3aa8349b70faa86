// Package logging builds the hclog logger shared by the CLI, the TUI and the
// tracker. The TUI owns the terminal, so logs go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// New opens (appending) the log file at path and returns a logger writing to
// it at level. Close the returned io.Closer when done. An empty path
// discards all output.
func New(path, level string) (hclog.Logger, io.Closer, error) {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}
	if path == "" {
		return hclog.NewNullLogger(), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, lvl), f, nil
}

func newLogger(w io.Writer, lvl hclog.Level) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "timeblocks",
		Output: w,
		Level:  lvl,
	})
}
