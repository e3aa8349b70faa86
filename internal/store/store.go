package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS days (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		uid          TEXT NOT NULL UNIQUE,
		date         TEXT NOT NULL UNIQUE,
		memo         TEXT NOT NULL DEFAULT '',
		goal_minute  INTEGER,
		created_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_blocks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		uid         TEXT NOT NULL UNIQUE,
		day_id      INTEGER REFERENCES days(id) ON DELETE CASCADE,
		parent_id   INTEGER REFERENCES time_blocks(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		memo        TEXT NOT NULL DEFAULT '',
		start_time  TEXT NOT NULL,
		end_time    TEXT,
		created_at  TEXT NOT NULL,
		CHECK ((day_id IS NULL) <> (parent_id IS NULL)),
		CHECK (end_time IS NULL OR end_time >= start_time)
	);

	CREATE INDEX IF NOT EXISTS idx_blocks_day    ON time_blocks(day_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_blocks_parent ON time_blocks(parent_id, start_time);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('default_goal_minute', '0'),
		('report_days',         '7');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns <user config dir>/timeblocks/timeblocks.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "timeblocks", "timeblocks.db"), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
