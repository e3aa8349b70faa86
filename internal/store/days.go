package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dayColumns = `id, uid, date, memo, goal_minute, created_at`

// EnsureDay returns the Day for date, creating it when absent. created
// reports whether this call inserted the row. goal is only applied on insert.
func (s *Store) EnsureDay(date string, goal *int) (day *Day, created bool, err error) {
	now := formatTime(time.Now())
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO days (uid, date, goal_minute, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), date, nullInt(goal), now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("ensure day %s: %w", date, err)
	}
	n, _ := res.RowsAffected()
	day, err = s.GetDayByDate(date)
	if err != nil {
		return nil, false, err
	}
	return day, n > 0, nil
}

// GetDayByDate returns the Day keyed by date, or nil if there is none.
func (s *Store) GetDayByDate(date string) (*Day, error) {
	d, err := scanDay(s.db.QueryRow(`SELECT `+dayColumns+` FROM days WHERE date = ?`, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", date, err)
	}
	return d, nil
}

func (s *Store) GetDay(id int64) (*Day, error) {
	d, err := scanDay(s.db.QueryRow(`SELECT `+dayColumns+` FROM days WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get day %d: %w", id, err)
	}
	return d, nil
}

// ListDays returns the days in [from, to] (inclusive date keys) ordered by date.
func (s *Store) ListDays(from, to string) ([]Day, error) {
	rows, err := s.db.Query(
		`SELECT `+dayColumns+` FROM days WHERE date >= ? AND date <= ? ORDER BY date`, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var days []Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, *d)
	}
	return days, rows.Err()
}

func (s *Store) UpdateDayMemo(id int64, memo string) error {
	return s.execOne(`UPDATE days SET memo = ? WHERE id = ?`, memo, id)
}

// UpdateDayGoal sets the goal in minutes; nil clears it.
func (s *Store) UpdateDayGoal(id int64, goal *int) error {
	return s.execOne(`UPDATE days SET goal_minute = ? WHERE id = ?`, nullInt(goal), id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDay(r rowScanner) (*Day, error) {
	d := &Day{}
	var goal sql.NullInt64
	var createdAt string
	if err := r.Scan(&d.ID, &d.UID, &d.Date, &d.Memo, &goal, &createdAt); err != nil {
		return nil, err
	}
	if goal.Valid {
		g := int(goal.Int64)
		d.GoalMinute = &g
	}
	d.CreatedAt = parseTime(createdAt)
	return d, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// execOne runs an UPDATE that must touch exactly one row.
func (s *Store) execOne(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
