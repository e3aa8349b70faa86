package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotOpen is returned when a close targets a block that is already closed.
var ErrNotOpen = errors.New("block is not open")

const blockColumns = `id, uid, day_id, parent_id, name, memo, start_time, end_time, created_at`

// InsertRootBlock creates a root block on dayID together with its first lap,
// both starting at start.
func (s *Store) InsertRootBlock(dayID int64, name, lapName string, start time.Time) (*TimeBlock, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	startStr := formatTime(start)
	res, err := tx.Exec(
		`INSERT INTO time_blocks (uid, day_id, name, start_time, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), dayID, name, startStr, formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	id, _ := res.LastInsertId()

	if err := insertLap(tx, id, lapName, startStr); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetBlock(id)
}

// CloseBlock sets end on both the root block and its last lap.
func (s *Store) CloseBlock(blockID, lapID int64, end time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	endStr := formatTime(end)
	for _, id := range []int64{lapID, blockID} {
		if err := closeOne(tx, id, endStr); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AppendLap closes lap closeID at at and appends a new lap named name to
// parentID starting at the same instant.
func (s *Store) AppendLap(parentID, closeID int64, name string, at time.Time) (*TimeBlock, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	atStr := formatTime(at)
	if err := closeOne(tx, closeID, atStr); err != nil {
		return nil, err
	}
	if err := insertLap(tx, parentID, name, atStr); err != nil {
		return nil, err
	}
	var id int64
	if err := tx.QueryRow(`SELECT last_insert_rowid()`).Scan(&id); err != nil {
		return nil, fmt.Errorf("lap id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetBlock(id)
}

// DeleteBlockTree removes a block and all of its descendants and reports how
// many rows were removed.
func (s *Store) DeleteBlockTree(id int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Cascaded rows are not reported by RowsAffected, so count the tree first.
	var n int64
	err = tx.QueryRow(`
		WITH RECURSIVE tree(id) AS (
			SELECT id FROM time_blocks WHERE id = ?
			UNION ALL
			SELECT b.id FROM time_blocks b JOIN tree t ON b.parent_id = t.id
		)
		SELECT COUNT(*) FROM tree`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count block tree %d: %w", id, err)
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := tx.Exec(`DELETE FROM time_blocks WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("delete block %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// GetBlock returns the block with id, or nil if there is none.
func (s *Store) GetBlock(id int64) (*TimeBlock, error) {
	b, err := scanBlock(s.db.QueryRow(`SELECT `+blockColumns+` FROM time_blocks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", id, err)
	}
	return b, nil
}

// ListRootBlocks returns the root blocks of a day in start order.
func (s *Store) ListRootBlocks(dayID int64) ([]TimeBlock, error) {
	return s.listBlocks(`day_id = ?`, dayID)
}

// ListSubBlocks returns the laps of a block in start order.
func (s *Store) ListSubBlocks(parentID int64) ([]TimeBlock, error) {
	return s.listBlocks(`parent_id = ?`, parentID)
}

func (s *Store) listBlocks(where string, arg int64) ([]TimeBlock, error) {
	rows, err := s.db.Query(
		`SELECT `+blockColumns+` FROM time_blocks WHERE `+where+` ORDER BY start_time, id`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []TimeBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

func (s *Store) UpdateBlockName(id int64, name string) error {
	return s.execOne(`UPDATE time_blocks SET name = ? WHERE id = ?`, name, id)
}

func (s *Store) UpdateBlockMemo(id int64, memo string) error {
	return s.execOne(`UPDATE time_blocks SET memo = ? WHERE id = ?`, memo, id)
}

// CountBlocks returns the number of time_blocks rows, laps included.
func (s *Store) CountBlocks() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM time_blocks`).Scan(&n)
	return n, err
}

func insertLap(tx *sql.Tx, parentID int64, name, start string) error {
	_, err := tx.Exec(
		`INSERT INTO time_blocks (uid, parent_id, name, start_time, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), parentID, name, start, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert lap: %w", err)
	}
	return nil
}

func closeOne(tx *sql.Tx, id int64, end string) error {
	res, err := tx.Exec(
		`UPDATE time_blocks SET end_time = ? WHERE id = ? AND end_time IS NULL`, end, id,
	)
	if err != nil {
		return fmt.Errorf("close block %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("close block %d: %w", id, ErrNotOpen)
	}
	return nil
}

func scanBlock(r rowScanner) (*TimeBlock, error) {
	b := &TimeBlock{}
	var dayID, parentID sql.NullInt64
	var startTime, createdAt string
	var endTime sql.NullString
	if err := r.Scan(&b.ID, &b.UID, &dayID, &parentID, &b.Name, &b.Memo, &startTime, &endTime, &createdAt); err != nil {
		return nil, err
	}
	if dayID.Valid {
		b.DayID = &dayID.Int64
	}
	if parentID.Valid {
		b.ParentID = &parentID.Int64
	}
	b.StartTime = parseTime(startTime)
	if endTime.Valid {
		t := parseTime(endTime.String)
		b.EndTime = &t
	}
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}
