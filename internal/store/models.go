package store

import "time"

// DateLayout is the key format of a Day.
const DateLayout = "2006-01-02"

// timeLayout is fixed width so that lexical order on the TEXT column is
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Day struct {
	ID         int64
	UID        string
	Date       string // YYYY-MM-DD in the user's local calendar
	Memo       string
	GoalMinute *int
	CreatedAt  time.Time
}

// TimeBlock is either a root block (DayID set) or a lap (ParentID set).
type TimeBlock struct {
	ID        int64
	UID       string
	DayID     *int64
	ParentID  *int64
	Name      string
	Memo      string
	StartTime time.Time
	EndTime   *time.Time
	CreatedAt time.Time
}

func (b TimeBlock) IsRoot() bool { return b.DayID != nil }

type Setting struct {
	Key   string
	Value string
}
