package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName rejects a block name that is empty or only whitespace.
	ErrEmptyName = errors.New("name is empty")
	// ErrAlreadyClosed is returned when ending or lapping a closed block.
	ErrAlreadyClosed = errors.New("block is already closed")
	// ErrNoSubBlocks means a root block lost its laps; the first lap is
	// created together with the block, so this is a broken invariant.
	ErrNoSubBlocks = errors.New("block has no sub-blocks")
	// ErrNotToday rejects block creation on any day other than today.
	ErrNotToday = errors.New("blocks can only be created today")
	// ErrNotRoot is returned when a root-only operation is given a lap.
	ErrNotRoot = errors.New("not a root block")
	ErrNotFound = errors.New("not found")
	ErrInvalidGoal = errors.New("goal must be a positive number of minutes")
	// ErrStoreUnavailable matches every *StoreError.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError reports a failed persistence call. The mutation it belongs to
// was not applied.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStoreUnavailable, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
