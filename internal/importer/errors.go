package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrValidationBlocked matches a *ValidationBlockedError.
	ErrValidationBlocked = errors.New("import blocked by rows missing required values")
	// ErrMissingActor is returned when no owner id is given.
	ErrMissingActor = errors.New("missing actor id")
)

// ValidationBlockedError is returned under AbortOnAnyError when at least one
// row is ineligible. Nothing is inserted.
type ValidationBlockedError struct {
	Rows []int // spreadsheet row numbers of ineligible rows
}

func (e *ValidationBlockedError) Error() string {
	const shown = 10
	rows := e.Rows
	more := ""
	if len(rows) > shown {
		more = fmt.Sprintf(" and %d more", len(rows)-shown)
		rows = rows[:shown]
	}
	nums := make([]string, len(rows))
	for i, r := range rows {
		nums[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("%v: rows %s%s", ErrValidationBlocked, strings.Join(nums, ", "), more)
}

// Is makes errors.Is(err, ErrValidationBlocked) work.
func (e *ValidationBlockedError) Is(target error) bool {
	return target == ErrValidationBlocked
}

// CommitTransportError is returned when storage rejects the batch as a whole
// or cannot be reached. Nothing is assumed imported.
type CommitTransportError struct {
	Err error
}

func (e *CommitTransportError) Error() string {
	return fmt.Sprintf("failed to store import batch: %v", e.Err)
}

func (e *CommitTransportError) Unwrap() error {
	return e.Err
}
