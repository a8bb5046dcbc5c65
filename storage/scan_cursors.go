package storage

import (
	"github.com/sharely/questkit/model/quest"
)

// ScanCursors reads and writes the resumption cursor of named feed scanners.
//
// Implementations are not safe for concurrent writers of the same scanner;
// callers run a single scanner per name.
type ScanCursors interface {
	// Cursor returns the persisted cursor of the scanner.
	// Errors:
	// storage.ErrNotFound if the scanner never persisted a cursor
	// No other errors are expected during normal operation
	Cursor(scanner string) (quest.ScanCursor, error)

	// SetCursor persists the cursor of the scanner, replacing any previous one.
	// No errors are expected during normal operation.
	SetCursor(scanner string, cursor quest.ScanCursor) error

	// RemoveCursor deletes the cursor so the next scan starts from feed start.
	// Removing a missing cursor is a no-op.
	// No errors are expected during normal operation.
	RemoveCursor(scanner string) error
}
