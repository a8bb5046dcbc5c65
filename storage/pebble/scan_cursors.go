package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage"
	"github.com/sharely/questkit/storage/pebble/operation"
)

// ScanCursors persists scanner cursors in pebble.
type ScanCursors struct {
	db *pebble.DB
}

var _ storage.ScanCursors = (*ScanCursors)(nil)

func NewScanCursors(db *pebble.DB) *ScanCursors {
	return &ScanCursors{db: db}
}

func (s *ScanCursors) Cursor(scanner string) (quest.ScanCursor, error) {
	var cursor quest.ScanCursor
	err := operation.RetrieveScanCursor(scanner, &cursor)(s.db)
	if err != nil {
		return quest.ScanCursor{}, fmt.Errorf("failed to retrieve scan cursor: %w", err)
	}
	return cursor, nil
}

func (s *ScanCursors) SetCursor(scanner string, cursor quest.ScanCursor) error {
	err := operation.InsertScanCursor(scanner, cursor)(s.db)
	if err != nil {
		return fmt.Errorf("could not update scan cursor: %w", err)
	}
	return nil
}

func (s *ScanCursors) RemoveCursor(scanner string) error {
	err := operation.RemoveScanCursor(scanner)(s.db)
	if err != nil {
		return fmt.Errorf("could not remove scan cursor: %w", err)
	}
	return nil
}
