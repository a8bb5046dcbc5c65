package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage"
	"github.com/sharely/questkit/storage/badger/operation"
)

// ScanCursors persists scanner cursors in badger.
type ScanCursors struct {
	db *badger.DB
}

var _ storage.ScanCursors = (*ScanCursors)(nil)

func NewScanCursors(db *badger.DB) *ScanCursors {
	return &ScanCursors{
		db: db,
	}
}

func (s *ScanCursors) Cursor(scanner string) (quest.ScanCursor, error) {
	var cursor quest.ScanCursor
	err := s.db.View(operation.RetrieveScanCursor(scanner, &cursor))
	if err != nil {
		return quest.ScanCursor{}, fmt.Errorf("failed to retrieve scan cursor: %w", err)
	}
	return cursor, nil
}

func (s *ScanCursors) SetCursor(scanner string, cursor quest.ScanCursor) error {
	err := operation.RetryOnConflict(s.db.Update, operation.UpsertScanCursor(scanner, cursor))
	if err != nil {
		return fmt.Errorf("could not update scan cursor: %w", err)
	}
	return nil
}

func (s *ScanCursors) RemoveCursor(scanner string) error {
	err := operation.RetryOnConflict(s.db.Update, operation.RemoveScanCursor(scanner))
	if err != nil {
		return fmt.Errorf("could not remove scan cursor: %w", err)
	}
	return nil
}
