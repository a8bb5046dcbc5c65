package inmemory

import (
	"sync"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage"
)

// ScanCursors keeps scanner cursors in memory. Cursors are copied on the way
// in and out so callers cannot alias stored pending lists.
type ScanCursors struct {
	mu      sync.Mutex
	cursors map[string]quest.ScanCursor
	// Writes counts successful SetCursor calls.
	writes int
}

var _ storage.ScanCursors = (*ScanCursors)(nil)

func NewScanCursors() *ScanCursors {
	return &ScanCursors{
		cursors: make(map[string]quest.ScanCursor),
	}
}

func (s *ScanCursors) Cursor(scanner string) (quest.ScanCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, ok := s.cursors[scanner]
	if !ok {
		return quest.ScanCursor{}, storage.ErrNotFound
	}
	return clone(cursor), nil
}

func (s *ScanCursors) SetCursor(scanner string, cursor quest.ScanCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[scanner] = clone(cursor)
	s.writes++
	return nil
}

func (s *ScanCursors) RemoveCursor(scanner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cursors, scanner)
	return nil
}

// Writes returns how many times a cursor was written.
func (s *ScanCursors) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func clone(c quest.ScanCursor) quest.ScanCursor {
	if c.Pending != nil {
		c.Pending = append([]string(nil), c.Pending...)
	}
	return c
}
