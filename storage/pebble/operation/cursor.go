package operation

import (
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/sharely/questkit/model/quest"
)

type cursorRecord struct {
	LastSignature string
	Pending       []string
	UpdatedAt     int64
}

// InsertScanCursor stores the cursor of the named scanner, replacing any previous one.
func InsertScanCursor(scanner string, cursor quest.ScanCursor) func(pebble.Writer) error {
	return insert(makePrefix(codeScanCursor, scanner), cursorRecord{
		LastSignature: cursor.LastSignature,
		Pending:       cursor.Pending,
		UpdatedAt:     cursor.UpdatedAt.UnixNano(),
	})
}

// RetrieveScanCursor reads the cursor of the named scanner.
// Returns storage.ErrNotFound if none was stored.
func RetrieveScanCursor(scanner string, cursor *quest.ScanCursor) func(pebble.Reader) error {
	return func(r pebble.Reader) error {
		var record cursorRecord
		err := retrieve(makePrefix(codeScanCursor, scanner), &record)(r)
		if err != nil {
			return err
		}
		*cursor = quest.ScanCursor{
			LastSignature: record.LastSignature,
			Pending:       record.Pending,
			UpdatedAt:     time.Unix(0, record.UpdatedAt).UTC(),
		}
		return nil
	}
}

// RemoveScanCursor deletes the cursor of the named scanner.
func RemoveScanCursor(scanner string) func(pebble.Writer) error {
	return remove(makePrefix(codeScanCursor, scanner))
}
