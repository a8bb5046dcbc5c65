package operation

import (
	"time"

	"github.com/dgraph-io/badger/v2"

	"github.com/sharely/questkit/model/quest"
)

// cursorRecord is the stored form of a scan cursor.
type cursorRecord struct {
	LastSignature string
	Pending       []string
	UpdatedAt     int64
}

// UpsertScanCursor stores the cursor of the named scanner.
func UpsertScanCursor(scanner string, cursor quest.ScanCursor) func(*badger.Txn) error {
	record := cursorRecord{
		LastSignature: cursor.LastSignature,
		Pending:       cursor.Pending,
		UpdatedAt:     cursor.UpdatedAt.UnixNano(),
	}
	return upsert(makePrefix(codeScanCursor, scanner), record)
}

// RetrieveScanCursor reads the cursor of the named scanner.
// Returns storage.ErrNotFound if none was stored.
func RetrieveScanCursor(scanner string, cursor *quest.ScanCursor) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var record cursorRecord
		err := retrieve(makePrefix(codeScanCursor, scanner), &record)(tx)
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
func RemoveScanCursor(scanner string) func(*badger.Txn) error {
	return remove(makePrefix(codeScanCursor, scanner))
}
