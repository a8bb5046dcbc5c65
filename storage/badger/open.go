package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
)

// Open opens the badger database at dir.
func Open(dir string) (*badger.DB, error) {
	opts := badger.
		DefaultOptions(dir).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger db at %s: %w", dir, err)
	}
	return db, nil
}
