package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/hashicorp/go-multierror"
)

// OpenDB opens the pebble database at dir and checks that it is readable.
func OpenDB(dir string) (*pebble.DB, error) {
	cache := pebble.NewCache(1 << 20)
	defer cache.Unref()

	db, err := pebble.Open(dir, &pebble.Options{Cache: cache})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	_, closer, err := db.Get([]byte{0})
	if err == nil {
		err = closer.Close()
	} else if err == pebble.ErrNotFound {
		err = nil
	}
	if err != nil {
		// closing the db if it cannot be read
		dbErr := db.Close()
		if dbErr != nil {
			err = multierror.Append(err, fmt.Errorf("failed to close db: %w", dbErr))
		}
		return nil, fmt.Errorf("failed to read db: %w", err)
	}
	return db, nil
}
