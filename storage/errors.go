package storage

import (
	"errors"
)

// ErrNotFound is returned by every store for a missing key. The badger
// operations translate badger.ErrKeyNotFound into it.
var ErrNotFound = errors.New("key not found")
