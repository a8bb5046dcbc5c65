package quest

import "time"

// ScanCursor marks how far an incremental scan of the transaction feed has
// progressed.
//
// LastSignature is the newest signature observed by a completed pagination
// and bounds the next pagination. Pending holds the signatures collected by
// pagination that have not yet been replayed, oldest first. The zero value
// means scan from feed start.
type ScanCursor struct {
	LastSignature string
	Pending       []string
	UpdatedAt     time.Time
}

// IsZero reports whether nothing was ever scanned.
func (c ScanCursor) IsZero() bool {
	return c.LastSignature == "" && len(c.Pending) == 0
}
