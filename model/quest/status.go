package quest

import "fmt"

// Status is the lifecycle status of a quest account.
type Status uint8

const (
	StatusPending Status = iota
	StatusActive
	StatusPaused
	StatusClosed
	StatusCancelled
)

var statusStrings = map[Status]string{
	StatusPending:   "pending",
	StatusActive:    "active",
	StatusPaused:    "paused",
	StatusClosed:    "closed",
	StatusCancelled: "cancelled",
}

// String returns the lowercase name of the status.
func (s Status) String() string {
	str, ok := statusStrings[s]
	if !ok {
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
	return str
}

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	_, ok := statusStrings[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}
