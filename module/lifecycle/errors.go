package lifecycle

import (
	"errors"
	"fmt"

	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
)

// ErrOutOfOrder is returned when an event is applied at a position before
// the last applied one.
var ErrOutOfOrder = errors.New("event applied out of order")

// AnomalyError reports an event that contradicts the tracked state of its
// quest. The event is still applied where possible.
type AnomalyError struct {
	Quest    quest.Identifier
	Position events.Position
	Reason   string
}

func (e AnomalyError) Error() string {
	return fmt.Sprintf("quest %s at %s: %s", e.Quest, e.Position, e.Reason)
}

// IsAnomalyError returns whether err is an AnomalyError
func IsAnomalyError(err error) bool {
	var e AnomalyError
	return errors.As(err, &e)
}
