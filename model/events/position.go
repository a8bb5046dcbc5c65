package events

import "fmt"

// Position locates an event in the ledger's total order.
type Position struct {
	// Signature of the transaction that emitted the event.
	Signature string
	// Slot the transaction was included in.
	Slot uint64
	// Sequence is the transaction's position in replay order, oldest first.
	// It orders transactions that share a slot.
	Sequence uint64
	// LogIndex is the index of the emitting log line within the transaction.
	LogIndex uint32
}

// Less reports whether p is ordered strictly before o.
func (p Position) Less(o Position) bool {
	if p.Slot != o.Slot {
		return p.Slot < o.Slot
	}
	if p.Sequence != o.Sequence {
		return p.Sequence < o.Sequence
	}
	return p.LogIndex < o.LogIndex
}

func (p Position) String() string {
	return fmt.Sprintf("%s@%d/%d", p.Signature, p.Slot, p.LogIndex)
}

// Envelope is a decoded event together with its position.
type Envelope struct {
	Position Position
	Event    Event
}

// EnvelopeList is sortable by position.
type EnvelopeList []Envelope

func (l EnvelopeList) Len() int           { return len(l) }
func (l EnvelopeList) Less(i, j int) bool { return l[i].Position.Less(l[j].Position) }
func (l EnvelopeList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }
