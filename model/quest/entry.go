package quest

import (
	"sort"
)

// Entry is one recipient's allocation within a committed quest.
type Entry struct {
	Index     uint64     `json:"index"`
	Recipient Identifier `json:"user"`
	Amount    uint64     `json:"amount"`
}

// Allocation is a recipient's amount before indices are assigned.
type Allocation struct {
	Recipient Identifier `json:"user"`
	Amount    uint64     `json:"amount"`
}

// AssignIndices orders allocations by the base58 text of their recipient,
// ascending, and assigns dense indices 0..N-1 in that order. The input slice is
// not modified.
//
// Expected errors:
//   - InputError if the list is empty or names a recipient twice
func AssignIndices(allocations []Allocation) ([]Entry, error) {
	if len(allocations) == 0 {
		return nil, NewInputErrorf("allocation list is empty")
	}

	type keyed struct {
		key string
		Allocation
	}
	sorted := make([]keyed, 0, len(allocations))
	seen := make(map[Identifier]struct{}, len(allocations))
	for _, a := range allocations {
		if _, ok := seen[a.Recipient]; ok {
			return nil, NewInputErrorf("duplicate recipient %s", a.Recipient)
		}
		seen[a.Recipient] = struct{}{}
		sorted = append(sorted, keyed{key: a.Recipient.String(), Allocation: a})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].key < sorted[j].key
	})

	entries := make([]Entry, len(sorted))
	for i, a := range sorted {
		entries[i] = Entry{
			Index:     uint64(i),
			Recipient: a.Recipient,
			Amount:    a.Amount,
		}
	}
	return entries, nil
}

// CheckDense verifies that entries[i].Index == i for every entry.
func CheckDense(entries []Entry) error {
	for i, e := range entries {
		if e.Index != uint64(i) {
			return NewInputErrorf("entry at position %d has index %d", i, e.Index)
		}
	}
	return nil
}

// TotalAmount sums the amounts of all entries.
//
// Expected errors:
//   - InputError if the sum overflows uint64
func TotalAmount(entries []Entry) (uint64, error) {
	var total uint64
	for _, e := range entries {
		next := total + e.Amount
		if next < total {
			return 0, NewInputErrorf("total amount overflows at index %d", e.Index)
		}
		total = next
	}
	return total, nil
}
