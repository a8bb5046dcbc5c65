// Package bitmap interprets claim bitmap snapshots. Bit i%8 of byte i/8 is set
// once the entry with index i has claimed.
package bitmap

import (
	"github.com/sharely/questkit/ledger/common/bitutils"
)

// CountClaimed returns the number of set bits.
func CountClaimed(bitmap []byte) int {
	return bitutils.OnesCount(bitmap)
}

// IsClaimed reports whether the bit for index is set. Indices beyond the
// bitmap are reported as unclaimed; use eligibility.IsAlreadyClaimed for a
// bounds checked read.
func IsClaimed(bitmap []byte, index uint64) bool {
	if index >= 8*uint64(len(bitmap)) {
		return false
	}
	return bitutils.ReadBit(bitmap, index) == 1
}

// Sequence is a finite, restartable sequence of claimed indices in ascending
// order. It reads the snapshot lazily and never copies it.
type Sequence struct {
	bitmap []byte
	limit  uint64
}

// ClaimedIndices returns the sequence of all set bits of bitmap.
func ClaimedIndices(bitmap []byte) Sequence {
	return Sequence{bitmap: bitmap, limit: 8 * uint64(len(bitmap))}
}

// ClaimedIndicesUpTo returns the set bits below userCount, ignoring padding
// bits in the last byte.
func ClaimedIndicesUpTo(bitmap []byte, userCount uint64) Sequence {
	limit := 8 * uint64(len(bitmap))
	if userCount < limit {
		limit = userCount
	}
	return Sequence{bitmap: bitmap, limit: limit}
}

// Iterator starts a new pass over the sequence.
func (s Sequence) Iterator() *Iterator {
	return &Iterator{seq: s}
}

// ForEach calls f for every index until f returns false.
func (s Sequence) ForEach(f func(index uint64) bool) {
	it := s.Iterator()
	for {
		index, ok := it.Next()
		if !ok || !f(index) {
			return
		}
	}
}

// Slice collects the whole sequence.
func (s Sequence) Slice() []uint64 {
	var indices []uint64
	s.ForEach(func(index uint64) bool {
		indices = append(indices, index)
		return true
	})
	return indices
}

// Iterator is a single pass over a Sequence.
type Iterator struct {
	seq  Sequence
	next uint64
}

// Next returns the next claimed index, or false once the sequence is exhausted.
func (it *Iterator) Next() (uint64, bool) {
	for it.next < it.seq.limit {
		byteIndex := it.next >> 3
		b := it.seq.bitmap[byteIndex]
		// skip empty bytes whole
		if b == 0 {
			it.next = (byteIndex + 1) << 3
			continue
		}
		index := it.next
		it.next++
		if bitutils.ReadBit(it.seq.bitmap, index) == 1 {
			return index, true
		}
	}
	return 0, false
}
