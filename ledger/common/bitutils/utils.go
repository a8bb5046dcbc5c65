package bitutils

import "math/bits"

// ReadBit returns the bit at index `idx` in the byte array `b`. Bits are
// numbered least significant first within each byte, so index 0 is
// `b[0] & 0x01` and index 9 is `b[1] & 0x02`.
// The function panics, if the byte slice is too short.
func ReadBit(b []byte, idx uint64) int {
	byteValue := int(b[idx>>3])
	return (byteValue >> (idx & 7)) & 1
}

// WriteBit assigns value `v` to the bit at index `i` in the byte array `b`.
// The function panics, if the byte slice is too short. We follow the common
// convention of converting between integer and boolean/bit values:
//   - int value == 0   <=>   false   <=>   bit 0
//   - int value != 0   <=>   true    <=>   bit 1
func WriteBit(b []byte, i uint64, value int) {
	if value == 0 {
		ClearBit(b, i)
	} else {
		SetBit(b, i)
	}
}

// SetBit sets the bit at index `i` in the byte array `b`, i.e. it assigns
// value 1 to the bit. The function panics, if the byte slice is too short.
func SetBit(b []byte, i uint64) {
	b[i>>3] |= byte(1 << (i & 7))
}

// ClearBit clears the bit at index `i` in the byte slice `b`, i.e. it assigns
// value 0 to the bit. The function panics, if the byte slice is too short.
func ClearBit(b []byte, i uint64) {
	b[i>>3] &= ^byte(1 << (i & 7))
}

// MakeBitVector allocates a byte slice of minimal size that can hold numberBits.
func MakeBitVector(numberBits uint64) []byte {
	return make([]byte, (numberBits+7)>>3)
}

// OnesCount returns the number of set bits in `b`.
func OnesCount(b []byte) int {
	n := 0
	for _, v := range b {
		n += bits.OnesCount8(v)
	}
	return n
}
