package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortInput is wrapped by every Read function when input has fewer bytes
// than the value being read.
var ErrShortInput = errors.New("input too short")

func shortInput(need int, got int) error {
	return fmt.Errorf("input size (%d) must be at least %d bytes: %w", got, need, ErrShortInput)
}

// AppendUint8 appends the value byte to the input slice
func AppendUint8(input []byte, value uint8) []byte {
	return append(input, value)
}

// AppendUint16 appends the value bytes (little endian) to the input slice
func AppendUint16(input []byte, value uint16) []byte {
	return binary.LittleEndian.AppendUint16(input, value)
}

// AppendUint32 appends the value bytes (little endian) to the input slice
func AppendUint32(input []byte, value uint32) []byte {
	return binary.LittleEndian.AppendUint32(input, value)
}

// AppendUint64 appends the value bytes (little endian) to the input slice
func AppendUint64(input []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(input, value)
}

// AppendInt64 appends the two's complement value bytes (little endian) to the input slice
func AppendInt64(input []byte, value int64) []byte {
	return binary.LittleEndian.AppendUint64(input, uint64(value))
}

// ReadUint8 reads a uint8 from the input and returns the rest
func ReadUint8(input []byte) (value uint8, rest []byte, err error) {
	if len(input) < 1 {
		return 0, input, shortInput(1, len(input))
	}
	return input[0], input[1:], nil
}

// ReadUint16 reads a little endian uint16 from the input and returns the rest
func ReadUint16(input []byte) (value uint16, rest []byte, err error) {
	if len(input) < 2 {
		return 0, input, shortInput(2, len(input))
	}
	return binary.LittleEndian.Uint16(input[:2]), input[2:], nil
}

// ReadUint32 reads a little endian uint32 from the input and returns the rest
func ReadUint32(input []byte) (value uint32, rest []byte, err error) {
	if len(input) < 4 {
		return 0, input, shortInput(4, len(input))
	}
	return binary.LittleEndian.Uint32(input[:4]), input[4:], nil
}

// ReadUint64 reads a little endian uint64 from the input and returns the rest
func ReadUint64(input []byte) (value uint64, rest []byte, err error) {
	if len(input) < 8 {
		return 0, input, shortInput(8, len(input))
	}
	return binary.LittleEndian.Uint64(input[:8]), input[8:], nil
}

// ReadInt64 reads a little endian two's complement int64 from the input and returns the rest
func ReadInt64(input []byte) (value int64, rest []byte, err error) {
	v, rest, err := ReadUint64(input)
	return int64(v), rest, err
}

// ReadSlice reads `size` bytes from the input and returns the rest.
// The returned slice aliases input.
func ReadSlice(input []byte, size int) (value []byte, rest []byte, err error) {
	if len(input) < size {
		return nil, input, shortInput(size, len(input))
	}
	return input[:size], input[size:], nil
}
