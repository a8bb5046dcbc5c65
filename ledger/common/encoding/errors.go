package encoding

import (
	"errors"
	"fmt"

	"github.com/sharely/questkit/model/quest"
)

// ErrUnknownDiscriminator is returned when data does not start with the
// discriminator of any registered record. Logs of unrelated programs produce
// this routinely.
var ErrUnknownDiscriminator = errors.New("unknown discriminator")

// LayoutError is returned when bytes do not follow the layout they were
// decoded with.
type LayoutError struct {
	err error
}

// NewLayoutErrorf constructs a new LayoutError
func NewLayoutErrorf(msg string, args ...interface{}) LayoutError {
	return LayoutError{err: fmt.Errorf(msg, args...)}
}

func (e LayoutError) Error() string {
	return e.err.Error()
}

func (e LayoutError) Unwrap() error {
	return e.err
}

func (e LayoutError) Is(target error) bool {
	return target == quest.ErrLayout
}

// DiscriminatorMismatchError is returned when data is decoded as a record but
// carries another record's discriminator.
type DiscriminatorMismatchError struct {
	Record   string
	Expected Discriminator
	Actual   Discriminator
}

func (e DiscriminatorMismatchError) Error() string {
	return fmt.Sprintf("discriminator mismatch for %s: expected %x, got %x", e.Record, e.Expected[:], e.Actual[:])
}

func (e DiscriminatorMismatchError) Is(target error) bool {
	return target == quest.ErrLayout
}

// IsDiscriminatorMismatchError returns whether err is a DiscriminatorMismatchError
func IsDiscriminatorMismatchError(err error) bool {
	var e DiscriminatorMismatchError
	return errors.As(err, &e)
}

// UnknownLayoutVersionError is returned when a record's total length matches
// none of its registered layout versions.
type UnknownLayoutVersionError struct {
	Record string
	Length int
	Known  []int
}

func (e UnknownLayoutVersionError) Error() string {
	return fmt.Sprintf("unknown layout version for %s: total length %d, known lengths %v", e.Record, e.Length, e.Known)
}

func (e UnknownLayoutVersionError) Is(target error) bool {
	return target == quest.ErrLayout
}

// IsUnknownLayoutVersionError returns whether err is an UnknownLayoutVersionError
func IsUnknownLayoutVersionError(err error) bool {
	var e UnknownLayoutVersionError
	return errors.As(err, &e)
}
