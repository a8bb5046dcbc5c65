package merkle

import (
	"errors"
	"fmt"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
)

// EmptyInputError is returned when a tree is built from an empty leaf list.
type EmptyInputError struct{}

func (EmptyInputError) Error() string {
	return "cannot build merkle tree from an empty leaf list"
}

// Is matches the input error category.
func (EmptyInputError) Is(target error) bool {
	return target == quest.ErrInput
}

// IsEmptyInputError returns whether err is an EmptyInputError
func IsEmptyInputError(err error) bool {
	var e EmptyInputError
	return errors.As(err, &e)
}

// LeafNotFoundError is returned when a proof is requested for a leaf that is
// not part of the tree.
type LeafNotFoundError struct {
	Leaf hash.Hash
}

func (e LeafNotFoundError) Error() string {
	return fmt.Sprintf("leaf %s is not part of the tree", e.Leaf)
}

func (LeafNotFoundError) Is(target error) bool {
	return target == quest.ErrInput
}

// PositionOutOfRangeError is returned when a proof is requested for a leaf
// position beyond the number of leaves.
type PositionOutOfRangeError struct {
	Position uint64
	Size     int
}

func (e PositionOutOfRangeError) Error() string {
	return fmt.Sprintf("leaf position %d out of range for tree with %d leaves", e.Position, e.Size)
}

func (PositionOutOfRangeError) Is(target error) bool {
	return target == quest.ErrInput
}

// MalformedProofError is returned when the proof format has an issue
type MalformedProofError struct {
	err error
}

// NewMalformedProofErrorf constructs a new MalformedProofError
func NewMalformedProofErrorf(msg string, args ...interface{}) *MalformedProofError {
	return &MalformedProofError{err: fmt.Errorf(msg, args...)}
}

func (e MalformedProofError) Error() string {
	return fmt.Sprintf("malformed proof, %s", e.err.Error())
}

// Unwrap unwraps the error
func (e MalformedProofError) Unwrap() error {
	return e.err
}

func (e MalformedProofError) Is(target error) bool {
	return target == quest.ErrInput
}

// InvalidProofError is returned when the proof format is right but
// verification has failed given other data parts (e.g. it doesn't match the given root hash)
type InvalidProofError struct {
	err error
}

// NewInvalidProofErrorf constructs a new InvalidProofError
func NewInvalidProofErrorf(msg string, args ...interface{}) *InvalidProofError {
	return &InvalidProofError{err: fmt.Errorf(msg, args...)}
}

func (e InvalidProofError) Error() string {
	return fmt.Sprintf("invalid proof, %s", e.err.Error())
}

// Unwrap unwraps the error
func (e InvalidProofError) Unwrap() error {
	return e.err
}

func (e InvalidProofError) Is(target error) bool {
	return target == quest.ErrIntegrity
}
