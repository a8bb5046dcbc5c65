package quest

import (
	"errors"
	"fmt"
)

// Error categories. Concrete error types in the codec, merkle, eligibility and
// scanner packages match exactly one of these with errors.Is.
var (
	// ErrInput marks malformed caller input: entry lists, wrong-length roots and
	// hashes, out-of-range indices. Never retried automatically.
	ErrInput = errors.New("invalid input")

	// ErrLayout marks a version skew between the codec and remote data: unknown
	// total length, discriminator mismatch, truncated records.
	ErrLayout = errors.New("layout mismatch")

	// ErrIntegrity marks a recomputed commitment that does not match the
	// committed one. It is an expected outcome, surfaced as ineligibility.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrTransientIO marks a network or feed failure that is safe to retry.
	ErrTransientIO = errors.New("transient io failure")
)

// InputError wraps a description of malformed input.
type InputError struct {
	err error
}

// NewInputErrorf constructs an InputError.
func NewInputErrorf(msg string, args ...interface{}) error {
	return InputError{err: fmt.Errorf(msg, args...)}
}

func (e InputError) Error() string {
	return e.err.Error()
}

func (e InputError) Unwrap() error {
	return e.err
}

func (e InputError) Is(target error) bool {
	return target == ErrInput
}

// TransientIOError is returned when a remote call failed in a way that is safe
// to retry by re-running the whole operation.
type TransientIOError struct {
	err error
}

// NewTransientIOErrorf constructs a TransientIOError.
func NewTransientIOErrorf(msg string, args ...interface{}) error {
	return TransientIOError{err: fmt.Errorf(msg, args...)}
}

func (e TransientIOError) Error() string {
	return fmt.Sprintf("transient io failure: %s", e.err.Error())
}

func (e TransientIOError) Unwrap() error {
	return e.err
}

func (e TransientIOError) Is(target error) bool {
	return target == ErrTransientIO
}

// IsTransientIOError returns whether err is or wraps a TransientIOError.
func IsTransientIOError(err error) bool {
	var e TransientIOError
	return errors.As(err, &e)
}
