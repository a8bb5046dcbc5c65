package eligibility

import (
	"errors"
	"fmt"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
)

// ErrClaimRejected is matched by every ClaimRejectedError, as is quest.ErrInput.
var ErrClaimRejected = errors.New("claim rejected")

// IndexOutOfRangeError is returned when an index lies beyond the entries a
// bitmap can describe.
type IndexOutOfRangeError struct {
	Index uint64
	Limit uint64
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range, bitmap covers %d entries", e.Index, e.Limit)
}

func (IndexOutOfRangeError) Is(target error) bool {
	return target == quest.ErrInput
}

// IsIndexOutOfRangeError returns whether err is an IndexOutOfRangeError
func IsIndexOutOfRangeError(err error) bool {
	var e IndexOutOfRangeError
	return errors.As(err, &e)
}

// NotEligibleError is returned when the root recomputed from an entry and its
// proof differs from the committed root.
type NotEligibleError struct {
	Entry    quest.Entry
	Computed hash.Hash
	Expected hash.Hash
}

func (e NotEligibleError) Error() string {
	return fmt.Sprintf("entry %d of %s is not eligible: computed root %s, committed root %s",
		e.Entry.Index, e.Entry.Recipient, e.Computed, e.Expected)
}

func (NotEligibleError) Is(target error) bool {
	return target == quest.ErrIntegrity
}

// IsNotEligibleError returns whether err is a NotEligibleError
func IsNotEligibleError(err error) bool {
	var e NotEligibleError
	return errors.As(err, &e)
}

// ClaimRejectedError is returned when the quest state forbids a claim the
// ledger would reject anyway.
type ClaimRejectedError struct {
	Reason string
}

func (e ClaimRejectedError) Error() string {
	return fmt.Sprintf("claim rejected: %s", e.Reason)
}

func (ClaimRejectedError) Is(target error) bool {
	return target == ErrClaimRejected || target == quest.ErrInput
}
