// Package eligibility decides whether an entry may claim against a committed
// root, and gates construction of the claim call.
package eligibility

import (
	"github.com/sharely/questkit/ledger/common/bitutils"
	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage/merkle"
)

// IsEligible recomputes the leaf of entry and verifies proof against root.
func IsEligible(entry quest.Entry, proof merkle.Proof, root hash.Hash) bool {
	leaf := hash.HashLeaf(entry.Index, entry.Recipient, entry.Amount)
	return merkle.Verify(leaf, proof, root)
}

// CheckEligible is IsEligible reporting a NotEligibleError on failure.
func CheckEligible(entry quest.Entry, proof merkle.Proof, root hash.Hash) error {
	leaf := hash.HashLeaf(entry.Index, entry.Recipient, entry.Amount)
	computed := proof.Fold(leaf)
	if computed != root {
		return NotEligibleError{Entry: entry, Computed: computed, Expected: root}
	}
	return nil
}

// IsAlreadyClaimed reads the claim bit of index.
//
// Expected errors:
//   - IndexOutOfRangeError if index >= 8*len(bitmap)
func IsAlreadyClaimed(index uint64, bitmap []byte) (bool, error) {
	limit := 8 * uint64(len(bitmap))
	if index >= limit {
		return false, IndexOutOfRangeError{Index: index, Limit: limit}
	}
	return bitutils.ReadBit(bitmap, index) == 1, nil
}

// IsAlreadyClaimedIn reads the claim bit of index from a decoded bitmap
// account, bounded by the account's user count.
//
// Expected errors:
//   - IndexOutOfRangeError if index >= UserCount or beyond the bits
func IsAlreadyClaimedIn(index uint64, account *quest.ClaimBitmap) (bool, error) {
	if index >= uint64(account.UserCount) {
		return false, IndexOutOfRangeError{Index: index, Limit: uint64(account.UserCount)}
	}
	return IsAlreadyClaimed(index, account.Bits)
}
