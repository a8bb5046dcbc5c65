package eligibility_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/ledger/common/bitutils"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module/eligibility"
	"github.com/sharely/questkit/storage/merkle"
	"github.com/sharely/questkit/utils/unittest"
)

func TestIsEligible(t *testing.T) {
	entries := unittest.EntryFixtures(7)
	tree, err := merkle.BuildFromEntries(entries)
	require.NoError(t, err)

	for _, e := range entries {
		proof, err := tree.ProofAt(e.Index)
		require.NoError(t, err)

		assert.True(t, eligibility.IsEligible(e, proof, tree.Root()))
		assert.NoError(t, eligibility.CheckEligible(e, proof, tree.Root()))

		inflated := e
		inflated.Amount++
		assert.False(t, eligibility.IsEligible(inflated, proof, tree.Root()))

		moved := e
		moved.Index = (e.Index + 1) % 7
		assert.False(t, eligibility.IsEligible(moved, proof, tree.Root()))

		stolen := e
		stolen.Recipient = unittest.IdentifierFixture()
		err = eligibility.CheckEligible(stolen, proof, tree.Root())
		require.True(t, eligibility.IsNotEligibleError(err))
		assert.True(t, errors.Is(err, quest.ErrIntegrity))
	}
}

func TestIsAlreadyClaimed(t *testing.T) {
	b := bitutils.MakeBitVector(24)
	set := map[uint64]bool{0: true, 3: true, 8: true, 15: true, 23: true}
	for i := range set {
		bitutils.SetBit(b, i)
	}
	// hand check of the bit order
	assert.Equal(t, []byte{0x09, 0x81, 0x80}, b)

	for i := uint64(0); i < 24; i++ {
		claimed, err := eligibility.IsAlreadyClaimed(i, b)
		require.NoError(t, err)
		assert.Equal(t, set[i], claimed, "index %d", i)
	}

	for _, i := range []uint64{24, 25, 1 << 40} {
		_, err := eligibility.IsAlreadyClaimed(i, b)
		require.True(t, eligibility.IsIndexOutOfRangeError(err))
		assert.True(t, errors.Is(err, quest.ErrInput))
	}

	_, err := eligibility.IsAlreadyClaimed(0, nil)
	assert.True(t, eligibility.IsIndexOutOfRangeError(err))
}

func TestIsAlreadyClaimedIn(t *testing.T) {
	account := &quest.ClaimBitmap{UserCount: 10, Bits: []byte{0x00, 0x02}}

	claimed, err := eligibility.IsAlreadyClaimedIn(9, account)
	require.NoError(t, err)
	assert.True(t, claimed)

	// within the bits but beyond the user count
	_, err = eligibility.IsAlreadyClaimedIn(10, account)
	var outOfRange eligibility.IndexOutOfRangeError
	require.True(t, errors.As(err, &outOfRange))
	assert.Equal(t, uint64(10), outOfRange.Limit)
}

func TestClaimInstruction(t *testing.T) {
	entry := quest.Entry{Index: 5, Recipient: unittest.IdentifierFixture(), Amount: 0x0102}
	proof := merkle.Proof{unittest.HashFixture(), unittest.HashFixture()}

	data, err := eligibility.ClaimInstruction(entry, proof)
	require.NoError(t, err)
	require.Len(t, data, 8+8+8+4+64)

	assert.Equal(t, []byte{5, 0, 0, 0, 0, 0, 0, 0}, data[8:16])
	assert.Equal(t, []byte{2, 1, 0, 0, 0, 0, 0, 0}, data[16:24])
	assert.Equal(t, []byte{2, 0, 0, 0}, data[24:28])
	assert.Equal(t, proof[0][:], data[28:60])
	assert.Equal(t, proof[1][:], data[60:92])

	_, err = eligibility.ClaimInstruction(entry, make(merkle.Proof, merkle.MaxProofNodes+1))
	var malformed *merkle.MalformedProofError
	assert.True(t, errors.As(err, &malformed))
}
