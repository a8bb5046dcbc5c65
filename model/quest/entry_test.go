package quest_test

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/utils/unittest"
)

func TestAssignIndices(t *testing.T) {
	t.Run("orders by base58 text", func(t *testing.T) {
		allocations := unittest.AllocationFixtures(20)
		input := append([]quest.Allocation(nil), allocations...)

		entries, err := quest.AssignIndices(allocations)
		require.NoError(t, err)
		require.Len(t, entries, 20)
		assert.Equal(t, input, allocations, "input must not be modified")

		names := make([]string, len(entries))
		for i, e := range entries {
			assert.Equal(t, uint64(i), e.Index)
			names[i] = e.Recipient.String()
		}
		assert.True(t, sort.StringsAreSorted(names))
		require.NoError(t, quest.CheckDense(entries))
	})

	t.Run("keeps amounts with their recipient", func(t *testing.T) {
		allocations := unittest.AllocationFixtures(5)
		amounts := make(map[quest.Identifier]uint64)
		for _, a := range allocations {
			amounts[a.Recipient] = a.Amount
		}
		entries, err := quest.AssignIndices(allocations)
		require.NoError(t, err)
		for _, e := range entries {
			assert.Equal(t, amounts[e.Recipient], e.Amount)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := quest.AssignIndices(nil)
		assert.ErrorIs(t, err, quest.ErrInput)
	})

	t.Run("duplicate recipient", func(t *testing.T) {
		allocations := unittest.AllocationFixtures(3)
		allocations = append(allocations, quest.Allocation{Recipient: allocations[1].Recipient, Amount: 1})
		_, err := quest.AssignIndices(allocations)
		assert.ErrorIs(t, err, quest.ErrInput)
	})
}

func TestCheckDense(t *testing.T) {
	entries := unittest.EntryFixtures(4)
	require.NoError(t, quest.CheckDense(entries))

	entries[2].Index = 7
	assert.ErrorIs(t, quest.CheckDense(entries), quest.ErrInput)
}

func TestTotalAmount(t *testing.T) {
	entries := []quest.Entry{{Index: 0, Amount: 5}, {Index: 1, Amount: 7}}
	total, err := quest.TotalAmount(entries)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), total)

	entries = append(entries, quest.Entry{Index: 2, Amount: math.MaxUint64})
	_, err = quest.TotalAmount(entries)
	assert.ErrorIs(t, err, quest.ErrInput)
}
