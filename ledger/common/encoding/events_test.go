package encoding_test

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/ledger/common/encoding"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/utils/unittest"
)

func TestEventRoundTrip(t *testing.T) {
	questID := unittest.IdentifierFixture()
	seen := make(map[events.Type]bool)

	for _, e := range unittest.EventFixtures(questID) {
		e := e
		t.Run(e.Type().String(), func(t *testing.T) {
			data, err := encoding.EncodeEvent(e)
			require.NoError(t, err)

			expected := sha256.Sum256([]byte("event:" + e.Type().String()))
			assert.Equal(t, expected[:8], data[:8])

			decoded, err := encoding.DecodeEvent(data)
			require.NoError(t, err)
			assert.Equal(t, e, decoded)

			decoded, err = encoding.DecodeEventAs(e.Type(), data)
			require.NoError(t, err)
			assert.Equal(t, e, decoded)
		})
		seen[e.Type()] = true
	}

	for _, typ := range events.All() {
		assert.True(t, seen[typ], "no fixture for %s", typ)
	}
}

func TestQuestClosedVersions(t *testing.T) {
	questID := unittest.IdentifierFixture()

	v1, err := encoding.EncodeEvent(events.QuestClosed{QuestAccount: questID, RemainingTransferred: 10})
	require.NoError(t, err)
	assert.Len(t, v1, 48)

	v2, err := encoding.EncodeEvent(events.QuestClosed{QuestAccount: questID, RemainingTransferred: 10, FeeTransferred: 2, HasFee: true})
	require.NoError(t, err)
	assert.Len(t, v2, 56)
	assert.Equal(t, v1[:48], v2[:48])

	decoded, err := encoding.DecodeEvent(v2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), decoded.(events.QuestClosed).FeeTransferred)

	_, err = encoding.DecodeEvent(v2[:52])
	assert.True(t, encoding.IsUnknownLayoutVersionError(err))
}

func TestDecodeEvent_Errors(t *testing.T) {
	questID := unittest.IdentifierFixture()

	t.Run("unrelated data", func(t *testing.T) {
		_, err := encoding.DecodeEvent(unittest.RandomBytes(64))
		assert.True(t, errors.Is(err, encoding.ErrUnknownDiscriminator))
		assert.False(t, errors.Is(err, quest.ErrLayout))
	})

	t.Run("truncated", func(t *testing.T) {
		data, err := encoding.EncodeEvent(events.Claimed{QuestAccount: questID, Index: 1, Amount: 5, Version: 1})
		require.NoError(t, err)
		_, err = encoding.DecodeEvent(data[:len(data)-1])
		assert.True(t, encoding.IsUnknownLayoutVersionError(err))
		_, err = encoding.DecodeEvent(data[:4])
		assert.True(t, errors.Is(err, quest.ErrLayout))
	})

	t.Run("decode as other type", func(t *testing.T) {
		data, err := encoding.EncodeEvent(events.VaultFunded{QuestAccount: questID, Amount: 1})
		require.NoError(t, err)
		_, err = encoding.DecodeEventAs(events.TypeClaimed, data)
		assert.True(t, encoding.IsDiscriminatorMismatchError(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		data, err := encoding.EncodeEvent(events.QuestStatusChanged{QuestAccount: questID, Status: quest.StatusClosed})
		require.NoError(t, err)
		data[len(data)-1] = 200
		_, err = encoding.DecodeEvent(data)
		assert.True(t, errors.Is(err, quest.ErrLayout))
	})

	t.Run("account data is not an event", func(t *testing.T) {
		_, err := encoding.DecodeEvent(encoding.EncodeQuestSnapshot(unittest.SnapshotFixture()))
		assert.True(t, errors.Is(err, encoding.ErrUnknownDiscriminator))
	})
}

func TestClaimedLayout(t *testing.T) {
	e := events.Claimed{
		QuestAccount: unittest.IdentifierFixture(),
		User:         unittest.IdentifierFixture(),
		Index:        0x0A,
		Amount:       0x0102,
		Version:      3,
	}
	data, err := encoding.EncodeEvent(e)
	require.NoError(t, err)

	assert.Equal(t, e.QuestAccount[:], data[8:40])
	assert.Equal(t, e.User[:], data[40:72])
	assert.Equal(t, []byte{0x0A, 0, 0, 0, 0, 0, 0, 0}, data[72:80])
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, data[80:88])
	assert.Equal(t, []byte{3, 0, 0, 0}, data[88:92])
}
