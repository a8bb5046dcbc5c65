package operation

import (
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage"
	"github.com/sharely/questkit/utils/unittest"
)

func TestScanCursor(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var cursor quest.ScanCursor
		err := db.View(RetrieveScanCursor("events", &cursor))
		require.True(t, errors.Is(err, storage.ErrNotFound))

		expected := quest.ScanCursor{
			LastSignature: unittest.SignatureFixture(),
			Pending:       []string{unittest.SignatureFixture(), unittest.SignatureFixture()},
			UpdatedAt:     time.Unix(1_700_000_000, 12345).UTC(),
		}
		require.NoError(t, db.Update(UpsertScanCursor("events", expected)))
		require.NoError(t, db.View(RetrieveScanCursor("events", &cursor)))
		assert.Equal(t, expected, cursor)

		// another scanner name is independent
		err = db.View(RetrieveScanCursor("events-2", &cursor))
		require.True(t, errors.Is(err, storage.ErrNotFound))

		expected.Pending = nil
		require.NoError(t, db.Update(UpsertScanCursor("events", expected)))
		require.NoError(t, db.View(RetrieveScanCursor("events", &cursor)))
		assert.Equal(t, expected.LastSignature, cursor.LastSignature)
		assert.Empty(t, cursor.Pending)

		require.NoError(t, db.Update(RemoveScanCursor("events")))
		err = db.View(RetrieveScanCursor("events", &cursor))
		require.True(t, errors.Is(err, storage.ErrNotFound))

		// removing twice is a no-op
		require.NoError(t, db.Update(RemoveScanCursor("events")))
	})
}

func TestCodec(t *testing.T) {
	val, err := encodeEntity(cursorRecord{LastSignature: "abc"})
	require.NoError(t, err)

	// stored values are snappy blocks around msgpack
	raw, err := snappy.Decode(nil, val)
	require.NoError(t, err)
	var plain cursorRecord
	require.NoError(t, msgpack.Unmarshal(raw, &plain))
	assert.Equal(t, "abc", plain.LastSignature)

	var record cursorRecord
	require.NoError(t, decodeValue(val, &record))
	assert.Equal(t, "abc", record.LastSignature)
}

func TestCodec_CorruptValue(t *testing.T) {
	var record cursorRecord
	err := decodeValue([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, &record)
	require.Error(t, err)
	assert.True(t, errors.Is(err, quest.ErrIntegrity))
	assert.Empty(t, record.LastSignature)
}
