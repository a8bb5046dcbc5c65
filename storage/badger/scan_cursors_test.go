package badger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage"
	bstorage "github.com/sharely/questkit/storage/badger"
	"github.com/sharely/questkit/utils/unittest"
)

func TestScanCursors(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		cursors := bstorage.NewScanCursors(db)

		_, err := cursors.Cursor("quests")
		require.True(t, errors.Is(err, storage.ErrNotFound))

		cursor := quest.ScanCursor{
			LastSignature: unittest.SignatureFixture(),
			Pending:       []string{unittest.SignatureFixture()},
			UpdatedAt:     time.Unix(1_700_000_123, 0).UTC(),
		}
		require.NoError(t, cursors.SetCursor("quests", cursor))

		stored, err := cursors.Cursor("quests")
		require.NoError(t, err)
		assert.Equal(t, cursor, stored)

		require.NoError(t, cursors.RemoveCursor("quests"))
		_, err = cursors.Cursor("quests")
		require.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestScanCursors_Reopen(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		cursor := quest.ScanCursor{
			LastSignature: unittest.SignatureFixture(),
			UpdatedAt:     time.Unix(1_700_000_456, 0).UTC(),
		}

		db, err := bstorage.Open(dir)
		require.NoError(t, err)
		require.NoError(t, bstorage.NewScanCursors(db).SetCursor("quests", cursor))
		require.NoError(t, db.Close())

		db, err = bstorage.Open(dir)
		require.NoError(t, err)
		defer db.Close()
		stored, err := bstorage.NewScanCursors(db).Cursor("quests")
		require.NoError(t, err)
		assert.Equal(t, cursor.LastSignature, stored.LastSignature)
		assert.True(t, cursor.UpdatedAt.Equal(stored.UpdatedAt))
	})
}
