package pebble_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage"
	pstorage "github.com/sharely/questkit/storage/pebble"
	"github.com/sharely/questkit/utils/unittest"
)

func TestScanCursors(t *testing.T) {
	unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
		cursors := pstorage.NewScanCursors(db)

		_, err := cursors.Cursor("quests")
		require.True(t, errors.Is(err, storage.ErrNotFound))

		cursor := quest.ScanCursor{
			LastSignature: unittest.SignatureFixture(),
			Pending:       []string{unittest.SignatureFixture(), unittest.SignatureFixture()},
			UpdatedAt:     time.Unix(1_700_000_789, 0).UTC(),
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

func TestOpenDB(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		db, err := pstorage.OpenDB(dir)
		require.NoError(t, err)

		cursor := quest.ScanCursor{LastSignature: "sig", UpdatedAt: time.Unix(5, 0).UTC()}
		require.NoError(t, pstorage.NewScanCursors(db).SetCursor("quests", cursor))
		require.NoError(t, db.Close())

		db, err = pstorage.OpenDB(dir)
		require.NoError(t, err)
		defer db.Close()

		stored, err := pstorage.NewScanCursors(db).Cursor("quests")
		require.NoError(t, err)
		assert.Equal(t, "sig", stored.LastSignature)
	})
}
