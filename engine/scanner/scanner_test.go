package scanner

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/ledger/common/encoding"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage/inmemory"
	"github.com/sharely/questkit/utils/unittest"
)

type scannerFixture struct {
	program quest.Identifier
	questID quest.Identifier
	feed    *fakeFeed
	store   *inmemory.ScanCursors
	config  Config
}

func newScannerFixture(t *testing.T, claims int) (*scannerFixture, []events.Claimed) {
	f := &scannerFixture{
		program: unittest.IdentifierFixture(),
		questID: unittest.IdentifierFixture(),
		feed:    newFakeFeed(),
		store:   inmemory.NewScanCursors(),
	}
	f.config = DefaultConfig()
	f.config.Program = f.program
	f.config.PageSize = 3
	f.config.CheckpointInterval = 2

	expected := make([]events.Claimed, 0, claims)
	for i := 0; i < claims; i++ {
		tx, e := claimTx(t, f.program, f.questID, uint64(i), uint64(10+i/2))
		f.feed.add(tx)
		expected = append(expected, e)
	}
	return f, expected
}

func (f *scannerFixture) scanner(t *testing.T, opts ...Option) *Scanner {
	opts = append([]Option{WithCursorStore(f.store)}, opts...)
	s, err := New(unittest.Logger(), f.feed, f.config, opts...)
	require.NoError(t, err)
	return s
}

func claims(envelopes []events.Envelope) []events.Claimed {
	out := make([]events.Claimed, 0, len(envelopes))
	for _, env := range envelopes {
		if c, ok := env.Event.(events.Claimed); ok {
			out = append(out, c)
		}
	}
	return out
}

func TestScanEmptyFeed(t *testing.T) {
	f, _ := newScannerFixture(t, 0)
	s := f.scanner(t)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Equal(t, 0, result.Pages)
	assert.True(t, result.Cursor.IsZero())
	assert.Equal(t, 0, f.store.Writes())
}

func TestScanOldestFirst(t *testing.T) {
	f, expected := newScannerFixture(t, 7)
	s := f.scanner(t)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	// 7 signatures at 3 per page
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 7, result.Signatures)
	assert.Equal(t, 7, result.Replayed)
	assert.Nil(t, result.Warnings)
	assert.Equal(t, expected, claims(result.Events))
	assert.True(t, sortedByPosition(result.Events))

	require.Len(t, result.ByQuest, 1)
	assert.Len(t, result.ByQuest[f.questID], 7)

	assert.Equal(t, f.feed.newest(), result.Cursor.LastSignature)
	assert.Empty(t, result.Cursor.Pending)

	stored, err := f.store.Cursor(f.config.Name)
	require.NoError(t, err)
	assert.Equal(t, result.Cursor.LastSignature, stored.LastSignature)
	assert.Empty(t, stored.Pending)
	assert.Equal(t, StateIdle, s.State())
}

// A cursor at the newest signature yields one empty page request, no events
// and no cursor write.
func TestScanCheckpointAtNewest(t *testing.T) {
	f, _ := newScannerFixture(t, 4)
	s := f.scanner(t)

	cursor := quest.ScanCursor{LastSignature: f.feed.newest()}
	result, err := s.Scan(context.Background(), cursor)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Pages)
	assert.Empty(t, result.Events)
	assert.Equal(t, cursor, result.Cursor)
	assert.Equal(t, 1, f.feed.pageCalls)
	assert.Empty(t, f.feed.fetched())
	assert.Equal(t, 0, f.store.Writes())
}

func TestScanIncremental(t *testing.T) {
	f, expected := newScannerFixture(t, 4)
	s := f.scanner(t)

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, claims(first.Events))

	var more []events.Claimed
	for i := 4; i < 6; i++ {
		tx, e := claimTx(t, f.program, f.questID, uint64(i), 20)
		f.feed.add(tx)
		more = append(more, e)
	}

	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, more, claims(second.Events))
	assert.Equal(t, f.feed.newest(), second.Cursor.LastSignature)

	third, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, third.Events)
}

func TestScanPaginationFailure(t *testing.T) {
	f, _ := newScannerFixture(t, 7)
	f.feed.failPage = 2
	s := f.scanner(t)

	result, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, quest.ErrTransientIO))
	assert.Equal(t, 0, f.store.Writes())
	assert.Empty(t, f.feed.fetched())
	assert.Equal(t, StateIdle, s.State())

	// retrying from the same store completes
	result, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Events, 7)
}

// An interrupted replay re-run from the same store must not miss events.
func TestScanInterruptedReplay(t *testing.T) {
	t.Run("without consumer", func(t *testing.T) {
		f, expected := newScannerFixture(t, 7)
		f.feed.failTx["sig-004"] = quest.NewTransientIOErrorf("node went away")
		s := f.scanner(t)

		_, err := s.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, quest.ErrTransientIO))

		stored, err := f.store.Cursor(f.config.Name)
		require.NoError(t, err)
		assert.Equal(t, f.feed.newest(), stored.LastSignature)
		assert.Len(t, stored.Pending, 7)
		assert.Equal(t, "sig-000", stored.Pending[0])

		delete(f.feed.failTx, "sig-004")
		result, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, claims(result.Events))
		assert.Empty(t, result.Cursor.Pending)
	})

	t.Run("with consumer", func(t *testing.T) {
		f, expected := newScannerFixture(t, 7)
		f.feed.failTx["sig-004"] = quest.NewTransientIOErrorf("node went away")

		var delivered []events.Envelope
		consumer := func(_ context.Context, batch []events.Envelope) error {
			delivered = append(delivered, batch...)
			return nil
		}
		s := f.scanner(t, WithConsumer(consumer))

		_, err := s.Run(context.Background())
		require.Error(t, err)

		// batches of two: sig-000 and sig-001, sig-002 and sig-003 were acknowledged
		stored, err := f.store.Cursor(f.config.Name)
		require.NoError(t, err)
		assert.Equal(t, []string{"sig-004", "sig-005", "sig-006"}, stored.Pending)
		assert.Equal(t, expected[:4], claims(delivered))

		delete(f.feed.failTx, "sig-004")
		_, err = s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, claims(delivered))

		stored, err = f.store.Cursor(f.config.Name)
		require.NoError(t, err)
		assert.Empty(t, stored.Pending)
	})

	t.Run("new transactions during interruption", func(t *testing.T) {
		f, expected := newScannerFixture(t, 4)
		f.feed.failTx["sig-001"] = quest.NewTransientIOErrorf("node went away")
		s := f.scanner(t)

		_, err := s.Run(context.Background())
		require.Error(t, err)

		for i := 4; i < 6; i++ {
			tx, e := claimTx(t, f.program, f.questID, uint64(i), 30)
			f.feed.add(tx)
			expected = append(expected, e)
		}
		delete(f.feed.failTx, "sig-001")

		result, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, claims(result.Events))
	})
}

func TestScanConsumerFailure(t *testing.T) {
	f, _ := newScannerFixture(t, 5)
	consumerErr := errors.New("downstream unavailable")
	calls := 0
	s := f.scanner(t, WithConsumer(func(context.Context, []events.Envelope) error {
		calls++
		if calls == 2 {
			return consumerErr
		}
		return nil
	}))

	_, err := s.Run(context.Background())
	require.ErrorIs(t, err, consumerErr)

	stored, err := f.store.Cursor(f.config.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig-002", "sig-003", "sig-004"}, stored.Pending)
}

func TestScanWarnings(t *testing.T) {
	f, _ := newScannerFixture(t, 0)
	other := unittest.IdentifierFixture()

	good := events.QuestStatusChanged{QuestAccount: f.questID, Status: quest.StatusPaused}
	encoded, err := encoding.EncodeEvent(good)
	require.NoError(t, err)

	f.feed.add(programTx(f.program, "good", 1, dataLine(t, good)))
	f.feed.add(programTx(f.program, "bad-base64", 2, "Program data: %%%"))
	f.feed.add(programTx(f.program, "truncated", 3, "Program data: "+b64(encoded[:len(encoded)-1])))
	f.feed.add(programTx(f.program, "unknown", 4, "Program data: "+b64([]byte("0123456789abcdef"))))
	f.feed.add(programTx(other, "other-program", 5, dataLine(t, good)))
	failed := programTx(f.program, "failed", 6, dataLine(t, good))
	failed.Failed = true
	f.feed.add(failed)
	f.feed.add(programTx(f.program, "missing", 7, dataLine(t, good)))
	f.feed.missing["missing"] = true
	f.feed.add(programTx(f.program, "good-2", 8, dataLine(t, good)))

	s := f.scanner(t)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Events, 2)
	assert.Equal(t, "good", result.Events[0].Position.Signature)
	assert.Equal(t, "good-2", result.Events[1].Position.Signature)
	assert.Equal(t, good, result.Events[0].Event)

	// bad base64, truncated payload and the missing transaction
	require.NotNil(t, result.Warnings)
	assert.Len(t, result.Warnings.Errors, 3)
	assert.True(t, errors.Is(result.Warnings, quest.ErrLayout))

	// the failed transaction is dropped during pagination
	assert.Equal(t, 2, result.Skipped)
	assert.NotContains(t, f.feed.fetched(), "failed")
}

func TestScanPositions(t *testing.T) {
	f, _ := newScannerFixture(t, 0)
	a := events.VaultFunded{Funder: unittest.IdentifierFixture(), QuestAccount: f.questID, Amount: 1}
	b := events.QuestStatusChanged{QuestAccount: f.questID, Status: quest.StatusActive}
	global := events.TreasuryUpdated{OldTreasury: unittest.IdentifierFixture(), NewTreasury: unittest.IdentifierFixture()}

	f.feed.add(programTx(f.program, "tx", 9, dataLine(t, a), "Program log: between", dataLine(t, b), dataLine(t, global)))

	result, err := f.scanner(t).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Events, 3)

	assert.Equal(t, events.Position{Signature: "tx", Slot: 9, Sequence: 0, LogIndex: 2}, result.Events[0].Position)
	assert.Equal(t, uint32(4), result.Events[1].Position.LogIndex)
	assert.Equal(t, uint32(5), result.Events[2].Position.LogIndex)
	// program wide events are not grouped under a quest
	assert.Len(t, result.ByQuest[f.questID], 2)
}

func TestScanParallelFetch(t *testing.T) {
	f, expected := newScannerFixture(t, 25)
	f.config.FetchWorkers = 4
	f.config.CheckpointInterval = 10
	f.config.PageSize = 7

	result, err := f.scanner(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, claims(result.Events))
	assert.Len(t, f.feed.fetched(), 25)
}

func TestScanParallelFetchFailure(t *testing.T) {
	f, _ := newScannerFixture(t, 10)
	f.config.FetchWorkers = 3
	f.config.CheckpointInterval = 10
	f.feed.failTx["sig-007"] = quest.NewTransientIOErrorf("timeout")

	_, err := f.scanner(t).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, quest.ErrTransientIO))
	assert.Contains(t, err.Error(), "sig-007")
}

func TestScanCancelled(t *testing.T) {
	f, _ := newScannerFixture(t, 3)
	s := f.scanner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.store.Writes())
}

func TestScanInProgress(t *testing.T) {
	f, _ := newScannerFixture(t, 3)
	f.feed.block = make(chan struct{})
	s := f.scanner(t)

	done := make(chan error)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return s.State() == StatePaginating
	}, time.Second, 5*time.Millisecond)

	_, err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrScanInProgress)

	close(f.feed.block)
	var runErr error
	unittest.RequireReturnsBefore(t, func() {
		runErr = <-done
	}, time.Second)
	require.NoError(t, runErr)
	assert.Equal(t, StateIdle, s.State())
}

func TestScanReset(t *testing.T) {
	f, _ := newScannerFixture(t, 3)
	s := f.scanner(t)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Reset())

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Events, 3)
}

func TestNewScannerValidatesConfig(t *testing.T) {
	config := DefaultConfig()
	_, err := New(unittest.Logger(), newFakeFeed(), config)
	assert.Error(t, err, "program must be set")

	config.Program = unittest.IdentifierFixture()
	config.PageSize = 0
	_, err = New(unittest.Logger(), newFakeFeed(), config)
	assert.Error(t, err)
}

func sortedByPosition(envelopes []events.Envelope) bool {
	for i := 1; i < len(envelopes); i++ {
		if envelopes[i].Position.Less(envelopes[i-1].Position) {
			return false
		}
	}
	return true
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
