package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module/lifecycle"
	"github.com/sharely/questkit/utils/unittest"
)

type TrackerSuite struct {
	suite.Suite
	tracker *lifecycle.Tracker
	questID quest.Identifier
	slot    uint64
}

func TestTracker(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.tracker = lifecycle.NewTracker(unittest.Logger())
	s.questID = unittest.IdentifierFixture()
	s.slot = 0
}

// next wraps e at the next slot.
func (s *TrackerSuite) next(e events.Event) events.Envelope {
	s.slot++
	return events.Envelope{
		Position: events.Position{Signature: unittest.SignatureFixture(), Slot: s.slot},
		Event:    e,
	}
}

func (s *TrackerSuite) apply(e events.Event) error {
	return s.tracker.Apply(s.next(e))
}

func (s *TrackerSuite) activate(version uint32, userCount uint32) {
	s.Require().NoError(s.apply(events.QuestActivated{
		QuestAccount: s.questID,
		Version:      version,
		MerkleRoot:   unittest.HashFixture(),
		UserCount:    userCount,
		StartAt:      100,
		EndAt:        200,
		FeeAmount:    5,
	}))
}

func (s *TrackerSuite) claim(index uint64, amount uint64, version uint32) error {
	return s.apply(events.Claimed{
		QuestAccount: s.questID,
		User:         unittest.IdentifierFixture(),
		Index:        index,
		Amount:       amount,
		Version:      version,
	})
}

func (s *TrackerSuite) state() lifecycle.QuestState {
	state, ok := s.tracker.Quest(s.questID)
	s.Require().True(ok)
	return state
}

// TestFullLifecycle follows a quest from creation to close.
func (s *TrackerSuite) TestFullLifecycle() {
	merchant := unittest.IdentifierFixture()
	s.Require().NoError(s.apply(events.QuestCreated{
		QuestAccount: s.questID,
		QuestID:      7,
		Merchant:     merchant,
		Mint:         unittest.IdentifierFixture(),
		TotalAmount:  1000,
		StartAt:      10,
		EndAt:        20,
	}))
	s.Equal(quest.StatusPending, s.state().Status)

	s.Require().NoError(s.apply(events.VaultFunded{Funder: merchant, QuestAccount: s.questID, Amount: 600}))
	s.Require().NoError(s.apply(events.VaultFunded{Funder: merchant, QuestAccount: s.questID, Amount: 400}))
	s.Require().NoError(s.apply(events.BitmapInitialized{QuestAccount: s.questID, UserCount: 10, BitmapSize: 2}))
	s.activate(1, 10)

	s.Require().NoError(s.claim(0, 100, 1))
	s.Require().NoError(s.claim(9, 50, 1))

	s.Require().NoError(s.apply(events.QuestStatusChanged{QuestAccount: s.questID, Status: quest.StatusPaused}))
	s.Equal(quest.StatusPaused, s.state().Status)

	s.Require().NoError(s.apply(events.QuestClosed{QuestAccount: s.questID, RemainingTransferred: 845, FeeTransferred: 5, HasFee: true}))

	state := s.state()
	s.True(state.Created)
	s.Equal(uint64(7), state.QuestID)
	s.Equal(merchant, state.Merchant)
	s.Equal(uint64(1000), state.Funded)
	s.Equal(uint32(1), state.Version)
	s.Equal(uint32(10), state.UserCount)
	s.Equal(uint64(150), state.ClaimedAmount)
	s.Equal(2, state.ClaimCount)
	s.Equal([]uint64{0, 9}, state.ClaimedIndices())
	s.Equal(quest.StatusClosed, state.Status)
	s.Equal(uint64(845), state.RemainingTransferred)
	s.Equal(uint64(5), state.FeeTransferred)
	s.Equal(int64(100), state.StartAt)
}

// TestNewVersionResetsClaims checks that re-activation with a new root
// starts claim accounting from zero.
func (s *TrackerSuite) TestNewVersionResetsClaims() {
	s.activate(1, 4)
	s.Require().NoError(s.claim(1, 10, 1))
	s.Require().NoError(s.claim(2, 10, 1))

	s.activate(2, 4)
	state := s.state()
	s.Equal(0, state.ClaimCount)
	s.Empty(state.ClaimedIndices())

	// the same index may be claimed again under the new version
	s.Require().NoError(s.claim(1, 15, 2))
	s.Equal(uint64(15), s.state().ClaimedAmount)

	// a late claim of the old version is an anomaly
	err := s.claim(3, 10, 1)
	s.True(lifecycle.IsAnomalyError(err))
}

func (s *TrackerSuite) TestLegacyMerkleRootSet() {
	root := unittest.HashFixture()
	s.Require().NoError(s.apply(events.MerkleRootSet{QuestAccount: s.questID, Version: 3, MerkleRoot: root}))

	state := s.state()
	s.Equal(uint32(3), state.Version)
	s.Equal(hash.Hash(root), state.MerkleRoot)
	s.False(state.Created)
}

func (s *TrackerSuite) TestDoubleClaim() {
	s.activate(1, 4)
	s.Require().NoError(s.claim(2, 10, 1))

	err := s.claim(2, 10, 1)
	s.True(lifecycle.IsAnomalyError(err))
	s.Equal(1, s.state().ClaimCount)

	err = s.claim(4, 10, 1)
	s.True(lifecycle.IsAnomalyError(err), "index beyond user count")
}

func (s *TrackerSuite) TestCancelled() {
	s.activate(1, 4)
	s.Require().NoError(s.apply(events.QuestCancelled{QuestAccount: s.questID, RemainingTransferred: 70}))

	state := s.state()
	s.Equal(quest.StatusCancelled, state.Status)
	s.Equal(uint64(70), state.RemainingTransferred)
}

func (s *TrackerSuite) TestOutOfOrder() {
	first := s.next(events.QuestStatusChanged{QuestAccount: s.questID, Status: quest.StatusActive})
	second := s.next(events.QuestStatusChanged{QuestAccount: s.questID, Status: quest.StatusPaused})

	s.Require().NoError(s.tracker.Apply(second))
	err := s.tracker.Apply(first)
	s.True(errors.Is(err, lifecycle.ErrOutOfOrder))
	s.Equal(quest.StatusPaused, s.state().Status)
}

func (s *TrackerSuite) TestGlobalEvents() {
	admin := unittest.IdentifierFixture()
	treasury := unittest.IdentifierFixture()
	updated := unittest.IdentifierFixture()

	s.Require().NoError(s.apply(events.GlobalConfigInitialized{Admin: admin, Treasury: treasury}))
	s.Require().NoError(s.apply(events.TreasuryUpdated{OldTreasury: treasury, NewTreasury: updated}))

	gotAdmin, gotTreasury := s.tracker.Treasury()
	s.Equal(admin, gotAdmin)
	s.Equal(updated, gotTreasury)
	s.Empty(s.tracker.Quests())
}

func (s *TrackerSuite) TestConsumeSkipsAnomalies() {
	s.activate(1, 4)
	batch := []events.Envelope{
		s.next(events.Claimed{QuestAccount: s.questID, Index: 0, Amount: 1, Version: 1}),
		s.next(events.Claimed{QuestAccount: s.questID, Index: 0, Amount: 1, Version: 1}),
		s.next(events.Claimed{QuestAccount: s.questID, Index: 1, Amount: 1, Version: 1}),
	}
	s.Require().NoError(s.tracker.Consume(context.Background(), batch))
	s.Equal(2, s.state().ClaimCount)

	s.Error(s.tracker.ApplyAll(batch[:1]), "replaying an old batch is out of order")
}

func (s *TrackerSuite) TestQuestsSorted() {
	ids := unittest.IdentifierListFixture(5)
	for _, id := range ids {
		s.Require().NoError(s.apply(events.VaultFunded{QuestAccount: id, Amount: 1}))
	}
	quests := s.tracker.Quests()
	s.Require().Len(quests, 5)
	for i := 1; i < len(quests); i++ {
		s.Less(quests[i-1].Quest.String(), quests[i].Quest.String())
	}
}

func (s *TrackerSuite) TestUnknownQuest() {
	_, ok := s.tracker.Quest(unittest.IdentifierFixture())
	s.False(ok)
}
