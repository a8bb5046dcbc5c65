// Package lifecycle reconstructs quest state from the decoded event stream.
package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/sharely/questkit/ledger/common/bitutils"
	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module/bitmap"
)

// QuestState is the state of one quest as reconstructed from events.
type QuestState struct {
	Quest    quest.Identifier
	QuestID  uint64
	Merchant quest.Identifier
	Mint     quest.Identifier
	// Created is false when the creation event was not part of the scanned
	// history.
	Created     bool
	Status      quest.Status
	TotalAmount uint64
	Funded      uint64
	StartAt     int64
	EndAt       int64
	FeeAmount   uint64

	Version    uint32
	MerkleRoot hash.Hash
	UserCount  uint32

	// ClaimedAmount and ClaimCount cover the current version only.
	ClaimedAmount uint64
	ClaimCount    int
	claims        []byte

	RemainingTransferred uint64
	FeeTransferred       uint64

	Last events.Position
}

// ClaimedIndices returns the indices claimed under the current version.
func (s *QuestState) ClaimedIndices() []uint64 {
	return bitmap.ClaimedIndices(s.claims).Slice()
}

// Tracker folds events into per quest state. Events must be applied in
// ledger order. It is safe for concurrent use.
type Tracker struct {
	log      zerolog.Logger
	mu       sync.RWMutex
	quests   map[quest.Identifier]*QuestState
	admin    quest.Identifier
	treasury quest.Identifier
	last     events.Position
	applied  int
}

func NewTracker(log zerolog.Logger) *Tracker {
	return &Tracker{
		log:    log.With().Str("component", "lifecycle_tracker").Logger(),
		quests: make(map[quest.Identifier]*QuestState),
	}
}

// Apply folds one event into the tracked state.
//
// Expected errors:
//   - ErrOutOfOrder if env is positioned before the last applied event
//   - AnomalyError if the event contradicts the tracked state
func (t *Tracker) Apply(env events.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.applied > 0 && env.Position.Less(t.last) {
		return fmt.Errorf("%w: %s before %s", ErrOutOfOrder, env.Position, t.last)
	}
	t.last = env.Position
	t.applied++

	switch e := env.Event.(type) {
	case events.GlobalConfigInitialized:
		t.admin = e.Admin
		t.treasury = e.Treasury
		return nil
	case events.TreasuryUpdated:
		t.treasury = e.NewTreasury
		return nil
	}

	id, ok := env.Event.Quest()
	if !ok {
		return nil
	}
	state := t.state(id)
	state.Last = env.Position

	anomaly := func(format string, args ...interface{}) error {
		return AnomalyError{Quest: id, Position: env.Position, Reason: fmt.Sprintf(format, args...)}
	}

	switch e := env.Event.(type) {
	case events.QuestCreated:
		if state.Created {
			return anomaly("created twice")
		}
		state.Created = true
		state.QuestID = e.QuestID
		state.Merchant = e.Merchant
		state.Mint = e.Mint
		state.TotalAmount = e.TotalAmount
		state.StartAt = e.StartAt
		state.EndAt = e.EndAt
		state.Status = quest.StatusPending

	case events.VaultFunded:
		state.Funded += e.Amount

	case events.QuestStatusChanged:
		state.Status = e.Status

	case events.QuestActivated:
		t.newVersion(state, e.Version, e.MerkleRoot)
		state.UserCount = e.UserCount
		state.StartAt = e.StartAt
		state.EndAt = e.EndAt
		state.FeeAmount = e.FeeAmount
		state.Status = quest.StatusActive

	case events.MerkleRootSet:
		t.newVersion(state, e.Version, e.MerkleRoot)

	case events.BitmapInitialized:
		state.UserCount = e.UserCount
		state.claims = bitutils.MakeBitVector(uint64(e.UserCount))

	case events.Claimed:
		return t.claim(state, e, anomaly)

	case events.QuestClosed:
		state.Status = quest.StatusClosed
		state.RemainingTransferred = e.RemainingTransferred
		state.FeeTransferred = e.FeeTransferred

	case events.QuestCancelled:
		state.Status = quest.StatusCancelled
		state.RemainingTransferred = e.RemainingTransferred
	}
	return nil
}

// newVersion switches the quest to a new commitment. Claims of earlier
// versions no longer count.
func (t *Tracker) newVersion(state *QuestState, version uint32, root hash.Hash) {
	if version != state.Version {
		state.ClaimedAmount = 0
		state.ClaimCount = 0
		state.claims = nil
	}
	state.Version = version
	state.MerkleRoot = root
}

func (t *Tracker) claim(state *QuestState, e events.Claimed, anomaly func(string, ...interface{}) error) error {
	if e.Version != state.Version {
		return anomaly("claim of index %d for version %d, current version is %d", e.Index, e.Version, state.Version)
	}
	if state.UserCount > 0 && e.Index >= uint64(state.UserCount) {
		return anomaly("claim of index %d beyond user count %d", e.Index, state.UserCount)
	}

	needed := bitutils.MakeBitVector(e.Index + 1)
	if len(state.claims) < len(needed) {
		copy(needed, state.claims)
		state.claims = needed
	}
	if bitmap.IsClaimed(state.claims, e.Index) {
		return anomaly("index %d claimed twice", e.Index)
	}
	bitutils.SetBit(state.claims, e.Index)
	state.ClaimCount++
	state.ClaimedAmount += e.Amount
	return nil
}

func (t *Tracker) state(id quest.Identifier) *QuestState {
	state, ok := t.quests[id]
	if !ok {
		state = &QuestState{Quest: id}
		t.quests[id] = state
	}
	return state
}

// ApplyAll applies events in order and collects every error.
func (t *Tracker) ApplyAll(envelopes []events.Envelope) error {
	var errs *multierror.Error
	for _, env := range envelopes {
		err := t.Apply(env)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Consume applies a scanned batch. Anomalies are logged and do not fail the
// batch, so it can be used as a scanner consumer.
func (t *Tracker) Consume(_ context.Context, batch []events.Envelope) error {
	for _, env := range batch {
		err := t.Apply(env)
		if err == nil {
			continue
		}
		if IsAnomalyError(err) {
			t.log.Warn().Err(err).Msg("quest event anomaly")
			continue
		}
		return err
	}
	return nil
}

// Quest returns a copy of the state of the quest.
func (t *Tracker) Quest(id quest.Identifier) (QuestState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, ok := t.quests[id]
	if !ok {
		return QuestState{}, false
	}
	return state.copy(), true
}

// Quests returns copies of all tracked quests ordered by address.
func (t *Tracker) Quests() []QuestState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	states := make([]QuestState, 0, len(t.quests))
	for _, s := range t.quests {
		states = append(states, s.copy())
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Quest.String() < states[j].Quest.String()
	})
	return states
}

// Treasury returns the admin and treasury from the global config events.
func (t *Tracker) Treasury() (admin quest.Identifier, treasury quest.Identifier) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.admin, t.treasury
}

func (s *QuestState) copy() QuestState {
	c := *s
	c.claims = append([]byte(nil), s.claims...)
	return c
}
