package unittest

import (
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
)

// GetPRG returns a deterministic math/rand PRG that can be used for deterministic randomness in tests only.
// The PRG seed is logged in case the test iteration needs to be reproduced.
func GetPRG(t *testing.T) *rand.Rand {
	random := time.Now().UnixNano()
	t.Logf("rng seed is %d", random)
	return rand.New(rand.NewSource(random))
}

func RandomBytes(n int) []byte {
	b := make([]byte, n)
	read, err := crand.Read(b)
	if err != nil {
		panic("cannot read random bytes")
	}
	if read != n {
		panic(fmt.Errorf("read unexpected amount of random bytes, got: %d, expected: %d", read, n))
	}
	return b
}

func IdentifierFixture() quest.Identifier {
	var id quest.Identifier
	_, _ = crand.Read(id[:])
	return id
}

func IdentifierListFixture(n int) []quest.Identifier {
	list := make([]quest.Identifier, n)
	for i := range list {
		list[i] = IdentifierFixture()
	}
	return list
}

func HashFixture() hash.Hash {
	var h hash.Hash
	_, _ = crand.Read(h[:])
	return h
}

// SignatureFixture returns a random base58 transaction signature.
func SignatureFixture() string {
	return base58.Encode(RandomBytes(64))
}

// EntryFixtures returns n entries with dense indices, random recipients and
// amounts between 1 and 10^9.
func EntryFixtures(n int) []quest.Entry {
	entries := make([]quest.Entry, n)
	for i := range entries {
		entries[i] = quest.Entry{
			Index:     uint64(i),
			Recipient: IdentifierFixture(),
			Amount:    uint64(rand.Int63n(1_000_000_000) + 1),
		}
	}
	return entries
}

func AllocationFixtures(n int) []quest.Allocation {
	allocations := make([]quest.Allocation, n)
	for i := range allocations {
		allocations[i] = quest.Allocation{
			Recipient: IdentifierFixture(),
			Amount:    uint64(rand.Int63n(1_000_000_000) + 1),
		}
	}
	return allocations
}

func WithStatus(status quest.Status) func(*quest.Snapshot) {
	return func(s *quest.Snapshot) {
		s.Status = status
	}
}

func WithMerkleRoot(root hash.Hash) func(*quest.Snapshot) {
	return func(s *quest.Snapshot) {
		s.MerkleRoot = root
	}
}

func WithFee(fee uint64) func(*quest.Snapshot) {
	return func(s *quest.Snapshot) {
		s.FeeAmount = fee
		s.HasFee = true
	}
}

// SnapshotFixture returns an active, funded quest whose claim window contains now.
func SnapshotFixture(opts ...func(*quest.Snapshot)) *quest.Snapshot {
	now := time.Now().Unix()
	s := &quest.Snapshot{
		QuestID:        rand.Uint64(),
		Mint:           IdentifierFixture(),
		Vault:          IdentifierFixture(),
		VaultAuthority: IdentifierFixture(),
		MerkleRoot:     HashFixture(),
		ClaimedTotal:   0,
		Status:         quest.StatusActive,
		Version:        1,
		Merchant:       IdentifierFixture(),
		Admin:          IdentifierFixture(),
		StartAt:        now - 3600,
		EndAt:          now + 3600,
		TotalAmount:    10_000_000_000,
		FundedAmount:   10_000_000_000,
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// EventFixtures returns one event of every known type, all concerning questID
// where the type is quest scoped.
func EventFixtures(questID quest.Identifier) []events.Event {
	root := HashFixture()
	return []events.Event{
		events.GlobalConfigInitialized{Admin: IdentifierFixture(), Treasury: IdentifierFixture()},
		events.QuestCreated{
			QuestAccount: questID,
			QuestID:      rand.Uint64(),
			Merchant:     IdentifierFixture(),
			Mint:         IdentifierFixture(),
			TotalAmount:  5_000_000_000,
			StartAt:      1_700_000_000,
			EndAt:        1_800_000_000,
		},
		events.VaultFunded{Funder: IdentifierFixture(), QuestAccount: questID, Amount: 5_000_000_000},
		events.BitmapInitialized{QuestAccount: questID, UserCount: 10, BitmapSize: 2},
		events.MerkleRootSet{QuestAccount: questID, Version: 1, MerkleRoot: root},
		events.QuestActivated{
			QuestAccount: questID,
			Version:      2,
			MerkleRoot:   root,
			UserCount:    10,
			StartAt:      -5,
			EndAt:        1_800_000_000,
			FeeAmount:    25_000,
		},
		events.QuestStatusChanged{QuestAccount: questID, Status: quest.StatusActive},
		events.Claimed{QuestAccount: questID, User: IdentifierFixture(), Index: 3, Amount: 1_000_000_000, Version: 2},
		events.QuestClosed{QuestAccount: questID, RemainingTransferred: 99, FeeTransferred: 1, HasFee: true},
		events.QuestClosed{QuestAccount: questID, RemainingTransferred: 42},
		events.QuestCancelled{QuestAccount: questID, RemainingTransferred: 4_000_000_000},
		events.TreasuryUpdated{OldTreasury: IdentifierFixture(), NewTreasury: IdentifierFixture()},
	}
}
