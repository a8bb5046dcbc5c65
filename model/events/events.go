package events

import (
	"fmt"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
)

// Type enumerates the closed set of events emitted by the quest program.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeQuestCreated
	TypeVaultFunded
	TypeQuestStatusChanged
	TypeQuestActivated
	TypeMerkleRootSet
	TypeClaimed
	TypeBitmapInitialized
	TypeQuestClosed
	TypeQuestCancelled
	TypeGlobalConfigInitialized
	TypeTreasuryUpdated
)

// typeNames holds the exact, case-sensitive event names the program emits.
// Discriminators are derived from these.
var typeNames = [...]string{
	TypeUnknown:                 "Unknown",
	TypeQuestCreated:            "QuestCreated",
	TypeVaultFunded:             "VaultFunded",
	TypeQuestStatusChanged:      "QuestStatusChanged",
	TypeQuestActivated:          "QuestActivated",
	TypeMerkleRootSet:           "MerkleRootSet",
	TypeClaimed:                 "Claimed",
	TypeBitmapInitialized:       "BitmapInitialized",
	TypeQuestClosed:             "QuestClosed",
	TypeQuestCancelled:          "QuestCancelled",
	TypeGlobalConfigInitialized: "GlobalConfigInitialized",
	TypeTreasuryUpdated:         "TreasuryUpdated",
}

// String returns the event name.
func (t Type) String() string {
	if int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return typeNames[t]
}

// All returns every known event type.
func All() []Type {
	types := make([]Type, 0, len(typeNames)-1)
	for t := TypeQuestCreated; int(t) < len(typeNames); t++ {
		types = append(types, t)
	}
	return types
}

// Event is a decoded program event.
type Event interface {
	Type() Type
	// Quest returns the quest the event concerns. Program wide events
	// return false.
	Quest() (quest.Identifier, bool)
}

type QuestCreated struct {
	QuestAccount quest.Identifier
	QuestID      uint64
	Merchant     quest.Identifier
	Mint         quest.Identifier
	TotalAmount  uint64
	StartAt      int64
	EndAt        int64
}

type VaultFunded struct {
	Funder       quest.Identifier
	QuestAccount quest.Identifier
	Amount       uint64
}

type QuestStatusChanged struct {
	QuestAccount quest.Identifier
	Status       quest.Status
}

// QuestActivated commits a new merkle root and version for a quest.
type QuestActivated struct {
	QuestAccount quest.Identifier
	Version      uint32
	MerkleRoot   hash.Hash
	UserCount    uint32
	StartAt      int64
	EndAt        int64
	FeeAmount    uint64
}

// MerkleRootSet is emitted by the first program revision instead of QuestActivated.
type MerkleRootSet struct {
	QuestAccount quest.Identifier
	Version      uint32
	MerkleRoot   hash.Hash
}

type Claimed struct {
	QuestAccount quest.Identifier
	User         quest.Identifier
	Index        uint64
	Amount       uint64
	Version      uint32
}

type BitmapInitialized struct {
	QuestAccount quest.Identifier
	UserCount    uint32
	BitmapSize   uint32
}

// QuestClosed reports the remainder returned to the merchant. Newer program
// revisions also report the fee sent to the treasury.
type QuestClosed struct {
	QuestAccount         quest.Identifier
	RemainingTransferred uint64
	FeeTransferred       uint64
	HasFee               bool
}

type QuestCancelled struct {
	QuestAccount         quest.Identifier
	RemainingTransferred uint64
}

type GlobalConfigInitialized struct {
	Admin    quest.Identifier
	Treasury quest.Identifier
}

type TreasuryUpdated struct {
	OldTreasury quest.Identifier
	NewTreasury quest.Identifier
}

func (QuestCreated) Type() Type            { return TypeQuestCreated }
func (VaultFunded) Type() Type             { return TypeVaultFunded }
func (QuestStatusChanged) Type() Type      { return TypeQuestStatusChanged }
func (QuestActivated) Type() Type          { return TypeQuestActivated }
func (MerkleRootSet) Type() Type           { return TypeMerkleRootSet }
func (Claimed) Type() Type                 { return TypeClaimed }
func (BitmapInitialized) Type() Type       { return TypeBitmapInitialized }
func (QuestClosed) Type() Type             { return TypeQuestClosed }
func (QuestCancelled) Type() Type          { return TypeQuestCancelled }
func (GlobalConfigInitialized) Type() Type { return TypeGlobalConfigInitialized }
func (TreasuryUpdated) Type() Type         { return TypeTreasuryUpdated }

func (e QuestCreated) Quest() (quest.Identifier, bool)       { return e.QuestAccount, true }
func (e VaultFunded) Quest() (quest.Identifier, bool)        { return e.QuestAccount, true }
func (e QuestStatusChanged) Quest() (quest.Identifier, bool) { return e.QuestAccount, true }
func (e QuestActivated) Quest() (quest.Identifier, bool)     { return e.QuestAccount, true }
func (e MerkleRootSet) Quest() (quest.Identifier, bool)      { return e.QuestAccount, true }
func (e Claimed) Quest() (quest.Identifier, bool)            { return e.QuestAccount, true }
func (e BitmapInitialized) Quest() (quest.Identifier, bool)  { return e.QuestAccount, true }
func (e QuestClosed) Quest() (quest.Identifier, bool)        { return e.QuestAccount, true }
func (e QuestCancelled) Quest() (quest.Identifier, bool)     { return e.QuestAccount, true }

func (GlobalConfigInitialized) Quest() (quest.Identifier, bool) { return quest.ZeroID, false }
func (TreasuryUpdated) Quest() (quest.Identifier, bool)         { return quest.ZeroID, false }
