package quest

import (
	"time"

	"github.com/sharely/questkit/ledger/common/hash"
)

// Snapshot is the decoded on-ledger state of a quest account.
type Snapshot struct {
	QuestID        uint64
	Mint           Identifier
	Vault          Identifier
	VaultAuthority Identifier
	MerkleRoot     hash.Hash
	ClaimedTotal   uint64
	Status         Status
	Version        uint32
	Merchant       Identifier
	Admin          Identifier
	StartAt        int64
	EndAt          int64
	TotalAmount    uint64
	FundedAmount   uint64
	// FeeAmount is only present in the newer account layout; HasFee reports
	// whether the decoded record carried it.
	FeeAmount uint64
	HasFee    bool
}

// Remaining returns the funded amount not yet claimed.
func (s *Snapshot) Remaining() uint64 {
	if s.ClaimedTotal >= s.FundedAmount {
		return 0
	}
	return s.FundedAmount - s.ClaimedTotal
}

// InWindow reports whether now lies within [StartAt, EndAt], both inclusive.
func (s *Snapshot) InWindow(now time.Time) bool {
	ts := now.Unix()
	return ts >= s.StartAt && ts <= s.EndAt
}

// ClaimBitmap is the decoded claim bitmap account of a quest.
type ClaimBitmap struct {
	Quest     Identifier
	Version   uint32
	UserCount uint32
	Bits      []byte
}
