package remote

import (
	"time"

	"github.com/sharely/questkit/model/quest"
)

// SignatureInfo is one entry of an address's transaction history.
type SignatureInfo struct {
	Signature string
	Slot      uint64
	// BlockTime is zero when the node does not know it.
	BlockTime time.Time
	Failed    bool
}

// SignatureQuery bounds a page of signatures. Both bounds are exclusive and
// optional.
type SignatureQuery struct {
	Before string
	Until  string
	Limit  int
}

// Transaction is the part of a confirmed transaction the scanner needs.
type Transaction struct {
	Signature   string
	Slot        uint64
	BlockTime   time.Time
	Failed      bool
	LogMessages []string
}

// Account is a raw on-chain account.
type Account struct {
	Address  quest.Identifier
	Owner    quest.Identifier
	Lamports uint64
	Data     []byte
}

// Filter narrows a program account query. Exactly one of the fields is set.
type Filter struct {
	DataSize *uint64       `json:"dataSize,omitempty"`
	Memcmp   *MemcmpFilter `json:"memcmp,omitempty"`
}

type MemcmpFilter struct {
	Offset uint64 `json:"offset"`
	// Bytes is base58 encoded.
	Bytes string `json:"bytes"`
}

// DataSizeFilter matches accounts whose data is exactly size bytes.
func DataSizeFilter(size uint64) Filter {
	return Filter{DataSize: &size}
}

// MemcmpFilterAt matches accounts whose data contains id at offset.
func MemcmpFilterAt(offset uint64, id quest.Identifier) Filter {
	return Filter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: id.String()}}
}

// wire shapes

type rpcSignature struct {
	Signature string      `json:"signature"`
	Slot      uint64      `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

type rpcTransaction struct {
	Slot      uint64   `json:"slot"`
	BlockTime *int64   `json:"blockTime"`
	Meta      *rpcMeta `json:"meta"`
}

type rpcMeta struct {
	Err         interface{} `json:"err"`
	LogMessages []string    `json:"logMessages"`
}

type rpcAccount struct {
	Data     []string `json:"data"`
	Owner    string   `json:"owner"`
	Lamports uint64   `json:"lamports"`
}

type rpcAccountInfo struct {
	Value *rpcAccount `json:"value"`
}

type rpcKeyedAccount struct {
	Pubkey  string     `json:"pubkey"`
	Account rpcAccount `json:"account"`
}

func blockTime(t *int64) time.Time {
	if t == nil {
		return time.Time{}
	}
	return time.Unix(*t, 0).UTC()
}
