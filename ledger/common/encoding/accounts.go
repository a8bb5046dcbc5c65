package encoding

import (
	"fmt"

	"github.com/sharely/questkit/model/quest"
)

const (
	// QuestAccountSizeV1 is the total length of a quest account without the fee field.
	QuestAccountSizeV1 = DiscriminatorLen + 8 + 32 + 32 + 32 + 32 + 8 + 1 + 4 + 32 + 32 + 8 + 8 + 8 + 8
	// QuestAccountSizeV2 adds fee_amount (u64).
	QuestAccountSizeV2 = QuestAccountSizeV1 + 8

	// ClaimBitmapHeaderSize is the length of a claim bitmap account before its bits:
	// discriminator, quest, version, user_count and bitmap_size.
	ClaimBitmapHeaderSize = DiscriminatorLen + 32 + 4 + 4 + 4
)

var (
	questAccountV1     *Layout
	questAccountV2     *Layout
	claimBitmapShardV1 *Layout
)

func registerAccounts(r *Registry) {
	questAccountV1 = r.mustRegister(Layout{
		Kind:    KindAccount,
		Name:    QuestAccountName,
		Version: LayoutV1,
		Size:    QuestAccountSizeV1,
	})
	questAccountV2 = r.mustRegister(Layout{
		Kind:    KindAccount,
		Name:    QuestAccountName,
		Version: LayoutV2,
		Size:    QuestAccountSizeV2,
	})
	claimBitmapShardV1 = r.mustRegister(Layout{
		Kind:    KindAccount,
		Name:    ClaimBitmapShardName,
		Version: LayoutV1,
		Size:    ClaimBitmapHeaderSize,
		Open:    true,
	})
}

// DecodeQuestSnapshot decodes quest account data. The layout version is
// chosen by the total length of data.
//
// Expected errors:
//   - DiscriminatorMismatchError if data is not a quest account
//   - UnknownLayoutVersionError if the length matches no quest account version
//   - LayoutError if the status field holds an unknown value
func DecodeQuestSnapshot(data []byte) (*quest.Snapshot, error) {
	layout, err := defaultRegistry.ResolveAs(KindAccount, QuestAccountName, data)
	if err != nil {
		return nil, fmt.Errorf("error decoding quest account: %w", err)
	}
	return decodeQuestSnapshot(layout, data)
}

func decodeQuestSnapshot(layout *Layout, data []byte) (*quest.Snapshot, error) {
	r := newReader(data[DiscriminatorLen:])
	s := &quest.Snapshot{
		QuestID:        r.u64(),
		Mint:           r.id(),
		Vault:          r.id(),
		VaultAuthority: r.id(),
		MerkleRoot:     r.hash(),
		ClaimedTotal:   r.u64(),
		Status:         quest.Status(r.u8()),
		Version:        r.u32(),
		Merchant:       r.id(),
		Admin:          r.id(),
		StartAt:        r.i64(),
		EndAt:          r.i64(),
		TotalAmount:    r.u64(),
		FundedAmount:   r.u64(),
	}
	if layout.Version >= LayoutV2 {
		s.FeeAmount = r.u64()
		s.HasFee = true
	}
	err := r.close(QuestAccountName)
	if err != nil {
		return nil, err
	}
	if !s.Status.Valid() {
		return nil, NewLayoutErrorf("error decoding %s: unknown status %d", QuestAccountName, uint8(s.Status))
	}
	return s, nil
}

// EncodeQuestSnapshot encodes a quest account. Snapshots with HasFee use the
// newer layout.
func EncodeQuestSnapshot(s *quest.Snapshot) []byte {
	layout := questAccountV1
	if s.HasFee {
		layout = questAccountV2
	}
	w := newWriter(layout)
	w.u64(s.QuestID)
	w.id(s.Mint)
	w.id(s.Vault)
	w.id(s.VaultAuthority)
	w.hash(s.MerkleRoot)
	w.u64(s.ClaimedTotal)
	w.u8(uint8(s.Status))
	w.u32(s.Version)
	w.id(s.Merchant)
	w.id(s.Admin)
	w.i64(s.StartAt)
	w.i64(s.EndAt)
	w.u64(s.TotalAmount)
	w.u64(s.FundedAmount)
	if s.HasFee {
		w.u64(s.FeeAmount)
	}
	return w.buf
}

// DecodeClaimBitmap decodes claim bitmap account data. Bytes after the
// declared bitmap size are allocation slack and are ignored.
//
// Expected errors:
//   - DiscriminatorMismatchError if data is not a claim bitmap account
//   - UnknownLayoutVersionError if data is shorter than the header
//   - LayoutError if the declared bitmap size exceeds the data, or is too small for user_count
func DecodeClaimBitmap(data []byte) (*quest.ClaimBitmap, error) {
	layout, err := defaultRegistry.ResolveAs(KindAccount, ClaimBitmapShardName, data)
	if err != nil {
		return nil, fmt.Errorf("error decoding claim bitmap: %w", err)
	}
	return decodeClaimBitmap(layout, data)
}

func decodeClaimBitmap(_ *Layout, data []byte) (*quest.ClaimBitmap, error) {
	r := newReader(data[DiscriminatorLen:])
	b := &quest.ClaimBitmap{
		Quest:     r.id(),
		Version:   r.u32(),
		UserCount: r.u32(),
	}
	size := r.u32()
	if r.err == nil && uint64(size) > uint64(len(r.rest)) {
		return nil, NewLayoutErrorf("error decoding %s: bitmap size %d exceeds the %d available bytes", ClaimBitmapShardName, size, len(r.rest))
	}
	bits := r.bytes(int(size))
	if r.err != nil {
		return nil, NewLayoutErrorf("error decoding %s: %w", ClaimBitmapShardName, r.err)
	}
	if uint64(size)*8 < uint64(b.UserCount) {
		return nil, NewLayoutErrorf("error decoding %s: bitmap size %d cannot hold %d users", ClaimBitmapShardName, size, b.UserCount)
	}
	b.Bits = make([]byte, len(bits))
	copy(b.Bits, bits)
	return b, nil
}

// EncodeClaimBitmap encodes a claim bitmap account without slack.
func EncodeClaimBitmap(b *quest.ClaimBitmap) []byte {
	w := newWriter(claimBitmapShardV1)
	w.id(b.Quest)
	w.u32(b.Version)
	w.u32(b.UserCount)
	w.u32(uint32(len(b.Bits)))
	w.bytes(b.Bits)
	return w.buf
}

// Account is a decoded program account. Exactly one of Quest and Bitmap is
// set, according to Layout.Name.
type Account struct {
	Layout *Layout
	Quest  *quest.Snapshot
	Bitmap *quest.ClaimBitmap
}

// DecodeAccount decodes any program account, selecting the record by
// discriminator and the layout by length.
//
// Expected errors:
//   - ErrUnknownDiscriminator if data is not a known program account
//   - UnknownLayoutVersionError, LayoutError as for the specific decoders
func DecodeAccount(data []byte) (*Account, error) {
	layout, err := defaultRegistry.Resolve(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding account: %w", err)
	}
	if layout.Kind != KindAccount {
		return nil, fmt.Errorf("error decoding account: %s is not an account: %w", layout, ErrUnknownDiscriminator)
	}

	switch layout.Name {
	case QuestAccountName:
		s, err := decodeQuestSnapshot(layout, data)
		if err != nil {
			return nil, err
		}
		return &Account{Layout: layout, Quest: s}, nil
	case ClaimBitmapShardName:
		b, err := decodeClaimBitmap(layout, data)
		if err != nil {
			return nil, err
		}
		return &Account{Layout: layout, Bitmap: b}, nil
	default:
		return nil, fmt.Errorf("error decoding account: no decoder for %s: %w", layout, ErrUnknownDiscriminator)
	}
}
