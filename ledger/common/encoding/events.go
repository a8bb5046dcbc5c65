package encoding

import (
	"fmt"

	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
)

// eventCodec decodes and encodes the body of one event layout version.
type eventCodec struct {
	typ     events.Type
	version uint16
	// body is the payload length after the discriminator.
	body   int
	decode func(r *reader) events.Event
	encode func(w *writer, e events.Event)
	// accepts reports whether an event value is encoded with this version.
	// Nil means every value of the type.
	accepts func(e events.Event) bool
}

var eventCodecs = []eventCodec{
	{
		typ: events.TypeQuestCreated, version: LayoutV1, body: 32 + 8 + 32 + 32 + 8 + 8 + 8,
		decode: func(r *reader) events.Event {
			return events.QuestCreated{
				QuestAccount: r.id(),
				QuestID:      r.u64(),
				Merchant:     r.id(),
				Mint:         r.id(),
				TotalAmount:  r.u64(),
				StartAt:      r.i64(),
				EndAt:        r.i64(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.QuestCreated)
			w.id(v.QuestAccount)
			w.u64(v.QuestID)
			w.id(v.Merchant)
			w.id(v.Mint)
			w.u64(v.TotalAmount)
			w.i64(v.StartAt)
			w.i64(v.EndAt)
		},
	},
	{
		typ: events.TypeVaultFunded, version: LayoutV1, body: 32 + 32 + 8,
		decode: func(r *reader) events.Event {
			return events.VaultFunded{
				Funder:       r.id(),
				QuestAccount: r.id(),
				Amount:       r.u64(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.VaultFunded)
			w.id(v.Funder)
			w.id(v.QuestAccount)
			w.u64(v.Amount)
		},
	},
	{
		typ: events.TypeQuestStatusChanged, version: LayoutV1, body: 32 + 1,
		decode: func(r *reader) events.Event {
			return events.QuestStatusChanged{
				QuestAccount: r.id(),
				Status:       quest.Status(r.u8()),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.QuestStatusChanged)
			w.id(v.QuestAccount)
			w.u8(uint8(v.Status))
		},
	},
	{
		typ: events.TypeQuestActivated, version: LayoutV1, body: 32 + 4 + 32 + 4 + 8 + 8 + 8,
		decode: func(r *reader) events.Event {
			return events.QuestActivated{
				QuestAccount: r.id(),
				Version:      r.u32(),
				MerkleRoot:   r.hash(),
				UserCount:    r.u32(),
				StartAt:      r.i64(),
				EndAt:        r.i64(),
				FeeAmount:    r.u64(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.QuestActivated)
			w.id(v.QuestAccount)
			w.u32(v.Version)
			w.hash(v.MerkleRoot)
			w.u32(v.UserCount)
			w.i64(v.StartAt)
			w.i64(v.EndAt)
			w.u64(v.FeeAmount)
		},
	},
	{
		typ: events.TypeMerkleRootSet, version: LayoutV1, body: 32 + 4 + 32,
		decode: func(r *reader) events.Event {
			return events.MerkleRootSet{
				QuestAccount: r.id(),
				Version:      r.u32(),
				MerkleRoot:   r.hash(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.MerkleRootSet)
			w.id(v.QuestAccount)
			w.u32(v.Version)
			w.hash(v.MerkleRoot)
		},
	},
	{
		typ: events.TypeClaimed, version: LayoutV1, body: 32 + 32 + 8 + 8 + 4,
		decode: func(r *reader) events.Event {
			return events.Claimed{
				QuestAccount: r.id(),
				User:         r.id(),
				Index:        r.u64(),
				Amount:       r.u64(),
				Version:      r.u32(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.Claimed)
			w.id(v.QuestAccount)
			w.id(v.User)
			w.u64(v.Index)
			w.u64(v.Amount)
			w.u32(v.Version)
		},
	},
	{
		typ: events.TypeBitmapInitialized, version: LayoutV1, body: 32 + 4 + 4,
		decode: func(r *reader) events.Event {
			return events.BitmapInitialized{
				QuestAccount: r.id(),
				UserCount:    r.u32(),
				BitmapSize:   r.u32(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.BitmapInitialized)
			w.id(v.QuestAccount)
			w.u32(v.UserCount)
			w.u32(v.BitmapSize)
		},
	},
	{
		typ: events.TypeQuestClosed, version: LayoutV1, body: 32 + 8,
		decode: func(r *reader) events.Event {
			return events.QuestClosed{
				QuestAccount:         r.id(),
				RemainingTransferred: r.u64(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.QuestClosed)
			w.id(v.QuestAccount)
			w.u64(v.RemainingTransferred)
		},
		accepts: func(e events.Event) bool {
			return !e.(events.QuestClosed).HasFee
		},
	},
	{
		typ: events.TypeQuestClosed, version: LayoutV2, body: 32 + 8 + 8,
		decode: func(r *reader) events.Event {
			return events.QuestClosed{
				QuestAccount:         r.id(),
				RemainingTransferred: r.u64(),
				FeeTransferred:       r.u64(),
				HasFee:               true,
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.QuestClosed)
			w.id(v.QuestAccount)
			w.u64(v.RemainingTransferred)
			w.u64(v.FeeTransferred)
		},
		accepts: func(e events.Event) bool {
			return e.(events.QuestClosed).HasFee
		},
	},
	{
		typ: events.TypeQuestCancelled, version: LayoutV1, body: 32 + 8,
		decode: func(r *reader) events.Event {
			return events.QuestCancelled{
				QuestAccount:         r.id(),
				RemainingTransferred: r.u64(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.QuestCancelled)
			w.id(v.QuestAccount)
			w.u64(v.RemainingTransferred)
		},
	},
	{
		typ: events.TypeGlobalConfigInitialized, version: LayoutV1, body: 32 + 32,
		decode: func(r *reader) events.Event {
			return events.GlobalConfigInitialized{
				Admin:    r.id(),
				Treasury: r.id(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.GlobalConfigInitialized)
			w.id(v.Admin)
			w.id(v.Treasury)
		},
	},
	{
		typ: events.TypeTreasuryUpdated, version: LayoutV1, body: 32 + 32,
		decode: func(r *reader) events.Event {
			return events.TreasuryUpdated{
				OldTreasury: r.id(),
				NewTreasury: r.id(),
			}
		},
		encode: func(w *writer, e events.Event) {
			v := e.(events.TreasuryUpdated)
			w.id(v.OldTreasury)
			w.id(v.NewTreasury)
		},
	},
}

// registeredEvent binds an event codec to its registered layout.
type registeredEvent struct {
	layout *Layout
	codec  *eventCodec
}

var (
	eventsByLayout = make(map[*Layout]registeredEvent)
	eventsByType   = make(map[events.Type][]registeredEvent)
)

func registerEvents(r *Registry) {
	for i := range eventCodecs {
		c := &eventCodecs[i]
		layout := r.mustRegister(Layout{
			Kind:    KindEvent,
			Name:    c.typ.String(),
			Version: c.version,
			Size:    DiscriminatorLen + c.body,
		})
		reg := registeredEvent{layout: layout, codec: c}
		eventsByLayout[layout] = reg
		eventsByType[c.typ] = append(eventsByType[c.typ], reg)
	}
}

// DecodeEvent decodes an emitted event payload. The event type is selected
// by discriminator and the layout version by total length.
//
// Expected errors:
//   - ErrUnknownDiscriminator if data is not a known program event
//   - UnknownLayoutVersionError if the length matches no version of the event
//   - LayoutError if a field holds an invalid value
func DecodeEvent(data []byte) (events.Event, error) {
	layout, err := defaultRegistry.Resolve(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding event: %w", err)
	}
	reg, ok := eventsByLayout[layout]
	if !ok {
		return nil, fmt.Errorf("error decoding event: %s is not an event: %w", layout, ErrUnknownDiscriminator)
	}
	return decodeEvent(reg, data)
}

// DecodeEventAs decodes data that is expected to hold an event of type t.
//
// Expected errors:
//   - DiscriminatorMismatchError if data holds a different record
//   - UnknownLayoutVersionError if the length matches no version of the event
func DecodeEventAs(t events.Type, data []byte) (events.Event, error) {
	layout, err := defaultRegistry.ResolveAs(KindEvent, t.String(), data)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", t, err)
	}
	return decodeEvent(eventsByLayout[layout], data)
}

func decodeEvent(reg registeredEvent, data []byte) (events.Event, error) {
	r := newReader(data[DiscriminatorLen:])
	e := reg.codec.decode(r)
	err := r.close(reg.layout.Name)
	if err != nil {
		return nil, err
	}
	if sc, ok := e.(events.QuestStatusChanged); ok && !sc.Status.Valid() {
		return nil, NewLayoutErrorf("error decoding %s: unknown status %d", reg.layout.Name, uint8(sc.Status))
	}
	return e, nil
}

// EncodeEvent encodes an event with the layout version matching its fields.
func EncodeEvent(e events.Event) ([]byte, error) {
	for _, reg := range eventsByType[e.Type()] {
		if reg.codec.accepts != nil && !reg.codec.accepts(e) {
			continue
		}
		w := newWriter(reg.layout)
		reg.codec.encode(w, e)
		return w.buf, nil
	}
	return nil, fmt.Errorf("no encoder for event type %s", e.Type())
}
