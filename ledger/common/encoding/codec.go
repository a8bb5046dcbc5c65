package encoding

import (
	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/ledger/common/utils"
	"github.com/sharely/questkit/model/quest"
)

// reader consumes fields sequentially from a record body. The first failure
// is kept and all later reads return zero values.
type reader struct {
	rest []byte
	err  error
}

func newReader(body []byte) *reader {
	return &reader{rest: body}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	var v uint8
	v, r.rest, r.err = utils.ReadUint8(r.rest)
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	var v uint32
	v, r.rest, r.err = utils.ReadUint32(r.rest)
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	v, r.rest, r.err = utils.ReadUint64(r.rest)
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	var v int64
	v, r.rest, r.err = utils.ReadInt64(r.rest)
	return v
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	var v []byte
	v, r.rest, r.err = utils.ReadSlice(r.rest, n)
	return v
}

func (r *reader) id() quest.Identifier {
	var id quest.Identifier
	copy(id[:], r.bytes(quest.IdentifierLen))
	return id
}

func (r *reader) hash() hash.Hash {
	var h hash.Hash
	copy(h[:], r.bytes(hash.HashLen))
	return h
}

// close returns the first read failure, or a LayoutError if bytes remain.
func (r *reader) close(record string) error {
	if r.err != nil {
		return NewLayoutErrorf("error decoding %s: %w", record, r.err)
	}
	if len(r.rest) != 0 {
		return NewLayoutErrorf("error decoding %s: %d trailing bytes", record, len(r.rest))
	}
	return nil
}

// writer appends fields to a record, starting with its discriminator.
type writer struct {
	buf []byte
}

func newWriter(layout *Layout) *writer {
	w := &writer{buf: make([]byte, 0, layout.Size)}
	w.buf = append(w.buf, layout.Discriminator[:]...)
	return w
}

func (w *writer) u8(v uint8)            { w.buf = utils.AppendUint8(w.buf, v) }
func (w *writer) u32(v uint32)          { w.buf = utils.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64)          { w.buf = utils.AppendUint64(w.buf, v) }
func (w *writer) i64(v int64)           { w.buf = utils.AppendInt64(w.buf, v) }
func (w *writer) id(v quest.Identifier) { w.buf = append(w.buf, v[:]...) }
func (w *writer) hash(v hash.Hash)      { w.buf = append(w.buf, v[:]...) }
func (w *writer) bytes(v []byte)        { w.buf = append(w.buf, v...) }
