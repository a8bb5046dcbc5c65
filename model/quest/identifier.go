package quest

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentifierLen is the size of an account identifier.
const IdentifierLen = 32

// Identifier represents the 32 byte identifier of a ledger account (a quest,
// a recipient, a mint, a program).
type Identifier [IdentifierLen]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

// ParseIdentifier decodes the base58 text form of an identifier.
func ParseIdentifier(s string) (Identifier, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ZeroID, NewInputErrorf("malformed identifier %q: %w", s, err)
	}
	return ByteSliceToID(b)
}

// MustParseIdentifier is ParseIdentifier for constants; it panics on error.
func MustParseIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ByteSliceToID converts a byte slice of exactly IdentifierLen bytes into an Identifier.
func ByteSliceToID(b []byte) (Identifier, error) {
	var id Identifier
	if len(b) != IdentifierLen {
		return ZeroID, NewInputErrorf("illegal length for identifier: expected %d bytes, got %d", IdentifierLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the base58 form of the identifier.
func (id Identifier) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether the identifier is all zero bytes.
func (id Identifier) IsZero() bool {
	return id == ZeroID
}

// MarshalText implements encoding.TextMarshaler.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return fmt.Errorf("could not unmarshal identifier: %w", err)
	}
	*id = parsed
	return nil
}
