package hash

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	cryhash "github.com/onflow/flow-go/crypto/hash"
)

// HashLen is the output hash length in bytes
const HashLen = 32

// LeafLen is the length of a leaf preimage: index (8) || recipient (32) || amount (8).
const LeafLen = 8 + HashLen + 8

// DiscriminatorLen is the length of a record discriminator prefix.
const DiscriminatorLen = 8

// Hash is the hash type used for leaves, nodes and roots.
type Hash [HashLen]byte

// DummyHash is an arbitrary hash value, used in function errors.
// DummyHash represents a valid hash value.
var DummyHash Hash

// String returns the lowercase hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Sum returns the SHA2-256 digest of the concatenation of data.
func Sum(data ...[]byte) Hash {
	size := 0
	for _, d := range data {
		size += len(d)
	}
	buf := make([]byte, 0, size)
	for _, d := range data {
		buf = append(buf, d...)
	}

	var h Hash
	copy(h[:], cryhash.NewSHA2_256().ComputeHash(buf))
	return h
}

// HashLeaf returns the hash value for leaf nodes.
//
// The preimage is index (little-endian u64) || recipient || amount (little-endian u64).
func HashLeaf(index uint64, recipient [HashLen]byte, amount uint64) Hash {
	return Sum(LeafPreimage(index, recipient, amount))
}

// LeafPreimage returns the 48 byte leaf encoding hashed by HashLeaf.
func LeafPreimage(index uint64, recipient [HashLen]byte, amount uint64) []byte {
	buf := make([]byte, LeafLen)
	binary.LittleEndian.PutUint64(buf[0:8], index)
	copy(buf[8:8+HashLen], recipient[:])
	binary.LittleEndian.PutUint64(buf[8+HashLen:], amount)
	return buf
}

// HashPairSorted returns the hash value for intermediate nodes.
//
// The two children are ordered byte-wise before hashing, so
// HashPairSorted(a, b) == HashPairSorted(b, a).
func HashPairSorted(a Hash, b Hash) Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Sum(a[:], b[:])
}

// Discriminator returns the first 8 bytes of Sum(namespace + ":" + name).
func Discriminator(namespace string, name string) [DiscriminatorLen]byte {
	h := Sum([]byte(namespace + ":" + name))
	var d [DiscriminatorLen]byte
	copy(d[:], h[:DiscriminatorLen])
	return d
}

// ToHash converts a byte slice into a Hash.
// It returns an error if the slice has an invalid length.
func ToHash(bytes []byte) (Hash, error) {
	var h Hash
	if len(bytes) != len(h) {
		return DummyHash, fmt.Errorf("expecting %d bytes but got %d bytes", len(h), len(bytes))
	}
	copy(h[:], bytes)
	return h, nil
}

// FromHex parses a 64 character hex string, with or without a 0x prefix.
func FromHex(s string) (Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return DummyHash, fmt.Errorf("could not decode hex hash: %w", err)
	}
	return ToHash(b)
}

// MarshalText encodes the hash as lowercase hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts the forms FromHex accepts.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
