package merkle

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/sharely/questkit/ledger/common/hash"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxProofNodes is the largest proof the quest program accepts.
const MaxProofNodes = 32

// Proof is the ordered list of sibling hashes from a leaf to the root,
// leaf-adjacent sibling first. It carries no left/right flags since nodes are
// combined with the order independent hash.HashPairSorted.
type Proof []hash.Hash

// Verify folds the proof over leaf and compares the result with root.
func Verify(leaf hash.Hash, proof Proof, root hash.Hash) bool {
	return proof.Fold(leaf) == root
}

// Fold returns the root implied by the proof for the given leaf.
func (p Proof) Fold(leaf hash.Hash) hash.Hash {
	current := leaf
	for _, sibling := range p {
		current = hash.HashPairSorted(current, sibling)
	}
	return current
}

// Check verifies the proof and reports the reason for a failure.
//
// Expected errors:
//   - MalformedProofError if the proof exceeds MaxProofNodes
//   - InvalidProofError if the recomputed root does not match
func (p Proof) Check(leaf hash.Hash, root hash.Hash) error {
	if len(p) > MaxProofNodes {
		return NewMalformedProofErrorf("proof has %d nodes, at most %d are allowed", len(p), MaxProofNodes)
	}
	computed := p.Fold(leaf)
	if computed != root {
		return NewInvalidProofErrorf("computed root %s does not match expected root %s", computed, root)
	}
	return nil
}

// Bytes returns the concatenation of all proof nodes.
func (p Proof) Bytes() []byte {
	b := make([]byte, 0, len(p)*hash.HashLen)
	for _, h := range p {
		b = append(b, h[:]...)
	}
	return b
}

// Strings returns the hex form of every proof node.
func (p Proof) Strings() []string {
	s := make([]string, len(p))
	for i, h := range p {
		s[i] = h.String()
	}
	return s
}

// ParseProof decodes a list of hex encoded proof nodes.
func ParseProof(nodes []string) (Proof, error) {
	proof := make(Proof, len(nodes))
	for i, n := range nodes {
		h, err := hash.FromHex(n)
		if err != nil {
			return nil, NewMalformedProofErrorf("node %d: %w", i, err)
		}
		proof[i] = h
	}
	return proof, nil
}

// MarshalJSON encodes the proof as a list of hex strings.
func (p Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Strings())
}

// UnmarshalJSON decodes a list of hex strings.
func (p *Proof) UnmarshalJSON(b []byte) error {
	var nodes []string
	err := json.Unmarshal(b, &nodes)
	if err != nil {
		return fmt.Errorf("could not decode proof: %w", err)
	}
	parsed, err := ParseProof(nodes)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
