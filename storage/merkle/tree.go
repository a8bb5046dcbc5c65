package merkle

import (
	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
)

// Tree is a binary merkle tree over an ordered list of leaves.
//
// Leaves are paired left to right on every level and each pair is combined
// with hash.HashPairSorted. When a level has an odd number of nodes, the last
// node is carried up to the next level unchanged: it is neither duplicated nor
// hashed with itself. A tree with a single leaf has that leaf as its root.
//
// The tree is immutable once built and safe for concurrent reads.
type Tree struct {
	// levels[0] holds the leaves, the last level holds the root only.
	levels   [][]hash.Hash
	position map[hash.Hash]int
}

// Build constructs the tree for the given leaves. The order of leaves is
// preserved; callers must present leaves in the order used at commitment time.
//
// Expected errors:
//   - EmptyInputError if leaves is empty
func Build(leaves []hash.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, EmptyInputError{}
	}

	level := make([]hash.Hash, len(leaves))
	copy(level, leaves)

	position := make(map[hash.Hash]int, len(leaves))
	for i, leaf := range level {
		if _, ok := position[leaf]; !ok {
			position[leaf] = i
		}
	}

	levels := [][]hash.Hash{level}
	for len(level) > 1 {
		next := make([]hash.Hash, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, hash.HashPairSorted(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{
		levels:   levels,
		position: position,
	}, nil
}

// BuildFromEntries hashes the entries into leaves and builds the tree.
//
// Expected errors:
//   - EmptyInputError if entries is empty
//   - InputError if entry indices are not exactly 0..N-1 in order
func BuildFromEntries(entries []quest.Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, EmptyInputError{}
	}
	err := quest.CheckDense(entries)
	if err != nil {
		return nil, err
	}
	return Build(Leaves(entries))
}

// Leaves returns the leaf hash of every entry, in order.
func Leaves(entries []quest.Entry) []hash.Hash {
	leaves := make([]hash.Hash, len(entries))
	for i, e := range entries {
		leaves[i] = hash.HashLeaf(e.Index, e.Recipient, e.Amount)
	}
	return leaves
}

// Root returns the root hash of the tree.
func (t *Tree) Root() hash.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Size returns the number of leaves.
func (t *Tree) Size() int {
	return len(t.levels[0])
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// Leaf returns the leaf at the given position.
func (t *Tree) Leaf(position uint64) (hash.Hash, error) {
	if position >= uint64(t.Size()) {
		return hash.DummyHash, PositionOutOfRangeError{Position: position, Size: t.Size()}
	}
	return t.levels[0][position], nil
}

// Proof returns the inclusion proof for the first occurrence of leaf.
//
// Expected errors:
//   - LeafNotFoundError if the leaf is not part of the tree
func (t *Tree) Proof(leaf hash.Hash) (Proof, error) {
	position, ok := t.position[leaf]
	if !ok {
		return nil, LeafNotFoundError{Leaf: leaf}
	}
	return t.proofAt(position), nil
}

// ProofAt returns the inclusion proof for the leaf at the given position.
//
// Expected errors:
//   - PositionOutOfRangeError if position >= Size()
func (t *Tree) ProofAt(position uint64) (Proof, error) {
	if position >= uint64(t.Size()) {
		return nil, PositionOutOfRangeError{Position: position, Size: t.Size()}
	}
	return t.proofAt(int(position)), nil
}

// proofAt walks from the leaf to the root and collects the sibling of the
// current node on every level. Levels where the node was carried up have no
// sibling and contribute nothing.
func (t *Tree) proofAt(position int) Proof {
	proof := make(Proof, 0, t.Depth())
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := position ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		position /= 2
	}
	return proof
}
