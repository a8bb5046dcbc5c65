package merkle

import (
	"fmt"
	"io"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
)

// Claim is what a recipient needs to claim: its entry and the proof of it.
type Claim struct {
	Index     uint64           `json:"index"`
	Recipient quest.Identifier `json:"user"`
	Amount    uint64           `json:"amount"`
	Proof     Proof            `json:"proof"`
}

// Entry returns the committed entry of the claim.
func (c Claim) Entry() quest.Entry {
	return quest.Entry{Index: c.Index, Recipient: c.Recipient, Amount: c.Amount}
}

// Bundle is the distributable form of a commitment: the root plus one claim
// per recipient, in index order.
type Bundle struct {
	Root        hash.Hash `json:"root"`
	UserCount   int       `json:"user_count"`
	TotalAmount uint64    `json:"total_amount"`
	Claims      []Claim   `json:"claims"`
}

// NewBundle commits to entries and derives a proof for each of them.
//
// Expected errors:
//   - EmptyInputError if entries is empty
//   - quest.InputError if the entries are not densely indexed or the total overflows
func NewBundle(entries []quest.Entry) (*Bundle, error) {
	tree, err := BuildFromEntries(entries)
	if err != nil {
		return nil, err
	}
	total, err := quest.TotalAmount(entries)
	if err != nil {
		return nil, err
	}

	claims := make([]Claim, len(entries))
	for i, e := range entries {
		proof, err := tree.ProofAt(uint64(i))
		if err != nil {
			return nil, fmt.Errorf("could not derive proof for index %d: %w", i, err)
		}
		claims[i] = Claim{
			Index:     e.Index,
			Recipient: e.Recipient,
			Amount:    e.Amount,
			Proof:     proof,
		}
	}

	return &Bundle{
		Root:        tree.Root(),
		UserCount:   len(entries),
		TotalAmount: total,
		Claims:      claims,
	}, nil
}

// Claim returns the claim of recipient.
func (b *Bundle) Claim(recipient quest.Identifier) (Claim, bool) {
	for _, c := range b.Claims {
		if c.Recipient == recipient {
			return c, true
		}
	}
	return Claim{}, false
}

// Verify checks that every claim proves its entry against the root.
//
// Expected errors:
//   - InvalidProofError for the first claim that does not verify
//   - MalformedProofError if a proof is longer than MaxProofNodes
//   - quest.InputError if the bundle metadata is inconsistent
func (b *Bundle) Verify() error {
	if b.UserCount != len(b.Claims) {
		return quest.NewInputErrorf("bundle lists %d claims for %d users", len(b.Claims), b.UserCount)
	}
	entries := make([]quest.Entry, len(b.Claims))
	for i, c := range b.Claims {
		entries[i] = c.Entry()
		err := c.Proof.Check(hash.HashLeaf(c.Index, c.Recipient, c.Amount), b.Root)
		if err != nil {
			return fmt.Errorf("claim of %s at index %d: %w", c.Recipient, c.Index, err)
		}
	}
	total, err := quest.TotalAmount(entries)
	if err != nil {
		return err
	}
	if total != b.TotalAmount {
		return quest.NewInputErrorf("bundle total %d does not match the sum of claims %d", b.TotalAmount, total)
	}
	return nil
}

// WriteTo writes the bundle as indented JSON.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("could not encode bundle: %w", err)
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// ReadBundle decodes a bundle written by WriteTo.
func ReadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	err := json.NewDecoder(r).Decode(&b)
	if err != nil {
		return nil, fmt.Errorf("could not decode bundle: %w", err)
	}
	return &b, nil
}
