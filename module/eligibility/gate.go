package eligibility

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module"
	"github.com/sharely/questkit/module/metrics"
	"github.com/sharely/questkit/storage/merkle"
)

// Outcomes reported to module.ClaimMetrics.
const (
	OutcomeAlreadyClaimed = "already_claimed"
	OutcomeRejected       = "rejected"
	OutcomeNotEligible    = "not_eligible"
	OutcomeEligible       = "eligible"
)

// Claim is a recipient's request to claim an entry.
type Claim struct {
	Entry quest.Entry
	Proof merkle.Proof
}

// Decision is the outcome of a gated claim. When AlreadyClaimed is set the
// caller must stop and Instruction is nil.
type Decision struct {
	AlreadyClaimed bool
	Instruction    []byte
}

// Gate applies the claim policy: an already claimed index stops the claim
// without error, an ineligible entry fails, and only then is the claim call
// constructed. The gate never submits anything.
type Gate struct {
	log     zerolog.Logger
	metrics module.ClaimMetrics
	now     func() time.Time
}

// NewGate returns a gate using the wall clock.
func NewGate(log zerolog.Logger) *Gate {
	return &Gate{
		log:     log.With().Str("component", "claim_gate").Logger(),
		metrics: metrics.NewNoopCollector(),
		now:     time.Now,
	}
}

// WithMetrics returns a copy of the gate reporting decisions to m.
func (g *Gate) WithMetrics(m module.ClaimMetrics) *Gate {
	c := *g
	c.metrics = m
	return &c
}

// WithClock returns a copy of the gate reading time from now.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	c := *g
	c.now = now
	return &c
}

// CheckRoot gates a claim against a bare root and bitmap snapshot.
//
// Expected errors:
//   - IndexOutOfRangeError if the index lies beyond the bitmap
//   - NotEligibleError if the proof does not recompute the root
//   - MalformedProofError if the proof is too long for the claim call
func (g *Gate) CheckRoot(claim Claim, root hash.Hash, bitmap []byte) (*Decision, error) {
	claimed, err := IsAlreadyClaimed(claim.Entry.Index, bitmap)
	if err != nil {
		return nil, err
	}
	return g.decide(claim, claimed, root)
}

// Check gates a claim against the decoded quest and bitmap accounts. On top of
// the policy it rejects claims the program would refuse: a quest that is not
// active, a time outside the claim window, a zero amount, an overlong proof
// and a bitmap of another root version.
//
// Expected errors:
//   - IndexOutOfRangeError if the index lies beyond the bitmap's user count
//   - ClaimRejectedError if the quest state forbids the claim
//   - NotEligibleError if the proof does not recompute the quest's root
func (g *Gate) Check(claim Claim, snapshot *quest.Snapshot, bitmap *quest.ClaimBitmap) (*Decision, error) {
	// bits of a bitmap from another root version say nothing about this one
	if bitmap.Version != snapshot.Version {
		return nil, g.reject(claim, ClaimRejectedError{Reason: fmt.Sprintf("bitmap version %d does not match quest version %d", bitmap.Version, snapshot.Version)})
	}

	claimed, err := IsAlreadyClaimedIn(claim.Entry.Index, bitmap)
	if err != nil {
		return nil, err
	}
	if claimed {
		return g.decide(claim, true, snapshot.MerkleRoot)
	}

	err = checkState(claim, snapshot, g.now())
	if err != nil {
		return nil, g.reject(claim, err)
	}
	return g.decide(claim, false, snapshot.MerkleRoot)
}

func (g *Gate) reject(claim Claim, err error) error {
	g.log.Debug().
		Uint64("index", claim.Entry.Index).
		Str("recipient", claim.Entry.Recipient.String()).
		Err(err).
		Msg("claim rejected")
	g.metrics.ClaimChecked(OutcomeRejected)
	return err
}

func (g *Gate) decide(claim Claim, claimed bool, root hash.Hash) (*Decision, error) {
	lg := g.log.With().
		Uint64("index", claim.Entry.Index).
		Str("recipient", claim.Entry.Recipient.String()).
		Logger()

	if claimed {
		lg.Debug().Msg("entry already claimed")
		g.metrics.ClaimChecked(OutcomeAlreadyClaimed)
		return &Decision{AlreadyClaimed: true}, nil
	}

	err := CheckEligible(claim.Entry, claim.Proof, root)
	if err != nil {
		lg.Debug().Err(err).Msg("entry not eligible")
		g.metrics.ClaimChecked(OutcomeNotEligible)
		return nil, err
	}

	instruction, err := ClaimInstruction(claim.Entry, claim.Proof)
	if err != nil {
		return nil, fmt.Errorf("could not build claim instruction: %w", err)
	}
	lg.Debug().Int("proof_len", len(claim.Proof)).Msg("claim instruction built")
	g.metrics.ClaimChecked(OutcomeEligible)
	return &Decision{Instruction: instruction}, nil
}

func checkState(claim Claim, snapshot *quest.Snapshot, now time.Time) error {
	if snapshot.Status != quest.StatusActive {
		return ClaimRejectedError{Reason: fmt.Sprintf("quest is %s", snapshot.Status)}
	}
	if !snapshot.InWindow(now) {
		return ClaimRejectedError{Reason: fmt.Sprintf("time %d outside claim window [%d, %d]", now.Unix(), snapshot.StartAt, snapshot.EndAt)}
	}
	if claim.Entry.Amount == 0 {
		return ClaimRejectedError{Reason: "amount is zero"}
	}
	if len(claim.Proof) > merkle.MaxProofNodes {
		return ClaimRejectedError{Reason: fmt.Sprintf("proof has %d nodes, at most %d are allowed", len(claim.Proof), merkle.MaxProofNodes)}
	}
	return nil
}
