package eligibility

import (
	"github.com/sharely/questkit/ledger/common/encoding"
	"github.com/sharely/questkit/ledger/common/utils"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/storage/merkle"
)

// ClaimInstructionName is the program instruction that performs a claim.
const ClaimInstructionName = "claim"

// ClaimInstruction builds the instruction data of a claim call:
// discriminator || index (u64) || amount (u64) || proof length (u32) || proof nodes.
//
// Expected errors:
//   - MalformedProofError if the proof exceeds merkle.MaxProofNodes
func ClaimInstruction(entry quest.Entry, proof merkle.Proof) ([]byte, error) {
	if len(proof) > merkle.MaxProofNodes {
		return nil, merkle.NewMalformedProofErrorf("proof has %d nodes, at most %d are allowed", len(proof), merkle.MaxProofNodes)
	}

	d := encoding.InstructionDiscriminator(ClaimInstructionName)
	buf := make([]byte, 0, encoding.DiscriminatorLen+8+8+4+len(proof)*32)
	buf = append(buf, d[:]...)
	buf = utils.AppendUint64(buf, entry.Index)
	buf = utils.AppendUint64(buf, entry.Amount)
	buf = utils.AppendUint32(buf, uint32(len(proof)))
	buf = append(buf, proof.Bytes()...)
	return buf, nil
}
