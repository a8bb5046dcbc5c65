package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sharely/questkit/ledger/common/hash"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module/eligibility"
	"github.com/sharely/questkit/storage/merkle"
)

var (
	flagInput   string
	flagOutput  string
	flagIndexed bool

	flagBundle string
	flagRoot   string
	flagUser   string
	flagIndex  uint64
	flagAmount uint64
	flagProof  []string
)

var merkleCmd = &cobra.Command{
	Use:   "merkle",
	Short: "Build and verify reward commitments",
}

var merkleBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Commit to an allocation list and write the proof bundle",
	Long: `Reads a JSON list of allocations ({"user", "amount"}) and writes a bundle
holding the Merkle root and one proof per recipient. Indices are assigned by
the recipients' base58 text, ascending. With --indexed the input must carry
"index" fields that are already dense.`,
	Run: runMerkleBuild,
}

var merkleVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a proof bundle or a single claim against a root",
	Run:   runMerkleVerify,
}

func init() {
	rootCmd.AddCommand(merkleCmd)
	merkleCmd.AddCommand(merkleBuildCmd)
	merkleCmd.AddCommand(merkleVerifyCmd)

	merkleBuildCmd.Flags().StringVar(&flagInput, "input", "-", "allocation list, - for stdin")
	merkleBuildCmd.Flags().StringVar(&flagOutput, "output", "-", "bundle destination, - for stdout")
	merkleBuildCmd.Flags().BoolVar(&flagIndexed, "indexed", false, "take indices from the input")

	flags := merkleVerifyCmd.Flags()
	flags.StringVar(&flagBundle, "bundle", "", "proof bundle to verify")
	flags.StringVar(&flagRoot, "root", "", "expected root, hex")
	flags.StringVar(&flagUser, "user", "", "recipient of a single claim")
	flags.Uint64Var(&flagIndex, "index", 0, "index of a single claim")
	flags.Uint64Var(&flagAmount, "amount", 0, "amount of a single claim")
	flags.StringSliceVar(&flagProof, "proof", nil, "proof nodes of a single claim, hex, leaf level first")
}

func loadEntries(path string, indexed bool) ([]quest.Entry, error) {
	if indexed {
		var entries []quest.Entry
		err := readJSON(path, &entries)
		if err != nil {
			return nil, err
		}
		return entries, quest.CheckDense(entries)
	}

	var allocations []quest.Allocation
	err := readJSON(path, &allocations)
	if err != nil {
		return nil, err
	}
	return quest.AssignIndices(allocations)
}

func runMerkleBuild(*cobra.Command, []string) {
	entries, err := loadEntries(flagInput, flagIndexed)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load allocations")
	}

	bundle, err := merkle.NewBundle(entries)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build commitment")
	}

	out, err := openOutput(flagOutput)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open output")
	}
	defer out.Close()

	_, err = bundle.WriteTo(out)
	if err != nil {
		log.Fatal().Err(err).Msg("could not write bundle")
	}

	log.Info().
		Str("root", bundle.Root.String()).
		Int("user_count", bundle.UserCount).
		Uint64("total_amount", bundle.TotalAmount).
		Msg("commitment built")
}

func runMerkleVerify(*cobra.Command, []string) {
	var expected *hash.Hash
	if flagRoot != "" {
		root, err := hash.FromHex(flagRoot)
		if err != nil {
			log.Fatal().Err(err).Msg("malformed root")
		}
		expected = &root
	}

	if flagBundle == "" {
		verifyClaim(expected)
		return
	}

	f, err := os.Open(flagBundle)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open bundle")
	}
	defer f.Close()

	bundle, err := merkle.ReadBundle(f)
	if err != nil {
		log.Fatal().Err(err).Msg("could not read bundle")
	}
	if expected != nil && *expected != bundle.Root {
		log.Fatal().Str("bundle_root", bundle.Root.String()).Str("expected", expected.String()).Msg("bundle commits to another root")
	}
	err = bundle.Verify()
	if err != nil {
		log.Fatal().Err(err).Msg("bundle is invalid")
	}
	fmt.Printf("bundle valid: %d claims under root %s\n", len(bundle.Claims), bundle.Root)
}

func verifyClaim(root *hash.Hash) {
	if root == nil || flagUser == "" {
		log.Fatal().Msg("verifying a single claim needs --root and --user")
	}
	proof, err := merkle.ParseProof(flagProof)
	if err != nil {
		log.Fatal().Err(err).Msg("malformed proof")
	}
	entry := quest.Entry{
		Index:     flagIndex,
		Recipient: parseAddress(flagUser),
		Amount:    flagAmount,
	}

	err = eligibility.CheckEligible(entry, proof, *root)
	if err != nil {
		log.Fatal().Err(err).Msg("claim is not eligible")
	}
	fmt.Println("claim eligible")
}
