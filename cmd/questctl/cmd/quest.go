package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sharely/questkit/ledger/common/encoding"
	"github.com/sharely/questkit/ledger/remote"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module/bitmap"
	"github.com/sharely/questkit/module/eligibility"
	"github.com/sharely/questkit/module/metrics"
	"github.com/sharely/questkit/storage/merkle"
)

const requestTimeout = time.Minute

var (
	flagQuest     string
	flagCheckUser string
)

var questCmd = &cobra.Command{
	Use:   "quest",
	Short: "Inspect quest accounts on the ledger",
}

var questShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Decode a quest account",
	Run:   runQuestShow,
}

var questListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every quest account of the program",
	Run:   runQuestList,
}

var questClaimedCmd = &cobra.Command{
	Use:   "claimed",
	Short: "List the claimed indices of a quest",
	Run:   runQuestClaimed,
}

var questCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a recipient of a bundle can claim now",
	Run:   runQuestCheck,
}

func init() {
	rootCmd.AddCommand(questCmd)
	questCmd.AddCommand(questShowCmd, questListCmd, questClaimedCmd, questCheckCmd)

	for _, c := range []*cobra.Command{questShowCmd, questClaimedCmd, questCheckCmd} {
		c.Flags().StringVar(&flagQuest, "quest", "", "address of the quest account")
		_ = c.MarkFlagRequired("quest")
	}
	questCheckCmd.Flags().StringVar(&flagBundle, "bundle", "", "proof bundle of the quest")
	questCheckCmd.Flags().StringVar(&flagCheckUser, "user", "", "recipient to check")
	_ = questCheckCmd.MarkFlagRequired("bundle")
	_ = questCheckCmd.MarkFlagRequired("user")
}

type questView struct {
	Address string          `json:"address"`
	Layout  string          `json:"layout"`
	Quest   *quest.Snapshot `json:"quest"`
}

func fetchQuest(ctx context.Context, client *remote.Client, address quest.Identifier) *quest.Snapshot {
	account, err := client.AccountInfo(ctx, address)
	if err != nil {
		log.Fatal().Err(err).Str("quest", address.String()).Msg("could not fetch quest account")
	}
	snapshot, err := encoding.DecodeQuestSnapshot(account.Data)
	if err != nil {
		log.Fatal().Err(err).Str("quest", address.String()).Msg("could not decode quest account")
	}
	return snapshot
}

// fetchBitmap finds the claim bitmap account referencing the quest.
func fetchBitmap(ctx context.Context, client *remote.Client, address quest.Identifier) *quest.ClaimBitmap {
	accounts, err := client.ProgramAccounts(ctx, programID(),
		remote.MemcmpFilterAt(encoding.DiscriminatorLen, address),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("could not fetch claim bitmap")
	}

	for _, account := range accounts {
		decoded, err := encoding.DecodeAccount(account.Data)
		if err != nil {
			log.Debug().Err(err).Str("account", account.Address.String()).Msg("skipping undecodable account")
			continue
		}
		if decoded.Bitmap != nil && decoded.Bitmap.Quest == address {
			return decoded.Bitmap
		}
	}
	log.Fatal().Str("quest", address.String()).Msg("quest has no claim bitmap")
	return nil
}

func runQuestShow(*cobra.Command, []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	client := newClient(ctx, metrics.NewNoopCollector())
	defer client.Close()

	address := parseAddress(flagQuest)
	account, err := client.AccountInfo(ctx, address)
	if err != nil {
		log.Fatal().Err(err).Msg("could not fetch quest account")
	}
	decoded, err := encoding.DecodeAccount(account.Data)
	if err != nil {
		log.Fatal().Err(err).Msg("could not decode account")
	}
	if decoded.Quest == nil {
		log.Fatal().Str("layout", decoded.Layout.String()).Msg("account is not a quest")
	}
	printJSON(questView{Address: address.String(), Layout: decoded.Layout.String(), Quest: decoded.Quest})
}

func runQuestList(*cobra.Command, []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	client := newClient(ctx, metrics.NewNoopCollector())
	defer client.Close()

	program := programID()
	views := []questView{}
	for _, size := range []uint64{encoding.QuestAccountSizeV1, encoding.QuestAccountSizeV2} {
		accounts, err := client.ProgramAccounts(ctx, program, remote.DataSizeFilter(size))
		if err != nil {
			log.Fatal().Err(err).Msg("could not list program accounts")
		}
		for _, account := range accounts {
			decoded, err := encoding.DecodeAccount(account.Data)
			if err != nil || decoded.Quest == nil {
				log.Debug().Err(err).Str("account", account.Address.String()).Msg("skipping account")
				continue
			}
			views = append(views, questView{
				Address: account.Address.String(),
				Layout:  decoded.Layout.String(),
				Quest:   decoded.Quest,
			})
		}
	}
	printJSON(views)
}

func runQuestClaimed(*cobra.Command, []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	client := newClient(ctx, metrics.NewNoopCollector())
	defer client.Close()

	address := parseAddress(flagQuest)
	b := fetchBitmap(ctx, client, address)
	claimed := bitmap.ClaimedIndicesUpTo(b.Bits, uint64(b.UserCount)).Slice()
	printJSON(struct {
		Quest     string   `json:"quest"`
		Version   uint32   `json:"version"`
		UserCount uint32   `json:"user_count"`
		Claimed   []uint64 `json:"claimed"`
	}{
		Quest:     address.String(),
		Version:   b.Version,
		UserCount: b.UserCount,
		Claimed:   claimed,
	})
}

func runQuestCheck(*cobra.Command, []string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	f, err := os.Open(flagBundle)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open bundle")
	}
	bundle, err := merkle.ReadBundle(f)
	_ = f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read bundle")
	}
	recipient := parseAddress(flagCheckUser)
	claim, ok := bundle.Claim(recipient)
	if !ok {
		log.Fatal().Str("user", recipient.String()).Msg("recipient is not part of the bundle")
	}

	client := newClient(ctx, metrics.NewNoopCollector())
	defer client.Close()

	address := parseAddress(flagQuest)
	snapshot := fetchQuest(ctx, client, address)
	b := fetchBitmap(ctx, client, address)

	gate := eligibility.NewGate(log.Logger).WithMetrics(metrics.NewClaimCollector())
	decision, err := gate.Check(eligibility.Claim{Entry: claim.Entry(), Proof: claim.Proof}, snapshot, b)
	if err != nil {
		log.Fatal().Err(err).Msg("claim would fail")
	}
	if decision.AlreadyClaimed {
		fmt.Printf("index %d already claimed\n", claim.Index)
		return
	}
	fmt.Printf("index %d claimable, instruction data %x\n", claim.Index, decision.Instruction)
}
