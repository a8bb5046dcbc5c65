package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sharely/questkit/engine/scanner"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module"
	"github.com/sharely/questkit/module/lifecycle"
	"github.com/sharely/questkit/module/metrics"
)

var (
	flagFollow             bool
	flagReset              bool
	flagMetricsAddr        string
	flagPageSize           int
	flagCheckpointInterval int
	flagFetchWorkers       int
	flagPollInterval       time.Duration
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Replay the quest program's event history",
	Long: `Replays the transaction history of the quest program oldest first and
prints the reconstructed state of every quest. The scan resumes from the
cursor kept in the selected store. With --follow it keeps polling for new
transactions until interrupted.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	defaults := scanner.DefaultConfig()
	flags := scanCmd.Flags()
	flags.BoolVar(&flagFollow, "follow", false, "keep polling for new transactions")
	flags.BoolVar(&flagReset, "reset", false, "forget the stored cursor and scan from genesis")
	flags.String(keyStore, storeBadger, "cursor store: badger, pebble or memory")
	flags.String(keyDatadir, "./questkit-data", "directory of the cursor store")
	flags.StringVar(&flagMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flags.IntVar(&flagPageSize, "page-size", defaults.PageSize, "signatures requested per page")
	flags.IntVar(&flagCheckpointInterval, "checkpoint-interval", defaults.CheckpointInterval, "transactions replayed between cursor checkpoints")
	flags.IntVar(&flagFetchWorkers, "fetch-workers", defaults.FetchWorkers, "concurrent transaction fetches")
	flags.DurationVar(&flagPollInterval, "poll-interval", defaults.PollInterval, "pause between polls with --follow")

	_ = viper.BindPFlag(keyStore, flags.Lookup(keyStore))
	_ = viper.BindPFlag(keyDatadir, flags.Lookup(keyDatadir))
}

type scanSummary struct {
	Pages      int                    `json:"pages"`
	Signatures int                    `json:"signatures"`
	Replayed   int                    `json:"replayed"`
	Skipped    int                    `json:"skipped"`
	Events     int                    `json:"events"`
	Warnings   []string               `json:"warnings,omitempty"`
	Quests     []lifecycle.QuestState `json:"quests"`
	Cursor     quest.ScanCursor       `json:"cursor"`
}

func runScan(*cobra.Command, []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	program := programID()

	var rpcMetrics module.LedgerRPCMetrics = metrics.NewNoopCollector()
	var scanMetrics module.ScannerMetrics = metrics.NewNoopCollector()
	if flagMetricsAddr != "" {
		rpcMetrics = metrics.NewLedgerRPCCollector()
		scanMetrics = metrics.NewScannerCollector()
	}

	client := newClient(ctx, rpcMetrics)
	defer client.Close()

	cursors, closer, err := openCursors(viper.GetString(keyStore), viper.GetString(keyDatadir))
	if err != nil {
		log.Fatal().Err(err).Msg("could not open cursor store")
	}
	defer closer.Close()

	config := scanner.DefaultConfig()
	config.Program = program
	config.PageSize = flagPageSize
	config.CheckpointInterval = flagCheckpointInterval
	config.FetchWorkers = flagFetchWorkers
	config.PollInterval = flagPollInterval

	tracker := lifecycle.NewTracker(log.Logger)
	s, err := scanner.New(log.Logger, client, config,
		scanner.WithCursorStore(cursors),
		scanner.WithConsumer(tracker.Consume),
		scanner.WithMetrics(scanMetrics),
	)
	if err != nil {
		return fmt.Errorf("could not create scanner: %w", err)
	}

	if flagReset {
		err = s.Reset()
		if err != nil {
			return fmt.Errorf("could not reset scan cursor: %w", err)
		}
		log.Info().Msg("scan cursor reset")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if flagMetricsAddr != "" {
		server := metrics.NewServer(log.Logger, flagMetricsAddr)
		g.Go(func() error {
			server.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		// stops the metrics server once the scan is over
		defer cancel()
		if flagFollow {
			return follow(gctx, s, tracker)
		}
		return scanOnce(gctx, s, tracker)
	})

	return g.Wait()
}

func scanOnce(ctx context.Context, s *scanner.Scanner, tracker *lifecycle.Tracker) error {
	result, err := s.Run(ctx)
	if err != nil {
		return err
	}

	summary := scanSummary{
		Pages:      result.Pages,
		Signatures: result.Signatures,
		Replayed:   result.Replayed,
		Skipped:    result.Skipped,
		Events:     len(result.Events),
		Quests:     tracker.Quests(),
		Cursor:     result.Cursor,
	}
	if result.Warnings != nil {
		for _, w := range result.Warnings.Errors {
			summary.Warnings = append(summary.Warnings, w.Error())
		}
	}
	printJSON(summary)
	return nil
}

// follow logs every new event until ctx is cancelled. The tracker is already
// fed through the scanner's consumer.
func follow(ctx context.Context, s *scanner.Scanner, tracker *lifecycle.Tracker) error {
	poller, err := scanner.NewPoller(log.Logger, s, func(_ context.Context, fresh []events.Envelope) error {
		for _, env := range fresh {
			log.Info().
				Str("event", env.Event.Type().String()).
				Str("signature", env.Position.Signature).
				Uint64("slot", env.Position.Slot).
				Msg("event")
		}
		log.Info().Int("quests", len(tracker.Quests())).Int("fresh", len(fresh)).Msg("batch delivered")
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not create poller: %w", err)
	}

	log.Info().Dur("interval", flagPollInterval).Msg("following quest program")
	err = poller.Run(ctx)
	if err != nil {
		return fmt.Errorf("poller stopped: %w", err)
	}
	printJSON(tracker.Quests())
	return nil
}
