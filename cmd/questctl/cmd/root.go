package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "QUESTKIT"

// config keys, also accepted as QUESTKIT_<KEY> environment variables
const (
	keyRPCURL     = "rpc-url"
	keyProgramID  = "program-id"
	keyCommitment = "commitment"
	keyLogLevel   = "log-level"
	keyDatadir    = "datadir"
	keyStore      = "store"
)

var rootCmd = &cobra.Command{
	Use:           "questctl",
	Short:         "Build reward commitments and follow quest program events",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return setupLogging(viper.GetString(keyLogLevel))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(keyRPCURL, "http://127.0.0.1:8899", "JSON-RPC endpoint of the ledger node")
	flags.String(keyProgramID, "", "address of the quest program")
	flags.String(keyCommitment, "confirmed", "commitment level of ledger queries")
	flags.String(keyLogLevel, "info", "log level (trace, debug, info, warn, error)")

	_ = viper.BindPFlags(flags)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return nil
}
