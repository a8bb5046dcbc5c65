package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/sharely/questkit/ledger/remote"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module"
	"github.com/sharely/questkit/storage"
	"github.com/sharely/questkit/storage/badger"
	"github.com/sharely/questkit/storage/inmemory"
	"github.com/sharely/questkit/storage/pebble"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	storeBadger = "badger"
	storePebble = "pebble"
	storeMemory = "memory"
)

func programID() quest.Identifier {
	raw := viper.GetString(keyProgramID)
	if raw == "" {
		log.Fatal().Msg("missing --program-id")
	}
	id, err := quest.ParseIdentifier(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("malformed program id")
	}
	return id
}

func parseAddress(raw string) quest.Identifier {
	id, err := quest.ParseIdentifier(raw)
	if err != nil {
		log.Fatal().Err(err).Str("address", raw).Msg("malformed address")
	}
	return id
}

func newClient(ctx context.Context, metrics module.LedgerRPCMetrics) *remote.Client {
	config := remote.DefaultConfig()
	config.Endpoint = viper.GetString(keyRPCURL)
	config.Commitment = viper.GetString(keyCommitment)

	client, err := remote.NewClient(ctx, log.Logger, metrics, config)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to ledger node")
	}
	return client
}

// openCursors opens the cursor store selected by --store.
func openCursors(kind string, dir string) (storage.ScanCursors, io.Closer, error) {
	switch kind {
	case storeBadger:
		db, err := badger.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return badger.NewScanCursors(db), db, nil
	case storePebble:
		db, err := pebble.OpenDB(dir)
		if err != nil {
			return nil, nil, err
		}
		return pebble.NewScanCursors(db), db, nil
	case storeMemory:
		return inmemory.NewScanCursors(), closerFunc(func() error { return nil }), nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q, expected %s, %s or %s", kind, storeBadger, storePebble, storeMemory)
	}
}

func readJSON(path string, v interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	err := json.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}
	return nil
}

// openOutput returns stdout for "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not encode output")
	}
	fmt.Println(string(data))
}
