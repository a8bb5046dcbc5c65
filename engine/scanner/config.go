package scanner

import (
	"fmt"
	"time"

	"github.com/sharely/questkit/model/quest"
)

type Config struct {
	// Name keys the persisted cursor.
	Name string
	// Program is the address whose transaction history is scanned.
	Program quest.Identifier
	// PageSize is the number of signatures requested per page.
	PageSize int
	// CheckpointInterval is the number of replayed transactions handed to the
	// consumer at once. The cursor is updated after every acknowledged batch.
	CheckpointInterval int
	// FetchWorkers is the number of concurrent transaction fetches during
	// replay. Events are always emitted in ledger order.
	FetchWorkers int
	// PollInterval is the pause between scans in follow mode.
	PollInterval time.Duration
	// SeenCacheSize bounds the signatures remembered across polls.
	SeenCacheSize int
}

func DefaultConfig() Config {
	return Config{
		Name:               "quests",
		PageSize:           1000,
		CheckpointInterval: 50,
		FetchWorkers:       1,
		PollInterval:       10 * time.Second,
		SeenCacheSize:      10_000,
	}
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("scanner name must not be empty")
	}
	if c.Program.IsZero() {
		return fmt.Errorf("program address must be set")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.CheckpointInterval < 1 {
		return fmt.Errorf("checkpoint interval must be positive, got %d", c.CheckpointInterval)
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("fetch workers must be positive, got %d", c.FetchWorkers)
	}
	return nil
}
