package scanner

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharely/questkit/ledger/common/encoding"
	"github.com/sharely/questkit/ledger/remote"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
)

// fakeFeed serves an in-memory transaction history. Transactions are added
// oldest first; pages are served newest first like a ledger node.
type fakeFeed struct {
	mu      sync.Mutex
	history []*remote.Transaction
	missing map[string]bool

	// failPage fails the n-th call to Signatures, counting from 1.
	failPage int
	// failTx fails fetches of the given signature.
	failTx map[string]error
	// block, when set, is waited on by Signatures.
	block chan struct{}

	pageCalls int
	txCalls   []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		missing: make(map[string]bool),
		failTx:  make(map[string]error),
	}
}

func (f *fakeFeed) add(tx *remote.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, tx)
}

func (f *fakeFeed) newest() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[len(f.history)-1].Signature
}

func (f *fakeFeed) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.txCalls...)
}

func (f *fakeFeed) Signatures(ctx context.Context, _ quest.Identifier, query remote.SignatureQuery) ([]remote.SignatureInfo, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageCalls++
	if f.failPage == f.pageCalls {
		return nil, quest.NewTransientIOErrorf("page %d unavailable", f.pageCalls)
	}

	var page []remote.SignatureInfo
	started := query.Before == ""
	for i := len(f.history) - 1; i >= 0; i-- {
		tx := f.history[i]
		if !started {
			started = tx.Signature == query.Before
			continue
		}
		if tx.Signature == query.Until {
			break
		}
		page = append(page, remote.SignatureInfo{Signature: tx.Signature, Slot: tx.Slot, Failed: tx.Failed})
		if query.Limit > 0 && len(page) == query.Limit {
			break
		}
	}
	return page, nil
}

func (f *fakeFeed) Transaction(_ context.Context, signature string) (*remote.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txCalls = append(f.txCalls, signature)
	if err, ok := f.failTx[signature]; ok {
		return nil, err
	}
	if f.missing[signature] {
		return nil, nil
	}
	for _, tx := range f.history {
		if tx.Signature == signature {
			return tx, nil
		}
	}
	return nil, nil
}

// dataLine returns the log line emitting e.
func dataLine(t *testing.T, e events.Event) string {
	b, err := encoding.EncodeEvent(e)
	require.NoError(t, err)
	return "Program data: " + base64.StdEncoding.EncodeToString(b)
}

// programTx builds a successful transaction of program whose log carries lines.
func programTx(program quest.Identifier, sig string, slot uint64, lines ...string) *remote.Transaction {
	logs := []string{
		fmt.Sprintf("Program %s invoke [1]", program),
		"Program log: Instruction: Test",
	}
	logs = append(logs, lines...)
	logs = append(logs,
		fmt.Sprintf("Program %s consumed 1000 of 200000 compute units", program),
		fmt.Sprintf("Program %s success", program),
	)
	return &remote.Transaction{
		Signature:   sig,
		Slot:        slot,
		LogMessages: logs,
	}
}

// claimTx is a transaction emitting one Claimed event for index.
func claimTx(t *testing.T, program quest.Identifier, questID quest.Identifier, index uint64, slot uint64) (*remote.Transaction, events.Claimed) {
	e := events.Claimed{
		QuestAccount: questID,
		User:         quest.Identifier{byte(index), 1},
		Index:        index,
		Amount:       100 + index,
		Version:      1,
	}
	sig := fmt.Sprintf("sig-%03d", index)
	return programTx(program, sig, slot, dataLine(t, e)), e
}
