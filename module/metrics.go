package module

import (
	"time"

	"github.com/sharely/questkit/model/events"
)

// ScannerMetrics encapsulates the metrics collectors for the event stream
// scanner.
type ScannerMetrics interface {
	// PageFetched is called for every page of signatures returned by the feed.
	PageFetched(size int)

	// TransactionReplayed is called once per replayed transaction.
	TransactionReplayed(duration time.Duration)

	// TransactionSkipped is called for transactions that were not decoded,
	// either because they failed on chain or the feed no longer has them.
	TransactionSkipped(reason string)

	// EventDecoded tracks the number of events decoded per type.
	EventDecoded(t events.Type)

	// DecodeFailed tracks data lines that could not be decoded.
	DecodeFailed()

	// PendingSignatures tracks the number of collected signatures that are
	// still waiting to be replayed.
	PendingSignatures(n int)

	// ScanFinished records the duration of one complete scan.
	ScanFinished(duration time.Duration, events int)
}

// LedgerRPCMetrics encapsulates the metrics collectors for the ledger RPC
// client.
type LedgerRPCMetrics interface {
	// RPCRequest records the duration and outcome of a single RPC attempt.
	RPCRequest(method string, duration time.Duration, success bool)

	// RPCRetried is called whenever an RPC call is retried.
	RPCRetried(method string)
}

// ClaimMetrics tracks claim gate decisions.
type ClaimMetrics interface {
	ClaimChecked(outcome string)
}
