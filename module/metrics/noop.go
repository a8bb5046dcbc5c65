package metrics

import (
	"time"

	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/module"
)

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

var _ module.ScannerMetrics = (*NoopCollector)(nil)
var _ module.LedgerRPCMetrics = (*NoopCollector)(nil)
var _ module.ClaimMetrics = (*NoopCollector)(nil)

func (nc *NoopCollector) PageFetched(int)                        {}
func (nc *NoopCollector) TransactionReplayed(time.Duration)      {}
func (nc *NoopCollector) TransactionSkipped(string)              {}
func (nc *NoopCollector) EventDecoded(events.Type)               {}
func (nc *NoopCollector) DecodeFailed()                          {}
func (nc *NoopCollector) PendingSignatures(int)                  {}
func (nc *NoopCollector) ScanFinished(time.Duration, int)        {}
func (nc *NoopCollector) RPCRequest(string, time.Duration, bool) {}
func (nc *NoopCollector) RPCRetried(string)                      {}
func (nc *NoopCollector) ClaimChecked(string)                    {}
