package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sharely/questkit/module"
)

type LedgerRPCCollector struct {
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
}

var _ module.LedgerRPCMetrics = (*LedgerRPCCollector)(nil)

func NewLedgerRPCCollector() *LedgerRPCCollector {
	return newLedgerRPCCollector(promauto.With(prometheus.DefaultRegisterer))
}

func newLedgerRPCCollector(factory promauto.Factory) *LedgerRPCCollector {
	return &LedgerRPCCollector{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemRPC,
			Name:      "request_duration_seconds",
			Help:      "duration of ledger rpc attempts",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{LabelMethod, LabelSuccess}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemRPC,
			Name:      "retries_total",
			Help:      "number of retried ledger rpc calls",
		}, []string{LabelMethod}),
	}
}

func (rc *LedgerRPCCollector) RPCRequest(method string, duration time.Duration, success bool) {
	rc.requestDuration.WithLabelValues(method, strconv.FormatBool(success)).Observe(duration.Seconds())
}

func (rc *LedgerRPCCollector) RPCRetried(method string) {
	rc.retries.WithLabelValues(method).Inc()
}

type ClaimCollector struct {
	decisions *prometheus.CounterVec
}

var _ module.ClaimMetrics = (*ClaimCollector)(nil)

func NewClaimCollector() *ClaimCollector {
	return &ClaimCollector{
		decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemClaim,
			Name:      "decisions_total",
			Help:      "number of claim gate decisions by outcome",
		}, []string{LabelOutcome}),
	}
}

func (cc *ClaimCollector) ClaimChecked(outcome string) {
	cc.decisions.WithLabelValues(outcome).Inc()
}
