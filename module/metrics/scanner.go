package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/module"
)

type ScannerCollector struct {
	pages            prometheus.Counter
	signatures       prometheus.Counter
	replayDuration   prometheus.Histogram
	skipped          *prometheus.CounterVec
	decoded          *prometheus.CounterVec
	decodeFailures   prometheus.Counter
	pending          prometheus.Gauge
	scanDuration     prometheus.Histogram
	eventsPerScan    prometheus.Gauge
	lastScanFinished prometheus.Gauge
}

var _ module.ScannerMetrics = (*ScannerCollector)(nil)

func NewScannerCollector() *ScannerCollector {
	return newScannerCollector(promauto.With(prometheus.DefaultRegisterer))
}

func newScannerCollector(factory promauto.Factory) *ScannerCollector {
	return &ScannerCollector{
		pages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "pages_fetched_total",
			Help:      "number of signature pages returned by the feed",
		}),
		signatures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "signatures_fetched_total",
			Help:      "number of signatures returned by the feed",
		}),
		replayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "transaction_replay_duration_seconds",
			Help:      "time spent fetching and decoding one transaction",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "transactions_skipped_total",
			Help:      "number of transactions skipped during replay",
		}, []string{LabelReason}),
		decoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "events_decoded_total",
			Help:      "number of decoded program events by type",
		}, []string{LabelEvent}),
		decodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "decode_failures_total",
			Help:      "number of program data lines that could not be decoded",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "pending_signatures",
			Help:      "number of collected signatures waiting for replay",
		}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "scan_duration_seconds",
			Help:      "duration of a complete scan",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		eventsPerScan: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "last_scan_events",
			Help:      "number of events produced by the last scan",
		}),
		lastScanFinished: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceQuestkit,
			Subsystem: subsystemScanner,
			Name:      "last_scan_finished_timestamp_seconds",
			Help:      "unix time the last scan finished",
		}),
	}
}

func (sc *ScannerCollector) PageFetched(size int) {
	sc.pages.Inc()
	sc.signatures.Add(float64(size))
}

func (sc *ScannerCollector) TransactionReplayed(duration time.Duration) {
	sc.replayDuration.Observe(duration.Seconds())
}

func (sc *ScannerCollector) TransactionSkipped(reason string) {
	sc.skipped.WithLabelValues(reason).Inc()
}

func (sc *ScannerCollector) EventDecoded(t events.Type) {
	sc.decoded.WithLabelValues(t.String()).Inc()
}

func (sc *ScannerCollector) DecodeFailed() {
	sc.decodeFailures.Inc()
}

func (sc *ScannerCollector) PendingSignatures(n int) {
	sc.pending.Set(float64(n))
}

func (sc *ScannerCollector) ScanFinished(duration time.Duration, events int) {
	sc.scanDuration.Observe(duration.Seconds())
	sc.eventsPerScan.Set(float64(events))
	sc.lastScanFinished.SetToCurrentTime()
}
