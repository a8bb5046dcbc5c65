package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/sharely/questkit/ledger/common/encoding"
	"github.com/sharely/questkit/ledger/remote"
	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module"
	"github.com/sharely/questkit/module/metrics"
	"github.com/sharely/questkit/module/util"
	"github.com/sharely/questkit/storage"
)

// State is the phase a scanner is in.
type State uint32

const (
	StateIdle State = iota
	StatePaginating
	StateReplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaginating:
		return "paginating"
	case StateReplaying:
		return "replaying"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// ErrScanInProgress is returned when a scan is started while another scan
// of the same scanner is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Feed is the transaction history of the ledger.
type Feed interface {
	// Signatures returns a page of signatures, newest first.
	Signatures(ctx context.Context, address quest.Identifier, query remote.SignatureQuery) ([]remote.SignatureInfo, error)
	// Transaction returns nil if the transaction is unknown.
	Transaction(ctx context.Context, signature string) (*remote.Transaction, error)
}

// Consumer receives the events of one batch of replayed transactions in
// ledger order. Once it returns nil the batch is dropped from the cursor's
// pending list and is not replayed again.
type Consumer func(ctx context.Context, batch []events.Envelope) error

// Result is the outcome of a complete scan.
type Result struct {
	// Events holds every decoded event in ledger order.
	Events events.EnvelopeList
	// ByQuest groups the events that concern a quest.
	ByQuest map[quest.Identifier][]events.Envelope
	// Pages is the number of non-empty signature pages fetched.
	Pages      int
	Signatures int
	Replayed   int
	Skipped    int
	// Warnings collects transactions and log lines that could not be decoded.
	Warnings *multierror.Error
	// Cursor is the cursor to resume from.
	Cursor quest.ScanCursor
}

type Option func(*Scanner)

// WithCursorStore persists the cursor under the scanner's name.
func WithCursorStore(cursors storage.ScanCursors) Option {
	return func(s *Scanner) {
		s.cursors = cursors
	}
}

func WithConsumer(consumer Consumer) Option {
	return func(s *Scanner) {
		s.consumer = consumer
	}
}

func WithMetrics(m module.ScannerMetrics) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// Scanner turns the program's transaction history into an ordered stream of
// decoded events. Scans are incremental: each scan resumes from the cursor
// of the previous one.
type Scanner struct {
	log      zerolog.Logger
	metrics  module.ScannerMetrics
	feed     Feed
	cursors  storage.ScanCursors
	consumer Consumer
	config   Config
	program  string
	state    *atomic.Uint32
	now      func() time.Time
}

func New(log zerolog.Logger, feed Feed, config Config, opts ...Option) (*Scanner, error) {
	err := config.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}

	s := &Scanner{
		log:     log.With().Str("component", "scanner").Str("scanner", config.Name).Logger(),
		metrics: metrics.NewNoopCollector(),
		feed:    feed,
		config:  config,
		program: config.Program.String(),
		state:   atomic.NewUint32(uint32(StateIdle)),
		now:     time.Now,
	}
	for _, apply := range opts {
		apply(s)
	}
	return s, nil
}

// State returns the current phase of the scanner.
func (s *Scanner) State() State {
	return State(s.state.Load())
}

// Cursor returns the persisted cursor, or the zero cursor if there is none.
func (s *Scanner) Cursor() (quest.ScanCursor, error) {
	if s.cursors == nil {
		return quest.ScanCursor{}, nil
	}
	cursor, err := s.cursors.Cursor(s.config.Name)
	if errors.Is(err, storage.ErrNotFound) {
		return quest.ScanCursor{}, nil
	}
	if err != nil {
		return quest.ScanCursor{}, fmt.Errorf("could not load cursor: %w", err)
	}
	return cursor, nil
}

// Reset removes the persisted cursor so the next run scans from feed start.
func (s *Scanner) Reset() error {
	if s.cursors == nil {
		return nil
	}
	return s.cursors.RemoveCursor(s.config.Name)
}

// Run scans from the persisted cursor.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	cursor, err := s.Cursor()
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, cursor)
}

// Scan collects every signature newer than cursor.LastSignature, then replays
// the collected and previously pending transactions oldest first.
//
// Once pagination completes the cursor is advanced to the newest collected
// signature, with the unreplayed signatures kept as pending. An interrupted
// replay is resumed by the next scan from the pending list.
//
// Expected errors:
//   - ErrScanInProgress if another scan is running
//   - quest.TransientIOError if the feed failed; the cursor is not advanced beyond
//     what was persisted
//   - context errors if ctx is cancelled
//
// Undecodable transactions and log lines are reported in Result.Warnings.
func (s *Scanner) Scan(ctx context.Context, cursor quest.ScanCursor) (*Result, error) {
	if !s.state.CompareAndSwap(uint32(StateIdle), uint32(StatePaginating)) {
		return nil, ErrScanInProgress
	}
	defer s.state.Store(uint32(StateIdle))

	started := time.Now()
	result := &Result{
		ByQuest: make(map[quest.Identifier][]events.Envelope),
		Cursor:  cursor,
	}

	collected, pages, err := s.paginate(ctx, cursor.LastSignature)
	if err != nil {
		return nil, fmt.Errorf("pagination aborted: %w", err)
	}
	result.Pages = pages
	result.Signatures = len(collected)

	if len(collected) == 0 && len(cursor.Pending) == 0 {
		s.log.Debug().Msg("no new transactions")
		s.metrics.ScanFinished(time.Since(started), 0)
		return result, nil
	}

	next := quest.ScanCursor{
		LastSignature: cursor.LastSignature,
		Pending:       make([]string, 0, len(cursor.Pending)+len(collected)),
	}
	next.Pending = append(next.Pending, cursor.Pending...)
	if len(collected) > 0 {
		next.LastSignature = collected[0].Signature
	}
	for i := len(collected) - 1; i >= 0; i-- {
		if collected[i].Failed {
			result.Skipped++
			s.metrics.TransactionSkipped(metrics.SkipReasonFailed)
			continue
		}
		next.Pending = append(next.Pending, collected[i].Signature)
	}

	err = s.save(&next)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int("pages", pages).
		Int("collected", len(collected)).
		Int("pending", len(next.Pending)).
		Str("last_signature", next.LastSignature).
		Msg("pagination complete")

	s.state.Store(uint32(StateReplaying))
	all, err := s.replay(ctx, &next, result)
	if err != nil {
		return nil, err
	}

	next.Pending = nil
	err = s.save(&next)
	if err != nil {
		return nil, err
	}

	sort.Stable(all)
	result.Events = all
	for _, env := range all {
		if id, ok := env.Event.Quest(); ok {
			result.ByQuest[id] = append(result.ByQuest[id], env)
		}
	}
	result.Cursor = next

	s.metrics.ScanFinished(time.Since(started), len(all))
	s.log.Info().
		Int("events", len(all)).
		Int("quests", len(result.ByQuest)).
		Int("replayed", result.Replayed).
		Int("skipped", result.Skipped).
		Int("warnings", warningCount(result.Warnings)).
		Dur("duration", time.Since(started)).
		Msg("scan complete")

	return result, nil
}

// paginate walks the feed from newest to oldest until it reaches until or
// the start of the feed.
func (s *Scanner) paginate(ctx context.Context, until string) ([]remote.SignatureInfo, int, error) {
	var collected []remote.SignatureInfo
	before := ""
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, pages, err
		}

		page, err := s.feed.Signatures(ctx, s.config.Program, remote.SignatureQuery{
			Before: before,
			Until:  until,
			Limit:  s.config.PageSize,
		})
		if err != nil {
			return nil, pages, fmt.Errorf("could not fetch signatures before %q: %w", before, err)
		}
		if len(page) == 0 {
			break
		}
		pages++
		s.metrics.PageFetched(len(page))

		reached := false
		for _, sig := range page {
			if until != "" && sig.Signature == until {
				reached = true
				break
			}
			collected = append(collected, sig)
		}
		if reached || len(page) < s.config.PageSize {
			break
		}
		before = page[len(page)-1].Signature
	}
	return collected, pages, nil
}

// replay decodes the pending transactions of next in batches.
func (s *Scanner) replay(ctx context.Context, next *quest.ScanCursor, result *Result) (events.EnvelopeList, error) {
	pending := next.Pending
	progress := util.LogProgress(s.log, util.DefaultLogProgressConfig("replay", len(pending)))
	interval := s.config.CheckpointInterval

	var all events.EnvelopeList
	for offset := 0; offset < len(pending); offset += interval {
		end := offset + interval
		if end > len(pending) {
			end = len(pending)
		}

		batch, err := s.replayBatch(ctx, pending[offset:end], uint64(offset), result)
		if err != nil {
			return nil, err
		}

		if s.consumer != nil {
			err = s.consumer(ctx, batch)
			if err != nil {
				return nil, fmt.Errorf("consumer rejected batch at %d: %w", offset, err)
			}
			if end < len(pending) {
				next.Pending = append([]string(nil), pending[end:]...)
				err = s.save(next)
				if err != nil {
					return nil, err
				}
			}
		}

		all = append(all, batch...)
		progress(end - offset)
	}
	return all, nil
}

func (s *Scanner) replayBatch(ctx context.Context, signatures []string, sequence uint64, result *Result) (events.EnvelopeList, error) {
	txs, err := s.fetch(ctx, signatures)
	if err != nil {
		return nil, err
	}

	var batch events.EnvelopeList
	for i, sig := range signatures {
		tx := txs[i]
		if tx == nil {
			result.Skipped++
			result.Warnings = multierror.Append(result.Warnings, fmt.Errorf("transaction %s not found", sig))
			s.metrics.TransactionSkipped(metrics.SkipReasonNotFound)
			continue
		}
		if tx.Failed {
			result.Skipped++
			s.metrics.TransactionSkipped(metrics.SkipReasonFailed)
			continue
		}

		decoded, warnings := s.decode(sig, tx, sequence+uint64(i))
		if warnings != nil {
			result.Warnings = multierror.Append(result.Warnings, warnings.Errors...)
		}
		batch = append(batch, decoded...)
		result.Replayed++
	}

	sort.Stable(batch)
	return batch, nil
}

// fetch returns the transactions for signatures, index aligned. The first
// failed fetch aborts the batch.
func (s *Scanner) fetch(ctx context.Context, signatures []string) ([]*remote.Transaction, error) {
	txs := make([]*remote.Transaction, len(signatures))
	errs := make([]error, len(signatures))

	get := func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			return
		}
		started := time.Now()
		txs[i], errs[i] = s.feed.Transaction(ctx, signatures[i])
		if errs[i] == nil {
			s.metrics.TransactionReplayed(time.Since(started))
		}
	}

	if s.config.FetchWorkers == 1 {
		for i := range signatures {
			get(i)
			if errs[i] != nil {
				break
			}
		}
	} else {
		pool := workerpool.New(s.config.FetchWorkers)
		for i := range signatures {
			i := i
			pool.Submit(func() { get(i) })
		}
		pool.StopWait()
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("could not fetch transaction %s: %w", signatures[i], err)
	}
	return txs, nil
}

func (s *Scanner) decode(signature string, tx *remote.Transaction, sequence uint64) ([]events.Envelope, *multierror.Error) {
	var decoded []events.Envelope
	var warnings *multierror.Error

	for _, dl := range ProgramData(s.program, tx.LogMessages) {
		pos := events.Position{
			Signature: signature,
			Slot:      tx.Slot,
			Sequence:  sequence,
			LogIndex:  uint32(dl.Index),
		}

		payload, err := dl.Line.Payload()
		if err != nil {
			s.metrics.DecodeFailed()
			warnings = multierror.Append(warnings, fmt.Errorf("%s: %w", pos, err))
			continue
		}

		e, err := encoding.DecodeEvent(payload)
		if errors.Is(err, encoding.ErrUnknownDiscriminator) {
			s.log.Debug().Str("position", pos.String()).Msg("skipping data line with unknown discriminator")
			continue
		}
		if err != nil {
			s.metrics.DecodeFailed()
			warnings = multierror.Append(warnings, fmt.Errorf("%s: %w", pos, err))
			continue
		}

		s.metrics.EventDecoded(e.Type())
		decoded = append(decoded, events.Envelope{Position: pos, Event: e})
	}
	return decoded, warnings
}

func (s *Scanner) save(cursor *quest.ScanCursor) error {
	cursor.UpdatedAt = s.now().UTC()
	s.metrics.PendingSignatures(len(cursor.Pending))
	if s.cursors == nil {
		return nil
	}
	err := s.cursors.SetCursor(s.config.Name, *cursor)
	if err != nil {
		return fmt.Errorf("could not save cursor: %w", err)
	}
	return nil
}

func warningCount(w *multierror.Error) int {
	if w == nil {
		return 0
	}
	return len(w.Errors)
}
