package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/sharely/questkit/model/events"
	"github.com/sharely/questkit/model/quest"
)

// Handler receives the events of one replayed batch that were not delivered
// before. A returned error fails the scan and leaves the batch pending, so the
// same events are offered again by the next poll.
type Handler func(ctx context.Context, fresh []events.Envelope) error

// Poller runs scans repeatedly. Transactions may be replayed more than once
// when a scan is interrupted; the poller remembers recently delivered
// signatures and drops the repeats.
type Poller struct {
	log      zerolog.Logger
	scanner  *Scanner
	handler  Handler
	interval time.Duration
	seen     *lru.Cache[string, struct{}]
}

// NewPoller chains handler behind the scanner's consumer. Events reach the
// handler batch by batch during replay, before the scanner drops the batch
// from the pending list.
func NewPoller(log zerolog.Logger, scanner *Scanner, handler Handler) (*Poller, error) {
	seen, err := lru.New[string, struct{}](scanner.config.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create seen signature cache: %w", err)
	}
	p := &Poller{
		log:      log.With().Str("component", "poller").Logger(),
		scanner:  scanner,
		handler:  handler,
		interval: scanner.config.PollInterval,
		seen:     seen,
	}
	scanner.consumer = p.deliverAfter(scanner.consumer)
	return p, nil
}

// Run polls until ctx is cancelled. Transient feed failures are logged and
// retried at the next tick; any other error stops the poller.
func (p *Poller) Run(ctx context.Context) error {
	cursor, err := p.scanner.Cursor()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		cursor, err = p.poll(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, quest.ErrTransientIO) {
				return err
			}
			p.log.Warn().Err(err).Msg("scan failed, retrying at next poll")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, cursor quest.ScanCursor) (quest.ScanCursor, error) {
	result, err := p.scanner.Scan(ctx, cursor)
	if err != nil {
		// a failed scan leaves the persisted cursor as the resumption point
		reloaded, lerr := p.scanner.Cursor()
		if lerr == nil && p.scanner.cursors != nil {
			cursor = reloaded
		}
		return cursor, err
	}
	if result.Warnings != nil {
		p.log.Warn().Err(result.Warnings).Msg("scan completed with warnings")
	}
	return result.Cursor, nil
}

func (p *Poller) deliverAfter(next Consumer) Consumer {
	return func(ctx context.Context, batch []events.Envelope) error {
		if next != nil {
			err := next(ctx, batch)
			if err != nil {
				return err
			}
		}
		return p.deliver(ctx, batch)
	}
}

// deliver hands the fresh part of a batch to the handler. Signatures count as
// delivered only once the handler accepted them.
func (p *Poller) deliver(ctx context.Context, batch []events.Envelope) error {
	fresh := p.filter(batch)
	if len(fresh) == 0 {
		return nil
	}
	err := p.handler(ctx, fresh)
	if err != nil {
		return fmt.Errorf("handler failed: %w", err)
	}
	p.markSeen(fresh)
	return nil
}

// filter drops events of transactions that an earlier batch delivered.
func (p *Poller) filter(envelopes []events.Envelope) []events.Envelope {
	fresh := make([]events.Envelope, 0, len(envelopes))
	for _, env := range envelopes {
		if p.seen.Contains(env.Position.Signature) {
			continue
		}
		fresh = append(fresh, env)
	}
	return fresh
}

func (p *Poller) markSeen(delivered []events.Envelope) {
	for _, env := range delivered {
		p.seen.Add(env.Position.Signature, struct{}{})
	}
}
