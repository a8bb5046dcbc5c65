package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/sharely/questkit/model/quest"
	"github.com/sharely/questkit/module"
)

// ErrAccountNotFound is returned when the queried account does not exist.
var ErrAccountNotFound = errors.New("account not found")

const (
	methodGetSignatures     = "getSignaturesForAddress"
	methodGetTransaction    = "getTransaction"
	methodGetAccountInfo    = "getAccountInfo"
	methodGetProgramAccount = "getProgramAccounts"
)

// JSON-RPC error codes that will not go away by retrying.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type Config struct {
	Endpoint       string
	Commitment     string
	RequestTimeout time.Duration
	RetryDelay     time.Duration
	MaxRetryDelay  time.Duration
	MaxRetries     uint64
	// RequestsPerSecond limits the request rate including retries. Zero
	// disables the limit.
	RequestsPerSecond float64
	RequestBurst      int
}

func DefaultConfig() Config {
	return Config{
		Endpoint:       "http://127.0.0.1:8899",
		Commitment:     "confirmed",
		RequestTimeout: 30 * time.Second,
		RetryDelay:     500 * time.Millisecond,
		MaxRetryDelay:  10 * time.Second,
		MaxRetries:     5,
		RequestBurst:   1,
	}
}

// Client queries a ledger node over JSON-RPC. Every call is retried with
// capped exponential backoff; a call that still fails is reported as a
// quest.TransientIOError.
type Client struct {
	log     zerolog.Logger
	metrics module.LedgerRPCMetrics
	rpc     *rpc.Client
	limiter *rate.Limiter
	config  Config
}

// NewClient dials config.Endpoint.
func NewClient(ctx context.Context, log zerolog.Logger, metrics module.LedgerRPCMetrics, config Config) (*Client, error) {
	c, err := rpc.DialContext(ctx, config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("could not dial ledger node %s: %w", config.Endpoint, err)
	}
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	if config.RequestBurst < 1 {
		config.RequestBurst = 1
	}
	return &Client{
		log:     log.With().Str("component", "ledger_rpc").Str("endpoint", config.Endpoint).Logger(),
		metrics: metrics,
		rpc:     c,
		limiter: rate.NewLimiter(limit, config.RequestBurst),
		config:  config,
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// Signatures returns one page of signatures for transactions that touched
// address, newest first.
func (c *Client) Signatures(ctx context.Context, address quest.Identifier, query SignatureQuery) ([]SignatureInfo, error) {
	opts := map[string]interface{}{
		"commitment": c.config.Commitment,
	}
	if query.Limit > 0 {
		opts["limit"] = query.Limit
	}
	if query.Before != "" {
		opts["before"] = query.Before
	}
	if query.Until != "" {
		opts["until"] = query.Until
	}

	var page []rpcSignature
	err := c.call(ctx, &page, methodGetSignatures, address.String(), opts)
	if err != nil {
		return nil, err
	}

	infos := make([]SignatureInfo, 0, len(page))
	for _, s := range page {
		infos = append(infos, SignatureInfo{
			Signature: s.Signature,
			Slot:      s.Slot,
			BlockTime: blockTime(s.BlockTime),
			Failed:    s.Err != nil,
		})
	}
	return infos, nil
}

// Transaction returns the confirmed transaction with the given signature, or
// nil if the node does not have it.
func (c *Client) Transaction(ctx context.Context, signature string) (*Transaction, error) {
	opts := map[string]interface{}{
		"encoding":                       "json",
		"commitment":                     c.config.Commitment,
		"maxSupportedTransactionVersion": 0,
	}

	var tx *rpcTransaction
	err := c.call(ctx, &tx, methodGetTransaction, signature, opts)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, nil
	}

	result := &Transaction{
		Signature: signature,
		Slot:      tx.Slot,
		BlockTime: blockTime(tx.BlockTime),
	}
	if tx.Meta != nil {
		result.Failed = tx.Meta.Err != nil
		result.LogMessages = tx.Meta.LogMessages
	}
	return result, nil
}

// AccountInfo returns the account at address.
//
// Expected errors:
//   - ErrAccountNotFound if the account does not exist
//   - quest.TransientIOError if the node could not be reached
func (c *Client) AccountInfo(ctx context.Context, address quest.Identifier) (*Account, error) {
	opts := map[string]interface{}{
		"encoding":   "base64",
		"commitment": c.config.Commitment,
	}

	var info rpcAccountInfo
	err := c.call(ctx, &info, methodGetAccountInfo, address.String(), opts)
	if err != nil {
		return nil, err
	}
	if info.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return toAccount(address, info.Value)
}

// ProgramAccounts returns all accounts owned by program that match every
// filter.
func (c *Client) ProgramAccounts(ctx context.Context, program quest.Identifier, filters ...Filter) ([]*Account, error) {
	opts := map[string]interface{}{
		"encoding":   "base64",
		"commitment": c.config.Commitment,
	}
	if len(filters) > 0 {
		opts["filters"] = filters
	}

	var keyed []rpcKeyedAccount
	err := c.call(ctx, &keyed, methodGetProgramAccount, program.String(), opts)
	if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, len(keyed))
	for _, k := range keyed {
		address, err := quest.ParseIdentifier(k.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("node returned invalid account address %q: %w", k.Pubkey, err)
		}
		account, err := toAccount(address, &k.Account)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func toAccount(address quest.Identifier, a *rpcAccount) (*Account, error) {
	if len(a.Data) != 2 || a.Data[1] != "base64" {
		return nil, fmt.Errorf("unexpected data encoding for account %s", address)
	}
	data, err := base64.StdEncoding.DecodeString(a.Data[0])
	if err != nil {
		return nil, fmt.Errorf("could not decode data of account %s: %w", address, err)
	}
	owner, err := quest.ParseIdentifier(a.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner of account %s: %w", address, err)
	}
	return &Account{
		Address:  address,
		Owner:    owner,
		Lamports: a.Lamports,
		Data:     data,
	}, nil
}

// call performs a JSON-RPC call with retries. result must be a pointer.
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	backoff := retry.NewExponential(c.config.RetryDelay)
	backoff = retry.WithCappedDuration(c.config.MaxRetryDelay, backoff)
	backoff = retry.WithJitterPercent(15, backoff)
	backoff = retry.WithMaxRetries(c.config.MaxRetries, backoff)

	lg := c.log.With().Str("method", method).Logger()

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			c.metrics.RPCRetried(method)
			lg.Debug().Int("attempt", attempt).Msg("retrying rpc call")
		}
		attempt++

		err := c.limiter.Wait(ctx)
		if err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()

		start := time.Now()
		err = c.rpc.CallContext(callCtx, result, method, args...)
		c.metrics.RPCRequest(method, time.Since(start), err == nil)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if ctx.Err() == nil {
			lg.Warn().Err(err).Int("attempt", attempt).Msg("rpc call failed")
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if !retryable(err) {
			return fmt.Errorf("%s rejected: %w", method, err)
		}
		return quest.NewTransientIOErrorf("%s failed after %d attempts: %w", method, attempt, err)
	}
	return nil
}

func retryable(err error) bool {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeInvalidRequest, codeMethodNotFound, codeInvalidParams:
			return false
		}
		return true
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}
