// Package store implements the client for the remote JSON loan store behind
// its thin HTTP proxy. It exposes exactly two operations to the engine's
// callers: FetchLoans and SaveLoans. The engine itself never performs network
// access; it is always invoked with an already-materialized loan array.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	loans "github.com/jeff-stratofied/loan-dashboard"
)

// DefaultRecordPath is the JSONPath locating the loan-record array inside the
// store's GET envelope. Document stores of the jsonbin family wrap the stored
// document under a "record" property.
const DefaultRecordPath = "$.record"

const cacheKey = "loandash:loans"

// Config holds the store client configuration.
type Config struct {
	BaseURL    string        // endpoint serving the loan document
	APIKey     string        // optional access key, sent as X-Access-Key
	RecordPath string        // JSONPath to the record array, DefaultRecordPath when empty
	MaxTries   uint          // retry budget for transient failures, default 4
	Timeout    time.Duration // per-request timeout, default 10s
}

// Client fetches and saves the loan-record array.
type Client struct {
	cfg   Config
	hc    *http.Client
	log   *zap.Logger
	cache Cache
}

// Option configures a Client.
type Option func(*Client)

// WithCache installs a read-through cache for FetchLoans.
func WithCache(c Cache) Option { return func(cl *Client) { cl.cache = c } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(cl *Client) { cl.hc = hc } }

// New creates a store client.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.RecordPath == "" {
		cfg.RecordPath = DefaultRecordPath
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 4
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		log: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchLoans retrieves the loan-record array from the store, retrying
// transient failures with exponential backoff. When a cache is installed the
// array is served from it when present and refreshed after a fetch.
func (c *Client) FetchLoans(ctx context.Context) ([]loans.LoanRecord, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, cacheKey); ok {
			var records []loans.LoanRecord
			if err := json.Unmarshal([]byte(cached), &records); err == nil {
				c.log.Debug("loans served from cache", zap.Int("count", len(records)))
				return records, nil
			}
			// a corrupted cache entry falls through to a real fetch
			c.cache.Del(ctx, cacheKey)
		}
	}

	operation := func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, nil)
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("retrying loan fetch", zap.Error(err), zap.Duration("backoff", wait))
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.cfg.MaxTries),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, fmt.Errorf("fetching loans from %s: %w", c.cfg.BaseURL, err)
	}

	records, err := c.extractRecords(body)
	if err != nil {
		return nil, err
	}
	c.log.Info("loans fetched", zap.Int("count", len(records)))

	if c.cache != nil {
		if raw, err := json.Marshal(records); err == nil {
			if err := c.cache.Set(ctx, cacheKey, string(raw)); err != nil {
				c.log.Warn("cache write failed (ignored)", zap.Error(err))
			}
		}
	}
	return records, nil
}

// SaveLoans writes the loan-record array back to the store and invalidates
// the cache. The store acknowledges the write; any non-2xx status is an
// error.
func (c *Client) SaveLoans(ctx context.Context, records []loans.LoanRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding loans: %w", err)
	}

	operation := func() ([]byte, error) {
		return c.do(ctx, http.MethodPut, payload)
	}

	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.cfg.MaxTries)); err != nil {
		return fmt.Errorf("saving loans to %s: %w", c.cfg.BaseURL, err)
	}

	if c.cache != nil {
		c.cache.Del(ctx, cacheKey)
	}
	c.log.Info("loans saved", zap.Int("count", len(records)))
	return nil
}

// do performs a single HTTP exchange. 5xx statuses are retryable; 4xx
// statuses are permanent failures.
func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL, body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Access-Key", c.cfg.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("store %s %s: %s", method, c.cfg.BaseURL, resp.Status)
	case resp.StatusCode >= 300:
		return nil, backoff.Permanent(fmt.Errorf("store %s %s: %s", method, c.cfg.BaseURL, resp.Status))
	}
	return data, nil
}

// extractRecords plucks the loan-record array out of the store's response.
// It first tries the configured JSONPath envelope; a response that is already
// a bare array is accepted as-is.
func (c *Client) extractRecords(body []byte) ([]loans.LoanRecord, error) {
	var records []loans.LoanRecord
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, fmt.Errorf("store response is not JSON: %w", err)
	}
	jval, err := jsonpath.Get(c.cfg.RecordPath, jobj)
	if err != nil {
		return nil, fmt.Errorf("no record array at %q in store response: %w", c.cfg.RecordPath, err)
	}
	// jsonpath is never clear about whether it returns a list of one answer
	// or a single answer; unwrap a single-element list holding the array.
	if jlist, ok := jval.([]any); ok && len(jlist) == 1 {
		if _, isObj := jlist[0].(map[string]any); !isObj {
			jval = jlist[0]
		}
	}

	raw, err := json.Marshal(jval)
	if err != nil {
		return nil, fmt.Errorf("re-encoding record array: %w", err)
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("record array at %q has unexpected shape: %w", c.cfg.RecordPath, err)
	}
	return records, nil
}
