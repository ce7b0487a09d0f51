// Package upstream mirrors a remote Atom or RSS feed into the local event
// store.
//
// Client fetches the remote document with conditional requests and retries;
// Mirror turns new items into events and appends them oldest first.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const acceptHeader = "application/atom+xml, application/rss+xml;q=0.9, application/xml;q=0.8, */*;q=0.5"

// Config holds the client configuration.
type Config struct {
	// UserAgent is sent with every request (required).
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// Retry overrides the per error class schedule when set.
	Retry *RetryConfig
}

// DefaultConfig returns a default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// Client fetches upstream feeds. It remembers validators per URL so that
// repeated fetches of an unchanged feed cost a 304.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger

	mu         sync.Mutex
	validators map[string]Validators
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry != nil && cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log.With().Str("component", "upstream-client").Logger(),
		validators: make(map[string]Validators),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Validators returns the validators remembered for url.
func (c *Client) Validators(url string) Validators {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validators[url]
}

// Forget drops the validators for url so the next fetch is unconditional.
func (c *Client) Forget(url string) {
	c.mu.Lock()
	delete(c.validators, url)
	c.mu.Unlock()
}

// Fetch retrieves and parses the feed at url. It returns ErrNotModified
// when the upstream confirms the previously fetched version is current.
func (c *Client) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	validators := c.Validators(url)

	var (
		body       []byte
		notChanged bool
		fresh      Validators
	)

	err := retryWithBackoff(ctx, c.config.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", acceptHeader)
		validators.Apply(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			requestsTotal.WithLabelValues("network_error").Inc()
			c.logger.Warn().Err(err).Str("url", url).Msg("Upstream request failed")
			return &Error{URL: url, Class: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		switch {
		case resp.StatusCode == http.StatusNotModified:
			notChanged = true
			return nil
		case resp.StatusCode >= 400:
			class := classifyStatus(resp.StatusCode)
			c.logger.Warn().
				Str("url", url).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Upstream request error")
			io.Copy(io.Discard, resp.Body)
			return &Error{
				URL:        url,
				StatusCode: resp.StatusCode,
				Class:      class,
				Message:    resp.Status,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &Error{URL: url, StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Message: "read body", Err: err}
		}
		fresh = validatorsFromResponse(resp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notChanged {
		c.logger.Debug().Str("url", url).Msg("304 Not Modified - upstream unchanged")
		return nil, ErrNotModified
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &Error{URL: url, StatusCode: http.StatusOK, Class: ErrorClassParse, Message: "parse feed", Err: err}
	}

	c.mu.Lock()
	if fresh.Empty() {
		delete(c.validators, url)
	} else {
		c.validators[url] = fresh
	}
	c.mu.Unlock()

	c.logger.Debug().
		Str("url", url).
		Int("items", len(parsed.Items)).
		Str("etag", fresh.ETag).
		Msg("Fetched upstream feed")

	return parsed, nil
}
