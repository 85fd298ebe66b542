// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEndpoint  = "https://api.pwnedpasswords.com/range"
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "breachguard/1.0"

	// A range response is a few hundred lines (around 35KB, more with padding). Anything near this
	// limit is not a range response.
	maxRangeBodySize = 4 << 20
)

// CandidateSet maps the upper-case hash suffixes returned for one prefix to their breach counts.
type CandidateSet map[string]uint64

// ClientConfig holds the settings of the range endpoint. The zero value of every field falls back to a
// default.
type ClientConfig struct {
	// Endpoint is the base range URL, the prefix is appended as the last path segment.
	Endpoint string
	// Timeout bounds a single range request, including reading the body.
	Timeout time.Duration
	// Padding asks the endpoint to pad responses with zero count entries so response sizes do not leak
	// the prefix. Padded entries are dropped while parsing.
	Padding bool
	// Retries is the number of extra attempts on retryable failures. Zero means the caller owns retries.
	Retries   int
	UserAgent string
	// HTTPClient replaces the default transport. Mostly useful for tests.
	HTTPClient *http.Client
}

// Client issues k-anonymity range queries. It holds no per-query state and is safe for concurrent use.
type Client struct {
	endpoint  string
	padding   bool
	userAgent string
	http      *retryablehttp.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid range endpoint: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInsecureEndpoint, cfg.Endpoint)
	}

	return &Client{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		padding:   cfg.Padding,
		userAgent: cfg.UserAgent,
		http:      initHttpClient(cfg),
	}, nil
}

func initHttpClient(cfg ClientConfig) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	// The default logger prints request URLs, keep it quiet.
	client.Logger = nil
	client.RetryMax = cfg.Retries
	// Hand back the last response or error untouched so failures can be classified.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if cfg.HTTPClient != nil {
		// Shallow copy, the caller's client keeps its own timeout.
		hc := *cfg.HTTPClient
		if hc.Timeout == 0 {
			hc.Timeout = cfg.Timeout
		}
		client.HTTPClient = &hc
		return client
	}

	client.HTTPClient = &http.Client{
		Timeout:       cfg.Timeout,
		CheckRedirect: httpsOnly,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   cfg.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}

	return client
}

// httpsOnly refuses redirects that would downgrade the transport.
func httpsOnly(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != "https" {
		return fmt.Errorf("%w: redirected to %s", ErrInsecureEndpoint, req.URL.Redacted())
	}
	if len(via) >= 5 {
		return errors.New("stopped after 5 redirects")
	}
	return nil
}

func (c *Client) rangeHttpRequest(ctx context.Context, prefix string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+prefix, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.padding {
		req.Header.Set("Add-Padding", "true")
	}
	return req, nil
}

// Range fetches every suffix sharing prefix. Exactly one request carrying only the prefix is made
// (plus configured retries). Transport failures return a *NetworkError, bad statuses and unparsable
// bodies an *UpstreamError.
func (c *Client) Range(ctx context.Context, prefix string) (CandidateSet, error) {
	if len(prefix) != PrefixLen || !isHex(prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	prefix = strings.ToUpper(prefix)

	req, err := c.rangeHttpRequest(ctx, prefix)
	if err != nil {
		return nil, &NetworkError{Prefix: prefix, Err: err}
	}

	timer := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		if res != nil {
			_ = res.Body.Close()
		}
		return nil, &NetworkError{Prefix: prefix, Err: err}
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn().Err(err).Msgf("error closing body for range %s", prefix)
		}
	}(res.Body)

	log.Debug().
		Str("range", prefix).
		Int("status", res.StatusCode).
		Str("cache", res.Header.Get("CF-Cache-Status")).
		Dur("elapsed", time.Since(timer)).
		Msg("range request complete")

	if res.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Prefix: prefix, StatusCode: res.StatusCode}
	}

	set, err := parseRange(io.LimitReader(res.Body, maxRangeBodySize))
	if err != nil {
		var re *readError
		if errors.As(err, &re) {
			return nil, &NetworkError{Prefix: prefix, Err: err}
		}
		return nil, &UpstreamError{Prefix: prefix, StatusCode: res.StatusCode, Err: err}
	}

	return set, nil
}

// parseRange reads SUFFIX:COUNT lines. Zero count lines are padding and skipped.
func parseRange(r io.Reader) (CandidateSet, error) {
	set := make(CandidateSet)
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		suffix, count, ok := strings.Cut(text, ":")
		if !ok || len(suffix) != DigestLen-PrefixLen || !isHex(suffix) {
			return nil, fmt.Errorf("%w: bad suffix on line %d", ErrMalformedRange, line)
		}

		n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad count on line %d", ErrMalformedRange, line)
		}

		if n == 0 {
			continue
		}
		set[strings.ToUpper(suffix)] = n
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: line %d too long", ErrMalformedRange, line+1)
		}
		return nil, &readError{err: err}
	}

	return set, nil
}

type readError struct {
	err error
}

func (e *readError) Error() string { return "error reading range body: " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }
