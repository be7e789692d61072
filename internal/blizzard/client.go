// Package blizzard executes authenticated, rate-limited requests
// against the Blizzard game-data API and exposes the typed endpoints
// the market service consumes.
//
// Request protocol: every call first takes a limiter slot and a bearer
// token. A 404 fails immediately, a 429 sleeps out the advertised
// cooldown before surfacing, a 403 forces one token refresh and one
// retry, and transport failures are retried with exponential backoff.
// All failures surface as the typed errors in errors.go.
package blizzard

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	// maxAttempts bounds transport-failure retries: one initial try
	// plus two backed-off retries.
	maxAttempts = 3

	defaultBackoffBase = 4 * time.Second
	backoffCap         = 10 * time.Second

	// defaultRetryAfter applies when a 429 carries no Retry-After hint.
	defaultRetryAfter = 60 * time.Second
)

// TokenSource supplies bearer tokens and reacts to credential
// rejection. Satisfied by auth.Manager.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// SlotLimiter admits requests under the upstream quota. Satisfied by
// ratelimit.Limiter.
type SlotLimiter interface {
	Acquire(ctx context.Context) error
}

// Config holds client settings.
type Config struct {
	// Region is the default API region, "us" unless set.
	Region string

	// Locale for localized response fields, "en_US" unless set.
	Locale string

	// BaseURL overrides the regional API host. Mainly for tests; the
	// namespace parameter still carries the region.
	BaseURL string

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// RetryBackoffBase overrides the first retry delay. Tests shrink
	// this; production keeps the default.
	RetryBackoffBase time.Duration
}

// Client is the request executor.
type Client struct {
	region       string
	locale       string
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	limiter      SlotLimiter
	logger       *slog.Logger
	backoffBase  time.Duration
	interceptors []Interceptor
}

// NewClient creates a client around the given token source and limiter.
// Interceptors are invoked around every executed request in
// registration order.
func NewClient(tokens TokenSource, limiter SlotLimiter, cfg Config, interceptors ...Interceptor) *Client {
	c := &Client{
		region:       cfg.Region,
		locale:       cfg.Locale,
		baseURL:      cfg.BaseURL,
		httpClient:   cfg.HTTPClient,
		tokens:       tokens,
		limiter:      limiter,
		logger:       cfg.Logger,
		backoffBase:  cfg.RetryBackoffBase,
		interceptors: interceptors,
	}
	if c.region == "" {
		c.region = "us"
	}
	if c.locale == "" {
		c.locale = "en_US"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.backoffBase <= 0 {
		c.backoffBase = defaultBackoffBase
	}
	return c
}

// Region returns the client's default region.
func (c *Client) Region() string {
	return c.region
}

// Execute runs one API request and returns the decoded response body.
// An empty region uses the client default.
func (c *Client) Execute(ctx context.Context, region, endpoint string, params url.Values) ([]byte, error) {
	if region == "" {
		region = c.region
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquiring request slot: %w", err)
	}

	for _, ic := range c.interceptors {
		ic.Before(region, endpoint)
	}

	start := time.Now()
	body, status, err := c.attempt(ctx, region, endpoint, params)
	elapsed := time.Since(start)

	if err != nil {
		for _, ic := range c.interceptors {
			ic.Error(region, endpoint, err, elapsed)
		}
		return nil, err
	}
	for _, ic := range c.interceptors {
		ic.Success(region, endpoint, status, elapsed)
	}
	return body, nil
}

// attempt retries transport failures with exponential backoff. Protocol
// errors (404, 429, 403, 5xx) surface immediately; their handling lives
// in doRequest.
func (c *Client) attempt(ctx context.Context, region, endpoint string, params url.Values) ([]byte, int, error) {
	refreshed := false
	var lastErr error

	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			delay := c.backoffBase << (i - 1)
			if delay > backoffCap {
				delay = backoffCap
			}
			c.logger.Warn("transient failure, backing off",
				"endpoint", endpoint, "attempt", i+1, "delay", delay)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, 0, err
			}
		}

		body, status, err := c.doRequest(ctx, region, endpoint, params, &refreshed)
		if err == nil {
			return body, status, nil
		}

		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			return nil, 0, err
		}
		lastErr = err
	}
	return nil, 0, lastErr
}

// doRequest performs one request and applies the auth and quota
// protocol. The refreshed flag spans retries so at most one token
// refresh happens per executed operation.
func (c *Client) doRequest(ctx context.Context, region, endpoint string, params url.Values, refreshed *bool) ([]byte, int, error) {
	resp, err := c.send(ctx, region, endpoint, params)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode == http.StatusForbidden && !*refreshed {
		resp.Body.Close()
		*refreshed = true
		c.logger.Warn("got 403, refreshing token and retrying once", "endpoint", endpoint)
		c.tokens.Invalidate()
		resp, err = c.send(ctx, region, endpoint, params)
		if err != nil {
			return nil, 0, err
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, &NotFoundError{Endpoint: endpoint}

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn("rate limited upstream, cooling down",
			"endpoint", endpoint, "retry_after", retryAfter)
		if err := sleepContext(ctx, retryAfter); err != nil {
			return nil, 0, err
		}
		return nil, 0, &RateLimitedError{RetryAfter: retryAfter}

	case resp.StatusCode == http.StatusForbidden:
		return nil, 0, &ForbiddenError{Endpoint: endpoint}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	reader, err := getReader(resp)
	if err != nil {
		return nil, 0, fmt.Errorf("creating response reader: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, &NetworkError{Err: err}
	}
	return body, resp.StatusCode, nil
}

// send issues a single HTTP request with auth and default parameters
// attached. Transport failures come back as *NetworkError so the retry
// loop can recognize them; token failures pass through untouched.
func (c *Client) send(ctx context.Context, region, endpoint string, params url.Values) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}

	query := url.Values{}
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	if query.Get("locale") == "" {
		query.Set("locale", c.locale)
	}
	query.Set("namespace", namespaceFor(query.Get("namespace"), endpoint, region))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(region, endpoint)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

func (c *Client) endpointURL(region, endpoint string) string {
	if c.baseURL != "" {
		return c.baseURL + endpoint
	}
	return fmt.Sprintf("https://%s.api.blizzard.com%s", region, endpoint)
}

// namespaceFor fills in the namespace parameter. Missing values default
// by endpoint shape; a bare kind (dynamic, profile, static) gets the
// region suffix appended so region fallback rebuilds it correctly; full
// values pass through untouched.
func namespaceFor(override, endpoint, region string) string {
	switch {
	case override == "":
		if strings.HasPrefix(endpoint, "/profile/") {
			return "profile-" + region
		}
		return "dynamic-" + region
	case strings.Contains(override, "-"):
		return override
	default:
		return override + "-" + region
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// getReader decodes the response body by Content-Encoding.
func getReader(resp *http.Response) (io.Reader, error) {
	var reader io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		reader = gzipReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return reader, nil
}
