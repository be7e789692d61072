// Package auth manages the OAuth client-credentials token used for all
// upstream API calls. A single access token is cached until shortly
// before expiry; concurrent refreshes are coalesced so a burst of
// callers produces one exchange.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTokenURL is the Battle.net client-credentials endpoint.
const DefaultTokenURL = "https://oauth.battle.net/token"

// expiryBuffer is subtracted from the reported token lifetime so the
// token is replaced before the upstream starts rejecting it.
const expiryBuffer = 60 * time.Second

// AuthError reports a failed credential exchange.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}

// Config holds client-credentials settings.
type Config struct {
	ClientID     string
	ClientSecret string

	// TokenURL defaults to DefaultTokenURL.
	TokenURL string

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Manager caches an access token and refreshes it on demand.
type Manager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	logger       *slog.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewManager creates a token manager for the given credentials.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger,
	}
	if m.tokenURL == "" {
		m.tokenURL = DefaultTokenURL
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Token returns a valid access token, performing a client-credentials
// exchange when the cached one is missing or expired. Concurrent callers
// during a refresh share the in-flight exchange.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if token, ok := m.cached(); ok {
		return token, nil
	}

	v, err, _ := m.group.Do("token", func() (interface{}, error) {
		// A waiter queued behind the refresh sees the fresh token here
		// instead of issuing another exchange.
		if token, ok := m.cached(); ok {
			return token, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next Token call performs a
// fresh exchange. Used when the upstream rejects the credential.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

func (m *Manager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || !time.Now().Before(m.expiresAt) {
		return "", false
	}
	return m.token, true
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(m.clientID + ":" + m.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: "response contained no access token"}
	}

	expiresAt := time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - expiryBuffer)

	m.mu.Lock()
	m.token = payload.AccessToken
	m.expiresAt = expiresAt
	m.mu.Unlock()

	m.logger.Debug("access token refreshed", "expires_in_seconds", payload.ExpiresIn)

	return payload.AccessToken, nil
}
