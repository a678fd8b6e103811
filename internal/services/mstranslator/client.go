package mstranslator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"bilingualtube/internal/config"
	"bilingualtube/internal/services"
)

// EngineName identifies this backend in cache keys.
const EngineName = "microsoft"

const (
	apiVersion         = "3.0"
	tokenRefreshLeeway = 60 * time.Second
	defaultTimeout     = 15 * time.Second
)

// HTTPDoer issues HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for auth and translate calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client calls the Microsoft translator with an anonymous Edge token.
type Client struct {
	authURL   string
	endpoint  string
	userAgent string

	httpClient HTTPDoer
	now        func() time.Time

	tokenMu   sync.RWMutex
	token     string
	expiresAt time.Time
}

// New builds a Client from the microsoft translation settings.
func New(cfg config.Microsoft, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		authURL:    strings.TrimSpace(cfg.AuthURL),
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Engine reports the backend name used in cache keys.
func (c *Client) Engine() string {
	return EngineName
}

type translateItem struct {
	Text string `json:"Text"`
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate translates texts into lang, preserving order and count.
func (c *Client) Translate(ctx context.Context, texts []string, lang string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	if c.endpoint == "" || c.authURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "microsoft", "translate", "auth_url and endpoint are required", nil)
	}
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]translateItem, len(texts))
	for i, text := range texts {
		items[i] = translateItem{Text: text}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode translate request: %w", err)
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "microsoft", "translate", "invalid endpoint", err)
	}
	query := endpoint.Query()
	query.Set("to", lang)
	query.Set("api-version", apiVersion)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build translate request: %w", err)
	}
	c.setUserAgent(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	payload, err := c.do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrTransient, "microsoft", "translate", "", err)
	}

	var results []translateResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "microsoft", "translate", "decode response", err)
	}
	if len(results) != len(texts) {
		return nil, services.Wrap(services.ErrCardinality, "microsoft", "translate",
			fmt.Sprintf("got %d results for %d texts", len(results), len(texts)), nil)
	}
	out := make([]string, len(results))
	for i, result := range results {
		if len(result.Translations) == 0 {
			return nil, services.Wrap(services.ErrMalformedResponse, "microsoft", "translate",
				fmt.Sprintf("result %d has no translations", i), nil)
		}
		out[i] = result.Translations[0].Text
	}
	return out, nil
}

// Token returns a cached anonymous token, refreshing it when it expires within a minute.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token, ok := c.cachedToken(); ok {
		return token, nil
	}
	return c.refreshToken(ctx)
}

func (c *Client) cachedToken() (string, bool) {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	if c.token != "" && c.expiresAt.Sub(c.now()) > tokenRefreshLeeway {
		return c.token, true
	}
	return "", false
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.expiresAt.Sub(c.now()) > tokenRefreshLeeway {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL, nil)
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	c.setUserAgent(req)
	payload, err := c.do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrTransient, "microsoft", "auth", "", err)
	}
	token := strings.TrimSpace(string(payload))
	expiresAt, err := tokenExpiry(token)
	if err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, "microsoft", "auth", "", err)
	}
	c.token = token
	c.expiresAt = expiresAt
	return token, nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// tokenExpiry reads the exp claim from a JWT without verifying its signature.
func tokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, errors.New("token is not a jwt")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return time.Time{}, fmt.Errorf("decode jwt payload: %w", err)
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse jwt payload: %w", err)
	}
	if claims.Exp <= 0 {
		return time.Time{}, errors.New("jwt payload has no exp")
	}
	return time.Unix(claims.Exp, 0), nil
}
