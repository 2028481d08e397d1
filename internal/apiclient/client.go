package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studyhub/internal/domain"
	"studyhub/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath   = "/token/"
	refreshPath = "/token/refresh/"
)

// Client calls the learning-platform REST API. A Client without a TokenStore can
// only log in; use WithTokens to bind it to a session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	now        func() time.Time
	// refreshes collapses concurrent refreshes of the same refresh token.
	refreshes *singleflight.Group
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		now:        time.Now,
		refreshes:  &singleflight.Group{},
	}
}

// WithTokens returns a copy of the client that authenticates with the given store.
func (c *Client) WithTokens(tokens TokenStore) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        bool
}

func jsonRequest(method, path string, payload interface{}) (request, error) {
	req := request{method: method, path: path, auth: true}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return req, domain.NewInternalError("failed to encode request", err)
		}
		req.body = data
		req.contentType = "application/json"
	}
	return req, nil
}

// send performs an authenticated request. On a 401, or when the access token is
// already expired, it refreshes the token pair once and retries the request once.
// If that does not recover the session the tokens are cleared and
// domain.ErrSessionExpired is returned.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	if !req.auth {
		status, body, err := c.roundTrip(ctx, req, "")
		if err != nil {
			return nil, err
		}
		return c.checkStatus(req, status, body)
	}

	if c.tokens == nil {
		return nil, domain.ErrSessionExpired
	}
	tok, err := c.tokens.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, c.expire(ctx, "no access token")
	}

	refreshed := false
	if needsRefresh(tok, c.now()) {
		if tok, err = c.refresh(ctx, tok); err != nil {
			return nil, err
		}
		refreshed = true
	}

	status, body, err := c.roundTrip(ctx, req, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && !refreshed {
		if tok, err = c.refresh(ctx, tok); err != nil {
			return nil, err
		}
		status, body, err = c.roundTrip(ctx, req, tok.AccessToken)
		if err != nil {
			return nil, err
		}
	}
	if status == http.StatusUnauthorized {
		return nil, c.expire(ctx, "request rejected after token refresh")
	}
	return c.checkStatus(req, status, body)
}

func (c *Client) checkStatus(req request, status int, body []byte) ([]byte, error) {
	if status >= 200 && status < 300 {
		return body, nil
	}
	return nil, toDomainError(&APIError{StatusCode: status, Method: req.method, Path: req.path, Body: body})
}

func (c *Client) roundTrip(ctx context.Context, req request, accessToken string) (int, []byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return 0, nil, domain.NewInternalError("failed to build backend request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Get().Warn("Backend request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err))
		return 0, nil, networkError(req.method, req.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, networkError(req.method, req.path, err)
	}

	logger.Get().Debug("Backend request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", c.now().Sub(start)))
	return resp.StatusCode, data, nil
}

func (c *Client) refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.RefreshToken == "" {
		return nil, c.expire(ctx, "no refresh token")
	}
	v, err, shared := c.refreshes.Do(tok.RefreshToken, func() (interface{}, error) {
		return c.doRefresh(ctx, tok)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Get().Debug("Joined in-flight token refresh")
	}
	return v.(*oauth2.Token), nil
}

func (c *Client) doRefresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	req, err := jsonRequest(http.MethodPost, refreshPath, map[string]string{"refresh": tok.RefreshToken})
	if err != nil {
		return nil, err
	}
	req.auth = false

	status, body, err := c.roundTrip(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, c.expire(ctx, fmt.Sprintf("token refresh responded %d", status))
	}

	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil || pair.Access == "" {
		return nil, c.expire(ctx, "token refresh returned no access token")
	}
	if pair.Refresh == "" {
		pair.Refresh = tok.RefreshToken
	}

	next := NewToken(pair.Access, pair.Refresh)
	if err := c.tokens.SaveTokens(ctx, next); err != nil {
		return nil, domain.NewInternalError("failed to store refreshed tokens", err)
	}
	logger.Get().Debug("Access token refreshed", zap.Time("expiry", next.Expiry))
	return next, nil
}

// expire clears the session tokens and returns domain.ErrSessionExpired.
func (c *Client) expire(ctx context.Context, reason string) error {
	logger.Get().Info("Session expired", zap.String("reason", reason))
	if err := c.tokens.ClearTokens(ctx); err != nil {
		logger.Get().Error("Failed to clear session tokens", zap.Error(err))
	}
	return domain.ErrSessionExpired
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	req, err := jsonRequest(http.MethodPost, loginPath, map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req.auth = false

	body, err := c.send(ctx, req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			return nil, domain.NewUnauthorizedError("Invalid email or password.", err)
		}
		return nil, err
	}

	var pair tokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, domain.NewError(domain.CodeUpstream, "The learning platform returned an invalid login response.", err)
	}
	if pair.Access == "" {
		return nil, domain.NewError(domain.CodeUpstream, "The learning platform returned no access token.", nil)
	}
	return NewToken(pair.Access, pair.Refresh), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.send(ctx, request{method: http.MethodGet, path: path, query: query, auth: true})
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func (c *Client) writeJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	req, err := jsonRequest(method, path, payload)
	if err != nil {
		return err
	}
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(path, body, out)
}

func decode(path string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewError(domain.CodeUpstream, "The learning platform returned an unexpected response.",
			fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// page is a DRF paginated list envelope.
type page[T any] struct {
	Results []T `json:"results"`
}

// getList reads a list endpoint that may answer with a bare array or a paginated envelope.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: path, query: query, auth: true})
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var p page[T]
		if err := decode(path, trimmed, &p); err != nil {
			return nil, err
		}
		if p.Results == nil {
			p.Results = []T{}
		}
		return p.Results, nil
	}
	items := []T{}
	if err := decode(path, trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
