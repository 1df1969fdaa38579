// Package api provides the HTTP client for the Degree Dialog service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/degreedialog/dialog-go/internal/credentials"
)

// Client issues authenticated requests against the Degree Dialog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      *credentials.Store
	logger     *slog.Logger
}

// New creates a client for the given base URL. The credential store is
// consulted on every request rather than once, so a de-authentication
// between calls is observed immediately.
func New(baseURL string, creds *credentials.Store, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		logger:     logger,
	}
}

// do executes one request. A bearer token is attached when the store holds
// one and omitted otherwise; the auth endpoints tolerate its absence. On
// 2xx the body is decoded into out (which may be nil for empty responses).
// 401 maps to ErrUnauthorized, everything else non-2xx to *RequestError.
// Nothing is retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if cred := c.creds.Load(); cred.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request transport failure", "method", method, "path", path, "error", err)
		return &RequestError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &RequestError{Status: resp.StatusCode}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &RequestError{Status: resp.StatusCode, Err: err}
		}
	}

	return nil
}

// Tokens is the JWT pair issued at login and registration.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse is the body of successful register and login calls.
type AuthResponse struct {
	Tokens Tokens           `json:"tokens"`
	User   credentials.User `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and returns its tokens and identity.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register/", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Tokens.Access == "" {
		return nil, ErrEmptyResponse
	}
	return &resp, nil
}

// Login authenticates an existing account. The service accepts a username
// or an email in the username field.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login/", loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Tokens.Access == "" {
		return nil, ErrEmptyResponse
	}
	return &resp, nil
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the advisor's reply. SessionID is populated when the
// server minted a new session for this exchange.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

// SendMessage sends one user message. An empty sessionID asks the server to
// create a new session; its id comes back in the response.
func (c *Client) SendMessage(ctx context.Context, text, sessionID string) (*ChatResponse, error) {
	var resp ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/chat/", chatRequest{
		Message:   text,
		SessionID: sessionID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Response == "" {
		return nil, ErrEmptyResponse
	}
	return &resp, nil
}

// HistoryMessage is one message of a session as reported by the server.
type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistorySession is one session with its full message list.
type HistorySession struct {
	ID        string           `json:"_id"`
	CreatedAt time.Time        `json:"created_at"`
	Messages  []HistoryMessage `json:"messages"`
}

type historyResponse struct {
	Chats []HistorySession `json:"chats"`
}

// FetchHistory returns every session of the authenticated identity with its
// complete message list. The endpoint is unpaginated.
func (c *Client) FetchHistory(ctx context.Context) ([]HistorySession, error) {
	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/history/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// ClearHistory deletes every session of the authenticated identity.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/clear/", nil, nil)
}
