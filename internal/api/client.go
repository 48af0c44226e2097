// Package api is the client for the remote AuraBank ledger/auth service.
// Responses are decoded once at this boundary: a "success" status yields the
// typed payload, any other declared status becomes a *BusinessError, and
// everything else (unreachable host, malformed body) surfaces as a transport
// error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Client talks to the ledger service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Tests use this to
// route requests into an in-process fake.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a ledger client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and returns the new session identifier.
func (c *Client) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	var resp struct {
		envelope
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/register", nil, in, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{UserID: resp.UserID, Message: resp.Message}, nil
}

// Login exchanges credentials for a session identifier.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		envelope
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, body, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{UserID: resp.UserID, Message: resp.Message}, nil
}

// LoginFace submits a username and a face descriptor for verification. The
// verifier owns all match-threshold policy; the descriptor is forwarded raw.
func (c *Client) LoginFace(ctx context.Context, username string, descriptor []float64) (AuthResult, error) {
	body := map[string]any{"username": username, "face_descriptor": descriptor}
	var resp struct {
		envelope
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login_face", nil, body, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{UserID: resp.UserID, Message: resp.Message}, nil
}

// EnrollFace stores a face descriptor for the authenticated user.
func (c *Client) EnrollFace(ctx context.Context, sessionID string, descriptor []float64) (string, error) {
	body := map[string]any{"face_descriptor": descriptor}
	var resp envelope
	headers := map[string]string{"Authorization": "Bearer " + sessionID}
	if err := c.do(ctx, http.MethodPost, "/api/user/enroll_face", headers, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GetUser fetches the profile and balance for a user.
func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	var resp struct {
		envelope
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/"+userID, nil, nil, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

// GetTransactions fetches the transaction history for a user.
func (c *Client) GetTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	var resp struct {
		envelope
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/"+userID+"/transactions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// Transfer submits one transfer authorization request. The idempotency key
// identifies the attempt so the ledger can collapse accidental duplicates.
func (c *Client) Transfer(ctx context.Context, sessionID, idempotencyKey string, in TransferInput) (TransferResult, error) {
	var resp struct {
		envelope
		NewBalance float64 `json:"new_balance"`
	}
	headers := map[string]string{
		"Authorization":      "Bearer " + sessionID,
		idempotencyKeyHeader: idempotencyKey,
	}
	if err := c.do(ctx, http.MethodPost, "/api/transfer", headers, in, &resp); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{Message: resp.Message, NewBalance: resp.NewBalance}, nil
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call ledger: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Declared failures ride on non-2xx codes too, so decode the envelope
	// before judging the HTTP status.
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		return fmt.Errorf("ledger returned %s: unexpected response body", resp.Status)
	}
	if env.Status != statusSuccess {
		return &BusinessError{Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
