// Package api implements the HTTP client for the Slash Messenger
// backend: bearer-authenticated JSON requests, a bounded connectivity
// probe, and retry with linear backoff for transient network failures.
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

	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/models"
)

// TokenSource supplies the bearer token attached to authenticated
// requests. An empty token means no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// APIError is a non-2xx response from the backend. It is terminal:
// application-level rejections are never retried.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int
	// Detail is the server-provided reason, when the body carried one.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Client issues requests against the messenger backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// New constructs a Client for the given base URL. tokens may be nil for
// a client that only calls unauthenticated endpoints.
func New(baseURL string, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		log:     log,
	}
}

// BaseURL returns the backend base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveURL turns a server-relative path (such as an upload URL) into
// an absolute URL against the backend.
func (c *Client) ResolveURL(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return c.baseURL + p
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON performs one request with an optional JSON body, decoding a
// 2xx response into out (when non-nil) and any other response into an
// *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.log.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status))
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError extracts the backend's "detail" field when present.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Detail = body.Detail
	}
	return apiErr
}

// AuthResponse is the payload returned by the signup and login endpoints.
type AuthResponse struct {
	Token string      `json:"token"`
	Role  string      `json:"role"`
	User  models.User `json:"user"`
}

// Signup creates a new account.
func (c *Client) Signup(ctx context.Context, name, username, number, password string) (*AuthResponse, error) {
	req := map[string]string{
		"name":     name,
		"username": username,
		"number":   number,
		"password": password,
	}
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates by username or phone number.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	req := map[string]string{
		"identifier": identifier,
		"password":   password,
	}
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the authenticated user's identity. A 401 here means the
// stored credential is no longer valid.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe applies a partial profile update and returns the updated
// identity. Only the fields present in patch are changed.
func (c *Client) UpdateMe(ctx context.Context, patch map[string]string) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodPatch, "/me", patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
