// Package client is the Go mirror of the web client's auth layer: a
// cookie-carrying API client, an auth context snapshot, and a route
// guard. The server stays the authority; everything here is advisory.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// ErrUnauthenticated is returned for any 401 response. The configured
// unauthorized handler has already fired by the time callers see it.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrForbidden is returned for 403 responses. Unlike 401 it does not
// trigger the login redirect hook; route guards decide what to do.
var ErrForbidden = errors.New("forbidden")

// APIError carries a non-2xx response the server classified for us
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// User is the wire representation of the authenticated user
type User struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Phone       string `json:"phoneNumber,omitempty"`
	Sex         bool   `json:"sex"`
	IsAdmin     bool   `json:"isAdmin"`
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	DisplayName     string `json:"displayName,omitempty"`
	Phone           string `json:"phoneNumber,omitempty"`
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. The cookie jar is
// installed on it if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUnauthorizedHandler installs the hook invoked on any 401, from any
// call site. The web client uses this to hard-redirect to /login.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// Client is the cookie-carrying API client. The session credential lives
// in the jar, never in client code.
type Client struct {
	baseURL        string
	http           *http.Client
	onUnauthorized func()
}

// New creates a client for the given API base URL
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{baseURL: baseURL}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}

	return c, nil
}

type userEnvelope struct {
	User *User `json:"user"`
}

// Login authenticates and stores the session cookie in the jar
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	out := userEnvelope{}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Register creates an account; the server auto-logs it in
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	out := userEnvelope{}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout invalidates the session. Safe to call repeatedly.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me rehydrates the current identity and admin flag
func (c *Client) Me(ctx context.Context) (*User, error) {
	out := userEnvelope{}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthenticated
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode >= 400:
		msg := struct {
			Error string `json:"error"`
		}{}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Error == "" {
			msg.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Error}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
