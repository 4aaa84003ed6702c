package client

import (
	"context"
	"sync"
)

// Snapshot is the immutable view of the auth state at a point in time.
// Loading is true until the first Refresh completes, so consumers can
// render a neutral state instead of redirecting prematurely.
type Snapshot struct {
	User    *User
	IsAdmin bool
	Loading bool
}

// Authenticated reports whether the snapshot holds a logged-in user
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// AuthContext mirrors the server's view of the current user for the
// lifetime of the app session. It is an explicit dependency, not a
// package-level singleton; state changes only through the methods below.
type AuthContext struct {
	mu     sync.RWMutex
	client *Client
	snap   Snapshot
}

// NewAuthContext creates an auth context in the loading state. Call
// Refresh once on startup to hydrate it.
func NewAuthContext(c *Client) *AuthContext {
	return &AuthContext{
		client: c,
		snap:   Snapshot{Loading: true},
	}
}

// Current returns the latest snapshot
func (a *AuthContext) Current() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Refresh asks the server who we are and replaces the snapshot. Any
// failure, including 401, resolves to a logged-out snapshot; the 401
// redirect hook on the client has already fired when that applies.
func (a *AuthContext) Refresh(ctx context.Context) Snapshot {
	user, err := a.client.Me(ctx)

	next := Snapshot{}
	if err == nil && user != nil {
		next.User = user
		next.IsAdmin = user.IsAdmin
	}

	a.mu.Lock()
	a.snap = next
	a.mu.Unlock()

	return next
}

// Login authenticates and refreshes the snapshot. The follow-up Refresh
// matches the server contract: the admin flag is always re-derived by a
// who-am-I call rather than trusted from the login response.
func (a *AuthContext) Login(ctx context.Context, email, password string) error {
	if _, err := a.client.Login(ctx, email, password); err != nil {
		return err
	}
	a.Refresh(ctx)
	return nil
}

// Register creates the account and refreshes the snapshot
func (a *AuthContext) Register(ctx context.Context, req RegisterRequest) error {
	if _, err := a.client.Register(ctx, req); err != nil {
		return err
	}
	a.Refresh(ctx)
	return nil
}

// Logout invalidates the session and resets the snapshot even when the
// server call fails; the local state must never outlive the credential.
func (a *AuthContext) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)

	a.mu.Lock()
	a.snap = Snapshot{}
	a.mu.Unlock()

	return err
}
