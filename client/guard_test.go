package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachfit/coach-auth/client"
)

func guardOver(t *testing.T, login bool) (*client.RouteGuard, *client.AuthContext) {
	t.Helper()

	srv := fakeServer(t)

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	auth := client.NewAuthContext(c)
	if login {
		require.NoError(t, auth.Login(context.Background(), "alice@x.com", "secret1"))
	}

	return client.NewRouteGuard(auth), auth
}

func TestGuardPendingWhileLoading(t *testing.T) {
	guard, _ := guardOver(t, false)

	// nothing has been resolved yet, never redirect
	assert.Equal(t, client.Pending, guard.Check(client.Requirement{Session: true}))
	assert.Equal(t, client.Pending, guard.Check(client.Requirement{Admin: true}))
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	guard, auth := guardOver(t, false)
	auth.Refresh(context.Background())

	assert.Equal(t, client.Allow, guard.Check(client.Requirement{}))
	assert.Equal(t, client.RedirectLogin, guard.Check(client.Requirement{Session: true}))
	assert.Equal(t, client.RedirectLogin, guard.Check(client.Requirement{Admin: true}))
}

func TestGuardAllowsMember(t *testing.T) {
	guard, _ := guardOver(t, true)

	assert.Equal(t, client.Allow, guard.Check(client.Requirement{}))
	assert.Equal(t, client.Allow, guard.Check(client.Requirement{Session: true}))

	// not an admin: redirected by default, forbidden when distinguished
	assert.Equal(t, client.RedirectLogin, guard.Check(client.Requirement{Admin: true}))

	guard.DistinguishForbidden = true
	assert.Equal(t, client.Forbidden, guard.Check(client.Requirement{Admin: true}))
}
