package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachfit/coach-auth/client"
)

func TestAuthContextStartsLoading(t *testing.T) {
	srv := fakeServer(t)

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	auth := client.NewAuthContext(c)

	snap := auth.Current()
	assert.True(t, snap.Loading)
	assert.False(t, snap.Authenticated())
}

func TestAuthContextRefresh(t *testing.T) {
	srv := fakeServer(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	auth := client.NewAuthContext(c)

	// no session: the first refresh resolves to logged out, not loading
	snap := auth.Refresh(ctx)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated())

	require.NoError(t, auth.Login(ctx, "alice@x.com", "secret1"))

	snap = auth.Current()
	assert.True(t, snap.Authenticated())
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
}

func TestAuthContextLoginFailureLeavesState(t *testing.T) {
	srv := fakeServer(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	auth := client.NewAuthContext(c)
	auth.Refresh(ctx)

	err = auth.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.False(t, auth.Current().Authenticated())
}

func TestAuthContextLogoutResetsSnapshot(t *testing.T) {
	srv := fakeServer(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	auth := client.NewAuthContext(c)
	require.NoError(t, auth.Login(ctx, "alice@x.com", "secret1"))
	require.True(t, auth.Current().Authenticated())

	require.NoError(t, auth.Logout(ctx))

	snap := auth.Current()
	assert.False(t, snap.Authenticated())
	assert.False(t, snap.IsAdmin)
	assert.False(t, snap.Loading)
}
