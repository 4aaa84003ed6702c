package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/coachfit/coach-auth"
)

func TestUsersRegister(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user := createUser(t, repo, "alice", "alice@x.com", "secret1")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice", user.DisplayName, "display name defaults to username")
	assert.True(t, user.IsActive)
	assert.Nil(t, user.DeletedAt)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	_, err = repo.Users().Register(ctx, &auth.User{
		Username:     "alice2",
		Email:        "alice@x.com",
		PasswordHash: hash,
		IsActive:     true,
	})
	require.Error(t, err)

	var rich *errors.Error
	require.True(t, errors.As(err, &rich))
	assert.Equal(t, "DUPLICATE_USER", rich.TextCode)
	assert.Equal(t, errors.CategoryConflict, rich.Category)
}

func TestUsersGetByIdentifier(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created := createUser(t, repo, "alice", "alice@x.com", "secret1")

	byEmail, err := repo.Users().GetByIdentifier(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byUsername, err := repo.Users().GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	_, err = repo.Users().GetByIdentifier(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = repo.Users().GetByIdentifier(ctx, "  ")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersSearch(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	createUser(t, repo, "alice", "alice@x.com", "secret1")
	createUser(t, repo, "bob", "bob@x.com", "secret1")
	createUser(t, repo, "carol", "carol@x.com", "secret1")

	all, total, err := repo.Users().Search(ctx, auth.SearchParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 2)

	rest, total, err := repo.Users().Search(ctx, auth.SearchParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rest, 1)

	matched, total, err := repo.Users().Search(ctx, auth.SearchParams{Page: 1, Limit: 20, Search: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, matched, 1)
	assert.Equal(t, "bob", matched[0].Username)
}

func TestUsersUpdatePartial(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user := createUser(t, repo, "alice", "alice@x.com", "secret1")

	yes := true
	updated, err := repo.Users().Update(ctx, user.ID, auth.UserPatch{Sex: &yes})
	require.NoError(t, err)
	assert.True(t, updated.Sex)
	assert.True(t, updated.IsActive, "absent fields stay untouched")

	no := false
	updated, err = repo.Users().Update(ctx, user.ID, auth.UserPatch{IsActive: &no})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.Sex, "absent fields stay untouched")

	// empty patch is a no-op read
	updated, err = repo.Users().Update(ctx, user.ID, auth.UserPatch{})
	require.NoError(t, err)
	assert.True(t, updated.Sex)
	assert.False(t, updated.IsActive)

	_, err = repo.Users().Update(ctx, 9999, auth.UserPatch{Sex: &yes})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersUpdateProfile(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user := createUser(t, repo, "alice", "alice@x.com", "secret1")

	name := "Coach Alice"
	avatar := "https://cdn.x.com/alice.png"
	updated, err := repo.Users().UpdateProfile(ctx, user.ID, auth.ProfilePatch{
		DisplayName: &name,
		AvatarURL:   &avatar,
	})
	require.NoError(t, err)
	assert.Equal(t, "Coach Alice", updated.DisplayName)
	assert.Equal(t, avatar, updated.AvatarURL)
}

func TestUsersSoftDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user := createUser(t, repo, "alice", "alice@x.com", "secret1")

	require.NoError(t, repo.Users().SoftDelete(ctx, user.ID))

	// every read path hides the record
	_, err := repo.Users().GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = repo.Users().GetByIdentifier(ctx, "alice@x.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, total, err := repo.Users().Search(ctx, auth.SearchParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)

	// a second delete finds nothing to mark
	assert.ErrorIs(t, repo.Users().SoftDelete(ctx, user.ID), auth.ErrUserNotFound)

	// the slot stays reserved, re-registering the same email conflicts
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	_, err = repo.Users().Register(ctx, &auth.User{
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: hash,
		IsActive:     true,
	})
	assert.Error(t, err)
}

func TestUsersTrackSuccessfulLogin(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	user := createUser(t, repo, "alice", "alice@x.com", "secret1")
	require.Nil(t, user.LastLoginAt)

	require.NoError(t, repo.Users().TrackSuccessfulLogin(ctx, user))

	fresh, err := repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, fresh.LastLoginAt)
}
