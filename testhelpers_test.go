package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/coachfit/coach-auth"
)

type testConfig struct {
	signingKey string
	expiration int
	issuer     string
	contextKey string
	cookieName string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		expiration: 1,
		issuer:     "coach-auth-test",
		contextKey: "user",
		cookieName: "token",
	}
}

func (c testConfig) GetSigningKey() string   { return c.signingKey }
func (c testConfig) GetTokenExpiration() int { return c.expiration }
func (c testConfig) GetIssuer() string       { return c.issuer }
func (c testConfig) GetContextKey() string   { return c.contextKey }
func (c testConfig) GetCookieName() string   { return c.cookieName }

var _ auth.Config = testConfig{}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, auth.CreateTables(context.Background(), db))

	return db
}

func setupRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	return auth.NewRepositoryManager(setupDB(t))
}

func createUser(t *testing.T, repo auth.RepositoryManager, username, email, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &auth.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	})
	require.NoError(t, err)

	return user
}

func addWhitelistEmail(t *testing.T, repo auth.RepositoryManager, email string) *auth.WhitelistEntry {
	t.Helper()

	entry, err := repo.Whitelist().Add(context.Background(), &auth.WhitelistEntry{
		Email:    &email,
		IsActive: true,
	})
	require.NoError(t, err)

	return entry
}
