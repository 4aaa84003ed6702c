package auth

import (
	"context"
	"strings"

	"github.com/uptrace/bun"
)

// RepositoryManager bundles the persistence stores of the auth core
type RepositoryManager interface {
	Users() Users
	Whitelist() Whitelist
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
}

type repoManager struct {
	db        *bun.DB
	users     Users
	whitelist Whitelist
}

// NewRepositoryManager creates the default bun backed repository manager
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &repoManager{
		db:        db,
		users:     NewUsersRepository(db),
		whitelist: NewWhitelistRepository(db),
	}
}

func (r *repoManager) Users() Users {
	return r.users
}

func (r *repoManager) Whitelist() Whitelist {
	return r.whitelist
}

func (r *repoManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, fn)
}

// CreateTables creates the auth schema if it does not exist. Used at boot
// and by the test fixtures.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*WhitelistEntry)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// isUniqueViolation matches unique constraint failures across the sqlite
// and postgres drivers. The source relied on the postgres 23505 code.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "23505")
}
