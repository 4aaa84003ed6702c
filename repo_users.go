package auth

import (
	"context"
	"database/sql"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UserPatch carries the admin-managed partial update. Nil fields are left
// untouched so "present and false" stays distinct from "absent".
type UserPatch struct {
	Sex         *bool
	IsActive    *bool
	DisplayName *string
}

// ProfilePatch carries the self-service profile update
type ProfilePatch struct {
	DisplayName *string
	AvatarURL   *string
	Phone       *string
}

// SearchParams drives the paginated admin user listing
type SearchParams struct {
	Page   int
	Limit  int
	Search string
}

// Users is the persisted user store. Soft-deleted records are invisible
// to every read path.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	Search(ctx context.Context, params SearchParams) ([]*User, int, error)
	Update(ctx context.Context, id int64, patch UserPatch) (*User, error)
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error)
	SoftDelete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository creates the bun backed user store
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	for _, opt := range resolveUserIdentifier(identifier) {
		record := &User{}
		err := a.db.NewSelect().
			Model(record).
			Where("?TableAlias."+opt.column+" = ?", opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if isNoRows(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, ErrUserNotFound
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrap(err, errors.CategoryConflict, "email or username already registered").
				WithTextCode("DUPLICATE_USER").
				WithCode(errors.CodeBadRequest)
		}
		return nil, err
	}

	record := &User{}
	if err := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", user.ID).Scan(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: raw update so a stale struct cannot clobber other columns
	now := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE users
		SET last_login_at = ?
		WHERE id = ? AND deleted_at IS NULL;
	`, now, user.ID).Exec(ctx)

	return err
}

func (a *users) Search(ctx context.Context, params SearchParams) ([]*User, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}

	records := []*User{}
	q := a.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(params.Limit).
		Offset((params.Page - 1) * params.Limit)

	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("?TableAlias.email LIKE ?", pattern).
				WhereOr("?TableAlias.username LIKE ?", pattern).
				WhereOr("?TableAlias.display_name LIKE ?", pattern)
		})
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *users) Update(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Where("id = ?", id).
		Where("deleted_at IS NULL")

	touched := false
	if patch.Sex != nil {
		q = q.Set("sex = ?", *patch.Sex)
		touched = true
	}
	if patch.IsActive != nil {
		q = q.Set("is_active = ?", *patch.IsActive)
		touched = true
	}
	if patch.DisplayName != nil {
		q = q.Set("display_name = ?", *patch.DisplayName)
		touched = true
	}

	if touched {
		q = q.Set("updated_at = ?", time.Now())
		res, err := q.Exec(ctx)
		if err != nil {
			return nil, err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return a.GetByID(ctx, id)
}

func (a *users) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error) {
	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Where("id = ?", id).
		Where("deleted_at IS NULL")

	touched := false
	if patch.DisplayName != nil {
		q = q.Set("display_name = ?", *patch.DisplayName)
		touched = true
	}
	if patch.AvatarURL != nil {
		q = q.Set("avatar_url = ?", *patch.AvatarURL)
		touched = true
	}
	if patch.Phone != nil {
		q = q.Set("phone_number = ?", *patch.Phone)
		touched = true
	}

	if touched {
		q = q.Set("updated_at = ?", time.Now())
		res, err := q.Exec(ctx)
		if err != nil {
			return nil, err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return a.GetByID(ctx, id)
}

// SoftDelete marks the record deleted and forces is_active off. There is
// no undelete path through the exposed operations.
func (a *users) SoftDelete(ctx context.Context, id int64) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("deleted_at = ?", time.Now()).
		Set("is_active = ?", false).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) Count(ctx context.Context) (int, error) {
	return a.db.NewSelect().Model((*User)(nil)).Count(ctx)
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
