package auth

import (
	"context"

	"github.com/uptrace/bun"
)

// WhitelistPatch carries a partial entry update. Nil fields are left
// untouched.
type WhitelistPatch struct {
	Email    *string
	Phone    *string
	Note     *string
	IsActive *bool
}

// Whitelist is the persisted admin whitelist store
type Whitelist interface {
	List(ctx context.Context) ([]*WhitelistEntry, error)
	ActiveEntries(ctx context.Context) ([]*WhitelistEntry, error)
	GetByID(ctx context.Context, id int64) (*WhitelistEntry, error)
	Add(ctx context.Context, entry *WhitelistEntry) (*WhitelistEntry, error)
	Update(ctx context.Context, id int64, patch WhitelistPatch) (*WhitelistEntry, error)
	Remove(ctx context.Context, id int64) error
	CountActive(ctx context.Context) (int, error)
}

type whitelist struct {
	db *bun.DB
}

var _ Whitelist = (*whitelist)(nil)

// NewWhitelistRepository creates the bun backed whitelist store
func NewWhitelistRepository(db *bun.DB) Whitelist {
	return &whitelist{db: db}
}

func (w *whitelist) List(ctx context.Context) ([]*WhitelistEntry, error) {
	entries := []*WhitelistEntry{}
	err := w.db.NewSelect().
		Model(&entries).
		OrderExpr("?TableAlias.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (w *whitelist) ActiveEntries(ctx context.Context) ([]*WhitelistEntry, error) {
	entries := []*WhitelistEntry{}
	err := w.db.NewSelect().
		Model(&entries).
		Where("?TableAlias.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (w *whitelist) GetByID(ctx context.Context, id int64) (*WhitelistEntry, error) {
	entry := &WhitelistEntry{}
	err := w.db.NewSelect().
		Model(entry).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (w *whitelist) Add(ctx context.Context, entry *WhitelistEntry) (*WhitelistEntry, error) {
	if !entry.HasChannel() {
		return nil, ErrMissingChannel
	}

	if _, err := w.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateChannel
		}
		return nil, err
	}

	return w.GetByID(ctx, entry.ID)
}

func (w *whitelist) Update(ctx context.Context, id int64, patch WhitelistPatch) (*WhitelistEntry, error) {
	// clearing the phone must not leave the entry without any channel
	if patch.Phone != nil && *patch.Phone == "" {
		current, err := w.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		keepsEmail := current.Email != nil
		if patch.Email != nil {
			keepsEmail = *patch.Email != ""
		}
		if !keepsEmail {
			return nil, ErrMissingChannel
		}
	}

	q := w.db.NewUpdate().
		Model((*WhitelistEntry)(nil)).
		Where("id = ?", id)

	touched := false
	if patch.Email != nil {
		q = q.Set("email = ?", *patch.Email)
		touched = true
	}
	if patch.Phone != nil {
		if *patch.Phone == "" {
			q = q.Set("phone_number = NULL")
		} else {
			q = q.Set("phone_number = ?", *patch.Phone)
		}
		touched = true
	}
	if patch.Note != nil {
		q = q.Set("note = ?", *patch.Note)
		touched = true
	}
	if patch.IsActive != nil {
		q = q.Set("is_active = ?", *patch.IsActive)
		touched = true
	}

	if touched {
		res, err := q.Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicateChannel
			}
			return nil, err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return nil, ErrEntryNotFound
		}
	}

	return w.GetByID(ctx, id)
}

// Remove deletes an entry unless it is the last active one. The guard and
// the delete are a single conditional statement inside a transaction, so
// two concurrent removals of the last two active entries cannot both
// succeed; the source's separate count-then-delete had that race.
func (w *whitelist) Remove(ctx context.Context, id int64) error {
	return w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewRaw(`
			DELETE FROM admin_whitelist
			WHERE id = ?
			AND (
				is_active = ?
				OR (SELECT COUNT(*) FROM admin_whitelist WHERE is_active = ?) > 1
			);
		`, id, false, true).Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			exists, err := tx.NewSelect().
				Model((*WhitelistEntry)(nil)).
				Where("?TableAlias.id = ?", id).
				Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				return ErrLastAdmin
			}
			return ErrEntryNotFound
		}

		return nil
	})
}

func (w *whitelist) CountActive(ctx context.Context) (int, error) {
	return w.db.NewSelect().
		Model((*WhitelistEntry)(nil)).
		Where("?TableAlias.is_active = ?", true).
		Count(ctx)
}
