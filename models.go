package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is an unauthenticated visitor
	RoleGuest UserRole = "guest"
	// RoleMember is any authenticated account
	RoleMember UserRole = "member"
	// RoleAdmin is a member whose email matches an active whitelist entry
	RoleAdmin UserRole = "admin"
)

// User is the user model. Admin capability is never stored on the record;
// it is derived from the whitelist on every request.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	AvatarURL     string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Sex           bool       `bun:"sex,notnull,default:false" json:"sex"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	EmailVerified bool       `bun:"email_verified,notnull,default:false" json:"email_verified,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the record has been soft deleted. A deleted
// user must never authenticate, regardless of IsActive.
func (u *User) IsDeleted() bool {
	return u != nil && u.DeletedAt != nil
}

// WhitelistEntry grants admin capability to any user whose email matches
// an active entry. Entries do not have to reference an existing user;
// they may be added ahead of registration.
type WhitelistEntry struct {
	bun.BaseModel `bun:"table:admin_whitelist,alias:awl"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         *string    `bun:"email,unique,nullzero" json:"email,omitempty"`
	Phone         *string    `bun:"phone_number,unique,nullzero" json:"phone_number,omitempty"`
	Note          string     `bun:"note" json:"note,omitempty"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	AddedBy       int64      `bun:"added_by" json:"added_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// HasChannel reports whether the entry identifies at least one channel.
func (w *WhitelistEntry) HasChannel() bool {
	return w != nil && (w.Email != nil || w.Phone != nil)
}

// MatchesEmail reports whether the entry is active and matches the given
// email. The comparison is case-sensitive.
func (w *WhitelistEntry) MatchesEmail(email string) bool {
	if w == nil || !w.IsActive || w.Email == nil {
		return false
	}
	return *w.Email == email
}
