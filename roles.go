package auth

import "context"

// ResolveRole computes a user's role from a whitelist snapshot. It is a
// pure function: no caching, no stored admin bit. A soft-deleted user is
// always a guest, an email matching an active whitelist entry makes an
// admin, everyone else is a member.
func ResolveRole(user *User, snapshot []*WhitelistEntry) UserRole {
	if user == nil || user.IsDeleted() {
		return RoleGuest
	}

	for _, entry := range snapshot {
		if entry.MatchesEmail(user.Email) {
			return RoleAdmin
		}
	}

	return RoleMember
}

// RoleResolver snapshots the whitelist store and applies ResolveRole.
// The resolution runs per request; the whitelist is small enough that a
// full scan of active entries is cheap.
type RoleResolver struct {
	whitelist Whitelist
}

// NewRoleResolver creates a resolver over the given whitelist store
func NewRoleResolver(whitelist Whitelist) *RoleResolver {
	return &RoleResolver{whitelist: whitelist}
}

// Resolve computes the user's current role from a fresh whitelist snapshot
func (r *RoleResolver) Resolve(ctx context.Context, user *User) (UserRole, error) {
	snapshot, err := r.whitelist.ActiveEntries(ctx)
	if err != nil {
		return RoleGuest, err
	}
	return ResolveRole(user, snapshot), nil
}

// IsAdmin reports whether the user currently holds admin capability
func (r *RoleResolver) IsAdmin(ctx context.Context, user *User) (bool, error) {
	role, err := r.Resolve(ctx, user)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}
