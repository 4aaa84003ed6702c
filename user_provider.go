package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserProvider resolves identities against the user store
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = l
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Lookup failures and password mismatches collapse into the same
// error so responses cannot be used to probe for accounts.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	return identityFromUser(user), nil
}

// FindIdentityByID resolves a session's user id to a usable identity
func (u *UserProvider) FindIdentityByID(ctx context.Context, id int64) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	return identityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)

// ensureAuthenticatableUser enforces the account usability invariants:
// a soft-deleted user never authenticates, an inactive one neither.
func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if user.IsDeleted() {
		return ErrMismatchedHashAndPassword
	}

	if !user.IsActive {
		return ErrAccountDisabled
	}

	return nil
}

type authIdentity struct {
	id       int64
	username string
	email    string
	role     UserRole
	sex      bool
}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:       user.ID,
		username: user.Username,
		email:    user.Email,
		role:     RoleMember,
		sex:      user.Sex,
	}
}

func (a authIdentity) ID() int64 {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() UserRole {
	if a.role == "" {
		return RoleMember
	}
	return a.role
}

func (a authIdentity) ContentAccess() bool {
	return a.sex
}

var _ Identity = authIdentity{}
