package auth

import (
	"context"
	"reflect"
)

// Auther implements Authenticator on top of an IdentityProvider and a
// RoleResolver. The role stamped into the token is informational; every
// authorization decision re-resolves against the live whitelist.
type Auther struct {
	provider     IdentityProvider
	resolver     *RoleResolver
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, resolver *RoleResolver, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		resolver:     resolver,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService overrides the default token service
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and returns a signed session token plus
// the resolved identity
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		return "", nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", nil, ErrIdentityNotFound
	}

	identity, err = s.stampRole(ctx, identity)
	if err != nil {
		s.logger.Error("Login role resolution error: %v", err)
		return "", nil, err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		return "", nil, err
	}

	return token, identity, nil
}

// IssueToken mints a session token for an already created identity, used
// by the registration auto-login
func (s *Auther) IssueToken(ctx context.Context, identity Identity) (string, Identity, error) {
	identity, err := s.stampRole(ctx, identity)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		return "", nil, err
	}

	return token, identity, nil
}

// SessionFromToken validates a raw token and returns the decoded session
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession resolves the session to a usable identity
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByID(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by id: %v", err)
		return nil, err
	}

	return s.stampRole(ctx, identity)
}

func (s *Auther) stampRole(ctx context.Context, identity Identity) (Identity, error) {
	if s.resolver == nil {
		return identity, nil
	}

	aid, ok := identity.(authIdentity)
	if !ok {
		return identity, nil
	}

	role, err := s.resolver.Resolve(ctx, &User{ID: aid.id, Email: aid.email})
	if err != nil {
		return nil, err
	}

	aid.role = role
	return aid, nil
}

var _ Authenticator = (*Auther)(nil)
