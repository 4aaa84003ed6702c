package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents the structured JWT claims carried by a session token
type AuthClaims interface {
	Subject() string
	UserID() int64
	Email() string
	Role() UserRole
	ContentAccess() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The role claim
// reflects the whitelist at issue time only; admin routes re-resolve it.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       int64  `json:"uid,omitempty"`
	UserEmail string `json:"email,omitempty"`
	UserRole  string `json:"role,omitempty"`
	Sex       bool   `json:"sex,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, falling back to the subject claim
func (c *JWTClaims) UserID() int64 {
	if c.UID != 0 {
		return c.UID
	}
	id, err := strconv.ParseInt(c.RegisteredClaims.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the role at issue time
func (c *JWTClaims) Role() UserRole {
	if c.UserRole == "" {
		return RoleMember
	}
	return c.UserRole
}

// ContentAccess returns the private content entitlement at issue time
func (c *JWTClaims) ContentAccess() bool {
	return c.Sex
}

// Expires returns the expiration time or zero value
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// IssuedAt returns the issue time or zero value
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
