package auth

import (
	"fmt"
	"time"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded view of a session token
type SessionObject struct {
	UserID         int64      `json:"user_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	Role           UserRole   `json:"role,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() int64 {
	return s.UserID
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetRole() UserRole {
	if s.Role == "" {
		return RoleGuest
	}
	return s.Role
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%d email=%s role=%s iss=%s iat=%s",
		s.UserID,
		s.Email,
		s.Role,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from validated claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	issuer := ""
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		issuer = jwtClaims.RegisteredClaims.Issuer
	}

	return &SessionObject{
		UserID:         claims.UserID(),
		Email:          claims.Email(),
		Role:           claims.Role(),
		Issuer:         issuer,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}
