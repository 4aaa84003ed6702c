package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword covers both unknown identifiers and bad
// passwords so the response does not reveal which one failed.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrAccountDisabled is returned when the account exists but is_active is false
var ErrAccountDisabled = errors.New("account is disabled", errors.CategoryAuth).
	WithTextCode("ACCOUNT_DISABLED").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is the error when the request has no session cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrNotAdmin is returned when an authenticated user lacks admin capability
var ErrNotAdmin = errors.New("admin privilege required", errors.CategoryAuthz).
	WithTextCode("NOT_ADMIN").
	WithCode(errors.CodeForbidden)

// ErrNoContentAccess is returned when the private content entitlement is missing
var ErrNoContentAccess = errors.New("content access required", errors.CategoryAuthz).
	WithTextCode("NO_CONTENT_ACCESS").
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned when a user record does not exist or is deleted
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrEntryNotFound is returned when a whitelist entry does not exist
var ErrEntryNotFound = errors.New("whitelist entry not found", errors.CategoryNotFound).
	WithTextCode("ENTRY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrDuplicateChannel is returned when the email or phone is already
// whitelisted. The source API reports this as a 400 with a distinct
// message rather than a 409, we keep that contract.
var ErrDuplicateChannel = errors.New("email or phone already whitelisted", errors.CategoryConflict).
	WithTextCode("DUPLICATE_CHANNEL").
	WithCode(errors.CodeBadRequest)

// ErrMissingChannel is returned when a whitelist entry has neither channel
var ErrMissingChannel = errors.New("email or phone number is required", errors.CategoryValidation).
	WithTextCode("MISSING_CHANNEL").
	WithCode(errors.CodeBadRequest)

// ErrLastAdmin guards the invariant that at least one active whitelist
// entry must remain. Callers must treat it as a hard stop, not retry.
var ErrLastAdmin = errors.New("cannot remove the last active admin", errors.CategoryConflict).
	WithTextCode("LAST_ADMIN").
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_STRING").
	WithCode(errors.CodeBadRequest)

// StatusFromError maps an error to the HTTP status the API contract
// expects. Unclassified errors map to 500 and must be logged server-side,
// the mapped message is what clients get to see.
func StatusFromError(err error) int {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return http.StatusInternalServerError
	}

	if rich.Code > 0 {
		return rich.Code
	}

	switch rich.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryValidation, errors.CategoryBadInput, errors.CategoryConflict:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsAuthError reports whether the error belongs to the authentication category.
func IsAuthError(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryAuth
}
