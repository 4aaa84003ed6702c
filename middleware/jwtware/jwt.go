// Package jwtware validates the session cookie on protected routes. It
// mirrors the auth package claims through local interfaces to avoid an
// import cycle.
package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// AuthClaims is the slice of the auth claims the middleware needs
type AuthClaims interface {
	UserID() int64
	Email() string
	Role() string
	ContentAccess() bool
}

// Config holds the middleware options
type Config struct {
	// Validator validates the raw token and returns the decoded claims
	Validator func(token string) (AuthClaims, error)
	// CookieName is the session cookie to read the token from
	CookieName string
	// AuthScheme is the Authorization header scheme used as fallback
	AuthScheme string
	// ContextKey is the locals key the claims are stored under
	ContextKey string
	// ErrorHandler runs when extraction or validation fails
	ErrorHandler func(c *fiber.Ctx, err error) error
}

func (cfg *Config) defaults() {
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
	}
}

// New creates the session validation middleware. The token is looked up
// in the session cookie first, then in the Authorization header.
func New(cfg Config) fiber.Handler {
	cfg.defaults()

	if cfg.Validator == nil {
		panic("jwtware: Config.Validator is required")
	}

	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c, cfg)
		if token == "" {
			return cfg.ErrorHandler(c, ErrJWTMissingOrMalformed)
		}

		claims, err := cfg.Validator(token)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)
		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx, cfg Config) string {
	if cookie := c.Cookies(cfg.CookieName); cookie != "" {
		return cookie
	}

	header := c.Get(fiber.HeaderAuthorization)
	prefix := cfg.AuthScheme + " "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}

	return ""
}
