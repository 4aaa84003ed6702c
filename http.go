package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/coachfit/coach-auth/middleware/jwtware"
)

// localUserKey is where the session middlewares stash the freshly loaded
// user record for downstream handlers.
const localUserKey = "auth:user"

// RouteAuthenticator owns the session cookie lifecycle
type RouteAuthenticator struct {
	auth           *Auther
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
}

// NewHTTPAuthenticator returns a new RouteAuthenticator
func NewHTTPAuthenticator(auther *Auther, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	return &RouteAuthenticator{
		auth:           auther,
		cfg:            cfg,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}, nil
}

func (a *RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// SetSessionCookie stores the session token in an HTTP-only cookie
func (a *RouteAuthenticator) SetSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    token,
		Expires:  time.Now().Add(a.cookieDuration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie. Clearing an absent
// cookie is a no-op, which keeps logout idempotent.
func (a *RouteAuthenticator) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ProtectedRoute validates the session cookie and stores the claims in
// the request locals
func (a *RouteAuthenticator) ProtectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		CookieName: a.cfg.GetCookieName(),
		ContextKey: a.cfg.GetContextKey(),
		Validator: func(token string) (jwtware.AuthClaims, error) {
			claims, err := a.auth.TokenService().Validate(token)
			if err != nil {
				return nil, err
			}
			return claims, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			a.Logger.Debug("session validation failed: %v", err)
			if IsAuthError(err) {
				return err
			}
			return ErrUnableToFindSession
		},
	})
}

// SessionUser resolves the validated claims to a fresh user record. A
// user soft-deleted after the token was issued shows up here as missing
// and is treated as unauthenticated.
func SessionUser(c *fiber.Ctx, users Users, contextKey string) (*User, error) {
	if cached, ok := c.Locals(localUserKey).(*User); ok {
		return cached, nil
	}

	claims, ok := c.Locals(contextKey).(jwtware.AuthClaims)
	if !ok || claims == nil {
		return nil, ErrUnableToFindSession
	}

	user, err := users.GetByID(c.UserContext(), claims.UserID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnableToFindSession
		}
		return nil, err
	}

	c.Locals(localUserKey, user)
	return user, nil
}

// RequireAdmin re-resolves the user's role against the live whitelist on
// every request. Nothing about admin capability is trusted from the token.
func RequireAdmin(users Users, resolver *RoleResolver, contextKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := SessionUser(c, users, contextKey)
		if err != nil {
			return err
		}

		isAdmin, err := resolver.IsAdmin(c.UserContext(), user)
		if err != nil {
			return err
		}

		if !isAdmin {
			return ErrNotAdmin
		}

		return c.Next()
	}
}

// RequireContentAccess gates the private content routes on the sex
// entitlement flag. The flag is a capability, not a role; it is loaded
// fresh so an admin toggling it takes effect on the next request.
func RequireContentAccess(users Users, contextKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := SessionUser(c, users, contextKey)
		if err != nil {
			return err
		}

		if !user.Sex {
			return ErrNoContentAccess
		}

		return c.Next()
	}
}

// NewErrorHandler maps domain errors to the API error contract. Internal
// detail is logged but never leaks to the client.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var rich *errors.Error
		if errors.As(err, &rich) {
			status := StatusFromError(rich)
			if status >= fiber.StatusInternalServerError {
				logger.Error("unhandled error on %s: %s %s",
					c.OriginalURL(), rich.Message, print.MaybePrettyJSON(rich.Metadata))
				return c.Status(status).JSON(fiber.Map{"error": "operation failed"})
			}
			return c.Status(status).JSON(fiber.Map{"error": rich.Message})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		logger.Error("unhandled error on %s: %v", c.OriginalURL(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "operation failed"})
	}
}
