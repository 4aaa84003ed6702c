package auth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// UserResponse is the wire representation of a user, including the
// derived admin capability
type UserResponse struct {
	UserID      int64      `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Phone       string     `json:"phoneNumber,omitempty"`
	Sex         bool       `json:"sex"`
	IsActive    bool       `json:"isActive"`
	IsAdmin     bool       `json:"isAdmin"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// NewUserResponse builds the wire view of a user record
func NewUserResponse(u *User, isAdmin bool) UserResponse {
	return UserResponse{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Phone:       u.Phone,
		Sex:         u.Sex,
		IsActive:    u.IsActive,
		IsAdmin:     isAdmin,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// LoginPayload is the login request body. Identifier takes precedence
// over email so clients may log in by username as well.
type LoginPayload struct {
	Identifier string `json:"identifier" form:"identifier"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
}

func (p LoginPayload) GetIdentifier() string {
	if p.Identifier != "" {
		return p.Identifier
	}
	return p.Email
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Password, validation.Required),
	)
	if err == nil && p.GetIdentifier() == "" {
		err = validation.Errors{
			"email": fmt.Errorf("cannot be blank"),
		}
	}
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "email and password are required").
			WithTextCode("INVALID_LOGIN").
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

// ProfileUpdatePayload is the self-service profile update body. Nil
// fields are left untouched.
type ProfileUpdatePayload struct {
	DisplayName *string `json:"displayName" form:"displayName"`
	AvatarURL   *string `json:"avatarUrl" form:"avatarUrl"`
	Phone       *string `json:"phoneNumber" form:"phoneNumber"`
}

// AuthController serves the /api/auth endpoints
type AuthController struct {
	Auther     *Auther
	Cookies    *RouteAuthenticator
	Repo       RepositoryManager
	Resolver   *RoleResolver
	Registrar  *RegisterUserHandler
	Logger     Logger
	ContextKey string
}

// NewAuthController wires the auth endpoints
func NewAuthController(auther *Auther, cookies *RouteAuthenticator, repo RepositoryManager, resolver *RoleResolver, cfg Config) *AuthController {
	return &AuthController{
		Auther:     auther,
		Cookies:    cookies,
		Repo:       repo,
		Resolver:   resolver,
		Registrar:  NewRegisterUserHandler(repo),
		Logger:     defLogger{},
		ContextKey: cfg.GetContextKey(),
	}
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	a.Logger = l
	return a
}

// Login authenticates the credentials, sets the session cookie and
// returns the user with the freshly derived admin flag
func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload").
			WithCode(errors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, identity, err := a.Auther.Login(c.UserContext(), payload.GetIdentifier(), payload.Password)
	if err != nil {
		a.Logger.Info("login rejected for %q: %v", payload.GetIdentifier(), err)
		return err
	}

	a.Cookies.SetSessionCookie(c, token)

	user, err := a.Repo.Users().GetByID(c.UserContext(), identity.ID())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    NewUserResponse(user, identity.Role() == RoleAdmin),
	})
}

// Register creates the account and auto-logs it in
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterUserMessage)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse registration payload").
			WithCode(errors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	user, err := a.Registrar.Execute(c.UserContext(), *payload)
	if err != nil {
		a.Logger.Info("registration rejected for %q: %v", payload.Email, err)
		return err
	}

	token, identity, err := a.Auther.IssueToken(c.UserContext(), identityFromUser(user))
	if err != nil {
		return err
	}

	a.Cookies.SetSessionCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"user":    NewUserResponse(user, identity.Role() == RoleAdmin),
	})
}

// Logout clears the session cookie. Calling it without a valid session
// is not an error.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	a.Cookies.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"success": true})
}

// Me rehydrates the client's view of the current user. The admin flag is
// recomputed from the whitelist on every call.
func (a *AuthController) Me(c *fiber.Ctx) error {
	user, err := SessionUser(c, a.Repo.Users(), a.ContextKey)
	if err != nil {
		return err
	}

	isAdmin, err := a.Resolver.IsAdmin(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user": NewUserResponse(user, isAdmin),
	})
}

// UpdateProfile applies the self-service partial update
func (a *AuthController) UpdateProfile(c *fiber.Ctx) error {
	user, err := SessionUser(c, a.Repo.Users(), a.ContextKey)
	if err != nil {
		return err
	}

	payload := new(ProfileUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse profile payload").
			WithCode(errors.CodeBadRequest)
	}

	updated, err := a.Repo.Users().UpdateProfile(c.UserContext(), user.ID, ProfilePatch{
		DisplayName: payload.DisplayName,
		AvatarURL:   payload.AvatarURL,
		Phone:       payload.Phone,
	})
	if err != nil {
		return err
	}

	isAdmin, err := a.Resolver.IsAdmin(c.UserContext(), updated)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    NewUserResponse(updated, isAdmin),
	})
}

// PrivateContent acknowledges the entitlement. The actual gate runs in
// RequireContentAccess before this handler.
func (a *AuthController) PrivateContent(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"access": true})
}
