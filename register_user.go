package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterUserMessage is the registration payload
type RegisterUserMessage struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	DisplayName     string `json:"displayName" form:"displayName"`
	Phone           string `json:"phoneNumber" form:"phoneNumber"`
	Sex             bool   `json:"sex" form:"sex"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will validate the payload
func (e RegisterUserMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&e.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(e.Password)),
		),
		validation.Field(&e.DisplayName, validation.Length(0, 200)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithTextCode("INVALID_REGISTRATION").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func validateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return goerrors.New("passwords do not match", goerrors.CategoryValidation)
		}
		return nil
	}
}

// RegisterUserHandler creates the user record and is the single write path
// for registration
type RegisterUserHandler struct {
	repo RepositoryManager
}

// NewRegisterUserHandler creates a registration handler over the repo manager
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

// Execute runs the registration inside a transaction and returns the
// created user
func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var created *User

	err := h.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user := &User{
			Username:     getUsername(event.Username, event.Email),
			Email:        event.Email,
			PasswordHash: hash,
			DisplayName:  event.DisplayName,
			Phone:        event.Phone,
			Sex:          event.Sex,
			IsActive:     true,
		}

		if created, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return created, nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
