package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// phoneRegion is the default region for whitelist phone numbers without a
// country prefix.
const phoneRegion = "TW"

// AdminUpdateUserPayload is the admin partial user update body. Nil
// fields are left untouched, so "present and false" stays distinct from
// "absent".
type AdminUpdateUserPayload struct {
	Sex         *bool   `json:"sex"`
	IsActive    *bool   `json:"isActive"`
	DisplayName *string `json:"displayName"`
}

// WhitelistAddPayload is the add-entry body; at least one channel is
// required
type WhitelistAddPayload struct {
	Email string `json:"email"`
	Phone string `json:"phoneNumber"`
	Note  string `json:"note"`
}

// Validate will validate the payload
func (p WhitelistAddPayload) Validate() error {
	if p.Email == "" && p.Phone == "" {
		return ErrMissingChannel
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Length(6, 100), is.Email),
		validation.Field(&p.Note, validation.Length(0, 500)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithTextCode("INVALID_WHITELIST_ENTRY").
			WithCode(errors.CodeBadRequest)
	}

	if p.Phone != "" {
		if _, err := normalizePhone(p.Phone); err != nil {
			return err
		}
	}

	return nil
}

// WhitelistUpdatePayload is the toggle/edit body
type WhitelistUpdatePayload struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phoneNumber"`
	Note     *string `json:"note"`
	IsActive *bool   `json:"isActive"`
}

// AdminController serves the /api/admin endpoints. Every route behind it
// has already passed RequireAdmin.
type AdminController struct {
	Repo       RepositoryManager
	Resolver   *RoleResolver
	Logger     Logger
	ContextKey string
}

// NewAdminController wires the admin endpoints
func NewAdminController(repo RepositoryManager, resolver *RoleResolver, cfg Config) *AdminController {
	return &AdminController{
		Repo:       repo,
		Resolver:   resolver,
		Logger:     defLogger{},
		ContextKey: cfg.GetContextKey(),
	}
}

func (a *AdminController) WithLogger(l Logger) *AdminController {
	a.Logger = l
	return a
}

// ListUsers returns the paginated user search. The admin flag on each row
// comes from one whitelist snapshot taken for the whole page.
func (a *AdminController) ListUsers(c *fiber.Ctx) error {
	params := SearchParams{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
		Search: c.Query("search"),
	}
	// clamp here too: the page math below divides by Limit
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}

	records, total, err := a.Repo.Users().Search(c.UserContext(), params)
	if err != nil {
		return err
	}

	snapshot, err := a.Repo.Whitelist().ActiveEntries(c.UserContext())
	if err != nil {
		return err
	}

	users := make([]UserResponse, 0, len(records))
	for _, u := range records {
		users = append(users, NewUserResponse(u, ResolveRole(u, snapshot) == RoleAdmin))
	}

	totalPages := total / params.Limit
	if total%params.Limit > 0 {
		totalPages++
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"total":      total,
		"page":       params.Page,
		"totalPages": totalPages,
	})
}

// UpdateUser applies the admin partial update
func (a *AdminController) UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(errors.CodeBadRequest)
	}

	payload := new(AdminUpdateUserPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse user payload").
			WithCode(errors.CodeBadRequest)
	}

	user, err := a.Repo.Users().Update(c.UserContext(), int64(id), UserPatch{
		Sex:         payload.Sex,
		IsActive:    payload.IsActive,
		DisplayName: payload.DisplayName,
	})
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

// DeleteUser soft-deletes the account. There is no undelete.
func (a *AdminController) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(errors.CodeBadRequest)
	}

	if err := a.Repo.Users().SoftDelete(c.UserContext(), int64(id)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListWhitelist returns every entry, active or not
func (a *AdminController) ListWhitelist(c *fiber.Ctx) error {
	entries, err := a.Repo.Whitelist().List(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(entries)
}

// AddWhitelist creates an entry for the given channel. Duplicate channels
// are rejected with a distinct message rather than a generic failure.
func (a *AdminController) AddWhitelist(c *fiber.Ctx) error {
	payload := new(WhitelistAddPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse whitelist payload").
			WithCode(errors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	actor, err := SessionUser(c, a.Repo.Users(), a.ContextKey)
	if err != nil {
		return err
	}

	entry := &WhitelistEntry{
		Note:     payload.Note,
		IsActive: true,
		AddedBy:  actor.ID,
	}
	if payload.Email != "" {
		entry.Email = &payload.Email
	}
	if payload.Phone != "" {
		normalized, err := normalizePhone(payload.Phone)
		if err != nil {
			return err
		}
		entry.Phone = &normalized
	}

	created, err := a.Repo.Whitelist().Add(c.UserContext(), entry)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"entry": created})
}

// UpdateWhitelist toggles or edits an entry without deleting history
func (a *AdminController) UpdateWhitelist(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid whitelist id").
			WithCode(errors.CodeBadRequest)
	}

	payload := new(WhitelistUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse whitelist payload").
			WithCode(errors.CodeBadRequest)
	}

	patch := WhitelistPatch{
		Email:    payload.Email,
		Note:     payload.Note,
		IsActive: payload.IsActive,
	}
	// an explicit empty string clears the channel, absent leaves it alone
	if payload.Phone != nil {
		if *payload.Phone == "" {
			patch.Phone = payload.Phone
		} else {
			normalized, err := normalizePhone(*payload.Phone)
			if err != nil {
				return err
			}
			patch.Phone = &normalized
		}
	}

	entry, err := a.Repo.Whitelist().Update(c.UserContext(), int64(id), patch)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"entry": entry})
}

// RemoveWhitelist deletes an entry unless it is the last active one
func (a *AdminController) RemoveWhitelist(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid whitelist id").
			WithCode(errors.CodeBadRequest)
	}

	if err := a.Repo.Whitelist().Remove(c.UserContext(), int64(id)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// Stats returns the dashboard counters owned by the auth core
func (a *AdminController) Stats(c *fiber.Ctx) error {
	userCount, err := a.Repo.Users().Count(c.UserContext())
	if err != nil {
		return err
	}

	activeAdmins, err := a.Repo.Whitelist().CountActive(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"userCount":    userCount,
		"activeAdmins": activeAdmins,
	})
}

func normalizePhone(raw string) (string, error) {
	parsed, err := phonenumbers.Parse(raw, phoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return "", errors.New("invalid phone number", errors.CategoryValidation).
			WithTextCode("INVALID_PHONE").
			WithCode(errors.CodeBadRequest)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
