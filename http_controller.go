package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// Controller exposes the REST surface over the auth and registration
// services. Status codes are part of the contract: 400 validation,
// 401 authentication, 403 authorization, 404 not found, 409 duplicate
// email, 400 duplicate/full registration and protected-account guard.
type Controller struct {
	Debug         bool
	Logger        Logger
	Accounts      *Accounts
	Registrations *Registrations
	Directory     *Directory
	Config        Config
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts service in auth controller...")
	}

	if c.Registrations == nil {
		panic("Missing Registrations service in auth controller...")
	}

	if c.Directory == nil {
		panic("Missing Directory service in auth controller...")
	}

	if c.Config == nil {
		c.Config = SimpleConfig{}
	}

	return c
}

func WithControllerServices(accounts *Accounts, registrations *Registrations, directory *Directory) ControllerOption {
	return func(c *Controller) *Controller {
		c.Accounts = accounts
		c.Registrations = registrations
		c.Directory = directory
		return c
	}
}

func WithControllerConfig(cfg Config) ControllerOption {
	return func(c *Controller) *Controller {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = logger
		return c
	}
}

// RegisterRoutes mounts the REST surface on the app. The gate runs
// before every protected handler; admin routes additionally require
// the admin role.
func RegisterRoutes(app *fiber.App, c *Controller) {
	validator := c.Accounts.TokenService()

	authed := Protected(validator, c.Config)
	adminOnly := ProtectedWithRole(validator, c.Config, RoleAdmin)

	app.Post("/auth/register", c.RegisterPost)
	app.Post("/auth/login", c.LoginPost)
	app.Get("/auth/me", authed, c.Me)

	app.Get("/admin/users", adminOnly, c.AdminListUsers)
	app.Get("/admin/stats", adminOnly, c.AdminStats)
	app.Patch("/admin/users/:id", adminOnly, c.AdminUpdateUser)
	app.Delete("/admin/users/:id", adminOnly, c.AdminDeleteUser)

	app.Post("/events/:id/register", authed, c.EventRegister)
	app.Delete("/events/:id/register", authed, c.EventUnregister)
	app.Get("/events/:id/registrations/count", c.EventRegistrationCount)
}

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone_number"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	)
}

func (a *Controller) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	user, token, err := a.Accounts.Register(ctx.Context(), payload.Email, payload.Password, payload.DisplayName)
	if err != nil {
		return WriteError(ctx, err)
	}

	if payload.Phone != "" {
		if user, err = a.Accounts.UpdateUser(ctx.Context(), user.ID, UserUpdate{Phone: &payload.Phone}); err != nil {
			return WriteError(ctx, err)
		}
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(user))
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *Controller) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	user, token, err := a.Accounts.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (a *Controller) Me(ctx *fiber.Ctx) error {
	id, err := a.currentUserID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	user, err := a.Accounts.GetUserByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (a *Controller) AdminListUsers(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", DefaultPageSize)
	search := ctx.Query("search")

	result, err := a.Directory.ListUsers(ctx.Context(), page, limit, search)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

func (a *Controller) AdminStats(ctx *fiber.Ctx) error {
	stats, err := a.Directory.Stats(ctx.Context())
	if err != nil {
		return WriteError(ctx, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(stats))
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// AdminUpdateRequest is the PATCH payload for user administration.
// Absent fields are left untouched.
type AdminUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	Phone       *string `json:"phone_number"`
	IsActive    *bool   `json:"is_active"`
	Role        *string `json:"role"`
}

// Validate will run validation rules
func (r AdminUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(func(value any) error {
			if v, ok := value.(*string); ok && v != nil {
				return ValidatePhoneNumber(*v)
			}
			return nil
		})),
	)
}

func (a *Controller) AdminUpdateUser(ctx *fiber.Ctx) error {
	id, err := parseUserID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(AdminUpdateRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	if payload.Role != nil {
		if _, err := a.Accounts.UpdateUserRole(ctx.Context(), id, *payload.Role); err != nil {
			return WriteError(ctx, err)
		}
	}

	user, err := a.Accounts.UpdateUser(ctx.Context(), id, UserUpdate{
		DisplayName: payload.DisplayName,
		Bio:         payload.Bio,
		AvatarURL:   payload.AvatarURL,
		Phone:       payload.Phone,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (a *Controller) AdminDeleteUser(ctx *fiber.Ctx) error {
	id, err := parseUserID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Accounts.DeleteUser(ctx.Context(), id); err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
	})
}

func (a *Controller) EventRegister(ctx *fiber.Ctx) error {
	eventID, err := parseEventID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	userID, err := a.currentUserID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Registrations.Register(ctx.Context(), eventID, userID); err != nil {
		return WriteError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
	})
}

func (a *Controller) EventUnregister(ctx *fiber.Ctx) error {
	eventID, err := parseEventID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	userID, err := a.currentUserID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Registrations.Unregister(ctx.Context(), eventID, userID); err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
	})
}

func (a *Controller) EventRegistrationCount(ctx *fiber.Ctx) error {
	eventID, err := parseEventID(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	count, err := a.Registrations.RegistrationCount(ctx.Context(), eventID)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"count":   count,
	})
}

func (a *Controller) currentUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	claims, ok := ClaimsFromFiber(ctx, a.Config.GetContextKey())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrTokenMalformed
	}

	return id, nil
}

func parseUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, ErrUserNotFound
	}
	return id, nil
}

func parseEventID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, ErrEventNotFound
	}
	return id, nil
}

// ValidatePhoneNumber accepts an empty value and otherwise requires a
// number phonenumbers can parse and validate.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}
