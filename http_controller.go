package revieweat

import (
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/revieweat/server/middleware/jwtware"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       HTTPAuthenticator
	Gate         Authenticator
	Sweeper      *SweepSessionsHandler
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Gate == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		ra, ok := c.Auther.(*RouteAuthenticator)
		if !ok {
			panic("Missing ErrorHandler in auth controller...")
		}
		c.ErrorHandler = ra.WriteError
	}

	return c
}

func WithAuthControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthControllerAuther(auther HTTPAuthenticator, gate Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		c.Gate = gate
		return c
	}
}

func WithAuthControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithAuthControllerSweeper(sweeper *SweepSessionsHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sweeper = sweeper
		return c
	}
}

func WithAuthControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// RegisterAuthRoutes mounts the auth and operational endpoints.
func RegisterAuthRoutes(app RouteRegistrar, c *AuthController, protected router.MiddlewareFunc) {
	app.Post("/auth/register", c.Register)
	app.Post("/auth/login", c.Login)
	app.Post("/auth/logout", c.Logout, protected)
	app.Get("/auth/me", c.Me, protected)
	app.Get("/auth/session", c.Session, protected)
	app.Post("/ops/session-sweep", c.SessionSweep, protected)
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return the remember me flag
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, expiresAt, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int64(time.Until(expiresAt).Seconds()),
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse registration payload"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return a.validationError(ctx, err)
	}

	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     RoleUser,
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, registerUser.User())
}

func (a *AuthController) Logout(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Logout(ctx, user.Email); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "logged out",
	})
}

func (a *AuthController) Me(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

func (a *AuthController) Session(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, SessionStatusOf(user, time.Now().UTC()))
}

func (a *AuthController) SessionSweep(ctx router.Context) error {
	if a.Sweeper == nil {
		return a.ErrorHandler(ctx, errors.New("session sweep is not configured", errors.CategoryInternal))
	}

	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if user.Role != RoleAdmin {
		return a.ErrorHandler(ctx, errors.New("operational endpoints require the admin role", errors.CategoryAuthz).
			WithCode(errors.CodeForbidden))
	}

	if err := a.Sweeper.Execute(ctx.Context(), SweepSessionsMessage{}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]int{
		"cleared": a.Sweeper.Cleared(),
	})
}

// currentUser resolves the request's user: the JWT middleware leaves the
// validated claims on the request context, so the subject only needs a
// fresh store lookup. Without enriched claims the gate re-runs from the
// raw token. No caching across requests.
func (a *AuthController) currentUser(ctx router.Context) (*User, error) {
	if claims, ok := GetClaims(ctx.Context()); ok {
		return a.Gate.ResolveUser(ctx.Context(), claims)
	}

	raw, err := rawTokenFromContext(ctx, a.Config)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return a.Gate.Authenticate(ctx.Context(), raw)
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return a.ErrorHandler(ctx, validationError(err))
}

func rawTokenFromContext(ctx router.Context, cfg Config) (string, error) {
	lookup := ""
	scheme := "Bearer"
	if cfg != nil {
		lookup = cfg.GetTokenLookup()
		if s := cfg.GetAuthScheme(); s != "" {
			scheme = s
		}
	}
	if lookup == "" {
		lookup = "header:" + router.HeaderAuthorization
	}

	return jwtware.ExtractRawTokenFromContext(ctx, jwtware.GetExtractors(lookup, scheme))
}
