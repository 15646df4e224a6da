package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// MsgNotAuthenticated is returned by protected endpoints reached without claims
const MsgNotAuthenticated = "Authentication is required."

type AuthControllerRoutes struct {
	Register           string
	Login              string
	ChangePassword     string
	LoadProfile        string
	UpdateProfile      string
	DeleteUser         string
	AssignRoles        string
	ForgotPassword     string
	ResetPassword      string
	ValidateResetToken string
}

// DefaultAuthControllerRoutes mirrors the paths of the account API
func DefaultAuthControllerRoutes() *AuthControllerRoutes {
	return &AuthControllerRoutes{
		Register:           "/api/auth/register",
		Login:              "/api/auth/login",
		ChangePassword:     "/api/auth/change-password",
		LoadProfile:        "/api/auth/load-user-profile",
		UpdateProfile:      "/api/auth/change-user-profile",
		DeleteUser:         "/api/auth",
		AssignRoles:        "/api/auth/roles",
		ForgotPassword:     "/api/auth/forgot-password",
		ResetPassword:      "/api/auth/reset-password",
		ValidateResetToken: "/api/auth/validate-reset-token",
	}
}

// AuthController exposes AuthService over HTTP. It expects a role guard
// middleware in front of protected routes to store AuthClaims under
// ContextKey.
type AuthController struct {
	Service    *AuthService
	Logger     Logger
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = normalizeLogger(logger)
		return c
	}
}

// WithControllerRoutes overrides the mounted paths
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// WithControllerContextKey sets the context store key the guard puts claims under
func WithControllerContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func NewAuthController(service *AuthService, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Service:    service,
		Logger:     defLogger(),
		Routes:     DefaultAuthControllerRoutes(),
		ContextKey: DefaultContextKey,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing AuthService in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the controller. authenticated guards routes
// any signed in user may call, admin guards the administrative ones.
func RegisterAuthRoutes[T any](app router.Router[T], c *AuthController, authenticated, admin router.MiddlewareFunc) {
	app.Post(c.Routes.Login, c.Login).SetName("auth.login")
	app.Post(c.Routes.ForgotPassword, c.ForgotPassword).SetName("auth.forgot-password")
	app.Post(c.Routes.ResetPassword, c.ResetPassword).SetName("auth.reset-password")
	app.Get(c.Routes.ValidateResetToken, c.ValidateResetToken).SetName("auth.validate-reset-token")

	app.Post(c.Routes.ChangePassword, authenticated(c.ChangePassword)).SetName("auth.change-password")
	app.Get(c.Routes.LoadProfile, authenticated(c.LoadProfile)).SetName("auth.profile.get")
	app.Put(c.Routes.UpdateProfile, authenticated(c.UpdateProfile)).SetName("auth.profile.put")

	app.Post(c.Routes.Register, admin(c.Register)).SetName("auth.register")
	app.Put(c.Routes.AssignRoles, admin(c.AssignRoles)).SetName("auth.roles.put")
	app.Delete(c.Routes.DeleteUser, admin(c.DeleteUser)).SetName("auth.user.delete")
}

func (c *AuthController) Register(ctx router.Context) error {
	claims, ok := c.claims(ctx)
	if !ok {
		return c.unauthenticated(ctx)
	}

	var req RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}

	out := c.Service.Register(ctx.Context(), req, registrarFromClaims(claims))
	return respond(ctx, out, http.StatusCreated)
}

func (c *AuthController) Login(ctx router.Context) error {
	var req LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}
	return respond(ctx, c.Service.Login(ctx.Context(), req), http.StatusOK)
}

func (c *AuthController) ChangePassword(ctx router.Context) error {
	claims, ok := c.claims(ctx)
	if !ok {
		return c.unauthenticated(ctx)
	}

	var req ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}

	out := c.Service.ChangePassword(ctx.Context(), claims.UserID(), req)
	return respond(ctx, out, http.StatusAccepted)
}

func (c *AuthController) LoadProfile(ctx router.Context) error {
	claims, ok := c.claims(ctx)
	if !ok {
		return c.unauthenticated(ctx)
	}
	return respond(ctx, c.Service.LoadProfile(ctx.Context(), claims.UserID()), http.StatusOK)
}

func (c *AuthController) UpdateProfile(ctx router.Context) error {
	claims, ok := c.claims(ctx)
	if !ok {
		return c.unauthenticated(ctx)
	}

	var req UpdateProfileRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}

	out := c.Service.UpdateProfile(ctx.Context(), claims.UserID(), req)
	return respond(ctx, out, http.StatusAccepted)
}

func (c *AuthController) DeleteUser(ctx router.Context) error {
	claims, ok := c.claims(ctx)
	if !ok {
		return c.unauthenticated(ctx)
	}

	userID := ctx.Query("userId", "")
	return respond(ctx, c.Service.DeleteUser(ctx.Context(), userID, claims.UserID()), http.StatusOK)
}

func (c *AuthController) AssignRoles(ctx router.Context) error {
	claims, ok := c.claims(ctx)
	if !ok {
		return c.unauthenticated(ctx)
	}

	var req AssignRolesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}

	return respond(ctx, c.Service.AssignRoles(ctx.Context(), req, claims.UserID()), http.StatusOK)
}

func (c *AuthController) ForgotPassword(ctx router.Context) error {
	var req ForgotPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}
	return respond(ctx, c.Service.ForgotPassword(ctx.Context(), req), http.StatusOK)
}

func (c *AuthController) ResetPassword(ctx router.Context) error {
	var req ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badPayload(ctx, err)
	}
	return respond(ctx, c.Service.ResetPassword(ctx.Context(), req), http.StatusOK)
}

func (c *AuthController) ValidateResetToken(ctx router.Context) error {
	out := c.Service.ValidateResetToken(ctx.Context(),
		ctx.Query(resetPasswordEmailParam, ""),
		ctx.Query(resetPasswordTokenParam, ""),
	)
	return respond(ctx, out, http.StatusOK)
}

func (c *AuthController) claims(ctx router.Context) (AuthClaims, bool) {
	return GetRouterClaims(ctx, c.ContextKey)
}

func (c *AuthController) unauthenticated(ctx router.Context) error {
	return respond(ctx, FailWith[UserInfo](ErrInvalidToken, MsgNotAuthenticated), http.StatusOK)
}

func (c *AuthController) badPayload(ctx router.Context, err error) error {
	c.Logger.Debug("auth controller could not bind payload", "error", err)
	return ctx.JSON(http.StatusBadRequest, ValidationFailure[UserInfo]("invalid request payload"))
}

// registrarFromClaims builds the acting admin from its token. Only the
// id and email are known.
func registrarFromClaims(claims AuthClaims) *User {
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil
	}
	return &User{ID: id, Email: claims.Email(), Roles: claims.RoleMask()}
}

func respond[T any](ctx router.Context, out ServiceOutcome[T], success int) error {
	return ctx.JSON(OutcomeStatus(out, success), out)
}

// OutcomeStatus maps an outcome to an HTTP status code. Failures are
// classified by their cause; outcomes without one are bad requests.
func OutcomeStatus[T any](out ServiceOutcome[T], success int) int {
	if out.Success {
		return success
	}

	var richErr *goerrors.Error
	if !goerrors.As(out.Err(), &richErr) {
		return http.StatusBadRequest
	}
	if richErr.Code != 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryOperation:
		return http.StatusServiceUnavailable
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
