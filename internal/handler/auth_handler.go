package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tuition/internal/access"
	"tuition/internal/auth"
	"tuition/internal/errors"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/service"
)

// AuthHandler handles login, logout and session introspection.
type AuthHandler struct {
	directory  service.DirectoryService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	guard      *access.Guard
	log        logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(directory service.DirectoryService, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, guard *access.Guard, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		directory:  directory,
		jwtService: jwtService,
		tokenStore: tokenStore,
		guard:      guard,
		log:        log,
	}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	User      *model.User `json:"user"`
	State     string      `json:"state"`
	IsLoading bool        `json:"is_loading"`
	IsAdmin   bool        `json:"is_admin"`
	CanAccess bool        `json:"can_access"`
}

// AccessResponse is the guard decision for a page.
type AccessResponse struct {
	Path     string `json:"path"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// Login godoc
// @Summary Login user
// @Description Email is matched case-insensitively. Blocked accounts are reported separately from wrong credentials.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.directory.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(err)
	}

	_, token, err := h.jwtService.GenerateAccessToken(*user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "failed to login",
			Code:  "LOGIN_FAILED",
		})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken: token,
		User:        user,
	})
}

// Logout godoc
// @Summary Logout
// @Description Clears the session and revokes the presented access token.
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	claims, ok := ClaimsFrom(c)
	if !ok {
		return unauthenticated()
	}
	revoked, err := h.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
	if err != nil || revoked {
		return unauthenticated()
	}

	if claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := h.tokenStore.BlacklistAccessToken(ctx, claims.ID, ttl); err != nil {
			h.log.Warn("revoke access token", "user_id", claims.UserID, "err", err)
		}
	}

	// A token that outlived its session is revoked without touching the
	// session now held by someone else.
	cleared, err := h.directory.LogoutUser(ctx, claims.UserID)
	if err != nil {
		return respondError(err)
	}
	if !cleared {
		h.log.Info("logout with superseded token", "user_id", claims.UserID)
	}
	return c.NoContent(http.StatusNoContent)
}

// Session godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	session := h.directory.Session()
	return c.JSON(http.StatusOK, SessionResponse{
		User:      session,
		State:     access.StateOf(session).String(),
		IsLoading: h.directory.IsLoading(),
		IsAdmin:   h.directory.IsAdmin(),
		CanAccess: h.directory.CanAccessAdminFeatures(),
	})
}

// Access godoc
// @Summary Page access decision
// @Description Tells the client whether the current session may view a page, and where to redirect otherwise.
// @Tags auth
// @Produce json
// @Param path query string true "Page path"
// @Success 200 {object} AccessResponse
// @Router /access [get]
func (h *AuthHandler) Access(c echo.Context) error {
	path := c.QueryParam("path")
	d := h.guard.Check(path, h.directory.Session())
	return c.JSON(http.StatusOK, AccessResponse{
		Path:     path,
		Allowed:  d.Allowed,
		Redirect: d.Redirect,
	})
}

// ClaimsContextKey is where the JWT middleware stores the parsed claims.
const ClaimsContextKey = "user"

// ClaimsFrom returns the claims the JWT middleware stored on the request.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	return claims, ok
}
