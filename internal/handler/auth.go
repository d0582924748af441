package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/halitm/tenant-notes/internal/auth"
	"github.com/halitm/tenant-notes/internal/config"
	"github.com/halitm/tenant-notes/internal/middleware"
	"github.com/halitm/tenant-notes/internal/repository"
)

// AuthHandler bundles dependencies for login, logout and identity lookup.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Denylist *auth.Denylist
}

func NewAuthHandler(cfg config.Config, users UserStore, deny *auth.Denylist) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Denylist: deny}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type userPart struct {
	ID         uint64 `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	TenantID   uint64 `json:"tenantId"`
	TenantSlug string `json:"tenantSlug"`
}

type loginResp struct {
	User  userPart `json:"user"`
	Token string   `json:"token"`
}

// Login verifies credentials and issues a session token carrying the user's
// identity and tenant membership. Unknown email and wrong password produce
// the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		c.Logger().Errorf("login: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, _, err := auth.IssueToken(h.Cfg.JWTSecret, auth.Identity{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		TenantID:   u.TenantID,
		TenantSlug: u.TenantSlug,
	}, h.Cfg.TokenTTL)
	if err != nil {
		c.Logger().Errorf("login: issue token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, loginResp{
		User: userPart{
			ID:         u.ID,
			Email:      u.Email,
			Name:       u.Name,
			Role:       u.Role,
			TenantID:   u.TenantID,
			TenantSlug: u.TenantSlug,
		},
		Token: token,
	})
}

// Logout denylists the caller's token id for the token's remaining
// validity, terminating the session before expiry. Without Redis the
// denylist is inert and the token simply runs out its 24 hours.
func (h *AuthHandler) Logout(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ttl := time.Until(ident.ExpiresAt)
	if err := h.Denylist.Revoke(c.Request().Context(), ident.TokenID, ttl); err != nil {
		c.Logger().Errorf("logout: denylist failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's verified identity.
func (h *AuthHandler) Me(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": userPart{
			ID:         ident.UserID,
			Email:      ident.Email,
			Role:       ident.Role,
			TenantID:   ident.TenantID,
			TenantSlug: ident.TenantSlug,
		},
	})
}
