// Package middleware provides the authorization gate: composable Echo
// middleware that authenticates requests, checks roles, and asserts tenant
// membership before a handler runs. Handlers must take the caller's tenant
// from the identity injected here and never from client-supplied input.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/halitm/tenant-notes/internal/auth"
)

// identityKey is the context key under which RequireAuth stores the
// verified identity.
const identityKey = "identity"

// RequireAuth returns middleware that extracts a bearer token from the
// Authorization header, verifies it, and injects the decoded identity into
// the request context. Missing, malformed, invalid, expired and revoked
// tokens all produce the same 401 so that callers cannot probe which check
// failed. deny may be nil.
func RequireAuth(secret string, deny *auth.Denylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid authorization header"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			ident, err := auth.VerifyToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			if deny.IsRevoked(c.Request().Context(), ident.TokenID) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by RequireAuth. The second
// return is false when the middleware did not run for this request.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	ident, ok := c.Get(identityKey).(auth.Identity)
	return ident, ok
}
