// Package router wires HTTP routes to handlers and composes the
// authorization gate around them. Route shapes follow the external
// contract: /login, /notes, /notes/:id, /tenants/:slug/upgrade.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/halitm/tenant-notes/internal/auth"
	"github.com/halitm/tenant-notes/internal/config"
	"github.com/halitm/tenant-notes/internal/handler"
	"github.com/halitm/tenant-notes/internal/middleware"
)

// Register attaches all routes to the Echo instance. rdb may be nil;
// the login rate limiter and logout denylist then degrade to no-ops.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, deny *auth.Denylist,
	a *handler.AuthHandler, n *handler.NoteHandler, t *handler.TenantHandler) {

	requireAuth := middleware.RequireAuth(cfg.JWTSecret, deny)

	e.GET("/healthz", handler.Health)
	e.POST("/login", a.Login, middleware.LoginRateLimit(rdb, cfg.LoginRateLimit, cfg.LoginRateWin))
	e.POST("/logout", a.Logout, requireAuth)
	e.GET("/me", a.Me, requireAuth)

	// Note CRUD: authenticated and tenant-scoped. RequireTenant is
	// defense-in-depth on top of the tenant filter in every query.
	notes := e.Group("/notes", requireAuth, middleware.RequireTenant())
	notes.GET("", n.List)
	notes.POST("", n.Create)
	notes.GET("/:id", n.Get)
	notes.PUT("/:id", n.Update)
	notes.DELETE("/:id", n.Delete)

	// Tenant endpoints. Upgrade additionally checks in-handler that the
	// path slug is the caller's own tenant.
	e.GET("/tenants/me", t.Me, requireAuth, middleware.RequireTenant())
	e.POST("/tenants/:slug/upgrade", t.Upgrade, requireAuth, middleware.RequireRole("ADMIN"))
}
