package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/halitm/tenant-notes/internal/middleware"
	"github.com/halitm/tenant-notes/internal/quota"
	"github.com/halitm/tenant-notes/internal/queue"
	"github.com/halitm/tenant-notes/internal/repository"
)

// TenantHandler implements the upgrade endpoint and the authoritative
// tenant info endpoint.
type TenantHandler struct {
	Tenants TenantStore
	Audit   AuditPublisher // nil disables audit events
}

func NewTenantHandler(tenants TenantStore, aud AuditPublisher) *TenantHandler {
	return &TenantHandler{Tenants: tenants, Audit: aud}
}

// Upgrade handles POST /tenants/:slug/upgrade. The route is admin-only via
// RequireRole; on top of that an admin may only upgrade their own tenant,
// so the path slug must match the slug in the caller's token.
func (h *TenantHandler) Upgrade(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	slug := c.Param("slug")
	if ident.TenantSlug != slug {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only upgrade your own tenant"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tenant, err := h.Tenants.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		c.Logger().Errorf("tenants: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upgrade tenant"})
	}
	if tenant.Plan == quota.PlanPro {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant is already on Pro plan"})
	}

	updated, err := h.Tenants.UpgradeToPro(ctx, slug)
	if err != nil {
		// The FREE precondition failed between the read and the update;
		// treat it the same as finding the tenant already on PRO.
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant is already on Pro plan"})
		}
		c.Logger().Errorf("tenants: upgrade failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upgrade tenant"})
	}

	if h.Audit != nil {
		_ = h.Audit.TenantUpgraded(ctx, queue.TenantUpgradedEvent{
			TenantID:   updated.ID,
			TenantSlug: updated.Slug,
			Plan:       updated.Plan,
			UpgradedBy: ident.UserID,
			UpgradedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant upgraded to Pro successfully",
		"tenant":  updated,
	})
}

// Me handles GET /tenants/me: the caller's tenant served from the store.
// The client must not derive plan or display name from the slug; this
// endpoint is the authoritative source.
func (h *TenantHandler) Me(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tenant, err := h.Tenants.GetByID(ctx, ident.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		c.Logger().Errorf("tenants: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tenant"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant})
}
