package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/halitm/tenant-notes/internal/middleware"
	"github.com/halitm/tenant-notes/internal/quota"
	"github.com/halitm/tenant-notes/internal/queue"
	"github.com/halitm/tenant-notes/internal/repository"
)

// NoteHandler implements the note CRUD endpoints. Every operation scopes
// its queries by the tenant id from the verified token; client-supplied
// tenant identifiers are never consulted.
type NoteHandler struct {
	Notes NoteStore
	Audit AuditPublisher // nil disables audit events
}

func NewNoteHandler(notes NoteStore, aud AuditPublisher) *NoteHandler {
	return &NoteHandler{Notes: notes, Audit: aud}
}

type noteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r noteReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Content, validation.Required, validation.Length(1, 20000)),
	)
}

// bindNoteReq binds and validates the shared create/update payload.
func bindNoteReq(c echo.Context) (noteReq, bool) {
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return req, false
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		return req, false
	}
	return req, true
}

func noteID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// List handles GET /notes: all notes in the caller's tenant, newest first.
func (h *NoteHandler) List(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	notes, err := h.Notes.ListByTenant(ctx, ident.TenantID)
	if err != nil {
		c.Logger().Errorf("notes: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch notes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notes": notes})
}

// Get handles GET /notes/:id. A note in another tenant yields the same 404
// as a nonexistent id so cross-tenant existence never leaks.
func (h *NoteHandler) Get(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	note, err := h.Notes.GetByIDAndTenant(ctx, id, ident.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		c.Logger().Errorf("notes: get failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch note"})
	}
	return c.JSON(http.StatusOK, echo.Map{"note": note})
}

// Create handles POST /notes. Tenant and author are forced from the
// caller's identity; the insert is quota-checked atomically against the
// tenant's current note count.
func (h *NoteHandler) Create(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req, ok := bindNoteReq(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and content are required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	note, err := h.Notes.CreateWithQuota(ctx, ident.TenantID, ident.UserID, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, quota.ErrLimitReached) {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "Note limit reached. Upgrade to Pro for unlimited notes.",
				"code":  "LIMIT_REACHED",
			})
		}
		if errors.Is(err, repository.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		c.Logger().Errorf("notes: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create note"})
	}

	// Best-effort audit event; a broker outage must not fail the request.
	if h.Audit != nil {
		_ = h.Audit.NoteCreated(ctx, queue.NoteCreatedEvent{
			NoteID:     note.ID,
			TenantID:   note.TenantID,
			TenantSlug: ident.TenantSlug,
			AuthorID:   note.AuthorID,
			Title:      note.Title,
			CreatedAt:  note.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{"note": note})
}

// Update handles PUT /notes/:id.
func (h *NoteHandler) Update(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}
	req, ok := bindNoteReq(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and content are required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	note, err := h.Notes.UpdateByIDAndTenant(ctx, id, ident.TenantID, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		c.Logger().Errorf("notes: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update note"})
	}
	return c.JSON(http.StatusOK, echo.Map{"note": note})
}

// Delete handles DELETE /notes/:id. Deleting twice yields 404 the second
// time; a concurrent delete is indistinguishable from that.
func (h *NoteHandler) Delete(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Notes.DeleteByIDAndTenant(ctx, id, ident.TenantID); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		c.Logger().Errorf("notes: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete note"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Note deleted successfully"})
}
