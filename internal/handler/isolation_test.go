package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/halitm/tenant-notes/internal/auth"
	"github.com/halitm/tenant-notes/internal/middleware"
	"github.com/halitm/tenant-notes/internal/quota"
	"github.com/halitm/tenant-notes/internal/repository"
)

// serverWith wires the tenant-scoped routes against the given store, the
// same composition router.Register uses.
func serverWith(store *fakeStore) *echo.Echo {
	e := echo.New()
	n := NewNoteHandler(store, nil)
	th := NewTenantHandler(store, nil)
	requireAuth := middleware.RequireAuth(testSecret, nil)

	notes := e.Group("/notes", requireAuth, middleware.RequireTenant())
	notes.GET("", n.List)
	notes.POST("", n.Create)
	notes.GET("/:id", n.Get)
	notes.PUT("/:id", n.Update)
	notes.DELETE("/:id", n.Delete)

	e.GET("/tenants/me", th.Me, requireAuth, middleware.RequireTenant())
	e.POST("/tenants/:slug/upgrade", th.Upgrade, requireAuth, middleware.RequireRole("ADMIN"))
	return e
}

// seeded returns a store with two FREE tenants and a user in each, plus an
// admin in the first.
func seeded() *fakeStore {
	s := newFakeStore()
	s.addTenant(1, "acme", quota.PlanFree)
	s.addTenant(2, "globex", quota.PlanFree)
	s.addAuthor(1, "Ada", "ada@acme.test")
	s.addAuthor(2, "Bob", "bob@globex.test")
	s.addAuthor(3, "Eve", "eve@acme.test")
	return s
}

func identToken(t *testing.T, userID uint64, role string, tenantID uint64, slug string) string {
	t.Helper()
	token, _, err := auth.IssueToken(testSecret, auth.Identity{
		UserID: userID, Role: role, TenantID: tenantID, TenantSlug: slug,
	}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

func decodeNote(t *testing.T, body []byte) repository.Note {
	t.Helper()
	var resp struct {
		Note repository.Note `json:"note"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode note: %v (body: %s)", err, body)
	}
	return resp.Note
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	store := seeded()
	e := serverWith(store)
	u1 := identToken(t, 1, "MEMBER", 1, "acme")
	u2 := identToken(t, 2, "MEMBER", 2, "globex")

	rec := doJSON(e, http.MethodPost, "/notes", u1, `{"title":"secret","content":"acme only"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	note := decodeNote(t, rec.Body.Bytes())
	path := fmt.Sprintf("/notes/%d", note.ID)

	// A valid token from another tenant must see the same 404 as a
	// nonexistent id, on every verb.
	if rec := doJSON(e, http.MethodGet, path, u2, ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign get: status = %d, want 404", rec.Code)
	}
	if rec := doJSON(e, http.MethodPut, path, u2, `{"title":"x","content":"y"}`); rec.Code != http.StatusNotFound {
		t.Errorf("foreign update: status = %d, want 404", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, path, u2, ""); rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status = %d, want 404", rec.Code)
	}
	if store.noteCount(1) != 1 {
		t.Fatal("foreign requests mutated the owning tenant's notes")
	}

	// The owner still reaches the note.
	if rec := doJSON(e, http.MethodGet, path, u1, ""); rec.Code != http.StatusOK {
		t.Errorf("owner get: status = %d, want 200", rec.Code)
	}
	// A genuinely nonexistent id yields the identical status.
	if rec := doJSON(e, http.MethodGet, "/notes/9999", u1, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing get: status = %d, want 404", rec.Code)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	store := seeded()
	e := serverWith(store)
	u1 := identToken(t, 1, "MEMBER", 1, "acme")

	rec := doJSON(e, http.MethodPost, "/notes", u1, `{"title":"A","content":"B"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	created := decodeNote(t, rec.Body.Bytes())

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/notes/%d", created.ID), u1, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	got := decodeNote(t, rec.Body.Bytes())
	if got.Title != "A" || got.Content != "B" {
		t.Fatalf("round trip: got title=%q content=%q", got.Title, got.Content)
	}
	if got.Author.ID != 1 || got.Author.Email != "ada@acme.test" {
		t.Fatalf("author = %+v, want caller's summary", got.Author)
	}
}

func TestFreePlanLimitAndUpgrade(t *testing.T) {
	store := seeded()
	e := serverWith(store)
	member := identToken(t, 1, "MEMBER", 1, "acme")
	admin := identToken(t, 3, "ADMIN", 1, "acme")

	for i := 0; i < quota.FreeNoteLimit; i++ {
		rec := doJSON(e, http.MethodPost, "/notes", member, `{"title":"n","content":"c"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d: status = %d", i, rec.Code)
		}
	}

	// At the limit: denied with the LIMIT_REACHED code and no row added.
	rec := doJSON(e, http.MethodPost, "/notes", member, `{"title":"n","content":"c"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("over limit: status = %d, want 403", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp["code"] != "LIMIT_REACHED" {
		t.Fatalf("code = %q, want LIMIT_REACHED", resp["code"])
	}
	if store.noteCount(1) != quota.FreeNoteLimit {
		t.Fatalf("note count = %d, want %d", store.noteCount(1), quota.FreeNoteLimit)
	}

	// Upgrade by the tenant's own admin, then creation succeeds again.
	rec = doJSON(e, http.MethodPost, "/tenants/acme/upgrade", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("upgrade: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(e, http.MethodPost, "/notes", member, `{"title":"n","content":"c"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post-upgrade create: status = %d", rec.Code)
	}

	// A second upgrade of the same tenant is a 400: already PRO.
	rec = doJSON(e, http.MethodPost, "/tenants/acme/upgrade", admin, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("repeat upgrade: status = %d, want 400", rec.Code)
	}
}

func TestDeleteTwice(t *testing.T) {
	store := seeded()
	e := serverWith(store)
	u1 := identToken(t, 1, "MEMBER", 1, "acme")

	rec := doJSON(e, http.MethodPost, "/notes", u1, `{"title":"gone","content":"soon"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	path := fmt.Sprintf("/notes/%d", decodeNote(t, rec.Body.Bytes()).ID)

	if rec := doJSON(e, http.MethodDelete, path, u1, ""); rec.Code != http.StatusOK {
		t.Fatalf("first delete: status = %d, want 200", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, path, u1, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestUpdateRetrySameContent(t *testing.T) {
	// An idempotent retry that rewrites identical values must still be a
	// 200, not a 404: the note exists in the caller's tenant either way.
	store := seeded()
	e := serverWith(store)
	u1 := identToken(t, 1, "MEMBER", 1, "acme")

	rec := doJSON(e, http.MethodPost, "/notes", u1, `{"title":"t","content":"c"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	path := fmt.Sprintf("/notes/%d", decodeNote(t, rec.Body.Bytes()).ID)

	for i := 0; i < 2; i++ {
		rec := doJSON(e, http.MethodPut, path, u1, `{"title":"t","content":"c"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("update attempt %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}
