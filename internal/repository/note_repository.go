package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/halitm/tenant-notes/internal/quota"
)

// AuthorSummary is the subset of a user embedded in note responses. The
// password hash never leaves the repository layer.
type AuthorSummary struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Note mirrors the 'notes' table plus the joined author summary. A note's
// tenant always equals its author's tenant: Create forces both from the
// caller's verified identity.
type Note struct {
	ID        uint64        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	TenantID  uint64        `json:"tenantId"`
	AuthorID  uint64        `json:"authorId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Author    AuthorSummary `json:"author"`
}

type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

const noteColumns = `n.id, n.title, n.content, n.tenant_id, n.author_id,
	n.created_at, n.updated_at, u.id, u.name, u.email`

func scanNote(row interface{ Scan(...any) error }) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.TenantID, &n.AuthorID,
		&n.CreatedAt, &n.UpdatedAt, &n.Author.ID, &n.Author.Name, &n.Author.Email)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByTenant returns all notes owned by a tenant, newest first.
func (r *NoteRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]*Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+noteColumns+`
		 FROM notes n
		 JOIN users u ON u.id = n.author_id
		 WHERE n.tenant_id = ?
		 ORDER BY n.created_at DESC, n.id DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndTenant returns a note only if it belongs to the given tenant.
// ErrNoteNotFound covers both a missing row and a row in another tenant.
func (r *NoteRepo) GetByIDAndTenant(ctx context.Context, id, tenantID uint64) (*Note, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx,
		`SELECT `+noteColumns+`
		 FROM notes n
		 JOIN users u ON u.id = n.author_id
		 WHERE n.id = ? AND n.tenant_id = ?`,
		id, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return n, nil
}

// CreateWithQuota inserts a note after checking the tenant's plan limit.
// The whole sequence runs in one transaction that first locks the tenant
// row with SELECT ... FOR UPDATE: the lock serializes concurrent creators
// in the same tenant, so the count the quota policy sees cannot go stale
// between the read and the insert and a FREE tenant can never end up over
// its limit. Returns quota.ErrLimitReached when the policy denies, or
// ErrTenantNotFound when the tenant row is gone.
func (r *NoteRepo) CreateWithQuota(ctx context.Context, tenantID, authorID uint64, title, content string) (*Note, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var plan string
	err = tx.QueryRowContext(ctx,
		"SELECT plan FROM tenants WHERE id = ? FOR UPDATE", tenantID).Scan(&plan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrTenantNotFound
		}
		return nil, err
	}

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notes WHERE tenant_id = ?", tenantID).Scan(&count)
	if err != nil {
		return nil, err
	}
	if err = quota.CanCreateNote(plan, count); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO notes (title, content, tenant_id, author_id) VALUES (?,?,?,?)",
		title, content, tenantID, authorID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	// Read the row back inside the transaction to pick up DB timestamps.
	n, err := scanNote(tx.QueryRowContext(ctx,
		`SELECT `+noteColumns+`
		 FROM notes n
		 JOIN users u ON u.id = n.author_id
		 WHERE n.id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return n, nil
}

// UpdateByIDAndTenant updates a note's title and content and refreshes the
// updated timestamp, provided the note belongs to the tenant. A concurrent
// delete simply surfaces as ErrNoteNotFound. The RowsAffected check relies
// on clientFoundRows in the DSN (see database.Open): it counts matched
// rows, so rewriting a note with identical values still reports 1.
func (r *NoteRepo) UpdateByIDAndTenant(ctx context.Context, id, tenantID uint64, title, content string) (*Note, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ?`,
		title, content, id, tenantID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNoteNotFound
	}
	return r.GetByIDAndTenant(ctx, id, tenantID)
}

// DeleteByIDAndTenant removes a note, provided it belongs to the tenant.
func (r *NoteRepo) DeleteByIDAndTenant(ctx context.Context, id, tenantID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM notes WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoteNotFound
	}
	return nil
}
