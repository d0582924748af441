package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Tenant mirrors the 'tenants' table. Slug is unique and human-readable;
// Plan is FREE or PRO. Tenants are created out-of-band and never deleted by
// any exposed operation; the only mutation is the FREE -> PRO upgrade.
type Tenant struct {
	ID        uint64    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// GetByID fetches a tenant by id.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (*Tenant, error) {
	var t Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,slug,name,plan,created_at,updated_at FROM tenants WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Slug, &t.Name, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetBySlug fetches a tenant by its unique slug.
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	var t Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,slug,name,plan,created_at,updated_at FROM tenants WHERE slug=? LIMIT 1",
		slug).Scan(&t.ID, &t.Slug, &t.Name, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// UpgradeToPro flips a tenant's plan from FREE to PRO and returns the
// updated row. The plan='FREE' predicate makes the transition one-shot
// under concurrent upgrades; zero rows affected means the tenant is either
// missing or already PRO, which the caller distinguishes via GetBySlug.
func (r *TenantRepo) UpgradeToPro(ctx context.Context, slug string) (*Tenant, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET plan='PRO', updated_at=CURRENT_TIMESTAMP WHERE slug=? AND plan='FREE'",
		slug)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}
	return r.GetBySlug(ctx, slug)
}
