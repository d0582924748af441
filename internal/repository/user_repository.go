package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// User mirrors the 'users' table. Every user belongs to exactly one tenant.
type User struct {
	ID           uint64
	Email        string
	Name         string
	PasswordHash string
	Role         string // ADMIN | MEMBER
	TenantID     uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserWithTenant joins a user with its tenant, which login needs to embed
// the tenant slug into the issued token.
type UserWithTenant struct {
	User
	TenantSlug string
	TenantPlan string
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByEmail fetches a user by normalized email together with its tenant.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*UserWithTenant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u UserWithTenant
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.name, u.password_hash, u.role, u.tenant_id,
		        u.created_at, u.updated_at, t.slug, t.plan
		 FROM users u
		 JOIN tenants t ON t.id = u.tenant_id
		 WHERE u.email=? LIMIT 1`,
		email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.TenantID,
		&u.CreatedAt, &u.UpdatedAt, &u.TenantSlug, &u.TenantPlan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,name,password_hash,role,tenant_id,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.TenantID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
