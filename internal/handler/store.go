package handler

import (
	"context"

	"github.com/halitm/tenant-notes/internal/queue"
	"github.com/halitm/tenant-notes/internal/repository"
)

// The handlers consume narrow store interfaces rather than the concrete
// repositories so that the tenant-isolation and quota contracts can be
// exercised with an in-memory implementation. The repository types satisfy
// these interfaces; nothing else in the module implements them outside
// tests.

// NoteStore is the subset of the note repository the note handlers need.
type NoteStore interface {
	ListByTenant(ctx context.Context, tenantID uint64) ([]*repository.Note, error)
	GetByIDAndTenant(ctx context.Context, id, tenantID uint64) (*repository.Note, error)
	CreateWithQuota(ctx context.Context, tenantID, authorID uint64, title, content string) (*repository.Note, error)
	UpdateByIDAndTenant(ctx context.Context, id, tenantID uint64, title, content string) (*repository.Note, error)
	DeleteByIDAndTenant(ctx context.Context, id, tenantID uint64) error
}

// TenantStore is the subset of the tenant repository the tenant handlers need.
type TenantStore interface {
	GetByID(ctx context.Context, id uint64) (*repository.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*repository.Tenant, error)
	UpgradeToPro(ctx context.Context, slug string) (*repository.Tenant, error)
}

// UserStore is the subset of the user repository the auth handler needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*repository.UserWithTenant, error)
}

// AuditPublisher receives domain events after a mutation commits. A nil
// publisher disables auditing; failures are ignored by callers either way.
type AuditPublisher interface {
	NoteCreated(ctx context.Context, ev queue.NoteCreatedEvent) error
	TenantUpgraded(ctx context.Context, ev queue.TenantUpgradedEvent) error
}
