package handler

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/halitm/tenant-notes/internal/quota"
	"github.com/halitm/tenant-notes/internal/repository"
)

// fakeStore implements NoteStore and TenantStore in memory. It mirrors the
// repository contracts: tenant-mismatched and missing notes are the same
// ErrNoteNotFound, the quota check and insert happen under one lock the way
// the real store serializes them in a transaction, and UpgradeToPro only
// transitions FREE tenants.
type fakeStore struct {
	mu      sync.Mutex
	nextID  uint64
	notes   map[uint64]*repository.Note
	tenants map[uint64]*repository.Tenant
	authors map[uint64]repository.AuthorSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		notes:   make(map[uint64]*repository.Note),
		tenants: make(map[uint64]*repository.Tenant),
		authors: make(map[uint64]repository.AuthorSummary),
	}
}

func (s *fakeStore) addTenant(id uint64, slug, plan string) {
	s.tenants[id] = &repository.Tenant{ID: id, Slug: slug, Name: slug, Plan: plan}
}

func (s *fakeStore) addAuthor(id uint64, name, email string) {
	s.authors[id] = repository.AuthorSummary{ID: id, Name: name, Email: email}
}

func (s *fakeStore) noteCount(tenantID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, note := range s.notes {
		if note.TenantID == tenantID {
			n++
		}
	}
	return n
}

func (s *fakeStore) ListByTenant(_ context.Context, tenantID uint64) ([]*repository.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*repository.Note, 0)
	for _, note := range s.notes {
		if note.TenantID == tenantID {
			cp := *note
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) GetByIDAndTenant(_ context.Context, id, tenantID uint64) (*repository.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok || note.TenantID != tenantID {
		return nil, repository.ErrNoteNotFound
	}
	cp := *note
	return &cp, nil
}

func (s *fakeStore) CreateWithQuota(_ context.Context, tenantID, authorID uint64, title, content string) (*repository.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, repository.ErrTenantNotFound
	}
	count := 0
	for _, note := range s.notes {
		if note.TenantID == tenantID {
			count++
		}
	}
	if err := quota.CanCreateNote(tenant.Plan, count); err != nil {
		return nil, err
	}
	s.nextID++
	now := time.Now().UTC()
	note := &repository.Note{
		ID: s.nextID, Title: title, Content: content,
		TenantID: tenantID, AuthorID: authorID,
		CreatedAt: now, UpdatedAt: now,
		Author: s.authors[authorID],
	}
	s.notes[note.ID] = note
	cp := *note
	return &cp, nil
}

func (s *fakeStore) UpdateByIDAndTenant(_ context.Context, id, tenantID uint64, title, content string) (*repository.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok || note.TenantID != tenantID {
		return nil, repository.ErrNoteNotFound
	}
	note.Title = title
	note.Content = content
	note.UpdatedAt = time.Now().UTC()
	cp := *note
	return &cp, nil
}

func (s *fakeStore) DeleteByIDAndTenant(_ context.Context, id, tenantID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok || note.TenantID != tenantID {
		return repository.ErrNoteNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (*repository.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[id]
	if !ok {
		return nil, repository.ErrTenantNotFound
	}
	cp := *tenant
	return &cp, nil
}

func (s *fakeStore) GetBySlug(_ context.Context, slug string) (*repository.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tenant := range s.tenants {
		if tenant.Slug == slug {
			cp := *tenant
			return &cp, nil
		}
	}
	return nil, repository.ErrTenantNotFound
}

func (s *fakeStore) UpgradeToPro(_ context.Context, slug string) (*repository.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tenant := range s.tenants {
		if tenant.Slug == slug {
			if tenant.Plan != quota.PlanFree {
				return nil, sql.ErrNoRows
			}
			tenant.Plan = quota.PlanPro
			cp := *tenant
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}
