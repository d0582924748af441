// Package repository contains the data access layer. Every note query is
// filtered by tenant id taken from the verified token: a note's id alone is
// never sufficient to reach a row, so cross-tenant reads, updates and
// deletes surface as "not found" exactly like true non-existence.
package repository

import "errors"

// ErrNoteNotFound is returned when a note does not exist in the caller's
// tenant. Absent and cross-tenant rows are deliberately indistinguishable;
// handlers translate both to the same 404.
var ErrNoteNotFound = errors.New("note not found")

// ErrTenantNotFound is returned when a tenant cannot be found by id or slug.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrUserNotFound is returned when a user cannot be found.
var ErrUserNotFound = errors.New("user not found")
