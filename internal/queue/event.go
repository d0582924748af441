// Package queue defines the audit event payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// AuditQueueName is the durable queue carrying audit events.
const AuditQueueName = "notes.audit"

// NoteCreatedEvent is published after a note insert commits. It carries
// enough for downstream consumers to log or bill without querying the
// primary database.
type NoteCreatedEvent struct {
	NoteID     uint64 `json:"note_id"`
	TenantID   uint64 `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	AuthorID   uint64 `json:"author_id"`
	Title      string `json:"title"`
	CreatedAt  string `json:"created_at"`
}

// TenantUpgradedEvent is published when a tenant moves from FREE to PRO.
type TenantUpgradedEvent struct {
	TenantID   uint64 `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	Plan       string `json:"plan"`
	UpgradedBy uint64 `json:"upgraded_by"`
	UpgradedAt string `json:"upgraded_at"`
}

// Envelope wraps every published event with its kind so the consumer can
// dispatch without sniffing fields.
type Envelope struct {
	Kind    string `json:"kind"` // "note.created" | "tenant.upgraded"
	Payload any    `json:"payload"`
}
