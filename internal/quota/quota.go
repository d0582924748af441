// Package quota holds the plan-based resource limit policy. It is pure
// decision logic: the caller supplies the tenant's plan and current note
// count, and must make that read atomic with the subsequent insert (the
// note repository does this by locking the tenant row in a transaction).
package quota

import "errors"

// Plans a tenant can be on.
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
)

// FreeNoteLimit is the maximum number of notes a FREE tenant may hold.
const FreeNoteLimit = 3

// ErrLimitReached is returned when a FREE tenant is at its note limit.
// Handlers translate it to 403 with code LIMIT_REACHED.
var ErrLimitReached = errors.New("note limit reached")

// CanCreateNote decides whether a tenant on the given plan with the given
// current note count may create another note.
func CanCreateNote(plan string, count int) error {
	if plan == PlanFree && count >= FreeNoteLimit {
		return ErrLimitReached
	}
	return nil
}
