package workitem

import (
	"context"

	"opsconsole/internal/audit"
)

// Repository is the persistence contract for the working set of items.
//
// ApplyTransition MUST be conditional on expectedVersion and MUST persist the
// audit entry atomically with the item update: a committed transition without
// its audit entry (or the reverse) is never observable. Implementations
// return errVersionConflict when the conditional update loses a race; the
// service maps that to AlreadyTerminal or VersionConflict after a re-read.
//
// Reads never see in-flight transitions; List returns an empty slice (not an
// error) when nothing matches.
type Repository interface {
	Insert(ctx context.Context, item WorkItem, entry audit.Entry) error
	Get(ctx context.Context, id string) (WorkItem, error)
	List(ctx context.Context, f Filter) ([]WorkItem, error)
	ApplyTransition(ctx context.Context, item WorkItem, expectedVersion int64, entry audit.Entry) (WorkItem, error)
}

func matchesFilter(item WorkItem, f Filter, contains func(haystack, needle string) bool) bool {
	if f.Kind != "" && item.Kind != f.Kind {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.Status != "" {
		if item.Status != f.Status {
			return false
		}
	} else if f.ActiveOnly && !item.Status.Active() {
		return false
	}
	if f.Severity != "" && item.Severity != f.Severity {
		return false
	}
	if !f.CreatedFrom.IsZero() && item.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !item.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	if f.Search != "" {
		if !contains(item.Title, f.Search) &&
			!contains(item.Description, f.Search) &&
			!contains(item.RequestedBy, f.Search) {
			return false
		}
	}
	return true
}
