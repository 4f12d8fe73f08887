package workitem

import (
	"context"
	"strings"
	"sync"

	"opsconsole/internal/audit"
)

// MemoryRepo is an in-memory repository for tests and early development. It
// preserves insertion order so listing is deterministic, and appends audit
// entries under the same lock as the item update to mirror the transactional
// guarantee of the Postgres repository.
type MemoryRepo struct {
	mu       sync.Mutex
	items    map[string]WorkItem
	order    []string
	recorder audit.Recorder
}

func NewMemoryRepo(recorder audit.Recorder) *MemoryRepo {
	return &MemoryRepo{items: map[string]WorkItem{}, recorder: recorder}
}

func (r *MemoryRepo) Insert(ctx context.Context, item WorkItem, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = item
	if r.recorder != nil {
		return r.recorder.Append(ctx, entry)
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return WorkItem{}, ErrNotFound
	}
	return item, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contains := func(haystack, needle string) bool {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	out := make([]WorkItem, 0)
	for _, id := range r.order {
		item := r.items[id]
		if matchesFilter(item, f, contains) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ApplyTransition(ctx context.Context, item WorkItem, expectedVersion int64, entry audit.Entry) (WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[item.ID]
	if !ok {
		return WorkItem{}, ErrNotFound
	}
	if cur.Version != expectedVersion {
		return WorkItem{}, errVersionConflict
	}
	r.items[item.ID] = item
	if r.recorder != nil {
		if err := r.recorder.Append(ctx, entry); err != nil {
			// Roll the item back; the pair must be atomic.
			r.items[item.ID] = cur
			return WorkItem{}, err
		}
	}
	return item, nil
}
