package reporting

import (
	"context"
	"sync"
	"time"

	"opsconsole/internal/workitem"
)

// MemoryRepo is an in-memory reporting repository for tests and early
// development.
type MemoryRepo struct {
	mu    sync.Mutex
	Items []workitem.WorkItem
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) CountByStatus(ctx context.Context, status workitem.Status) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.Items {
		if it.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) CountDecidedSince(ctx context.Context, status workitem.Status, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.Items {
		if it.Status == status && !it.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) CountBreached(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.Items {
		if workitem.IsBreached(it, now) {
			n++
		}
	}
	return n, nil
}
