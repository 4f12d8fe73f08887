package workitem

import (
	"context"
	"errors"
	"sync"
)

// ItemResult is the per-id outcome of a bulk decision. Callers distinguish
// "0 succeeded", "partial" and "all succeeded" from the slice; there is no
// whole-batch success flag.
type ItemResult struct {
	ID   string           `json:"id"`
	OK   bool             `json:"ok"`
	Item *WorkItem        `json:"item,omitempty"`
	Err  *TransitionError `json:"error,omitempty"`
}

// ApplyBulk applies one decision to each id independently. Semantics are
// best-effort, not atomic: one id's failure never blocks or rolls back
// siblings, and re-submitting after a partial failure is safe because
// already-terminal ids simply re-report AlreadyTerminal.
//
// Ids fan out over a bounded worker pool; results come back in input order.
// Each id's audit append happens-before its result is reported (the
// repository commits the pair atomically before decide returns).
func (s *Service) ApplyBulk(ctx context.Context, ids []string, action Action, actor, actorRole string, p Payload) ([]ItemResult, error) {
	if len(ids) == 0 {
		return []ItemResult{}, nil
	}
	if len(ids) > s.bulkMaxIDs {
		return nil, validationFailed("bulk decision limited to %d ids, got %d", s.bulkMaxIDs, len(ids))
	}

	results := make([]ItemResult, len(ids))
	sem := make(chan struct{}, s.bulkWorkers)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.decideOne(ctx, id, action, actor, actorRole, p)
		}(i, id)
	}
	wg.Wait()

	return results, nil
}

func (s *Service) decideOne(ctx context.Context, id string, action Action, actor, actorRole string, p Payload) ItemResult {
	updated, err := s.decide(ctx, id, action, actor, actorRole, p, true)
	if err == nil {
		item := updated
		return ItemResult{ID: id, OK: true, Item: &item}
	}
	if te, ok := AsTransitionError(err); ok {
		return ItemResult{ID: id, Err: te}
	}
	// Store failure for this id; siblings proceed, the caller sees a typed
	// per-item reason and may retry the batch idempotently.
	msg := "store unavailable"
	if !errors.Is(err, ErrStoreUnavailable) {
		msg = err.Error()
	}
	return ItemResult{ID: id, Err: &TransitionError{Kind: ErrKindStoreUnavailable, Message: msg}}
}
