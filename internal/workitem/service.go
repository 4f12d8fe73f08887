package workitem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsconsole/internal/audit"

	"github.com/google/uuid"
)

// Service is the engine facade: entity store reads, single decisions, bulk
// decisions, and producer intake. All mutation goes through the state machine
// and is committed with its audit entry atomically by the repository.
type Service struct {
	repo  Repository
	clock func() time.Time

	// onCommit is invoked after every committed transition or intake so the
	// summary cache can be invalidated. Optional.
	onCommit func(ctx context.Context)

	bulkWorkers int
	bulkMaxIDs  int
}

const (
	defaultBulkWorkers = 8
	defaultBulkMaxIDs  = 100

	defaultPageLimit = 20
	maxPageLimit     = 100
)

func NewService(repo Repository) *Service {
	return &Service{
		repo:        repo,
		clock:       time.Now,
		bulkWorkers: defaultBulkWorkers,
		bulkMaxIDs:  defaultBulkMaxIDs,
	}
}

// SetCommitHook registers the cache-invalidation hook.
func (s *Service) SetCommitHook(fn func(ctx context.Context)) { s.onCommit = fn }

// SetBulkLimits overrides the bulk fan-out bounds. Zero keeps the default.
func (s *Service) SetBulkLimits(workers, maxIDs int) {
	if workers > 0 {
		s.bulkWorkers = workers
	}
	if maxIDs > 0 {
		s.bulkMaxIDs = maxIDs
	}
}

// CreateRequest is the producer intake payload. Producers create items
// already pending, with a deadline when the kind has SLA semantics.
type CreateRequest struct {
	Kind           Kind              `json:"kind"`
	Category       string            `json:"category,omitempty"`
	Severity       Severity          `json:"severity"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	RequestedBy    string            `json:"requested_by"`
	RequesterRole  string            `json:"requester_role,omitempty"`
	SLADeadline    *time.Time        `json:"sla_deadline,omitempty"`
	ApproverChain  []string          `json:"approver_chain,omitempty"`
	LinkedEntities map[string]string `json:"linked_entities,omitempty"`
}

var ErrInvalidRequest = errors.New("workitem: invalid request")

// Create registers a new pending item and records its Created audit entry.
func (s *Service) Create(ctx context.Context, req CreateRequest) (WorkItem, error) {
	if !req.Kind.Valid() {
		return WorkItem{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, req.Kind)
	}
	if !req.Severity.Valid() {
		return WorkItem{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidRequest, req.Severity)
	}
	if req.Title == "" {
		return WorkItem{}, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if req.RequestedBy == "" {
		return WorkItem{}, fmt.Errorf("%w: requested_by is required", ErrInvalidRequest)
	}
	if req.SLADeadline != nil && !req.Kind.HasSLA() {
		return WorkItem{}, fmt.Errorf("%w: kind %q has no SLA semantics", ErrInvalidRequest, req.Kind)
	}

	now := s.clock().UTC()
	item := WorkItem{
		ID:             uuid.NewString(),
		Kind:           req.Kind,
		Category:       req.Category,
		Severity:       req.Severity,
		Status:         StatusPending,
		Title:          req.Title,
		Description:    req.Description,
		RequestedBy:    req.RequestedBy,
		RequesterRole:  req.RequesterRole,
		CreatedAt:      now,
		UpdatedAt:      now,
		SLADeadline:    req.SLADeadline,
		ApproverChain:  req.ApproverChain,
		LinkedEntities: req.LinkedEntities,
		Version:        1,
	}

	entry, err := audit.Fill(audit.Entry{
		WorkItemID: item.ID,
		Actor:      req.RequestedBy,
		ActorRole:  req.RequesterRole,
		Action:     audit.ActionCreated,
		Result:     audit.ResultPass,
		Summary:    "created as pending",
	}, now)
	if err != nil {
		return WorkItem{}, err
	}

	if err := s.repo.Insert(ctx, item, entry); err != nil {
		return WorkItem{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.notifyCommit(ctx)
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (WorkItem, error) {
	if id == "" {
		return WorkItem{}, ErrNotFound
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return WorkItem{}, ErrNotFound
		}
		return WorkItem{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return item, nil
}

// ListResult carries one page plus the paging meta the envelope exposes.
type ListResult struct {
	Items []WorkItem
	Total int
	Page  int
	Limit int
	Pages int
}

// List returns a filtered, sorted page. Listing never fails on empty results.
// Default order is the severity/priority ranker; Sort overrides with a single
// field + direction. Both orders are stable so repeated calls over unchanged
// data never reorder.
func (s *Service) List(ctx context.Context, f Filter, sortBy Sort, page Page) (ListResult, error) {
	if !sortBy.Field.Valid() {
		return ListResult{}, fmt.Errorf("%w: unknown sort field %q", ErrInvalidRequest, sortBy.Field)
	}

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return ListResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.clock().UTC()
	SortBy(items, sortBy, now)

	total := len(items)
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	p := page.Page
	if p <= 0 {
		p = 1
	}
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}

	start := (p - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ListResult{
		Items: items[start:end],
		Total: total,
		Page:  p,
		Limit: limit,
		Pages: pages,
	}, nil
}

// Decide applies a single decision. Expected domain outcomes come back as
// *TransitionError; only store failures fail the call outright.
func (s *Service) Decide(ctx context.Context, id string, action Action, actor, actorRole string, p Payload) (WorkItem, error) {
	return s.decide(ctx, id, action, actor, actorRole, p, false)
}

func (s *Service) decide(ctx context.Context, id string, action Action, actor, actorRole string, p Payload, bulk bool) (WorkItem, error) {
	if actor == "" {
		return WorkItem{}, validationFailed("actor is required")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return WorkItem{}, &TransitionError{Kind: ErrKindNotFound, Message: "unknown work item " + id}
		}
		return WorkItem{}, err
	}

	now := s.clock().UTC()
	mutated, auditAction, err := Transition(item, action, actor, p, now)
	if err != nil {
		return item, err
	}
	if bulk {
		auditAction = bulkAuditAction(auditAction)
	}

	entry, err := audit.Fill(audit.Entry{
		WorkItemID: item.ID,
		Actor:      actor,
		ActorRole:  actorRole,
		Action:     auditAction,
		Result:     audit.ResultPass,
		Summary:    TransitionSummary(item, mutated, action),
	}, now)
	if err != nil {
		return item, err
	}

	// Once the mutation starts, the mutation+audit pair runs to completion;
	// caller cancellation must not produce a committed change with no entry
	// or an aborted half of the pair.
	applyCtx := context.WithoutCancel(ctx)
	updated, err := s.repo.ApplyTransition(applyCtx, mutated, item.Version, entry)
	if err != nil {
		switch {
		case errors.Is(err, errVersionConflict):
			return s.resolveConflict(applyCtx, id)
		case errors.Is(err, ErrNotFound):
			return WorkItem{}, &TransitionError{Kind: ErrKindNotFound, Message: "unknown work item " + id}
		default:
			return WorkItem{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	s.notifyCommit(applyCtx)
	return updated, nil
}

// resolveConflict distinguishes the two ways to lose a race: the winner
// closed the item (AlreadyTerminal) or merely advanced it (VersionConflict).
func (s *Service) resolveConflict(ctx context.Context, id string) (WorkItem, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return WorkItem{}, &TransitionError{Kind: ErrKindNotFound, Message: "unknown work item " + id}
		}
		return WorkItem{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cur.Status.Terminal() {
		return cur, alreadyTerminal(cur.Status)
	}
	return cur, &TransitionError{Kind: ErrKindVersionConflict, Message: "concurrent decision won the race, retry against current state"}
}

func bulkAuditAction(a audit.Action) audit.Action {
	switch a {
	case audit.ActionApproved:
		return audit.ActionBulkApproved
	case audit.ActionRejected:
		return audit.ActionBulkRejected
	default:
		return a
	}
}

func (s *Service) notifyCommit(ctx context.Context) {
	if s.onCommit != nil {
		s.onCommit(ctx)
	}
}
