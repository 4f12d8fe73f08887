package slapolicy

import (
	"context"
	"errors"
	"time"

	"opsconsole/internal/workitem"
)

// RuleRepository abstracts policy persistence. Implementation can be
// Postgres, cached, etc.
type RuleRepository interface {
	FindRule(ctx context.Context, kind workitem.Kind, severity workitem.Severity, at time.Time) (Rule, bool, error)
}

var (
	ErrPolicyNotFound   = errors.New("sla policy not found")
	ErrInvalidPolicyReq = errors.New("invalid sla policy request")
)

// Service resolves default SLA deadlines at intake. Pure lookup +
// computation; it never mutates stored items.
type Service struct {
	repo  RuleRepository
	clock func() time.Time
}

func NewService(repo RuleRepository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// DeadlineFor returns createdAt + the effective response window, or nil when
// the kind carries no SLA semantics. A missing rule is ErrPolicyNotFound so
// intake can decide whether to proceed without a deadline.
func (s *Service) DeadlineFor(ctx context.Context, kind workitem.Kind, severity workitem.Severity, createdAt time.Time) (*time.Time, error) {
	if !kind.Valid() || !severity.Valid() {
		return nil, ErrInvalidPolicyReq
	}
	if !kind.HasSLA() {
		return nil, nil
	}
	if s.repo == nil {
		return nil, errors.New("slapolicy: repository not configured")
	}

	at := createdAt
	if at.IsZero() {
		at = s.clock().UTC()
	}

	rule, ok, err := s.repo.FindRule(ctx, kind, severity, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPolicyNotFound
	}

	d := at.Add(rule.ResponseWindow)
	return &d, nil
}
