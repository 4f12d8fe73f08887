package slapolicy

import (
	"context"
	"testing"
	"time"

	"opsconsole/internal/workitem"
)

func TestDeadlineFor_AppliesResponseWindow(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo := &MemoryRepo{Rules: DefaultRules(at.Add(-time.Hour))}
	svc := NewService(repo)

	d, err := svc.DeadlineFor(context.Background(), workitem.KindCompliance, workitem.SeverityCritical, at)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d == nil || !d.Equal(at.Add(4*time.Hour)) {
		t.Fatalf("expected 4h window for critical, got %v", d)
	}
}

func TestDeadlineFor_AlertKindHasNoSLA(t *testing.T) {
	svc := NewService(&MemoryRepo{})
	d, err := svc.DeadlineFor(context.Background(), workitem.KindMerchAlert, workitem.SeverityWarning, time.Now())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d != nil {
		t.Fatalf("alert kind must not get a deadline")
	}
}

func TestDeadlineFor_MissingRule(t *testing.T) {
	svc := NewService(&MemoryRepo{})
	_, err := svc.DeadlineFor(context.Background(), workitem.KindCompliance, workitem.SeverityHigh, time.Now())
	if err != ErrPolicyNotFound {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestFindRule_PrefersMostRecentEffective(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	old := Rule{ID: "old", Kind: workitem.KindCompliance, Severity: workitem.SeverityHigh, ResponseWindow: 48 * time.Hour, EffectiveFrom: at.Add(-48 * time.Hour), Status: RuleStatusActive}
	newer := Rule{ID: "new", Kind: workitem.KindCompliance, Severity: workitem.SeverityHigh, ResponseWindow: 12 * time.Hour, EffectiveFrom: at.Add(-time.Hour), Status: RuleStatusActive}
	repo := &MemoryRepo{Rules: []Rule{old, newer}}

	rule, ok, err := repo.FindRule(context.Background(), workitem.KindCompliance, workitem.SeverityHigh, at)
	if err != nil || !ok {
		t.Fatalf("expected a rule, got %v %v", ok, err)
	}
	if rule.ID != "new" {
		t.Fatalf("expected most recently effective rule, got %q", rule.ID)
	}
}
