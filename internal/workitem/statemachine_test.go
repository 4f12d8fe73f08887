package workitem

import (
	"testing"
	"time"

	"opsconsole/internal/audit"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func pendingItem(kind Kind) WorkItem {
	return WorkItem{
		ID:          "wi-1",
		Kind:        kind,
		Severity:    SeverityHigh,
		Status:      StatusPending,
		Title:       "test item",
		RequestedBy: "producer",
		CreatedAt:   t0.Add(-time.Hour),
		UpdatedAt:   t0.Add(-time.Hour),
		Version:     1,
	}
}

func TestTransition_TerminalIsImmutable(t *testing.T) {
	for _, st := range []Status{StatusApproved, StatusRejected, StatusExpired, StatusResolved, StatusDismissed} {
		item := pendingItem(KindCompliance)
		item.Status = st
		_, _, err := Transition(item, ActionApprove, "alice", Payload{}, t0)
		te, ok := AsTransitionError(err)
		if !ok || te.Kind != ErrKindAlreadyTerminal {
			t.Fatalf("status %s: expected AlreadyTerminal, got %v", st, err)
		}
	}
}

func TestTransition_ActionTablePerKind(t *testing.T) {
	cases := []struct {
		kind    Kind
		action  Action
		allowed bool
	}{
		{KindCompliance, ActionApprove, true},
		{KindCompliance, ActionResolve, false},
		{KindProcurement, ActionReject, true},
		{KindProcurement, ActionSnooze, false},
		{KindMerchAlert, ActionResolve, true},
		{KindMerchAlert, ActionApprove, false},
		{KindReconExc, ActionInvestigate, true},
		{KindReconExc, ActionExpire, true},
		{KindReconExc, ActionApprove, false},
	}
	for _, c := range cases {
		if got := Allowed(c.kind, c.action); got != c.allowed {
			t.Fatalf("%s/%s: expected allowed=%v", c.kind, c.action, c.allowed)
		}
	}
}

func TestTransition_MultiStepChainApproves(t *testing.T) {
	item := pendingItem(KindCompliance)
	item.ApproverChain = []string{"A", "B"}
	item.CurrentStep = 0

	step1, act, err := Transition(item, ActionApprove, "A", Payload{}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if act != audit.ActionApproved {
		t.Fatalf("expected approved audit action, got %q", act)
	}
	if step1.Status != StatusPending || step1.CurrentStep != 1 {
		t.Fatalf("expected pending/step 1, got %s/%d", step1.Status, step1.CurrentStep)
	}
	if step1.Version != item.Version+1 {
		t.Fatalf("expected version bump")
	}

	final, _, err := Transition(step1, ActionApprove, "B", Payload{}, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if final.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", final.Status)
	}
	if final.CurrentStep != 2 {
		t.Fatalf("expected current step at chain end, got %d", final.CurrentStep)
	}
}

func TestTransition_RejectAtAnyStepIsTerminal(t *testing.T) {
	item := pendingItem(KindProcurement)
	item.ApproverChain = []string{"A", "B", "C"}
	item.CurrentStep = 1

	out, _, err := Transition(item, ActionReject, "B", Payload{Reason: "budget exceeded"}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Status != StatusRejected {
		t.Fatalf("expected rejected regardless of step, got %s", out.Status)
	}
	if out.RejectionReason != "budget exceeded" {
		t.Fatalf("expected reason stored")
	}
}

func TestTransition_RejectRequiresReason(t *testing.T) {
	item := pendingItem(KindCompliance)
	out, _, err := Transition(item, ActionReject, "alice", Payload{}, t0)
	te, ok := AsTransitionError(err)
	if !ok || te.Kind != ErrKindValidationFailed {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
	if out.Status != StatusPending || out.Version != item.Version {
		t.Fatalf("expected unchanged item on validation failure")
	}
}

func TestTransition_InvestigateIsNotTerminal(t *testing.T) {
	item := pendingItem(KindReconExc)
	out, act, err := Transition(item, ActionInvestigate, "fin", Payload{}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Status != StatusInReview {
		t.Fatalf("expected in_review, got %s", out.Status)
	}
	if out.Status.Terminal() {
		t.Fatalf("in_review must not be terminal")
	}
	if act != audit.ActionInvestigated {
		t.Fatalf("expected investigated audit action, got %q", act)
	}

	// A reviewed exception can still be resolved.
	done, _, err := Transition(out, ActionResolve, "fin", Payload{Note: "matched manually"}, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if done.Status != StatusResolved {
		t.Fatalf("expected resolved, got %s", done.Status)
	}
}

func TestTransition_SnoozeRequiresFutureTimestamp(t *testing.T) {
	item := pendingItem(KindMerchAlert)

	past := t0.Add(-time.Minute)
	if _, _, err := Transition(item, ActionSnooze, "merch", Payload{SnoozeUntil: &past}, t0); err == nil {
		t.Fatalf("expected error for past snooze")
	}
	if _, _, err := Transition(item, ActionSnooze, "merch", Payload{}, t0); err == nil {
		t.Fatalf("expected error for missing snooze_until")
	}

	future := t0.Add(2 * time.Hour)
	out, act, err := Transition(item, ActionSnooze, "merch", Payload{SnoozeUntil: &future}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Status != StatusPending {
		t.Fatalf("snooze must keep the alert pending, got %s", out.Status)
	}
	if out.SnoozedUntil == nil || !out.SnoozedUntil.Equal(future) {
		t.Fatalf("expected snoozed_until stored")
	}
	if act != audit.ActionSnoozed {
		t.Fatalf("expected snoozed audit action, got %q", act)
	}
}

func TestTransition_ExpireOnlyFromPending(t *testing.T) {
	item := pendingItem(KindCompliance)
	out, act, err := Transition(item, ActionExpire, "scheduler", Payload{}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Status != StatusExpired {
		t.Fatalf("expected expired, got %s", out.Status)
	}
	if act != audit.ActionExpired {
		t.Fatalf("expected expired audit action, got %q", act)
	}
}

func TestTransition_BreachedReconExceptionCanExpire(t *testing.T) {
	// Recon exceptions carry SLA semantics, so the scheduler must have a
	// valid path out of pending once the deadline has passed.
	past := t0.Add(-time.Hour)
	item := pendingItem(KindReconExc)
	item.SLADeadline = &past
	if !IsBreached(item, t0) {
		t.Fatal("fixture must be breached")
	}

	out, act, err := Transition(item, ActionExpire, "svc-scheduler", Payload{}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Status != StatusExpired {
		t.Fatalf("expected expired, got %s", out.Status)
	}
	if act != audit.ActionExpired {
		t.Fatalf("expected expired audit action, got %q", act)
	}
}

func TestTransition_RequiresActor(t *testing.T) {
	item := pendingItem(KindCompliance)
	_, _, err := Transition(item, ActionApprove, "", Payload{}, t0)
	te, ok := AsTransitionError(err)
	if !ok || te.Kind != ErrKindValidationFailed {
		t.Fatalf("expected ValidationFailed for empty actor, got %v", err)
	}
}

func TestTransition_UpdatedAtAdvances(t *testing.T) {
	item := pendingItem(KindMerchAlert)
	out, _, err := Transition(item, ActionResolve, "merch", Payload{}, t0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.UpdatedAt.Equal(t0) {
		t.Fatalf("expected updated_at set to transition time")
	}
	if out.UpdatedAt.Before(out.CreatedAt) {
		t.Fatalf("updated_at must never precede created_at")
	}
}
