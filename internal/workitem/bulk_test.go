package workitem

import (
	"context"
	"testing"

	"opsconsole/internal/audit"
)

func TestApplyBulk_PartialFailureDoesNotBlockSiblings(t *testing.T) {
	svc, rec := newTestService()

	a := mustCreate(t, svc, complianceReq("a"))
	b := mustCreate(t, svc, complianceReq("b"))
	c := mustCreate(t, svc, complianceReq("c"))

	// b is already terminal.
	if _, err := svc.Decide(context.Background(), b.ID, ActionReject, "x", "r", Payload{Reason: "dup"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	auditBefore := len(rec.Entries())

	results, err := svc.ApplyBulk(context.Background(), []string{a.ID, b.ID, c.ID}, ActionApprove, "alice", "compliance_officer", Payload{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].OK || results[0].ID != a.ID {
		t.Fatalf("expected success for a, got %+v", results[0])
	}
	if results[1].OK || results[1].Err == nil || results[1].Err.Kind != ErrKindAlreadyTerminal {
		t.Fatalf("expected AlreadyTerminal for b, got %+v", results[1])
	}
	if !results[2].OK {
		t.Fatalf("partial failure must not block siblings, got %+v", results[2])
	}

	for _, id := range []string{a.ID, c.ID} {
		cur, _ := svc.Get(context.Background(), id)
		if cur.Status != StatusApproved {
			t.Fatalf("expected %s approved, got %s", id, cur.Status)
		}
	}

	// One bulk_approved entry per succeeding member, none for the terminal one.
	var bulkApprovals int
	for _, e := range rec.Entries() {
		if e.Action == audit.ActionBulkApproved {
			bulkApprovals++
		}
	}
	if bulkApprovals != 2 {
		t.Fatalf("expected 2 bulk_approved entries, got %d", bulkApprovals)
	}
	if len(rec.Entries()) != auditBefore+2 {
		t.Fatalf("expected exactly 2 new audit entries")
	}
}

func TestApplyBulk_FiveIDsOneRejected(t *testing.T) {
	svc, rec := newTestService()

	ids := make([]string, 0, 5)
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5"} {
		ids = append(ids, mustCreate(t, svc, complianceReq(name)).ID)
	}
	if _, err := svc.Decide(context.Background(), ids[2], ActionReject, "x", "r", Payload{Reason: "bad"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	auditBefore := len(rec.Entries())

	results, err := svc.ApplyBulk(context.Background(), ids, ActionApprove, "alice", "compliance_officer", Payload{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 per-item results, got %d", len(results))
	}

	var ok, terminal int
	for _, r := range results {
		switch {
		case r.OK:
			ok++
		case r.Err != nil && r.Err.Kind == ErrKindAlreadyTerminal:
			terminal++
		default:
			t.Fatalf("unexpected result %+v", r)
		}
	}
	if ok != 4 || terminal != 1 {
		t.Fatalf("expected 4 approved / 1 already terminal, got %d/%d", ok, terminal)
	}
	if len(rec.Entries()) != auditBefore+4 {
		t.Fatalf("expected 4 new audit entries, got %d", len(rec.Entries())-auditBefore)
	}
}

func TestApplyBulk_ResubmitIsIdempotent(t *testing.T) {
	svc, rec := newTestService()
	a := mustCreate(t, svc, complianceReq("a"))
	b := mustCreate(t, svc, complianceReq("b"))
	ids := []string{a.ID, b.ID}

	first, err := svc.ApplyBulk(context.Background(), ids, ActionApprove, "alice", "r", Payload{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, r := range first {
		if !r.OK {
			t.Fatalf("expected all success on first pass")
		}
	}
	auditAfterFirst := len(rec.Entries())

	second, err := svc.ApplyBulk(context.Background(), ids, ActionApprove, "alice", "r", Payload{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, r := range second {
		if r.OK || r.Err == nil || r.Err.Kind != ErrKindAlreadyTerminal {
			t.Fatalf("resubmission must re-report AlreadyTerminal, got %+v", r)
		}
	}
	if len(rec.Entries()) != auditAfterFirst {
		t.Fatalf("resubmission must have no side effects")
	}
}

func TestApplyBulk_OrderAndLimits(t *testing.T) {
	svc, _ := newTestService()
	svc.SetBulkLimits(2, 3)

	ids := []string{
		mustCreate(t, svc, complianceReq("a")).ID,
		mustCreate(t, svc, complianceReq("b")).ID,
		mustCreate(t, svc, complianceReq("c")).ID,
	}
	results, err := svc.ApplyBulk(context.Background(), ids, ActionApprove, "alice", "r", Payload{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i, r := range results {
		if r.ID != ids[i] {
			t.Fatalf("results must preserve input order")
		}
	}

	if _, err := svc.ApplyBulk(context.Background(), append(ids, "extra"), ActionApprove, "alice", "r", Payload{}); err == nil {
		t.Fatalf("expected error above the id limit")
	}

	if empty, err := svc.ApplyBulk(context.Background(), nil, ActionApprove, "alice", "r", Payload{}); err != nil || len(empty) != 0 {
		t.Fatalf("empty batch is a no-op, got %v %v", empty, err)
	}
}
