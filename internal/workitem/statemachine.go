package workitem

import (
	"fmt"
	"time"

	"opsconsole/internal/audit"
)

// Per-kind action table. Approval-chain kinds accept approve/reject; alert
// kinds resolve/dismiss/snooze; reconciliation exceptions additionally accept
// investigate (pending -> in_review, non-terminal). Every SLA-bearing kind
// accepts the scheduler-issued expire, since that is the only way a breached
// item leaves pending.
var actionTable = map[Kind]map[Action]struct{}{
	KindCompliance: {
		ActionApprove: {}, ActionReject: {}, ActionExpire: {},
	},
	KindProcurement: {
		ActionApprove: {}, ActionReject: {}, ActionExpire: {},
	},
	KindMerchAlert: {
		ActionResolve: {}, ActionDismiss: {}, ActionSnooze: {},
	},
	KindReconExc: {
		ActionInvestigate: {}, ActionResolve: {}, ActionDismiss: {}, ActionExpire: {},
	},
}

// Allowed reports whether the action exists in the kind's action table.
func Allowed(kind Kind, action Action) bool {
	_, ok := actionTable[kind][action]
	return ok
}

// Transition validates and applies an action to a copy of the item, returning
// the mutated copy and the audit action to record. It is pure: it never
// touches storage and the input item is not modified.
//
// Returned errors are *TransitionError (AlreadyTerminal, ValidationFailed);
// on error the item is unchanged and nothing must be recorded.
func Transition(item WorkItem, action Action, actor string, p Payload, now time.Time) (WorkItem, audit.Action, error) {
	if actor == "" {
		return item, "", validationFailed("actor is required")
	}
	if item.Status.Terminal() {
		return item, "", alreadyTerminal(item.Status)
	}
	if !Allowed(item.Kind, action) {
		return item, "", validationFailed("action %q not allowed for kind %q", action, item.Kind)
	}

	out := item
	out.UpdatedAt = now
	out.Version = item.Version + 1

	switch action {
	case ActionApprove:
		if item.Status != StatusPending {
			return item, "", validationFailed("approve requires pending status, item is %s", item.Status)
		}
		// Non-final step keeps the item pending and advances the chain; the
		// final (or only) step is terminal.
		if item.CurrentStep < len(item.ApproverChain)-1 {
			out.CurrentStep = item.CurrentStep + 1
		} else {
			out.Status = StatusApproved
			out.DecisionNote = p.Note
			if len(item.ApproverChain) > 0 {
				out.CurrentStep = len(item.ApproverChain)
			}
		}
		return out, audit.ActionApproved, nil

	case ActionReject:
		// Rejection at any step is immediately terminal; it never requires
		// full-chain consensus.
		if item.Status != StatusPending {
			return item, "", validationFailed("reject requires pending status, item is %s", item.Status)
		}
		if p.Reason == "" {
			return item, "", validationFailed("rejection reason is required")
		}
		out.Status = StatusRejected
		out.RejectionReason = p.Reason
		out.DecisionNote = p.Note
		return out, audit.ActionRejected, nil

	case ActionInvestigate:
		if item.Status != StatusPending {
			return item, "", validationFailed("investigate requires pending status, item is %s", item.Status)
		}
		out.Status = StatusInReview
		return out, audit.ActionInvestigated, nil

	case ActionResolve:
		out.Status = StatusResolved
		out.DecisionNote = p.Note
		return out, audit.ActionResolved, nil

	case ActionDismiss:
		out.Status = StatusDismissed
		out.DecisionNote = p.Note
		return out, audit.ActionDismissed, nil

	case ActionSnooze:
		if p.SnoozeUntil == nil || !p.SnoozeUntil.After(now) {
			return item, "", validationFailed("snooze_until must be a future timestamp")
		}
		until := *p.SnoozeUntil
		out.SnoozedUntil = &until
		return out, audit.ActionSnoozed, nil

	case ActionExpire:
		if item.Status != StatusPending {
			return item, "", validationFailed("expire requires pending status, item is %s", item.Status)
		}
		out.Status = StatusExpired
		return out, audit.ActionExpired, nil
	}

	return item, "", validationFailed("unknown action %q", action)
}

// TransitionSummary renders the audit summary line for a committed transition.
func TransitionSummary(before, after WorkItem, action Action) string {
	switch action {
	case ActionApprove:
		if after.Status == StatusApproved {
			if n := len(after.ApproverChain); n > 0 {
				return fmt.Sprintf("approved step %d/%d", n, n)
			}
			return "approved"
		}
		return fmt.Sprintf("approved step %d/%d", after.CurrentStep, len(after.ApproverChain))
	case ActionReject:
		return "rejected: " + after.RejectionReason
	case ActionSnooze:
		return "snoozed until " + after.SnoozedUntil.UTC().Format(time.RFC3339)
	default:
		return string(before.Status) + " -> " + string(after.Status)
	}
}
