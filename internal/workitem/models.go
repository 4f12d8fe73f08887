package workitem

import "time"

// WorkItem is the generalized unit of the approval/exception workflow. One
// type covers the four console screens (compliance approvals, merchandising
// alerts, reconciliation exceptions, procurement approvals); allowed actions
// are restricted per Kind by the transition table in statemachine.go.
//
// Invariants:
// - Status moves monotonically into the terminal set; no transition leaves a
//   terminal state.
// - CurrentStep is always in [0, len(ApproverChain)]; an empty chain resolves
//   on the first decision.
// - UpdatedAt changes only via a committed transition and is never before
//   CreatedAt.
// - Items are never physically deleted; "clearing" a view is display-layer
//   filtering.
type WorkItem struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Category string   `json:"category,omitempty"`
	Severity Severity `json:"severity"`
	Status   Status   `json:"status"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Attribution, immutable after creation.
	RequestedBy   string `json:"requested_by"`
	RequesterRole string `json:"requester_role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SLADeadline is assigned at creation by the producer and immutable.
	// Breach is a derived read-time fact (sla.go), never a stored state.
	SLADeadline *time.Time `json:"sla_deadline,omitempty"`

	// SnoozedUntil is set by the alert-kind Snooze action. Advisory; it does
	// not affect breach evaluation.
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`

	// ApproverChain is the ordered sign-off sequence; empty for single-step
	// kinds. CurrentStep indexes into it and is meaningful only while Pending.
	ApproverChain []string `json:"approver_chain,omitempty"`
	CurrentStep   int      `json:"current_step"`

	// LinkedEntities are foreign references (SKU, campaign, store, vendor,
	// PO) opaque to the engine, carried for display and navigation only.
	LinkedEntities map[string]string `json:"linked_entities,omitempty"`

	DecisionNote    string `json:"decision_note,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	// Version is the optimistic-concurrency token; every committed transition
	// bumps it. The loser of a concurrent decision observes VersionConflict
	// (or AlreadyTerminal if the winner closed the item).
	Version int64 `json:"version"`
}

type Kind string

const (
	KindCompliance  Kind = "compliance"
	KindMerchAlert  Kind = "merch_alert"
	KindReconExc    Kind = "recon_exception"
	KindProcurement Kind = "procurement"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCompliance, KindMerchAlert, KindReconExc, KindProcurement:
		return true
	default:
		return false
	}
}

// HasSLA reports whether the kind carries SLA semantics. Informational alert
// streams do not.
func (k Kind) HasSLA() bool { return k != KindMerchAlert }

type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusResolved Status = "resolved"
	StatusDismissed Status = "dismissed"
)

// Terminal reports whether the status belongs to the terminal set. Terminal
// items are immutable.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired, StatusResolved, StatusDismissed:
		return true
	default:
		return false
	}
}

// Active statuses are the ones a default console view shows.
func (s Status) Active() bool { return s == StatusPending || s == StatusInReview }

// Severity is a single totally ordered vocabulary covering the per-domain
// scales (critical > high > warning > medium > low > info). Domains that use
// High/Medium/Low map onto the matching subset.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityWarning  Severity = "warning"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityCritical: 50,
	SeverityHigh:     40,
	SeverityWarning:  30,
	SeverityMedium:   25,
	SeverityLow:      10,
	SeverityInfo:     0,
}

func (s Severity) Rank() int { return severityRank[s] }

func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Action is a decision submitted against a WorkItem. The per-kind action
// table lives in statemachine.go.
type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionInvestigate Action = "investigate"
	ActionResolve     Action = "resolve"
	ActionDismiss     Action = "dismiss"
	ActionSnooze      Action = "snooze"
	ActionExpire      Action = "expire"
)

// Payload carries the optional decision inputs.
type Payload struct {
	// Note is stored as DecisionNote on terminal transitions.
	Note string `json:"note,omitempty"`
	// Reason is required for Reject.
	Reason string `json:"reason,omitempty"`
	// SnoozeUntil is required for Snooze and must be in the future.
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
}

// Filter is a conjunction of optional predicates for List. Zero values mean
// "no constraint".
type Filter struct {
	Kind     Kind
	Category string
	Status   Status
	// ActiveOnly selects {pending, in_review}; ignored when Status is set.
	ActiveOnly bool
	Severity   Severity
	CreatedFrom time.Time
	CreatedTo   time.Time
	// Search is a case-insensitive substring match over title, description
	// and requested_by.
	Search string
}

// Sort overrides the default ranker order with a single field + direction.
type Sort struct {
	Field SortField
	Desc  bool
}

type SortField string

const (
	SortDefaultRank SortField = "" // severity/priority ranker order
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortSeverity    SortField = "severity"
	SortDeadline    SortField = "slaDeadline"
	SortStatus      SortField = "status"
)

func (f SortField) Valid() bool {
	switch f {
	case SortDefaultRank, SortCreatedAt, SortUpdatedAt, SortSeverity, SortDeadline, SortStatus:
		return true
	default:
		return false
	}
}

// Page is 1-based; Limit is clamped by the service.
type Page struct {
	Page  int
	Limit int
}
