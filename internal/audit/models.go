package audit

import "time"

// Entry is an immutable, append-only audit record of one committed workflow
// transition (or a recorded system-check failure).
//
// Invariants:
// - Entries are never updated or deleted.
// - Every committed transition produces exactly one entry, including each
//   member of a bulk decision; bulk actions never collapse into one entry.
// - Result is classified at write time and stored, so historical queries stay
//   stable even if classification rules change going forward.
//
// Storage recommendation (Postgres):
// - Table audit_entries with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Entry struct {
	ID         string `json:"id" db:"id"`
	WorkItemID string `json:"work_item_id" db:"work_item_id"`

	// Actor is the authenticated user (or service identity) that caused the
	// transition. ActorRole may include hidden roles.
	Actor     string `json:"actor" db:"actor"`
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	Action Action `json:"action" db:"action"`
	Result Result `json:"result" db:"result"`

	// Summary is a short human-readable outcome description for the audit
	// viewer (e.g. "approved step 2/2").
	Summary string `json:"summary,omitempty" db:"summary"`

	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type Action string

const (
	ActionCreated      Action = "created"
	ActionApproved     Action = "approved"
	ActionRejected     Action = "rejected"
	ActionInvestigated Action = "investigated"
	ActionResolved     Action = "resolved"
	ActionDismissed    Action = "dismissed"
	ActionSnoozed      Action = "snoozed"
	ActionExpired      Action = "expired"
	ActionBulkApproved Action = "bulk_approved"
	ActionBulkRejected Action = "bulk_rejected"
)

// Result classifies an entry at write time: Pass for a successful
// state-changing transition, Fail for a recorded violation or system-check
// failure (e.g. a producer webhook that failed verification).
type Result string

const (
	ResultPass Result = "pass"
	ResultFail Result = "fail"
)

// QueryFilter is a conjunction of optional predicates matching the audit-log
// viewer's filtering needs. Zero values mean "no constraint".
type QueryFilter struct {
	WorkItemID string
	Actor      string
	Action     Action
	Result     Result
	From       time.Time
	To         time.Time
}
