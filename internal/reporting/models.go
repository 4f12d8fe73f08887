package reporting

import "time"

// Summary feeds the dashboard KPI tiles. Today-counts are bucketed on the UTC
// calendar day of the evaluation time; breach is the advisory read-time fact
// from the SLA tracker, never a stored status.
type Summary struct {
	PendingCount       int `json:"pendingCount"`
	ApprovedTodayCount int `json:"approvedTodayCount"`
	RejectedTodayCount int `json:"rejectedTodayCount"`
	BreachedCount      int `json:"breachedCount"`

	GeneratedAt time.Time `json:"generated_at"`
}
