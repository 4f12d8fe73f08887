package slapolicy

import (
	"time"

	"opsconsole/internal/workitem"
)

// Rule defines the default response window for a kind/severity bucket. It is
// consulted only at intake, when a producer omits the deadline; a deadline
// assigned from a rule is as immutable as a producer-assigned one.
type Rule struct {
	ID       string            `json:"id" db:"id"`
	Kind     workitem.Kind     `json:"kind" db:"kind"`
	Severity workitem.Severity `json:"severity" db:"severity"`

	// ResponseWindow is added to the creation time to produce the deadline.
	ResponseWindow time.Duration `json:"response_window" db:"response_window"`

	// Effective window for the rule.
	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status RuleStatus `json:"status" db:"status"`
}

type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusInactive RuleStatus = "inactive"
)
