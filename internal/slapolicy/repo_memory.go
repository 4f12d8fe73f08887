package slapolicy

import (
	"context"
	"time"

	"opsconsole/internal/workitem"
)

// MemoryRepo is a simple in-memory rule repository useful for tests and early
// development. It supports exact kind/severity matches and prefers the most
// recently effective rule.
type MemoryRepo struct {
	Rules []Rule
}

func (r *MemoryRepo) FindRule(ctx context.Context, kind workitem.Kind, severity workitem.Severity, at time.Time) (Rule, bool, error) {
	_ = ctx

	var best Rule
	found := false
	for _, rule := range r.Rules {
		if rule.Kind != kind || rule.Severity != severity {
			continue
		}
		if rule.Status != RuleStatusActive {
			continue
		}
		if at.Before(rule.EffectiveFrom) {
			continue
		}
		if rule.EffectiveTo != nil && !at.Before(*rule.EffectiveTo) {
			continue
		}
		if !found || rule.EffectiveFrom.After(best.EffectiveFrom) {
			best = rule
			found = true
		}
	}
	return best, found, nil
}

// DefaultRules is a conservative starter policy: tighter windows for higher
// severity, used until stakeholders tune them per category.
func DefaultRules(effectiveFrom time.Time) []Rule {
	windows := map[workitem.Severity]time.Duration{
		workitem.SeverityCritical: 4 * time.Hour,
		workitem.SeverityHigh:     12 * time.Hour,
		workitem.SeverityWarning:  24 * time.Hour,
		workitem.SeverityMedium:   24 * time.Hour,
		workitem.SeverityLow:      72 * time.Hour,
		workitem.SeverityInfo:     0,
	}

	var rules []Rule
	for _, kind := range []workitem.Kind{workitem.KindCompliance, workitem.KindReconExc, workitem.KindProcurement} {
		for sev, w := range windows {
			if w == 0 {
				continue
			}
			rules = append(rules, Rule{
				ID:             string(kind) + ":" + string(sev),
				Kind:           kind,
				Severity:       sev,
				ResponseWindow: w,
				EffectiveFrom:  effectiveFrom,
				Status:         RuleStatusActive,
			})
		}
	}
	return rules
}
