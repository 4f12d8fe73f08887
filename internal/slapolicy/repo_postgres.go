package slapolicy

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"opsconsole/internal/workitem"
)

// PostgresRepo persists SLA rules in the sla_rules table so response windows
// survive deploys and can be tuned without a release.
//
// Assumed schema:
//
//	CREATE TABLE sla_rules (
//	  id                      TEXT PRIMARY KEY,
//	  kind                    TEXT NOT NULL,
//	  severity                TEXT NOT NULL,
//	  response_window_seconds BIGINT NOT NULL,
//	  effective_from          TIMESTAMPTZ NOT NULL,
//	  effective_to            TIMESTAMPTZ,
//	  status                  TEXT NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// FindRule returns the most recently effective active rule for the
// kind/severity bucket at the given time.
func (r *PostgresRepo) FindRule(ctx context.Context, kind workitem.Kind, severity workitem.Severity, at time.Time) (Rule, bool, error) {
	const q = `
SELECT id, kind, severity, response_window_seconds, effective_from, effective_to, status
FROM sla_rules
WHERE kind = $1 AND severity = $2 AND status = $3
  AND effective_from <= $4
  AND (effective_to IS NULL OR effective_to > $4)
ORDER BY effective_from DESC
LIMIT 1
`
	var (
		rule          Rule
		windowSeconds int64
		effectiveTo   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, kind, severity, RuleStatusActive, at).Scan(
		&rule.ID, &rule.Kind, &rule.Severity, &windowSeconds,
		&rule.EffectiveFrom, &effectiveTo, &rule.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rule{}, false, nil
		}
		return Rule{}, false, err
	}
	rule.ResponseWindow = time.Duration(windowSeconds) * time.Second
	if effectiveTo.Valid {
		t := effectiveTo.Time
		rule.EffectiveTo = &t
	}
	return rule, true, nil
}
