package audit

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// PostgresRepo persists audit entries in the audit_entries table.
//
// Assumed schema:
//
//	CREATE TABLE audit_entries (
//	  id           TEXT PRIMARY KEY,
//	  work_item_id TEXT NOT NULL,
//	  actor        TEXT NOT NULL,
//	  actor_role   TEXT NOT NULL DEFAULT '',
//	  action       TEXT NOT NULL,
//	  result       TEXT NOT NULL,
//	  summary      TEXT NOT NULL DEFAULT '',
//	  ts           TIMESTAMPTZ NOT NULL
//	);
//
// The table is INSERT-only; enforce with a trigger or grants.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO audit_entries (id, work_item_id, actor, actor_role, action, result, summary, ts)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.WorkItemID, e.Actor, e.ActorRole, e.Action, e.Result, e.Summary, e.Timestamp,
	)
	return err
}

// InsertTx appends an entry inside an existing transaction. The workitem
// repository uses this so a transition and its audit entry commit atomically.
func InsertTx(ctx context.Context, tx *sql.Tx, e Entry) error {
	const q = `
INSERT INTO audit_entries (id, work_item_id, actor, actor_role, action, result, summary, ts)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := tx.ExecContext(ctx, q,
		e.ID, e.WorkItemID, e.Actor, e.ActorRole, e.Action, e.Result, e.Summary, e.Timestamp,
	)
	return err
}

func (r *PostgresRepo) Query(ctx context.Context, f QueryFilter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}
	if f.WorkItemID != "" {
		add("work_item_id = ", f.WorkItemID)
	}
	if f.Actor != "" {
		add("actor = ", f.Actor)
	}
	if f.Action != "" {
		add("action = ", f.Action)
	}
	if f.Result != "" {
		add("result = ", f.Result)
	}
	if !f.From.IsZero() {
		add("ts >= ", f.From)
	}
	if !f.To.IsZero() {
		add("ts < ", f.To)
	}

	q := `
SELECT id, work_item_id, actor, actor_role, action, result, summary, ts
FROM audit_entries
`
	if len(conds) > 0 {
		q += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	q += "ORDER BY ts DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.WorkItemID, &e.Actor, &e.ActorRole, &e.Action, &e.Result, &e.Summary, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
