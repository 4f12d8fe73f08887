package workitem

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"opsconsole/internal/audit"
	"opsconsole/pkg/utils"
)

// PostgresRepo persists work items in the work_items table.
//
// Assumed schema:
//
//	CREATE TABLE work_items (
//	  id               TEXT PRIMARY KEY,
//	  kind             TEXT NOT NULL,
//	  category         TEXT NOT NULL DEFAULT '',
//	  severity         TEXT NOT NULL,
//	  status           TEXT NOT NULL,
//	  title            TEXT NOT NULL,
//	  description      TEXT NOT NULL DEFAULT '',
//	  requested_by     TEXT NOT NULL,
//	  requester_role   TEXT NOT NULL DEFAULT '',
//	  created_at       TIMESTAMPTZ NOT NULL,
//	  updated_at       TIMESTAMPTZ NOT NULL,
//	  sla_deadline     TIMESTAMPTZ,
//	  snoozed_until    TIMESTAMPTZ,
//	  approver_chain   JSONB NOT NULL DEFAULT '[]',
//	  current_step     INT NOT NULL DEFAULT 0,
//	  linked_entities  JSONB NOT NULL DEFAULT '{}',
//	  decision_note    TEXT NOT NULL DEFAULT '',
//	  rejection_reason TEXT NOT NULL DEFAULT '',
//	  version          BIGINT NOT NULL
//	);
//
// Rows are never deleted; terminal items stay queryable for the display
// layer's filters.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const workItemColumns = `
id, kind, category, severity, status, title, description,
requested_by, requester_role, created_at, updated_at,
sla_deadline, snoozed_until, approver_chain, current_step,
linked_entities, decision_note, rejection_reason, version
`

func (r *PostgresRepo) Insert(ctx context.Context, item WorkItem, entry audit.Entry) error {
	chain, linked, err := encodeJSONFields(item)
	if err != nil {
		return err
	}
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO work_items (` + workItemColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`
		if _, err := tx.ExecContext(ctx, q,
			item.ID, item.Kind, item.Category, item.Severity, item.Status,
			item.Title, item.Description, item.RequestedBy, item.RequesterRole,
			item.CreatedAt, item.UpdatedAt,
			nullTime(item.SLADeadline), nullTime(item.SnoozedUntil),
			chain, item.CurrentStep, linked,
			item.DecisionNote, item.RejectionReason, item.Version,
		); err != nil {
			return err
		}
		return audit.InsertTx(ctx, tx, entry)
	})
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (WorkItem, error) {
	const q = `SELECT ` + workItemColumns + ` FROM work_items WHERE id = $1`
	item, err := scanWorkItem(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WorkItem{}, ErrNotFound
		}
		return WorkItem{}, err
	}
	return item, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]WorkItem, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}
	if f.Kind != "" {
		add("kind = ", f.Kind)
	}
	if f.Category != "" {
		add("category = ", f.Category)
	}
	if f.Status != "" {
		add("status = ", f.Status)
	} else if f.ActiveOnly {
		conds = append(conds, "status IN ('pending','in_review')")
	}
	if f.Severity != "" {
		add("severity = ", f.Severity)
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= ", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		add("created_at < ", f.CreatedTo)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(title ILIKE $"+n+" OR description ILIKE $"+n+" OR requested_by ILIKE $"+n+")")
	}

	q := `SELECT ` + workItemColumns + ` FROM work_items`
	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}
	// Deterministic base order; the service applies ranker/override sorting.
	q += "\nORDER BY created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WorkItem, 0)
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ApplyTransition(ctx context.Context, item WorkItem, expectedVersion int64, entry audit.Entry) (WorkItem, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
UPDATE work_items
SET status = $1, current_step = $2, updated_at = $3, snoozed_until = $4,
    decision_note = $5, rejection_reason = $6, version = $7
WHERE id = $8 AND version = $9
`
		res, err := tx.ExecContext(ctx, q,
			item.Status, item.CurrentStep, item.UpdatedAt, nullTime(item.SnoozedUntil),
			item.DecisionNote, item.RejectionReason, item.Version,
			item.ID, expectedVersion,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM work_items WHERE id = $1)`, item.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return errVersionConflict
		}
		return audit.InsertTx(ctx, tx, entry)
	})
	if err != nil {
		return WorkItem{}, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (WorkItem, error) {
	var (
		item             WorkItem
		deadline, snooze sql.NullTime
		chain, linked    []byte
	)
	if err := row.Scan(
		&item.ID, &item.Kind, &item.Category, &item.Severity, &item.Status,
		&item.Title, &item.Description, &item.RequestedBy, &item.RequesterRole,
		&item.CreatedAt, &item.UpdatedAt,
		&deadline, &snooze, &chain, &item.CurrentStep, &linked,
		&item.DecisionNote, &item.RejectionReason, &item.Version,
	); err != nil {
		return WorkItem{}, err
	}
	if deadline.Valid {
		t := deadline.Time
		item.SLADeadline = &t
	}
	if snooze.Valid {
		t := snooze.Time
		item.SnoozedUntil = &t
	}
	if len(chain) > 0 {
		if err := json.Unmarshal(chain, &item.ApproverChain); err != nil {
			return WorkItem{}, err
		}
	}
	if len(linked) > 0 {
		if err := json.Unmarshal(linked, &item.LinkedEntities); err != nil {
			return WorkItem{}, err
		}
	}
	return item, nil
}

func encodeJSONFields(item WorkItem) (chain, linked []byte, err error) {
	c := item.ApproverChain
	if c == nil {
		c = []string{}
	}
	chain, err = json.Marshal(c)
	if err != nil {
		return nil, nil, err
	}
	l := item.LinkedEntities
	if l == nil {
		l = map[string]string{}
	}
	linked, err = json.Marshal(l)
	if err != nil {
		return nil, nil, err
	}
	return chain, linked, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
