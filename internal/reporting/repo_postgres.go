package reporting

import (
	"context"
	"database/sql"
	"time"

	"opsconsole/internal/workitem"
)

// PostgresRepo counts against the same work_items table the entity store
// reads; see workitem.PostgresRepo for the schema.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) CountByStatus(ctx context.Context, status workitem.Status) (int, error) {
	const q = `SELECT COUNT(*) FROM work_items WHERE status = $1`
	var n int
	err := r.db.QueryRowContext(ctx, q, status).Scan(&n)
	return n, err
}

func (r *PostgresRepo) CountDecidedSince(ctx context.Context, status workitem.Status, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM work_items WHERE status = $1 AND updated_at >= $2`
	var n int
	err := r.db.QueryRowContext(ctx, q, status, since).Scan(&n)
	return n, err
}

func (r *PostgresRepo) CountBreached(ctx context.Context, now time.Time) (int, error) {
	const q = `
SELECT COUNT(*) FROM work_items
WHERE status = 'pending' AND sla_deadline IS NOT NULL AND sla_deadline < $1
`
	var n int
	err := r.db.QueryRowContext(ctx, q, now).Scan(&n)
	return n, err
}
