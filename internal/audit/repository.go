package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kedai-dimesem/storefront/internal/platform/db"
)

// Query adalah parameter query timeline yang sudah dinormalisasi service.
type Query struct {
	From    *time.Time
	To      *time.Time
	ActorID *int64
	Entity  *string
	Action  *string
	Offset  int
	Limit   int
}

// Repository menyediakan akses baca ke audit_logs.
type Repository interface {
	Window(ctx context.Context, q Query) ([]TimelineRow, error)
	All(ctx context.Context, q Query) ([]TimelineRow, error)
}

// PGRepository membaca audit_logs dari PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository membuat repository audit.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const timelineSelect = `
SELECT a.id, a.occurred_at, a.actor_id, COALESCE(u.name, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id
WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR a.occurred_at < $2)
  AND ($3::bigint IS NULL OR a.actor_id = $3)
  AND ($4::text IS NULL OR a.entity = $4)
  AND ($5::text IS NULL OR a.action = $5)
ORDER BY a.occurred_at DESC, a.id DESC`

// Window mengembalikan satu halaman timeline.
func (r *PGRepository) Window(ctx context.Context, q Query) ([]TimelineRow, error) {
	rows, err := r.db.Query(ctx, timelineSelect+` OFFSET $6 LIMIT $7`,
		q.From, q.To, q.ActorID, q.Entity, q.Action, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRow)
}

// All mengembalikan seluruh timeline yang cocok dengan filter.
func (r *PGRepository) All(ctx context.Context, q Query) ([]TimelineRow, error) {
	rows, err := r.db.Query(ctx, timelineSelect, q.From, q.To, q.ActorID, q.Entity, q.Action)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRow)
}

func scanRow(row pgx.CollectableRow) (TimelineRow, error) {
	var out TimelineRow
	err := row.Scan(&out.ID, &out.At, &out.ActorID, &out.ActorName, &out.Action, &out.Entity, &out.EntityID, &out.Meta)
	return out, err
}

var _ Repository = (*PGRepository)(nil)
