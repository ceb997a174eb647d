package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/platform/db"
)

// Repository runs the read-only aggregate queries behind the dashboard and
// reports.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) count(ctx context.Context, sql string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, sql).Scan(&n)
	return n, err
}

// CountTransactions counts every transaction regardless of status.
func (r *Repository) CountTransactions(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM transactions`)
}

// CountActiveProducts counts products visible in the catalog.
func (r *Repository) CountActiveProducts(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE is_active`)
}

// CountUsers counts registered accounts.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

// PaidRevenue sums total_amount of paid transactions.
func (r *Repository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM transactions WHERE status = 'paid'`).Scan(&total)
	return total, err
}

// TransactionRows lists transactions created at or after since.
func (r *Repository) TransactionRows(ctx context.Context, since *time.Time) ([]Row, error) {
	return r.rows(ctx, `SELECT transaction_code, customer_name, created_at, total_amount
FROM transactions
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
ORDER BY created_at DESC, id DESC`, since)
}

// SalesRows lists line items of paid transactions created at or after since.
func (r *Repository) SalesRows(ctx context.Context, since *time.Time) ([]Row, error) {
	return r.rows(ctx, `SELECT t.transaction_code, ti.product_name, t.created_at, ti.subtotal
FROM transaction_items ti
JOIN transactions t ON t.id = ti.transaction_id
WHERE t.status = 'paid' AND ($1::timestamptz IS NULL OR t.created_at >= $1)
ORDER BY t.created_at DESC, ti.id`, since)
}

// ProductRows lists every product grouped by category.
func (r *Repository) ProductRows(ctx context.Context) ([]Row, error) {
	return r.rows(ctx, `SELECT 'PRD-' || id, name, created_at, price
FROM products
ORDER BY category ASC, name ASC, id ASC`)
}

func (r *Repository) rows(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var (
			out     Row
			created time.Time
		)
		if err := row.Scan(&out.Label, &out.Description, &created, &out.Amount); err != nil {
			return Row{}, err
		}
		out.Date = &created
		return out, nil
	})
}
