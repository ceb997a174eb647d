package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kedai-dimesem/storefront/internal/platform/db"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

const codeConstraint = "transactions_transaction_code_key"

// Repository exposes transaction persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context) ([]Transaction, error)
	Recent(ctx context.Context, limit int) ([]Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// TxRepository is the write surface available inside a checkout transaction.
type TxRepository interface {
	InsertTransaction(ctx context.Context, tx Transaction) (int64, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx runs fn on one pooled connection inside a database transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) InsertTransaction(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO transactions
		(user_id, transaction_code, customer_name, customer_email, customer_phone,
		 customer_address, customer_note, payment_method, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		t.UserID, t.Code, t.CustomerName, t.CustomerEmail, t.CustomerPhone,
		t.CustomerAddress, t.CustomerNote, string(t.PaymentMethod), t.TotalAmount, string(t.Status),
	).Scan(&id)
	if err != nil {
		if shared.IsUniqueViolation(err, codeConstraint) {
			return 0, ErrDuplicateCode
		}
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO transaction_items
		(transaction_id, product_id, product_name, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		item.TransactionID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Subtotal,
	).Scan(&id)
	if err != nil {
		if shared.IsForeignKeyViolation(err, "") {
			return 0, fmt.Errorf("product %d: %w", item.ProductID, ErrUnknownProduct)
		}
		return 0, fmt.Errorf("insert transaction item: %w", err)
	}
	return id, nil
}

const transactionColumns = `t.id, t.user_id, t.transaction_code, t.customer_name, t.customer_email,
	t.customer_phone, t.customer_address, t.customer_note, t.payment_method, t.total_amount,
	t.status, t.created_at, u.name, u.email`

func (r *repository) Get(ctx context.Context, id int64) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT ti.id, ti.transaction_id, ti.product_id, ti.product_name,
			p.name, ti.quantity, ti.price, ti.subtotal
		FROM transaction_items ti
		LEFT JOIN products p ON p.id = ti.product_id
		WHERE ti.transaction_id = $1
		ORDER BY ti.id`, id)
	if err != nil {
		return Transaction{}, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()
	t.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.ProductName,
			&it.CurrentProductName, &it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return Transaction{}, err
		}
		t.Items = append(t.Items, it)
	}
	return t, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Transaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC, t.id DESC`)
}

func (r *repository) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1`, limit)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) query(ctx context.Context, sql string, args ...any) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t       Transaction
		payment string
		status  string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Code, &t.CustomerName, &t.CustomerEmail,
		&t.CustomerPhone, &t.CustomerAddress, &t.CustomerNote, &payment, &t.TotalAmount,
		&status, &t.CreatedAt, &t.UserName, &t.UserEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrNotFound
		}
		return Transaction{}, err
	}
	t.PaymentMethod = PaymentMethod(payment)
	t.Status = Status(status)
	return t, nil
}

var (
	_ Repository   = (*repository)(nil)
	_ TxRepository = (*repository)(nil)
)
