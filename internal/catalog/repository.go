package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kedai-dimesem/storefront/internal/platform/db"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// Repository defines product persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, in CreateInput, image *string) (Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	// LockForDelete row-locks the product, returning shared.ErrNotFound when absent.
	LockForDelete(ctx context.Context, id int64) (Product, error)
	CountItemReferences(ctx context.Context, id int64) (int64, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const productColumns = `id, name, description, price, image, category, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	search := strings.TrimSpace(filter.Search)
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR name ILIKE $2 OR category ILIKE $2)
		  AND ($3 = '' OR LOWER(category) = LOWER($3))
		  AND ($4::boolean IS NULL OR is_active = $4)
		ORDER BY created_at DESC, id DESC`,
		search, likePattern(search), strings.TrimSpace(filter.Category), filter.activeFlag(),
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, in CreateInput, image *string) (Product, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO products (name, description, price, image, category)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+productColumns,
		in.Name, in.Description, in.Price, image, in.Category,
	)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Update applies every non-nil patch field and always refreshes updated_at.
func (r *repository) Update(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	row := r.db.QueryRow(ctx, `UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4, price),
			category    = COALESCE($5, category),
			is_active   = COALESCE($6, is_active),
			image       = COALESCE($7, image),
			updated_at  = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, patch.Name, patch.Description, patch.Price, patch.Category, patch.IsActive, patch.image,
	)
	return scanProduct(row)
}

func (r *repository) LockForDelete(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) CountItemReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_items WHERE product_id = $1`, id).Scan(&count)
	return count, err
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
