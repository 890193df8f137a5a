package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/product"
)

const (
	productColumns = `id, title, price, category, image, description, rating_rate, rating_count`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listProductsByCategorySQL = `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY id`

	listCategoriesSQL = `SELECT DISTINCT category FROM products ORDER BY category`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image = EXCLUDED.image,
			description = EXCLUDED.description,
			rating_rate = EXCLUDED.rating_rate,
			rating_count = EXCLUDED.rating_count,
			updated_at = EXCLUDED.updated_at`
)

var _ product.Catalog = (*ProductRepository)(nil)

// ProductRepository serves a mirrored copy of the upstream catalog.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// FetchAll returns all mirrored products ordered by ID.
func (r *ProductRepository) FetchAll(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// FetchProduct returns a single product by its identifier.
func (r *ProductRepository) FetchProduct(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// FetchCategory returns the products in category. Unknown categories
// yield an empty list.
func (r *ProductRepository) FetchCategory(ctx context.Context, category string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByCategorySQL, category)
	if err != nil {
		return nil, errors.Wrapf(err, "list category %q", category)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrapf(err, "list category %q", category)
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}

// FetchCategories returns the distinct category names.
func (r *ProductRepository) FetchCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Upsert writes products in a single batch.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID, p.Title, p.Price, p.Category, p.Image, p.Description,
			p.Rating.Rate, p.Rating.Count,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for _, p := range products {
		if _, err := br.Exec(); err != nil {
			return errors.Wrapf(err, "upsert product %q", p.ID)
		}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Category, &p.Image, &p.Description,
		&p.Rating.Rate, &p.Rating.Count,
	)
	return p, err
}
