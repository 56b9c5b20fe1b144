package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/repository"
	"github.com/threadline/catalog-service/pkg/database"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// The variant collection is stored as a JSONB document on the product row, so
// every save replaces the whole variant array atomically.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product with its full variant document.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	variantsJSON, err := json.Marshal(p.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}

	query := `
		INSERT INTO products (id, name, brand_id, variants, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.BrandID,
		variantsJSON,
		p.Revision,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product and unmarshals its variant document.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, brand_id, variants, revision, created_at, updated_at
		FROM products
		WHERE id = $1`

	p, err := r.scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

// List returns a page of products plus the unpaginated total, optionally
// filtered by brand and a case-insensitive name search.
func (r *ProductRepository) List(ctx context.Context, filter repository.ListProductsFilter) ([]domain.Product, int, error) {
	query := `
		SELECT id, name, brand_id, variants, revision, created_at, updated_at,
		       count(*) OVER() AS total
		FROM products
		WHERE ($1 = '' OR brand_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.BrandID, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	var total int

	for rows.Next() {
		var p domain.Product
		var variantsJSON []byte

		if err := rows.Scan(
			&p.ID, &p.Name, &p.BrandID, &variantsJSON,
			&p.Revision, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}

		if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
			return nil, 0, fmt.Errorf("unmarshal variants: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// Update replaces the product row, including the whole variant document,
// guarded by the revision the caller loaded. A concurrent write bumps the
// revision and makes this update match zero rows.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	variantsJSON, err := json.Marshal(p.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}

	query := `
		UPDATE products
		SET name = $2, brand_id = $3, variants = $4, revision = revision + 1, updated_at = $5
		WHERE id = $1 AND revision = $6`

	tag, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.BrandID,
		variantsJSON,
		p.UpdatedAt,
		p.Revision,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the product is gone or someone else wrote first.
		if _, getErr := r.GetByID(ctx, p.ID); getErr != nil {
			return getErr
		}
		return apperrors.Conflict(fmt.Sprintf("product %s was modified concurrently", p.ID))
	}

	p.Revision++
	return nil
}

// Delete removes the product row.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// CountByBrand counts products referencing the given brand.
func (r *ProductRepository) CountByBrand(ctx context.Context, brandID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE brand_id = $1`, brandID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products by brand: %w", err)
	}
	return count, nil
}

// CountUsingColor counts products with at least one variant referencing the
// given color, by probing the variants JSONB document.
func (r *ProductRepository) CountUsingColor(ctx context.Context, colorID string) (int, error) {
	query := `
		SELECT count(*)
		FROM products
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(variants) AS v
			WHERE v->'color_ids' @> to_jsonb($1::text)
		)`

	var count int
	if err := r.pool.QueryRow(ctx, query, colorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products using color: %w", err)
	}
	return count, nil
}

// CountUsingSize counts products with at least one variant referencing the
// given size.
func (r *ProductRepository) CountUsingSize(ctx context.Context, sizeID string) (int, error) {
	query := `
		SELECT count(*)
		FROM products
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(variants) AS v
			WHERE v->>'size_id' = $1
		)`

	var count int
	if err := r.pool.QueryRow(ctx, query, sizeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products using size: %w", err)
	}
	return count, nil
}

func (r *ProductRepository) scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var variantsJSON []byte

	if err := row.Scan(
		&p.ID, &p.Name, &p.BrandID, &variantsJSON,
		&p.Revision, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
		return nil, fmt.Errorf("unmarshal variants: %w", err)
	}

	return &p, nil
}
