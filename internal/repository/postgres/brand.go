package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/pkg/database"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// BrandRepository implements repository.BrandRepository using PostgreSQL.
type BrandRepository struct {
	pool database.DBTX
}

// NewBrandRepository creates a new PostgreSQL-backed brand repository.
func NewBrandRepository(pool database.DBTX) *BrandRepository {
	return &BrandRepository{pool: pool}
}

// Create inserts a new brand. Brand names are unique.
func (r *BrandRepository) Create(ctx context.Context, b *domain.Brand) error {
	query := `
		INSERT INTO brands (id, name, logo_url, logo_asset_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.Name, b.LogoURL, b.LogoAssetID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("brand", "name", b.Name)
		}
		return fmt.Errorf("insert brand: %w", err)
	}

	return nil
}

// GetByID retrieves a brand by ID.
func (r *BrandRepository) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	query := `
		SELECT id, name, logo_url, logo_asset_id, created_at, updated_at
		FROM brands
		WHERE id = $1`

	var b domain.Brand
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.LogoURL, &b.LogoAssetID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("brand", id)
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}

	return &b, nil
}

// List returns a page of brands ordered by name, plus the total count.
func (r *BrandRepository) List(ctx context.Context, limit, offset int) ([]domain.Brand, int, error) {
	query := `
		SELECT id, name, logo_url, logo_asset_id, created_at, updated_at,
		       count(*) OVER() AS total
		FROM brands
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []domain.Brand
	var total int

	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(
			&b.ID, &b.Name, &b.LogoURL, &b.LogoAssetID, &b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan brand row: %w", err)
		}
		brands = append(brands, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate brand rows: %w", err)
	}

	return brands, total, nil
}

// Update replaces the brand's mutable fields.
func (r *BrandRepository) Update(ctx context.Context, b *domain.Brand) error {
	query := `
		UPDATE brands
		SET name = $2, logo_url = $3, logo_asset_id = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		b.ID, b.Name, b.LogoURL, b.LogoAssetID, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("brand", "name", b.Name)
		}
		return fmt.Errorf("update brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("brand", b.ID)
	}

	return nil
}

// Delete removes a brand.
func (r *BrandRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("brand", id)
	}
	return nil
}
