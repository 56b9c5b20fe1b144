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

// ColorRepository implements repository.ColorRepository using PostgreSQL.
type ColorRepository struct {
	pool database.DBTX
}

// NewColorRepository creates a new PostgreSQL-backed color repository.
func NewColorRepository(pool database.DBTX) *ColorRepository {
	return &ColorRepository{pool: pool}
}

// Create inserts a new color. Color names are unique.
func (r *ColorRepository) Create(ctx context.Context, c *domain.Color) error {
	query := `
		INSERT INTO colors (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("color", "name", c.Name)
		}
		return fmt.Errorf("insert color: %w", err)
	}

	return nil
}

// GetByID retrieves a color by ID.
func (r *ColorRepository) GetByID(ctx context.Context, id string) (*domain.Color, error) {
	query := `SELECT id, name, created_at, updated_at FROM colors WHERE id = $1`

	var c domain.Color
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("color", id)
		}
		return nil, fmt.Errorf("get color: %w", err)
	}

	return &c, nil
}

// FindManyByIDs returns the colors matching the given IDs. Missing IDs are
// simply absent from the result; the caller diffs against its input.
func (r *ColorRepository) FindManyByIDs(ctx context.Context, ids []string) ([]domain.Color, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, created_at, updated_at FROM colors WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find colors: %w", err)
	}
	defer rows.Close()

	var colors []domain.Color
	for rows.Next() {
		var c domain.Color
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan color row: %w", err)
		}
		colors = append(colors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate color rows: %w", err)
	}

	return colors, nil
}

// List returns a page of colors ordered by name, plus the total count.
func (r *ColorRepository) List(ctx context.Context, limit, offset int) ([]domain.Color, int, error) {
	query := `
		SELECT id, name, created_at, updated_at, count(*) OVER() AS total
		FROM colors
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list colors: %w", err)
	}
	defer rows.Close()

	var colors []domain.Color
	var total int

	for rows.Next() {
		var c domain.Color
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan color row: %w", err)
		}
		colors = append(colors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate color rows: %w", err)
	}

	return colors, total, nil
}

// Update renames a color.
func (r *ColorRepository) Update(ctx context.Context, c *domain.Color) error {
	query := `UPDATE colors SET name = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("color", "name", c.Name)
		}
		return fmt.Errorf("update color: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("color", c.ID)
	}

	return nil
}

// Delete removes a color.
func (r *ColorRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM colors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete color: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("color", id)
	}
	return nil
}
