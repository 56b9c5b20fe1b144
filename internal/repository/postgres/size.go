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

// SizeRepository implements repository.SizeRepository using PostgreSQL.
type SizeRepository struct {
	pool database.DBTX
}

// NewSizeRepository creates a new PostgreSQL-backed size repository.
func NewSizeRepository(pool database.DBTX) *SizeRepository {
	return &SizeRepository{pool: pool}
}

// Create inserts a new size. Size names are unique.
func (r *SizeRepository) Create(ctx context.Context, s *domain.Size) error {
	query := `
		INSERT INTO sizes (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("size", "name", s.Name)
		}
		return fmt.Errorf("insert size: %w", err)
	}

	return nil
}

// GetByID retrieves a size by ID.
func (r *SizeRepository) GetByID(ctx context.Context, id string) (*domain.Size, error) {
	query := `SELECT id, name, created_at, updated_at FROM sizes WHERE id = $1`

	var s domain.Size
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("size", id)
		}
		return nil, fmt.Errorf("get size: %w", err)
	}

	return &s, nil
}

// FindManyByIDs returns the sizes matching the given IDs. Missing IDs are
// simply absent from the result; the caller diffs against its input.
func (r *SizeRepository) FindManyByIDs(ctx context.Context, ids []string) ([]domain.Size, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, created_at, updated_at FROM sizes WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find sizes: %w", err)
	}
	defer rows.Close()

	var sizes []domain.Size
	for rows.Next() {
		var s domain.Size
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan size row: %w", err)
		}
		sizes = append(sizes, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate size rows: %w", err)
	}

	return sizes, nil
}

// List returns a page of sizes ordered by name, plus the total count.
func (r *SizeRepository) List(ctx context.Context, limit, offset int) ([]domain.Size, int, error) {
	query := `
		SELECT id, name, created_at, updated_at, count(*) OVER() AS total
		FROM sizes
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sizes: %w", err)
	}
	defer rows.Close()

	var sizes []domain.Size
	var total int

	for rows.Next() {
		var s domain.Size
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan size row: %w", err)
		}
		sizes = append(sizes, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate size rows: %w", err)
	}

	return sizes, total, nil
}

// Update renames a size.
func (r *SizeRepository) Update(ctx context.Context, s *domain.Size) error {
	query := `UPDATE sizes SET name = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("size", "name", s.Name)
		}
		return fmt.Errorf("update size: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("size", s.ID)
	}

	return nil
}

// Delete removes a size.
func (r *SizeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sizes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete size: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("size", id)
	}
	return nil
}
