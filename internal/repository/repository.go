package repository

import (
	"context"

	"github.com/threadline/catalog-service/internal/domain"
)

// ListProductsFilter narrows and paginates product listings.
type ListProductsFilter struct {
	BrandID string
	Search  string
	Limit   int
	Offset  int
}

// ProductRepository persists the Product aggregate. The variants document is
// always written as a whole; Update enforces the revision the caller loaded,
// so concurrent edits surface as a conflict instead of a lost update.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListProductsFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error

	// Reference-count queries guard deletion of Brand/Color/Size rows that
	// products still point at.
	CountByBrand(ctx context.Context, brandID string) (int, error)
	CountUsingColor(ctx context.Context, colorID string) (int, error)
	CountUsingSize(ctx context.Context, sizeID string) (int, error)
}

// BrandRepository persists brands.
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	GetByID(ctx context.Context, id string) (*domain.Brand, error)
	List(ctx context.Context, limit, offset int) ([]domain.Brand, int, error)
	Update(ctx context.Context, brand *domain.Brand) error
	Delete(ctx context.Context, id string) error
}

// ColorRepository persists colors.
type ColorRepository interface {
	Create(ctx context.Context, color *domain.Color) error
	GetByID(ctx context.Context, id string) (*domain.Color, error)
	FindManyByIDs(ctx context.Context, ids []string) ([]domain.Color, error)
	List(ctx context.Context, limit, offset int) ([]domain.Color, int, error)
	Update(ctx context.Context, color *domain.Color) error
	Delete(ctx context.Context, id string) error
}

// SizeRepository persists sizes.
type SizeRepository interface {
	Create(ctx context.Context, size *domain.Size) error
	GetByID(ctx context.Context, id string) (*domain.Size, error)
	FindManyByIDs(ctx context.Context, ids []string) ([]domain.Size, error)
	List(ctx context.Context, limit, offset int) ([]domain.Size, int, error)
	Update(ctx context.Context, size *domain.Size) error
	Delete(ctx context.Context, id string) error
}

// ProductCache is a read-through cache in front of ProductRepository.GetByID.
// A cache miss or error never fails the request.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}
