package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/threadline/catalog-service/internal/assetstore"
	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/event"
	"github.com/threadline/catalog-service/internal/repository"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// BrandService manages brands and their logo assets.
type BrandService struct {
	brands   repository.BrandRepository
	products repository.ProductRepository
	assets   assetstore.Store
	events   *event.Producer
	logger   *slog.Logger
}

// NewBrandService creates the brand service. events may be nil, in which
// case event publishing is skipped.
func NewBrandService(
	brands repository.BrandRepository,
	products repository.ProductRepository,
	assets assetstore.Store,
	events *event.Producer,
	logger *slog.Logger,
) *BrandService {
	return &BrandService{
		brands:   brands,
		products: products,
		assets:   assets,
		events:   events,
		logger:   logger,
	}
}

// Create inserts a brand, uploading its logo first. A brand is never created
// without one. If the insert fails the uploaded logo is deleted again.
func (s *BrandService) Create(ctx context.Context, name string, logo *ImageFile) (*domain.Brand, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("brand name is required")
	}
	if logo == nil {
		return nil, apperrors.InvalidInputCode("MISSING_LOGO", "brand logo is required")
	}

	now := time.Now().UTC()
	brand := &domain.Brand{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	asset, err := s.uploadLogo(ctx, logo)
	if err != nil {
		return nil, err
	}
	brand.LogoURL = asset.URL
	brand.LogoAssetID = asset.AssetID

	if err := s.brands.Create(ctx, brand); err != nil {
		s.deleteAsset(ctx, brand.LogoAssetID)
		return nil, err
	}

	s.publishEvent(ctx, brand.ID, func() error { return s.events.PublishBrandCreated(ctx, brand) })
	return brand, nil
}

// Get returns a brand by ID.
func (s *BrandService) Get(ctx context.Context, id string) (*domain.Brand, error) {
	return s.brands.GetByID(ctx, id)
}

// List returns a page of brands and the unpaginated total.
func (s *BrandService) List(ctx context.Context, limit, offset int) ([]domain.Brand, int, error) {
	return s.brands.List(ctx, clampLimit(limit), clampOffset(offset))
}

// Update renames a brand and/or replaces its logo. A new logo is uploaded
// and persisted before the old asset is deleted, so a failed update leaves
// the brand's existing logo intact.
func (s *BrandService) Update(ctx context.Context, id string, name *string, logo *ImageFile) (*domain.Brand, error) {
	brand, err := s.brands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, apperrors.InvalidInput("brand name must not be empty")
		}
		brand.Name = *name
	}

	oldAssetID := ""
	if logo != nil {
		asset, err := s.uploadLogo(ctx, logo)
		if err != nil {
			return nil, err
		}
		oldAssetID = brand.LogoAssetID
		brand.LogoURL = asset.URL
		brand.LogoAssetID = asset.AssetID
	}

	brand.UpdatedAt = time.Now().UTC()

	if err := s.brands.Update(ctx, brand); err != nil {
		if logo != nil {
			s.deleteAsset(ctx, brand.LogoAssetID)
		}
		return nil, err
	}

	s.deleteAsset(ctx, oldAssetID)
	s.publishEvent(ctx, brand.ID, func() error { return s.events.PublishBrandUpdated(ctx, brand) })
	return brand, nil
}

// Delete removes a brand unless any product still references it, then
// deletes its logo asset best-effort.
func (s *BrandService) Delete(ctx context.Context, id string) error {
	brand, err := s.brands.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.products.CountByBrand(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Sprintf("brand %s is referenced by %d products", id, count))
	}

	if err := s.brands.Delete(ctx, id); err != nil {
		return err
	}

	s.deleteAsset(ctx, brand.LogoAssetID)
	s.publishEvent(ctx, id, func() error { return s.events.PublishBrandDeleted(ctx, id) })
	return nil
}

// publishEvent fires a domain event best-effort; publish failures are logged
// and never fail the mutation that already persisted.
func (s *BrandService) publishEvent(ctx context.Context, brandID string, publish func() error) {
	if s.events == nil {
		return
	}
	if err := publish(); err != nil {
		s.logger.WarnContext(ctx, "failed to publish brand event",
			slog.String("brand_id", brandID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BrandService) uploadLogo(ctx context.Context, logo *ImageFile) (*assetstore.Asset, error) {
	asset, err := s.assets.Upload(ctx, &assetstore.UploadInput{
		Folder:      "brands",
		Filename:    logo.Filename,
		ContentType: logo.ContentType,
		Size:        logo.Size,
		Data:        logo.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload brand logo: %w", err)
	}
	return asset, nil
}

func (s *BrandService) deleteAsset(ctx context.Context, assetID string) {
	if assetID == "" {
		return
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		s.logger.WarnContext(ctx, "brand logo cleanup failed",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}
