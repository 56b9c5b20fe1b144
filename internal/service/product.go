package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threadline/catalog-service/internal/assetstore"
	"github.com/threadline/catalog-service/internal/domain"
	"github.com/threadline/catalog-service/internal/event"
	"github.com/threadline/catalog-service/internal/repository"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

// CreateProductInput holds the fields for creating a product.
type CreateProductInput struct {
	Name     string         `json:"name" validate:"required"`
	BrandID  string         `json:"brand_id" validate:"required"`
	Variants []VariantInput `json:"variants" validate:"required,min=1,dive"`
}

// UpdateProductInput holds the fields for a partial product update. Nil
// fields are left untouched.
type UpdateProductInput struct {
	Name     *string        `json:"name"`
	BrandID  *string        `json:"brand_id"`
	Variants []VariantPatch `json:"variants"`
}

// ProductService coordinates every product mutation: references are
// validated and duplicate combinations detected before any asset upload, so
// a rejected request never consumes external storage. Uploads that precede
// a later failure are compensated with a best-effort deletion sweep.
type ProductService struct {
	products  repository.ProductRepository
	cache     repository.ProductCache
	refs      *ReferenceValidator
	assembler *VariantAssembler
	assets    assetstore.Store
	events    *event.Producer
	logger    *slog.Logger
}

// NewProductService creates the product service. cache and events may be
// nil, in which case caching and event publishing are skipped.
func NewProductService(
	products repository.ProductRepository,
	cache repository.ProductCache,
	refs *ReferenceValidator,
	assembler *VariantAssembler,
	assets assetstore.Store,
	events *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:  products,
		cache:     cache,
		refs:      refs,
		assembler: assembler,
		assets:    assets,
		events:    events,
		logger:    logger,
	}
}

// Create validates, uploads, assembles, and persists a new product.
// Validation and duplicate detection run before the first upload; if the
// persistence write fails afterwards, every uploaded asset is deleted again.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput, files []ImageFile) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.BrandID == "" {
		return nil, apperrors.InvalidInput("brand id is required")
	}
	if len(input.Variants) == 0 {
		return nil, apperrors.InvalidInput("at least one variant is required")
	}
	for _, v := range input.Variants {
		if v.SizeID == "" {
			return nil, apperrors.InvalidInput("variant size is required")
		}
		if v.Stock < 0 {
			return nil, apperrors.InvalidInput("variant stock must not be negative")
		}
	}

	groups, err := s.assembler.GroupFiles(len(input.Variants), files, true)
	if err != nil {
		return nil, err
	}

	colorIDs, sizeIDs := refsFromInputs(input.Variants)
	if err := s.refs.ValidateReferences(ctx, input.BrandID, colorIDs, sizeIDs); err != nil {
		return nil, err
	}

	prospective := make([]domain.Variant, 0, len(input.Variants))
	for _, in := range input.Variants {
		prospective = append(prospective, domain.Variant{SizeID: in.SizeID, ColorIDs: in.ColorIDs})
	}
	if err := domain.DetectDuplicateVariants(prospective); err != nil {
		return nil, mapDomainError(err)
	}

	uploaded, uploadedIDs, err := s.uploadGroups(ctx, groups)
	if err != nil {
		s.cleanupAssets(ctx, uploadedIDs)
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New().String(),
		Name:      input.Name,
		BrandID:   input.BrandID,
		Variants:  s.assembler.AssembleForCreate(input.Variants, uploaded),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.cleanupAssets(ctx, uploadedIDs)
		return nil, err
	}

	s.publishCreated(ctx, product)
	return product, nil
}

// Get returns a product, reading through the cache when one is configured.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if p, err := s.cache.Get(ctx, id); err == nil {
			return p, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "product cache read failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.logger.WarnContext(ctx, "product cache write failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return p, nil
}

// List returns a page of products and the unpaginated total.
func (s *ProductService) List(ctx context.Context, filter repository.ListProductsFilter) ([]domain.Product, int, error) {
	filter.Limit = clampLimit(filter.Limit)
	filter.Offset = clampOffset(filter.Offset)
	return s.products.List(ctx, filter)
}

// Update applies a partial update. Variant patches are merged with the
// existing set and the whole resulting array is validated before anything
// is written; the write replaces the variant document atomically under a
// revision check. Galleries superseded by new uploads are deleted from the
// asset store only after the write succeeds.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput, files []ImageFile) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(files) > 0 && len(input.Variants) == 0 {
		return nil, apperrors.InvalidInput("uploaded images require variant patches to attach to")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
	}

	brandID := ""
	if input.BrandID != nil {
		if *input.BrandID == "" {
			return nil, apperrors.InvalidInput("brand id must not be empty")
		}
		if *input.BrandID != product.BrandID {
			brandID = *input.BrandID
		}
	}

	var colorIDs, sizeIDs []string
	for _, patch := range input.Variants {
		// A patch without a variant ID appends a new variant and is
		// validated on its own: it must carry a resolvable size.
		if patch.VariantID == "" {
			var sizeID string
			if patch.SizeID != nil {
				sizeID = *patch.SizeID
			}
			var patchColors []string
			if patch.ColorIDs != nil {
				patchColors = *patch.ColorIDs
			}
			if err := s.refs.ValidateSingleVariant(ctx, sizeID, patchColors, patch.Stock); err != nil {
				return nil, err
			}
			continue
		}

		if patch.Stock != nil && *patch.Stock < 0 {
			return nil, apperrors.InvalidInput("variant stock must not be negative")
		}
		if patch.SizeID != nil && *patch.SizeID != "" {
			sizeIDs = append(sizeIDs, *patch.SizeID)
		}
		if patch.ColorIDs != nil {
			colorIDs = append(colorIDs, *patch.ColorIDs...)
		}
	}
	if brandID != "" || len(colorIDs) > 0 || len(sizeIDs) > 0 {
		if err := s.refs.ValidateReferences(ctx, brandID, colorIDs, sizeIDs); err != nil {
			return nil, err
		}
	}
	if input.BrandID != nil {
		product.BrandID = *input.BrandID
	}

	var supersededIDs, newAssetIDs []string
	if len(input.Variants) > 0 {
		groups, err := s.assembler.GroupFiles(len(input.Variants), files, false)
		if err != nil {
			return nil, err
		}

		// Dry-run merge with no uploads: catches unknown variant IDs and
		// duplicate combinations before any asset is consumed.
		emptyGroups := make([][]assetstore.Asset, len(input.Variants))
		dryRun, _, err := s.assembler.AssembleForUpdate(product.Variants, input.Variants, emptyGroups)
		if err != nil {
			return nil, mapDomainError(err)
		}
		if err := domain.DetectDuplicateVariants(dryRun); err != nil {
			return nil, mapDomainError(err)
		}

		uploaded, uploadedIDs, err := s.uploadGroups(ctx, groups)
		if err != nil {
			s.cleanupAssets(ctx, uploadedIDs)
			return nil, err
		}
		newAssetIDs = uploadedIDs

		assembled, superseded, err := s.assembler.AssembleForUpdate(product.Variants, input.Variants, uploaded)
		if err != nil {
			s.cleanupAssets(ctx, newAssetIDs)
			return nil, mapDomainError(err)
		}
		product.Variants = assembled
		supersededIDs = superseded
	}

	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		s.cleanupAssets(ctx, newAssetIDs)
		return nil, err
	}

	s.cleanupAssets(ctx, supersededIDs)
	s.invalidateCache(ctx, product.ID)
	s.publishUpdated(ctx, product)
	return product, nil
}

// Delete removes a product, cascading deletion of every variant image in
// the asset store. Asset deletions are best-effort; the record is removed
// regardless.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.cleanupAssets(ctx, product.AssetIDs())

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	s.publishDeleted(ctx, id)
	return nil
}

// ReplaceVariantImages replaces one variant's entire gallery. The new files
// are uploaded and persisted first; the prior assets are deleted only after
// the write succeeds, so a failed replace never leaves the variant pointing
// at destroyed images.
func (s *ProductService) ReplaceVariantImages(ctx context.Context, productID, variantID string, files []ImageFile) (*domain.Product, error) {
	if len(files) == 0 {
		return nil, apperrors.InvalidInputCode("MISSING_IMAGES", "at least one image is required")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	idx := product.FindVariant(variantID)
	if idx == -1 {
		return nil, apperrors.NotFound("variant", variantID)
	}

	var oldAssetIDs []string
	for _, img := range product.Variants[idx].Images {
		if img.AssetID != "" {
			oldAssetIDs = append(oldAssetIDs, img.AssetID)
		}
	}

	uploaded, uploadedIDs, err := s.uploadGroups(ctx, [][]ImageFile{files})
	if err != nil {
		s.cleanupAssets(ctx, uploadedIDs)
		return nil, err
	}

	product.Variants[idx].Images = s.assembler.BuildImages(uploaded[0])
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		s.cleanupAssets(ctx, uploadedIDs)
		return nil, err
	}

	s.cleanupAssets(ctx, oldAssetIDs)
	s.invalidateCache(ctx, productID)
	s.publishUpdated(ctx, product)
	return product, nil
}

// uploadGroups pushes every matched file to the asset store, returning the
// resulting assets aligned with the input groups plus the flat list of
// uploaded asset IDs for compensation on later failure.
func (s *ProductService) uploadGroups(ctx context.Context, groups [][]ImageFile) ([][]assetstore.Asset, []string, error) {
	uploaded := make([][]assetstore.Asset, len(groups))
	var uploadedIDs []string

	for i, group := range groups {
		for _, file := range group {
			asset, err := s.assets.Upload(ctx, &assetstore.UploadInput{
				Folder:      "products",
				Filename:    file.Filename,
				ContentType: file.ContentType,
				Size:        file.Size,
				Data:        file.Data,
			})
			if err != nil {
				return nil, uploadedIDs, fmt.Errorf("upload image %q: %w", file.Filename, err)
			}
			uploaded[i] = append(uploaded[i], *asset)
			uploadedIDs = append(uploadedIDs, asset.AssetID)
		}
	}

	return uploaded, uploadedIDs, nil
}

// cleanupAssets deletes assets concurrently, attempting every one even if
// some fail. Failures are logged and swallowed.
func (s *ProductService) cleanupAssets(ctx context.Context, assetIDs []string) {
	if len(assetIDs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, id := range assetIDs {
		wg.Add(1)
		go func(assetID string) {
			defer wg.Done()
			if err := s.assets.Delete(ctx, assetID); err != nil {
				s.logger.WarnContext(ctx, "asset cleanup failed",
					slog.String("asset_id", assetID),
					slog.String("error", err.Error()),
				)
			}
		}(id)
	}
	wg.Wait()
}

func (s *ProductService) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publishCreated(ctx context.Context, p *domain.Product) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductCreated(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product created event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publishUpdated(ctx context.Context, p *domain.Product) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductUpdated(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product updated event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) publishDeleted(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductDeleted(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// refsFromInputs collects the distinct color and size references across
// create inputs.
func refsFromInputs(inputs []VariantInput) (colorIDs, sizeIDs []string) {
	variants := make([]domain.Variant, 0, len(inputs))
	for _, in := range inputs {
		variants = append(variants, domain.Variant{SizeID: in.SizeID, ColorIDs: in.ColorIDs})
	}
	return domain.ColorAndSizeRefs(variants)
}

// mapDomainError translates typed domain errors into API errors.
func mapDomainError(err error) error {
	var dup *domain.DuplicateVariantError
	if errors.As(err, &dup) {
		return apperrors.InvalidInputCode("DUPLICATE_VARIANT", dup.Error())
	}
	var notFound *domain.VariantNotFoundError
	if errors.As(err, &notFound) {
		return apperrors.NotFound("variant", notFound.VariantID)
	}
	return err
}
